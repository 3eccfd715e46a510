// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a registry document and rejects duplicate task types.
func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode activity registry: %w", err)
	}

	seen := make(map[string]string, len(reg.Activities))
	for _, a := range reg.Activities {
		if a.TaskType == "" {
			return nil, fmt.Errorf("activity %q has no taskType", a.ID)
		}
		if prev, ok := seen[a.TaskType]; ok {
			return nil, fmt.Errorf("taskType %q declared by both %q and %q", a.TaskType, prev, a.ID)
		}
		seen[a.TaskType] = a.ID
	}
	return &reg, nil
}

func (r *ActivityRegistry) FindByTaskType(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// ByCategory groups activity task types by category.
func (r *ActivityRegistry) ByCategory() map[string][]string {
	out := make(map[string][]string)
	for _, a := range r.Activities {
		out[a.Category] = append(out[a.Category], a.TaskType)
	}
	return out
}
