package validation

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"mealmatch-workers/pkg/registry"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (vr *ValidationResult) GetErrorMessages() []string {
	out := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		out = append(out, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return out
}

// Summary joins every error message into one line.
func (vr *ValidationResult) Summary() string {
	return strings.Join(vr.GetErrorMessages(), "; ")
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, e := range vr.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Validator holds compiled input schemas keyed by task type.
type Validator struct {
	mu      sync.RWMutex
	schemas map[string]*gojsonschema.Schema
}

func NewValidator() *Validator {
	return &Validator{schemas: make(map[string]*gojsonschema.Schema)}
}

// LoadFromRegistry compiles the input schema of every activity in reg.
func (v *Validator) LoadFromRegistry(reg *registry.ActivityRegistry) error {
	for _, a := range reg.Activities {
		if len(a.InputSchema) == 0 {
			continue
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(a.InputSchema))
		if err != nil {
			return fmt.Errorf("compile input schema for %s: %w", a.TaskType, err)
		}
		v.mu.Lock()
		v.schemas[a.TaskType] = schema
		v.mu.Unlock()
	}
	return nil
}

// EnsureSchema registers schemaJSON for taskType unless one is already loaded.
func (v *Validator) EnsureSchema(taskType, schemaJSON string) error {
	v.mu.RLock()
	_, exists := v.schemas[taskType]
	v.mu.RUnlock()
	if exists {
		return nil
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", taskType, err)
	}

	v.mu.Lock()
	if _, exists := v.schemas[taskType]; !exists {
		v.schemas[taskType] = schema
	}
	v.mu.Unlock()
	return nil
}

func (v *Validator) HasSchema(taskType string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.schemas[taskType]
	return ok
}

// ValidateJSON validates a raw JSON document. A task type without a schema
// always validates.
func (v *Validator) ValidateJSON(taskType, document string) (*ValidationResult, error) {
	return v.validate(taskType, gojsonschema.NewStringLoader(document))
}

// ValidateObject validates an already decoded Go value.
func (v *Validator) ValidateObject(taskType string, document interface{}) (*ValidationResult, error) {
	return v.validate(taskType, gojsonschema.NewGoLoader(document))
}

func (v *Validator) validate(taskType string, loader gojsonschema.JSONLoader) (*ValidationResult, error) {
	v.mu.RLock()
	schema, ok := v.schemas[taskType]
	v.mu.RUnlock()
	if !ok {
		return &ValidationResult{Valid: true}, nil
	}

	result, err := schema.Validate(loader)
	if err != nil {
		return nil, fmt.Errorf("validate %s input: %w", taskType, err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, re := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   re.Field(),
			Message: re.Description(),
			Code:    strings.ToUpper(re.Type()),
		})
	}
	return out, nil
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

var phoneRegex = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// ValidatePhone accepts E.164 numbers, the format SNS expects.
func ValidatePhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}
