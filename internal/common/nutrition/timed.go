package nutrition

import (
	"context"
	"errors"
	"time"

	"mealmatch-workers/internal/models"
)

type DurationRecorder interface {
	RecordLookupDuration(ctx context.Context, duration time.Duration, outcome string)
}

// TimedLookup reports the latency of every call to next.
type TimedLookup struct {
	next     Lookuper
	recorder DurationRecorder
}

func NewTimedLookup(next Lookuper, recorder DurationRecorder) *TimedLookup {
	return &TimedLookup{next: next, recorder: recorder}
}

func (t *TimedLookup) Lookup(ctx context.Context, query string) ([]models.NutritionItem, error) {
	start := time.Now()
	items, err := t.next.Lookup(ctx, query)

	outcome := "ok"
	switch {
	case errors.Is(err, ErrCircuitOpen):
		outcome = "rejected"
	case err != nil:
		outcome = "error"
	case len(items) == 0:
		outcome = "empty"
	}
	t.recorder.RecordLookupDuration(ctx, time.Since(start), outcome)
	return items, err
}
