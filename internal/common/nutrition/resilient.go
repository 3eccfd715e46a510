package nutrition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/common/metrics"
	"mealmatch-workers/internal/models"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("nutrition api circuit breaker open")

type ResilienceConfig struct {
	RateLimit    float64 // requests per second
	Burst        int
	MaxRequests  uint32 // probes allowed while half-open
	Interval     time.Duration
	Timeout      time.Duration // open -> half-open
	MinRequests  uint32
	FailureRatio float64
}

// ResilientLookup rate limits calls to next and trips a breaker when the
// failure ratio crosses the configured threshold.
type ResilientLookup struct {
	next    Lookuper
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]models.NutritionItem]
	logger  logger.Logger
}

func NewResilientLookup(next Lookuper, cfg ResilienceConfig, log logger.Logger) *ResilientLookup {
	r := &ResilientLookup{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		logger:  log,
	}

	r.breaker = gobreaker.NewCircuitBreaker[[]models.NutritionItem](gobreaker.Settings{
		Name:        "nutrition-api",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// the caller giving up says nothing about upstream health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.NutritionCircuitBreakerState.Set(stateValue(to))
			log.Warn("circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})
	metrics.NutritionCircuitBreakerState.Set(0)

	return r
}

func (r *ResilientLookup) Lookup(ctx context.Context, query string) ([]models.NutritionItem, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		metrics.NutritionLookups.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("nutrition rate limit: %w", err)
	}

	items, err := r.breaker.Execute(func() ([]models.NutritionItem, error) {
		return r.next.Lookup(ctx, query)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.NutritionLookups.WithLabelValues("rejected").Inc()
		return nil, ErrCircuitOpen
	}
	if err != nil {
		metrics.NutritionLookups.WithLabelValues("error").Inc()
		return nil, err
	}
	if len(items) == 0 {
		metrics.NutritionLookups.WithLabelValues("empty").Inc()
	} else {
		metrics.NutritionLookups.WithLabelValues("ok").Inc()
	}
	return items, nil
}

// State exposes the breaker state for readiness reporting.
func (r *ResilientLookup) State() gobreaker.State {
	return r.breaker.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
