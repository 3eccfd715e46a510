package compatibility

import (
	"context"
	"sort"
	"time"

	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// PairScorer is satisfied by *Scorer.
type PairScorer interface {
	Score(ctx context.Context, current, other *models.UserProfile) Result
}

type Ranker struct {
	scorer        PairScorer
	maxConcurrent int
	logger        logger.Logger
	tracer        trace.Tracer
}

// NewRanker bounds the number of candidates scored at once, and with it the
// number of outstanding nutrition lookups, to maxConcurrent.
func NewRanker(scorer PairScorer, maxConcurrent int, log logger.Logger) *Ranker {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Ranker{
		scorer:        scorer,
		maxConcurrent: maxConcurrent,
		logger:        log,
		tracer:        otel.Tracer(tracerName),
	}
}

// Rank scores every candidate against current and returns them by descending
// score. Ties keep their pool order.
func (r *Ranker) Rank(ctx context.Context, current *models.UserProfile, candidates []models.UserProfile) []RankedProfile {
	ctx, span := r.tracer.Start(ctx, "compatibility.Rank", trace.WithAttributes(
		attribute.String("user.current", current.ID),
		attribute.Int("candidates", len(candidates)),
	))
	defer span.End()

	start := time.Now()
	ranked := make([]RankedProfile, len(candidates))

	var g errgroup.Group
	g.SetLimit(r.maxConcurrent)
	for i := range candidates {
		g.Go(func() error {
			ranked[i] = RankedProfile{
				UserProfile:        candidates[i],
				CompatibilityScore: r.scorer.Score(ctx, current, &candidates[i]),
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].CompatibilityScore.Score > ranked[b].CompatibilityScore.Score
	})

	r.logger.Info("candidates ranked", map[string]interface{}{
		"userId":     current.ID,
		"count":      len(ranked),
		"durationMs": time.Since(start).Milliseconds(),
	})

	return ranked
}
