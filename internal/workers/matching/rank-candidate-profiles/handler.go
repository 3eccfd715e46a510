// internal/workers/matching/rank-candidate-profiles/handler.go
package rankcandidateprofiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "mealmatch-workers/internal/common/errors"
	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/common/metrics"
	"mealmatch-workers/internal/compatibility"
	"mealmatch-workers/internal/models"
	"mealmatch-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "rank-candidate-profiles"
)

type CandidateStore interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	CandidatePool(ctx context.Context, userID string) ([]models.UserProfile, error)
}

type ProfileRanker interface {
	Rank(ctx context.Context, current *models.UserProfile, candidates []models.UserProfile) []compatibility.RankedProfile
}

type Handler struct {
	config       *Config
	store        CandidateStore
	ranker       ProfileRanker
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, store CandidateStore, ranker ProfileRanker, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		store:        store,
		ranker:       ranker,
		errorHandler: apperrors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(ctx context.Context, client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job,
			apperrors.NewInputValidationFailedError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	execCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	output, err := h.execute(execCtx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()

	current := input.CurrentUser
	if current == nil {
		if input.UserID == "" {
			return nil, apperrors.NewInputValidationFailedError("userId is required")
		}
		p, err := h.store.GetProfile(ctx, input.UserID)
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewUserNotFoundError(input.UserID)
		}
		if err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("user_profile", err)
		}
		current = p
	}

	candidates := input.Candidates
	if candidates == nil {
		pool, err := h.store.CandidatePool(ctx, current.ID)
		if err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("candidate_pool", err)
		}
		candidates = pool
	}

	ranked := h.ranker.Rank(ctx, current, candidates)
	if ctx.Err() != nil {
		h.logger.Warn("ranking finished past job deadline", map[string]interface{}{
			"userId":     current.ID,
			"candidates": len(candidates),
			"timeout":    h.config.Timeout.String(),
		})
	}

	total := len(ranked)
	if limit := h.maxItems(input); limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	elapsed := time.Since(start)
	if elapsed > h.config.LatencyThreshold {
		h.logger.Warn("ranking exceeded latency threshold", map[string]interface{}{
			"userId":     current.ID,
			"candidates": total,
			"durationMs": elapsed.Milliseconds(),
			"threshold":  h.config.LatencyThreshold.String(),
		})
	}

	h.logger.Info("candidates ranked", map[string]interface{}{
		"userId":   current.ID,
		"total":    total,
		"returned": len(ranked),
	})

	return &Output{Users: ranked, Total: total}, nil
}

func (h *Handler) maxItems(input *Input) int {
	if input.MaxItems > 0 {
		return input.MaxItems
	}
	return h.config.MaxItems
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
