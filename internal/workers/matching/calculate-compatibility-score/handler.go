// internal/workers/matching/calculate-compatibility-score/handler.go
package calculatecompatibilityscore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

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
	TaskType = "calculate-compatibility-score"
)

type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

type Handler struct {
	config       *Config
	store        ProfileStore
	scorer       compatibility.PairScorer
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, store ProfileStore, scorer compatibility.PairScorer, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		store:        store,
		scorer:       scorer,
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
	current, err := h.resolveProfile(ctx, input.CurrentUser, input.CurrentUserID, "currentUserId")
	if err != nil {
		return nil, err
	}
	other, err := h.resolveProfile(ctx, input.OtherUser, input.OtherUserID, "otherUserId")
	if err != nil {
		return nil, err
	}

	result := h.scorer.Score(ctx, current, other)

	h.logger.Info("compatibility score calculated", map[string]interface{}{
		"currentUserId":  current.ID,
		"otherUserId":    other.ID,
		"score":          result.Score,
		"goalCompletion": result.GoalCompletion,
	})

	return &Output{
		CompatibilityScore: result.Score,
		GoalCompletion:     result.GoalCompletion,
	}, nil
}

func (h *Handler) resolveProfile(ctx context.Context, supplied *models.UserProfile, userID, field string) (*models.UserProfile, error) {
	if supplied != nil {
		return supplied, nil
	}
	if userID == "" {
		return nil, apperrors.NewInputValidationFailedError(field + " is required")
	}

	profile, err := h.store.GetProfile(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperrors.NewUserNotFoundError(userID)
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("user_profile", err)
	}
	return profile, nil
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
