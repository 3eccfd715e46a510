// internal/workers/matching/record-swipe/handler.go
package recordswipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "mealmatch-workers/internal/common/errors"
	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/common/metrics"
	"mealmatch-workers/internal/common/realtime"
	"mealmatch-workers/internal/common/validation"
	"mealmatch-workers/internal/models"
	"mealmatch-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "record-swipe"
)

type SwipeStore interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	RecordLike(ctx context.Context, userID, likedUserID string) (bool, error)
	HasLiked(ctx context.Context, userID, otherUserID string) (bool, error)
	CreateMatch(ctx context.Context, userA, userB string) error
	RecordDislike(ctx context.Context, userID, dislikedUserID string) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, userID string, event realtime.Event) (int64, error)
}

type Handler struct {
	config       *Config
	store        SwipeStore
	publisher    EventPublisher
	validator    *validation.Validator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, store SwipeStore, publisher EventPublisher, validator *validation.Validator, log logger.Logger) (*Handler, error) {
	if validator == nil {
		validator = validation.NewValidator()
	}
	if err := validator.EnsureSchema(TaskType, InputSchema); err != nil {
		return nil, err
	}

	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		store:        store,
		publisher:    publisher,
		validator:    validator,
		errorHandler: apperrors.NewErrorHandler(l),
		logger:       l,
	}, nil
}

func (h *Handler) Handle(ctx context.Context, client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job.Variables)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	execCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	output, err := h.execute(execCtx, input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) parseInput(variables string) (*Input, error) {
	result, err := h.validator.ValidateJSON(TaskType, variables)
	if err != nil {
		return nil, apperrors.NewInputValidationFailedError(err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewInputValidationFailedError(result.Summary())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInputValidationFailedError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserID == input.TargetUserID {
		return nil, apperrors.NewInputValidationFailedError("cannot swipe on yourself")
	}

	switch input.Direction {
	case models.SwipeRight:
		return h.like(ctx, input.UserID, input.TargetUserID)
	case models.SwipeLeft:
		if _, err := h.store.RecordDislike(ctx, input.UserID, input.TargetUserID); err != nil {
			return nil, apperrors.NewSwipeRecordFailedError(err)
		}
		h.logger.Info("dislike recorded", map[string]interface{}{
			"userId":       input.UserID,
			"targetUserId": input.TargetUserID,
		})
		return &Output{Disliked: true}, nil
	default:
		return nil, apperrors.NewInputValidationFailedError(fmt.Sprintf("unknown direction %q", input.Direction))
	}
}

func (h *Handler) like(ctx context.Context, userID, targetID string) (*Output, error) {
	target, err := h.store.GetProfile(ctx, targetID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperrors.NewUserNotFoundError(targetID)
	}
	if err != nil {
		return nil, apperrors.NewSwipeRecordFailedError(err)
	}

	created, err := h.store.RecordLike(ctx, userID, targetID)
	if err != nil {
		return nil, apperrors.NewSwipeRecordFailedError(err)
	}
	if !created {
		// a retry after a failed CreateMatch lands here; the match insert is idempotent
		h.logger.Debug("like already recorded", map[string]interface{}{"userId": userID, "targetUserId": targetID})
	}

	mutual, err := h.store.HasLiked(ctx, targetID, userID)
	if err != nil {
		return nil, apperrors.NewSwipeRecordFailedError(err)
	}
	if !mutual {
		return &Output{Liked: true}, nil
	}

	if err := h.store.CreateMatch(ctx, userID, targetID); err != nil {
		return nil, apperrors.NewSwipeRecordFailedError(err)
	}

	current, err := h.store.GetProfile(ctx, userID)
	if err != nil {
		h.logger.Warn("could not load current user for match event", map[string]interface{}{
			"userId": userID,
			"error":  err,
		})
		current = &models.UserProfile{ID: userID}
	}

	h.notifyMatch(ctx, targetID, current.Summary())
	h.notifyMatch(ctx, userID, target.Summary())

	h.logger.Info("match created", map[string]interface{}{
		"userId":       userID,
		"targetUserId": targetID,
	})

	summary := target.Summary()
	return &Output{Liked: true, Matched: true, MatchedUser: &summary}, nil
}

// notifyMatch is best effort. A user without a live session just misses the push.
func (h *Handler) notifyMatch(ctx context.Context, recipientID string, matched models.UserSummary) {
	if h.publisher == nil {
		return
	}
	_, err := h.publisher.Publish(ctx, recipientID, realtime.Event{
		Type:    realtime.EventNewMatch,
		Payload: matched,
	})
	if err != nil {
		h.logger.Warn("failed to publish match event", map[string]interface{}{
			"recipientId": recipientID,
			"error":       err,
		})
	}
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
