// internal/workers/profile/update-profile/handler.go
package updateprofile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "mealmatch-workers/internal/common/errors"
	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/common/metrics"
	"mealmatch-workers/internal/common/validation"
	"mealmatch-workers/internal/models"
	"mealmatch-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "update-profile"
)

type ProfileStore interface {
	UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.UserProfile, error)
}

type Handler struct {
	config       *Config
	store        ProfileStore
	validator    *validation.Validator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, store ProfileStore, validator *validation.Validator, log logger.Logger) (*Handler, error) {
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
		return nil, apperrors.NewProfileValidationFailedError(err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewProfileValidationFailedError(result.Summary())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewProfileValidationFailedError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserID == "" {
		return nil, apperrors.NewProfileValidationFailedError("userId is required")
	}
	if input.Image != nil && strings.HasPrefix(*input.Image, "data:") {
		return nil, apperrors.NewProfileValidationFailedError("image must be a URL; inline uploads are not accepted")
	}
	if input.IngredientsList != nil {
		for i, item := range *input.IngredientsList {
			if strings.TrimSpace(item.Ingredient) == "" {
				return nil, apperrors.NewProfileValidationFailedError(fmt.Sprintf("ingredientsList[%d].ingredient is empty", i))
			}
		}
	}

	user, err := h.store.UpdateProfile(ctx, input.UserID, input.ProfileUpdate)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperrors.NewUserNotFoundError(input.UserID)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(err)
	}

	h.logger.Info("profile updated", map[string]interface{}{
		"userId":      input.UserID,
		"ingredients": len(user.IngredientsList),
	})

	return &Output{User: user}, nil
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
