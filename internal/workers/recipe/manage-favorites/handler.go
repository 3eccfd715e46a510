// internal/workers/recipe/manage-favorites/handler.go
package managefavorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

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
	TaskType = "manage-favorites"
)

type FavoriteStore interface {
	AddFavorite(ctx context.Context, fav models.Favorite) (*models.Favorite, error)
	RemoveFavorite(ctx context.Context, userID, recipeID string) (bool, error)
	ListFavorites(ctx context.Context, userID string) ([]models.Favorite, error)
}

type Handler struct {
	config       *Config
	store        FavoriteStore
	validator    *validation.Validator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, store FavoriteStore, validator *validation.Validator, log logger.Logger) (*Handler, error) {
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
	out := &Output{}

	switch input.Operation {
	case OperationAdd:
		if input.Recipe == nil {
			return nil, apperrors.NewInputValidationFailedError("recipe is required for add")
		}
		added, err := h.store.AddFavorite(ctx, models.Favorite{
			UserID:      input.UserID,
			RecipeID:    input.Recipe.ID,
			Title:       input.Recipe.Title,
			Cuisine:     input.Recipe.Cuisine,
			Description: input.Recipe.Description,
		})
		if errors.Is(err, repository.ErrFavoriteExists) {
			return nil, apperrors.NewFavoriteAlreadyExistsError(input.Recipe.ID)
		}
		if err != nil {
			return nil, apperrors.NewDatabaseInsertFailedError(err)
		}
		out.Added = added

	case OperationRemove:
		if input.RecipeID == "" {
			return nil, apperrors.NewInputValidationFailedError("recipeId is required for remove")
		}
		removed, err := h.store.RemoveFavorite(ctx, input.UserID, input.RecipeID)
		if err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("remove_favorite", err)
		}
		out.Removed = removed

	case OperationList:

	default:
		return nil, apperrors.NewUnsupportedOperationError(input.Operation)
	}

	favorites, err := h.store.ListFavorites(ctx, input.UserID)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list_favorites", err)
	}
	out.Favorites = favorites

	h.logger.Debug("favorites updated", map[string]interface{}{
		"operation": input.Operation,
		"userId":    input.UserID,
		"count":     len(favorites),
	})
	return out, nil
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
