// internal/workers/recipe/generate-recipes/handler.go
package generaterecipes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "mealmatch-workers/internal/common/errors"
	"mealmatch-workers/internal/common/genai"
	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/common/metrics"
	"mealmatch-workers/internal/models"
	"mealmatch-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "generate-recipes"
)

type RecipeStore interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	FindRecipeForUsers(ctx context.Context, userA, userB string) (*models.RecipeSet, error)
	SaveRecipe(ctx context.Context, userA, userB, markdown string, recipes []models.Recipe) (*models.RecipeSet, error)
}

type Completer interface {
	Complete(ctx context.Context, req genai.CompletionRequest) (string, error)
}

type RecipeIndexer interface {
	IndexRecipes(ctx context.Context, set *models.RecipeSet) error
}

type Handler struct {
	config       *Config
	store        RecipeStore
	llm          Completer
	indexer      RecipeIndexer
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

// NewHandler accepts a nil indexer, in which case sets are only persisted.
func NewHandler(config *Config, store RecipeStore, llm Completer, indexer RecipeIndexer, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		store:        store,
		llm:          llm,
		indexer:      indexer,
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
	if strings.TrimSpace(input.CurrentUserID) == "" || strings.TrimSpace(input.SelectedUserID) == "" {
		return nil, apperrors.NewInputValidationFailedError("currentUserId and selectedUserId are required")
	}

	existing, err := h.store.FindRecipeForUsers(ctx, input.CurrentUserID, input.SelectedUserID)
	if err != nil {
		return nil, apperrors.NewRecipeGenerationFailedError(err)
	}
	if existing != nil {
		metrics.RecipesGenerated.WithLabelValues("cache").Inc()
		h.logger.Debug("returning stored recipes", map[string]interface{}{"recipeId": existing.ID})
		return &Output{
			RecipeID: existing.ID,
			Markdown: existing.Markdown,
			Recipes:  existing.Recipes,
			Cached:   true,
		}, nil
	}

	current, err := h.resolveProfile(ctx, input.CurrentUserID, input.CurrentUser)
	if err != nil {
		return nil, err
	}
	selected, err := h.resolveProfile(ctx, input.SelectedUserID, input.SelectedUser)
	if err != nil {
		return nil, err
	}

	markdown, err := h.llm.Complete(ctx, genai.CompletionRequest{
		Messages:    []genai.Message{{Role: "user", Content: buildRecipePrompt(current, selected)}},
		Temperature: h.config.Temperature,
		MaxTokens:   h.config.MaxTokens,
	})
	if err != nil {
		return nil, mapCompletionError(err)
	}

	structured, err := h.llm.Complete(ctx, genai.CompletionRequest{
		Messages:    []genai.Message{{Role: "user", Content: buildStructuringPrompt(markdown)}},
		Temperature: structuringTemperature,
		MaxTokens:   h.config.MaxTokens,
	})
	if err != nil {
		return nil, mapCompletionError(err)
	}

	recipes, err := parseRecipes(structured)
	if err != nil {
		return nil, apperrors.NewRecipeParseFailedError(err)
	}

	set, err := h.store.SaveRecipe(ctx, input.CurrentUserID, input.SelectedUserID, markdown, recipes)
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(err)
	}

	if h.indexer != nil {
		if err := h.indexer.IndexRecipes(ctx, set); err != nil {
			h.logger.Warn("failed to index recipes", map[string]interface{}{
				"recipeId": set.ID,
				"error":    err,
			})
		}
	}

	metrics.RecipesGenerated.WithLabelValues("genai").Inc()
	h.logger.Info("recipes generated", map[string]interface{}{
		"recipeId": set.ID,
		"count":    len(set.Recipes),
	})

	return &Output{
		RecipeID: set.ID,
		Markdown: set.Markdown,
		Recipes:  set.Recipes,
	}, nil
}

func (h *Handler) resolveProfile(ctx context.Context, userID string, supplied *models.UserProfile) (*models.UserProfile, error) {
	if supplied != nil {
		return supplied, nil
	}
	p, err := h.store.GetProfile(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperrors.NewUserNotFoundError(userID)
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("user_profile", err)
	}
	return p, nil
}

func mapCompletionError(err error) error {
	if errors.Is(err, genai.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewGenAITimeoutError()
	}
	return apperrors.NewRecipeGenerationFailedError(err)
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
