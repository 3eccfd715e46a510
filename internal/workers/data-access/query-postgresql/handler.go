package querypostgresql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "mealmatch-workers/internal/common/errors"
	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/common/metrics"
	"mealmatch-workers/internal/models"
	"mealmatch-workers/internal/repository"
	"mealmatch-workers/internal/workers/data-access/query-postgresql/queries"
)

const (
	TaskType = "query-postgresql"
)

type Handler struct {
	config       *Config
	store        queries.Store
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, store queries.Store, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		store:        store,
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
	if input == nil {
		return nil, apperrors.NewInputValidationFailedError("input cannot be nil")
	}

	queryType := models.QueryType(input.QueryType)
	if _, exists := queries.Registry[queryType]; !exists {
		return nil, apperrors.NewInvalidQueryTypeError(input.QueryType)
	}

	params := make(map[string]interface{})
	if input.UserID != "" {
		params["userId"] = input.UserID
	}
	if input.OtherUserID != "" {
		params["otherUserId"] = input.OtherUserID
	}

	data, rowCount, execTime, err := queries.Execute(ctx, h.store, queryType, params)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrMissingParam):
			return nil, apperrors.NewInputValidationFailedError(err.Error())
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, apperrors.NewUserNotFoundError(notFoundID(input, queryType))
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, apperrors.NewQueryTimeoutError(input.QueryType)
		case errors.Is(err, sql.ErrConnDone), errors.Is(err, driver.ErrBadConn):
			return nil, apperrors.NewDatabaseConnectionFailedError(err)
		default:
			return nil, apperrors.NewQueryExecutionFailedError(input.QueryType, err).
				WithMetadata("queryType", input.QueryType)
		}
	}

	if h.config.SlowQueryThreshold > 0 && time.Duration(execTime)*time.Millisecond > h.config.SlowQueryThreshold {
		h.logger.Warn("slow query", map[string]interface{}{
			"queryType": input.QueryType,
			"execMs":    execTime,
		})
	}

	h.logger.Debug("query executed", map[string]interface{}{
		"queryType": input.QueryType,
		"rowCount":  rowCount,
		"execMs":    execTime,
	})

	return &Output{
		Data:               data,
		RowCount:           rowCount,
		QueryExecutionTime: execTime,
	}, nil
}

func notFoundID(input *Input, queryType models.QueryType) string {
	if queryType == models.QueryTypeConversation {
		return input.OtherUserID
	}
	return input.UserID
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
