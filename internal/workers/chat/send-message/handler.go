// internal/workers/chat/send-message/handler.go
package sendmessage

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "mealmatch-workers/internal/common/errors"
	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/common/metrics"
	"mealmatch-workers/internal/common/realtime"
	"mealmatch-workers/internal/common/validation"
	"mealmatch-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "send-message"
)

type MessageStore interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	CreateMessage(ctx context.Context, senderID, receiverID, content string) (*models.Message, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, userID string, event realtime.Event) (int64, error)
}

type Handler struct {
	config       *Config
	store        MessageStore
	publisher    EventPublisher
	validator    *validation.Validator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, store MessageStore, publisher EventPublisher, validator *validation.Validator, log logger.Logger) (*Handler, error) {
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
		return nil, apperrors.NewMessageValidationFailedError(err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewMessageValidationFailedError("content and receiverId are required: " + result.Summary())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewMessageValidationFailedError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Content == "" || input.ReceiverID == "" {
		return nil, apperrors.NewMessageValidationFailedError("content and receiverId are required")
	}
	if input.SenderID == "" {
		return nil, apperrors.NewMessageValidationFailedError("senderId is required")
	}

	exists, err := h.store.UserExists(ctx, input.ReceiverID)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("user_exists", err)
	}
	if !exists {
		return nil, apperrors.NewReceiverNotFoundError(input.ReceiverID)
	}

	msg, err := h.store.CreateMessage(ctx, input.SenderID, input.ReceiverID, input.Content)
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(err)
	}

	delivered := h.push(ctx, msg)

	h.logger.Info("message sent", map[string]interface{}{
		"messageId":  msg.ID,
		"senderId":   msg.SenderID,
		"receiverId": msg.ReceiverID,
		"delivered":  delivered,
	})

	return &Output{Message: msg, Delivered: delivered}, nil
}

// push reports whether a live session received the event.
func (h *Handler) push(ctx context.Context, msg *models.Message) bool {
	if h.publisher == nil {
		return false
	}
	receivers, err := h.publisher.Publish(ctx, msg.ReceiverID, realtime.Event{
		Type:    realtime.EventNewMessage,
		Payload: newMessagePayload{Message: msg},
	})
	if err != nil {
		h.logger.Warn("failed to publish message event", map[string]interface{}{
			"messageId": msg.ID,
			"error":     err,
		})
		return false
	}
	return receivers > 0
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
