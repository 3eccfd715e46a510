// internal/workers/notification/send-notification/handler.go
package sendnotification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "mealmatch-workers/internal/common/errors"
	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/common/metrics"
	"mealmatch-workers/internal/common/realtime"
	"mealmatch-workers/internal/models"
	"mealmatch-workers/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-notification"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type RecipientStore interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, userID string, event realtime.Event) (int64, error)
}

type Handler struct {
	config       *Config
	store        RecipientStore
	publisher    EventPublisher
	sesClient    SESService
	snsClient    SNSService
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

// NewHandler takes the AWS clients ready-made; nil clients disable their channel.
func NewHandler(config *Config, store RecipientStore, publisher EventPublisher, sesClient SESService, snsClient SNSService, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		store:        store,
		publisher:    publisher,
		sesClient:    sesClient,
		snsClient:    snsClient,
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
	if input.RecipientID == "" {
		return nil, apperrors.NewInputValidationFailedError("recipientId is required")
	}
	tmpl, ok := templates[input.NotificationType]
	if !ok {
		return nil, apperrors.NewUnsupportedOperationError(string(input.NotificationType))
	}

	out := &Output{
		NotificationID: uuid.New().String(),
		Channels:       map[string]string{},
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	recipient, err := h.store.GetProfile(ctx, input.RecipientID)
	if errors.Is(err, repository.ErrUserNotFound) {
		h.logger.Warn("recipient not found", map[string]interface{}{
			"recipientId": input.RecipientID,
		})
		out.Status = models.StatusDisabled
		return out, nil
	}
	if err != nil {
		return nil, apperrors.NewNotificationSendFailedError(string(input.NotificationType), err)
	}

	out.Channels[models.ChannelRealtime] = h.pushRealtime(ctx, input)

	data := map[string]interface{}{
		"recipientId":   recipient.ID,
		"recipientName": recipient.Name,
	}
	for k, v := range input.Metadata {
		data[k] = v
	}
	subject := renderTemplate(tmpl.Subject, data)
	body := renderTemplate(tmpl.Body, data)

	switch {
	case !h.config.EmailEnabled || h.sesClient == nil:
		out.Channels[models.ChannelEmail] = models.StatusDisabled
	case recipient.Email == "":
		out.Channels[models.ChannelEmail] = models.StatusSkipped
	default:
		if err := h.sendEmail(ctx, recipient.Email, subject, body); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error":       err,
				"recipientId": recipient.ID,
			})
			out.Channels[models.ChannelEmail] = models.StatusFailed
		} else {
			out.Channels[models.ChannelEmail] = models.StatusSent
		}
	}

	switch {
	case !h.config.SMSEnabled || h.snsClient == nil:
		out.Channels[models.ChannelSMS] = models.StatusDisabled
	case !tmpl.SMS || recipient.Phone == "":
		out.Channels[models.ChannelSMS] = models.StatusSkipped
	default:
		if err := h.sendSMS(ctx, recipient.Phone, body); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error":       err,
				"recipientId": recipient.ID,
			})
			out.Channels[models.ChannelSMS] = models.StatusFailed
		} else {
			out.Channels[models.ChannelSMS] = models.StatusSent
		}
	}

	out.Status = overallStatus(out.Channels)
	h.logger.Info("notification processed", map[string]interface{}{
		"notificationId": out.NotificationID,
		"type":           input.NotificationType,
		"status":         out.Status,
	})
	return out, nil
}

// overallStatus is sent when any channel delivered, failed when a channel
// was attempted and none delivered, disabled otherwise.
func overallStatus(channels map[string]string) string {
	failed := false
	for _, s := range channels {
		switch s {
		case models.StatusSent:
			return models.StatusSent
		case models.StatusFailed:
			failed = true
		}
	}
	if failed {
		return models.StatusFailed
	}
	return models.StatusDisabled
}

func (h *Handler) pushRealtime(ctx context.Context, input *Input) string {
	if h.publisher == nil {
		return models.StatusDisabled
	}

	eventType := realtime.EventNewMatch
	if input.NotificationType == models.NotificationNewMessage {
		eventType = realtime.EventNewMessage
	}

	receivers, err := h.publisher.Publish(ctx, input.RecipientID, realtime.Event{Type: eventType, Payload: input.Payload})
	if err != nil {
		h.logger.Warn("failed to publish realtime event", map[string]interface{}{
			"recipientId": input.RecipientID,
			"error":       err,
		})
		return models.StatusFailed
	}
	if receivers == 0 {
		return models.StatusSkipped
	}
	return models.StatusSent
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
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

// renderTemplate substitutes {{key}} placeholders and drops unknown ones.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
