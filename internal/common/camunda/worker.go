// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/common/metrics"
	"mealmatch-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
)

// JobHandler is implemented by every worker handler. Handlers complete or
// fail the job themselves. ctx carries the job span.
type JobHandler interface {
	Handle(ctx context.Context, client worker.JobClient, job entities.Job)
}

type WorkerOptions struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// StartWorker opens a job worker for opts.TaskType. Each job is timed into
// the prometheus and otel job metrics and wrapped in a span.
func StartWorker(
	client zbc.Client,
	opts WorkerOptions,
	handler JobHandler,
	obs *observability.Observability,
	log logger.Logger,
) *CamundaWorker {
	wrapped := instrument(opts.TaskType, handler, obs)

	step := client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(wrapped).
		MaxJobsActive(opts.MaxJobsActive)
	if opts.Timeout > 0 {
		step = step.Timeout(opts.Timeout)
	}
	jw := step.Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      opts.TaskType,
		"maxJobsActive": opts.MaxJobsActive,
		"timeout":       opts.Timeout.String(),
	})

	return &CamundaWorker{worker: jw, logger: log, taskType: opts.TaskType}
}

func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}

// instrument times each job into the prometheus and otel job metrics and runs
// the handler inside a job span.
func instrument(taskType string, handler JobHandler, obs *observability.Observability) worker.JobHandler {
	tracer := obs.Tracer("camunda-worker")

	return func(jobClient worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

		ctx, span := tracer.Start(context.Background(), taskType)
		span.SetAttributes(
			attribute.Int64("job.key", job.Key),
			attribute.Int64("process.instance.key", job.ProcessInstanceKey),
		)
		defer span.End()

		handler.Handle(ctx, jobClient, job)

		elapsed := time.Since(start)
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
		obs.RecordJobDuration(ctx, taskType, elapsed, "handled")
		obs.RecordJobProcessed(ctx, taskType, "handled")
	}
}
