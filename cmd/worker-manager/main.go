// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	appaws "mealmatch-workers/internal/common/aws"
	"mealmatch-workers/internal/common/camunda"
	"mealmatch-workers/internal/common/config"
	"mealmatch-workers/internal/common/database"
	"mealmatch-workers/internal/common/genai"
	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/common/nutrition"
	"mealmatch-workers/internal/common/observability"
	"mealmatch-workers/internal/common/realtime"
	"mealmatch-workers/internal/common/validation"
	"mealmatch-workers/internal/compatibility"
	"mealmatch-workers/internal/repository"
	"mealmatch-workers/pkg/registry"

	// Matching
	ccs "mealmatch-workers/internal/workers/matching/calculate-compatibility-score"
	rcp "mealmatch-workers/internal/workers/matching/rank-candidate-profiles"
	rs "mealmatch-workers/internal/workers/matching/record-swipe"

	// Profile & chat
	sm "mealmatch-workers/internal/workers/chat/send-message"
	up "mealmatch-workers/internal/workers/profile/update-profile"

	// Data access
	qe "mealmatch-workers/internal/workers/data-access/query-elasticsearch"
	qp "mealmatch-workers/internal/workers/data-access/query-postgresql"

	// Recipes & notifications
	sn "mealmatch-workers/internal/workers/notification/send-notification"
	gr "mealmatch-workers/internal/workers/recipe/generate-recipes"
	mf "mealmatch-workers/internal/workers/recipe/manage-favorites"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.NewFromConfig(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
		zapLog.Warn("falling back to stdout logging", zap.Error(err))
	}
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("Starting worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	// --- Observability ---
	tracing, err := observability.NewTracing(observability.TracingConfig{
		ServiceName:    cfg.Observability.ServiceName,
		Environment:    cfg.App.Environment,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
		SampleRatio:    cfg.Observability.SampleRatio,
	})
	if err != nil {
		zapLog.Warn("tracing disabled", zap.Error(err))
		tracing = observability.NoopTracing()
	}
	obs, err := observability.New(cfg.Observability.ServiceName, tracing)
	if err != nil {
		zapLog.Warn("otel metrics disabled", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: cfg.Camunda.UsePlaintext,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.Timeout),
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	recipeIndex := cfg.Database.Elasticsearch.RecipeIndex
	if err := esClient.EnsureIndex(ctx, recipeIndex, database.RecipeIndexMapping); err != nil {
		zapLog.Warn("could not ensure recipe index", zap.String("index", recipeIndex), zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully",
		zap.String("url", cfg.Database.Elasticsearch.GetURL()),
		zap.String("index", recipeIndex))

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Domain services ---
	repo := repository.New(pg.DB, rdb.Client, time.Duration(cfg.Database.Redis.ProfileCacheTTL)*time.Second, log)

	nc := cfg.Nutrition
	var lookup nutrition.Lookuper = nutrition.NewClient(nc.BaseURL, nc.APIKey, nc.LookupTimeout())
	lookup = nutrition.NewTimedLookup(lookup, obs)
	lookup = nutrition.NewResilientLookup(lookup, nutrition.ResilienceConfig{
		RateLimit:    nc.RateLimit,
		Burst:        nc.Burst,
		MaxRequests:  nc.Breaker.MaxRequests,
		Interval:     time.Duration(nc.Breaker.Interval) * time.Second,
		Timeout:      time.Duration(nc.Breaker.Timeout) * time.Second,
		MinRequests:  nc.Breaker.MinRequests,
		FailureRatio: nc.Breaker.FailureRatio,
	}, log)
	lookup = nutrition.NewCachedLookup(lookup, rdb.Client, time.Duration(nc.CacheTTL)*time.Second, log)

	scorer := compatibility.NewScorer(lookup, nc.LookupTimeout(), log)
	ranker := compatibility.NewRanker(scorer, nc.MaxConcurrentLookups, log)

	gc := cfg.APIs.GenAI
	llmClient := genai.NewClient(&genai.Config{
		BaseURL:    gc.BaseURL,
		APIKey:     gc.APIKey,
		Model:      gc.Model,
		Timeout:    config.GetDuration(gc.Timeout),
		MaxRetries: gc.MaxRetries,
	}, log)

	publisher := realtime.NewPublisher(rdb.Client, cfg.Notifications.Realtime.ChannelPrefix, log)

	validator := validation.NewValidator()
	if reg, err := registry.LoadRegistry(cfg.Registry.Path); err != nil {
		zapLog.Warn("activity registry not loaded, using built-in schemas", zap.String("path", cfg.Registry.Path), zap.Error(err))
	} else if err := validator.LoadFromRegistry(reg); err != nil {
		zapLog.Fatal("activity registry schemas invalid", zap.Error(err))
	}

	var sesClient sn.SESService
	var snsClient sn.SNSService
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		awsCfg, err := appaws.LoadConfig(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Warn("aws config unavailable, email and sms disabled", zap.Error(err))
		} else {
			if cfg.Notifications.Email.Enabled {
				sesClient = appaws.NewSESClient(awsCfg)
			}
			if cfg.Notifications.SMS.Enabled {
				snsClient = appaws.NewSNSClient(awsCfg)
			}
		}
	}

	zapLog.Info("All domain services initialized")

	// --- Register workers ---
	var workers []*camunda.CamundaWorker
	start := func(taskType string, handler camunda.JobHandler) {
		if !config.IsWorkerEnabled(cfg, taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		wcfg := config.GetWorkerConfig(cfg, taskType)
		workers = append(workers, camunda.StartWorker(zeebe.GetClient(), camunda.WorkerOptions{
			TaskType:      taskType,
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, handler, obs, log))
	}
	timeoutFor := func(taskType string, fallback time.Duration) time.Duration {
		if wcfg, ok := cfg.Workers[taskType]; ok && wcfg.Timeout > 0 {
			return config.GetDuration(wcfg.Timeout)
		}
		return fallback
	}
	must := func(taskType string, err error) {
		if err != nil {
			zapLog.Fatal("failed to create handler", zap.String("taskType", taskType), zap.Error(err))
		}
	}

	// Matching
	{
		c := ccs.LoadConfig()
		c.Timeout = timeoutFor(ccs.TaskType, c.Timeout)
		start(ccs.TaskType, ccs.NewHandler(c, repo, scorer, log))
	}
	{
		c := rcp.LoadConfig()
		c.Timeout = timeoutFor(rcp.TaskType, c.Timeout)
		start(rcp.TaskType, rcp.NewHandler(c, repo, ranker, log))
	}
	{
		c := rs.LoadConfig()
		c.Timeout = timeoutFor(rs.TaskType, c.Timeout)
		h, err := rs.NewHandler(c, repo, publisher, validator, log)
		must(rs.TaskType, err)
		start(rs.TaskType, h)
	}

	// Profile & chat
	{
		c := up.LoadConfig()
		c.Timeout = timeoutFor(up.TaskType, c.Timeout)
		h, err := up.NewHandler(c, repo, validator, log)
		must(up.TaskType, err)
		start(up.TaskType, h)
	}
	{
		c := sm.LoadConfig()
		c.Timeout = timeoutFor(sm.TaskType, c.Timeout)
		h, err := sm.NewHandler(c, repo, publisher, validator, log)
		must(sm.TaskType, err)
		start(sm.TaskType, h)
	}

	// Data access
	{
		c := qp.LoadConfig()
		c.Timeout = timeoutFor(qp.TaskType, c.Timeout)
		start(qp.TaskType, qp.NewHandler(c, repo, log))
	}
	{
		c := qe.LoadConfig()
		c.Timeout = timeoutFor(qe.TaskType, c.Timeout)
		c.DefaultIndex = recipeIndex
		start(qe.TaskType, qe.NewHandler(c, esClient.Client, log))
	}

	// Recipes
	{
		c := gr.LoadConfig()
		c.Timeout = timeoutFor(gr.TaskType, c.Timeout)
		c.Temperature = gc.Temperature
		c.MaxTokens = gc.MaxTokens
		c.Index = recipeIndex
		start(gr.TaskType, gr.NewHandler(c, repo, llmClient, gr.NewESIndexer(esClient.Client, recipeIndex), log))
	}
	{
		c := mf.LoadConfig()
		c.Timeout = timeoutFor(mf.TaskType, c.Timeout)
		h, err := mf.NewHandler(c, repo, validator, log)
		must(mf.TaskType, err)
		start(mf.TaskType, h)
	}

	// Notifications
	{
		c := sn.LoadConfig()
		c.Timeout = timeoutFor(sn.TaskType, c.Timeout)
		c.EmailEnabled = cfg.Notifications.Email.Enabled
		c.SMSEnabled = cfg.Notifications.SMS.Enabled
		c.FromEmail = cfg.Notifications.Email.FromEmail
		start(sn.TaskType, sn.NewHandler(c, repo, publisher, sesClient, snsClient, log))
	}

	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{}
		status := http.StatusOK
		for name, check := range map[string]func() error{
			"zeebe":    func() error { return zeebe.HealthCheck(checkCtx) },
			"postgres": func() error { return pg.Ping(checkCtx) },
			"redis":    func() error { return rdb.Ping(checkCtx) },
		} {
			if err := check(); err != nil {
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		label := "ready"
		if status != http.StatusOK {
			label = "not_ready"
		}
		writeStatus(w, status, label, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: ":8080", Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing telemetry", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if checks != nil {
		body["checks"] = checks
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
