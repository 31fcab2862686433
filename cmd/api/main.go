package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/sidekickhq/leadline/internal/api/router"
	"github.com/sidekickhq/leadline/internal/booking"
	appconfig "github.com/sidekickhq/leadline/internal/config"
	"github.com/sidekickhq/leadline/internal/conversation"
	"github.com/sidekickhq/leadline/internal/http/handlers"
	"github.com/sidekickhq/leadline/internal/leads"
	"github.com/sidekickhq/leadline/internal/messaging"
	"github.com/sidekickhq/leadline/internal/notify"
	"github.com/sidekickhq/leadline/internal/observability/metrics"
	"github.com/sidekickhq/leadline/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leadline API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	conversationMetrics := metrics.NewConversationMetrics(registry)

	repo := buildRepository(ctx, cfg, logger)
	transcripts := buildTranscriptStore(cfg, logger)
	llm := buildLLMClient(cfg, logger)
	queue := buildQueue(ctx, cfg, logger)
	messenger := buildMessenger(cfg, logger)
	scheduler := buildScheduler(cfg, logger)
	notifier := buildNotifier(cfg, messenger, logger)

	engine := conversation.NewEngine(repo, transcripts, llm, conversationMetrics, logger)
	dispatcher := conversation.NewDispatcher(repo, scheduler, notifier, conversationMetrics, cfg.BookingTimeout, logger)
	publisher := conversation.NewPublisher(queue, logger)
	worker := conversation.NewWorker(engine, dispatcher, repo, messenger, queue, conversationMetrics, logger,
		conversation.WithWorkerCount(cfg.WorkerCount),
		conversation.WithCompanyPhone(cfg.CompanyPhone),
		conversation.WithFromNumber(cfg.TwilioFromNumber),
	)

	smsWebhookURL := ""
	if cfg.PublicBaseURL != "" {
		smsWebhookURL = cfg.PublicBaseURL + "/webhook/sms"
	}

	r := router.New(&router.Config{
		Logger:         logger,
		Webhooks:       handlers.NewWebhookHandler(repo, publisher, cfg.TwilioAuthToken, smsWebhookURL, logger),
		Dashboard:      handlers.NewDashboardHandler(repo, logger),
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	worker.Start(workerCtx)

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	stopWorkers()
	worker.Wait()
	logger.Info("server stopped")
}

func buildRepository(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) leads.Repository {
	if cfg.DatabaseURL == "" {
		logger.Info("using in-memory lead store")
		return leads.NewInMemoryRepository()
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	logger.Info("using postgres lead store")
	return leads.NewPostgresRepository(pool)
}

func buildTranscriptStore(cfg *appconfig.Config, logger *logging.Logger) conversation.TranscriptStore {
	if cfg.RedisAddr == "" {
		logger.Info("using in-memory transcript store")
		return conversation.NewMemoryTranscriptStore()
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	logger.Info("using redis transcript store", "addr", cfg.RedisAddr)
	return conversation.NewRedisTranscriptStore(redis.NewClient(opts))
}

func buildLLMClient(cfg *appconfig.Config, logger *logging.Logger) conversation.LLMClient {
	if cfg.OpenRouterAPIKey == "" {
		// Without a model every inbound message escalates to a human.
		logger.Warn("OPENROUTER_API_KEY not set, conversations will escalate")
		return conversation.NewUnavailableClient()
	}
	return conversation.NewOpenRouterClient(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.ModelTimeout, logger)
}

func buildQueue(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) conversation.Queue {
	if cfg.UseMemoryQueue || cfg.InboundQueueURL == "" {
		logger.Info("using in-memory conversation queue")
		return conversation.NewMemoryQueue(256)
	}
	awsCfg, err := appconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	logger.Info("using SQS conversation queue", "queue_url", cfg.InboundQueueURL)
	return conversation.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.InboundQueueURL)
}

func buildMessenger(cfg *appconfig.Config, logger *logging.Logger) conversation.ReplyMessenger {
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" {
		logger.Warn("twilio credentials not set, outbound SMS will be logged only")
		return messaging.NewLogSender(logger)
	}
	return messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
}

func buildScheduler(cfg *appconfig.Config, logger *logging.Logger) booking.Scheduler {
	if cfg.CalendlyAPIKey == "" || cfg.CalendlyEventType == "" {
		logger.Warn("calendly not configured, booking requests will escalate")
		return booking.NewDisabled()
	}
	return booking.NewCalendlyClient(cfg.CalendlyAPIKey, cfg.CalendlyEventType, logger)
}

func buildNotifier(cfg *appconfig.Config, messenger conversation.ReplyMessenger, logger *logging.Logger) conversation.OperatorNotifier {
	var email notify.EmailSender
	if sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sender != nil {
		email = sender
	}

	var sms notify.SMSSender
	if s, ok := messenger.(notify.SMSSender); ok {
		sms = s
	}

	return notify.NewService(email, sms, notify.Config{
		CompanyName:   cfg.CompanyName,
		OperatorEmail: cfg.OperatorEmail,
		OperatorPhone: cfg.OperatorPhone,
	}, logger)
}
