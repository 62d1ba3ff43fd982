// cmd/onboarding-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"onboarding-service/internal/api"
	"onboarding-service/internal/common/auth"
	"onboarding-service/internal/common/aws"
	"onboarding-service/internal/common/camunda"
	"onboarding-service/internal/common/config"
	"onboarding-service/internal/common/database"
	"onboarding-service/internal/common/logger"
	"onboarding-service/internal/common/observability"
	"onboarding-service/internal/models"
	"onboarding-service/internal/onboarding"
	"onboarding-service/internal/storage"

	ard "onboarding-service/internal/workers/review/apply-review-decision"
	ia "onboarding-service/internal/workers/review/index-application"
	sn "onboarding-service/internal/workers/review/send-notification"
	vad "onboarding-service/internal/workers/review/validate-application-data"
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
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format).
		With(zap.String("service_name", cfg.Observability.ServiceName))
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting onboarding manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("storageBackend", cfg.Onboarding.StorageBackend),
		zap.String("applicationStore", cfg.Onboarding.ApplicationStore),
	)

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, log)
	defer obs.Shutdown(context.Background())

	ctx := context.Background()
	readiness := map[string]api.ReadinessCheck{}

	// --- Draft storage ---
	var st storage.Storage
	switch cfg.Onboarding.StorageBackend {
	case config.StorageBackendRedis:
		var rc *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rc, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rc.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rc.Close()
		st = storage.NewRedis(rc.Client, time.Duration(cfg.Onboarding.DraftTTL)*time.Second)
		readiness["redis"] = rc.Ping
		zapLog.Info("Redis connected successfully")
	default:
		st = storage.NewMemory()
		zapLog.Warn("Using in-memory draft storage; drafts are lost on restart")
	}

	// --- Application store ---
	var repo onboarding.ApplicationRepository
	switch cfg.Onboarding.ApplicationStore {
	case config.ApplicationStorePostgres:
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
		if err := pg.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("postgres schema failed", zap.Error(err))
		}
		repo = onboarding.NewPostgresApplicationRepository(pg.DB)
		readiness["postgres"] = pg.Ping
		zapLog.Info("PostgreSQL connected successfully")
	default:
		repo = onboarding.NewStorageApplicationRepository(st)
	}

	// --- Review process ---
	gateOpts := []onboarding.GateOption{onboarding.WithSubmissionRecorder(obs)}
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      10 * time.Second,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		gateOpts = append(gateOpts, onboarding.WithReviewStarter(
			camunda.NewReviewStarter(zeebe, cfg.Camunda.ReviewProcessID),
		))
		readiness["zeebe"] = zeebe.HealthCheck
		zapLog.Info("Zeebe client connected successfully")
	}

	gate := onboarding.NewSubmissionGate(repo, models.ApplicationStatus(cfg.Onboarding.SubmittedStatus), log, gateOpts...)

	manager := onboarding.NewSessionManager(onboarding.Dependencies{
		Drafts:   onboarding.NewDraftStore(st, log),
		Progress: onboarding.NewProgressStore(st, log),
		Gate:     gate,
		Bank: onboarding.NewBankConnector(
			config.GetDuration(cfg.Onboarding.BankConnectDelay),
			cfg.Onboarding.BankConnectSuccessRate,
			log,
		),
		Limits: onboarding.Limits{
			MaxInvoiceSize:   cfg.Onboarding.MaxInvoiceSize,
			AgreementVersion: cfg.Onboarding.AgreementVersion,
		},
		Logger: log,
	})

	var workers []*camunda.Worker
	if zeebe != nil {
		workers = startReviewWorkers(ctx, cfg, zeebe, repo, obs, readiness, zapLog, log)
		zapLog.Info("Review workers registered", zap.Int("count", len(workers)))
	}

	// --- HTTP server ---
	srv := &http.Server{
		Addr: cfg.Server.Address,
		Handler: api.NewRouter(api.Config{
			Manager:        manager,
			Verifier:       auth.NewVerifier(cfg.Auth),
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Readiness:      readiness,
			Logger:         log,
		}),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	for _, w := range workers {
		w.Stop()
	}

	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Onboarding manager stopped")
}

// startReviewWorkers opens a subscription for every enabled review task.
func startReviewWorkers(
	ctx context.Context,
	cfg *config.Config,
	zeebe *camunda.Client,
	repo onboarding.ApplicationRepository,
	obs *observability.Observability,
	readiness map[string]api.ReadinessCheck,
	zapLog *zap.Logger,
	log logger.Logger,
) []*camunda.Worker {
	var workers []*camunda.Worker
	start := func(taskType string, maxJobsActive int, timeout time.Duration, handler camunda.JobHandler) {
		workers = append(workers, camunda.StartWorker(
			zeebe.GetClient(), taskType, maxJobsActive, timeout,
			camunda.Observe(handler, taskType, obs), log,
		))
	}

	if c := vad.LoadConfig(cfg); c.Enabled {
		if err := c.Validate(); err != nil {
			zapLog.Fatal("invalid worker config", zap.String("taskType", vad.TaskType), zap.Error(err))
		}
		start(vad.TaskType, c.MaxJobsActive, c.Timeout, vad.NewHandler(c, repo, log))
	}

	if c := ia.LoadConfig(cfg); c.Enabled {
		if err := c.Validate(); err != nil {
			zapLog.Fatal("invalid worker config", zap.String("taskType", ia.TaskType), zap.Error(err))
		}
		var es *database.ElasticsearchClient
		err := retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		if err := es.EnsureIndex(ctx, c.Index); err != nil {
			zapLog.Fatal("elasticsearch index setup failed", zap.Error(err))
		}
		readiness["elasticsearch"] = es.Ping
		start(ia.TaskType, c.MaxJobsActive, c.Timeout, ia.NewHandler(c, es.Client, repo, log))
	}

	if c := sn.LoadConfig(cfg); c.Enabled {
		if err := c.Validate(); err != nil {
			zapLog.Fatal("invalid worker config", zap.String("taskType", sn.TaskType), zap.Error(err))
		}
		var (
			emailer   sn.Emailer
			publisher sn.Publisher
		)
		if c.EmailEnabled {
			ses, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SES.FromEmail)
			if err != nil {
				zapLog.Fatal("SES client failed", zap.Error(err))
			}
			emailer = ses
		}
		if c.SNSEnabled {
			snsClient, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
			if err != nil {
				zapLog.Fatal("SNS client failed", zap.Error(err))
			}
			publisher = snsClient
		}
		start(sn.TaskType, c.MaxJobsActive, c.Timeout, sn.NewHandler(c, emailer, publisher, log))
	}

	if c := ard.LoadConfig(cfg); c.Enabled {
		if err := c.Validate(); err != nil {
			zapLog.Fatal("invalid worker config", zap.String("taskType", ard.TaskType), zap.Error(err))
		}
		start(ard.TaskType, c.MaxJobsActive, c.Timeout, ard.NewHandler(c, repo, log))
	}

	return workers
}
