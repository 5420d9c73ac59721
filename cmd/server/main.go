// Command server runs the creator identity API: registration and evidence
// endpoints, cross-platform sync cycles, and webhook ingestion.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"creatorid/internal/audit"
	httpapi "creatorid/internal/http"
	"creatorid/internal/identity"
	identityhandler "creatorid/internal/identity/handler"
	identitymetrics "creatorid/internal/identity/metrics"
	jwttoken "creatorid/internal/jwt_token"
	"creatorid/internal/platform/config"
	"creatorid/internal/platform/httpserver"
	"creatorid/internal/platform/logger"
	platformredis "creatorid/internal/platform/redis"
	"creatorid/internal/reconcile"
	"creatorid/internal/scoring"
	"creatorid/internal/sync"
	"creatorid/internal/sync/adapters"
	synchandler "creatorid/internal/sync/handler"
	"creatorid/internal/sync/lock"
	syncmetrics "creatorid/internal/sync/metrics"
	"creatorid/internal/sync/ports"
	"creatorid/internal/webhook"
	webhookhandler "creatorid/internal/webhook/handler"
	webhookmetrics "creatorid/internal/webhook/metrics"
	id "creatorid/pkg/domain"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Identity store: Postgres when configured, in-memory otherwise.
	var identityStore identity.Store
	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		store := identity.NewPostgres(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		identityStore = store
		log.Info("using postgres identity store")
	} else {
		identityStore = identity.NewInMemoryStore()
		log.Warn("POSTGRES_DSN not set, identities are not persisted")
	}

	// Redis backs the distributed reconciliation locks and webhook
	// idempotency keys; without it both fall back to process-local state.
	var locks lock.Registry = lock.NewInMemoryRegistry()
	var idempotency webhook.IdempotencyStore = webhook.NewInMemoryIdempotencyStore()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		locks = lock.NewRedisRegistry(redisClient.Client)
		idempotency = webhook.NewRedisIdempotencyStore(redisClient.Client)
		log.Info("using redis for locks and idempotency")
	}

	// Audit trail: always persisted locally; streamed to Kafka when brokers
	// are configured.
	auditor := audit.NewPublisher(audit.NewInMemoryStore(), log)
	var auditSink audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return err
		}
		defer sink.Close()
		auditSink = sink
		log.Info("streaming audit events to kafka", "topic", cfg.Kafka.AuditTopic)
	}

	// Platform adapters come from config; identities linked to a platform
	// with no adapter fail that platform's fetch, not the whole cycle.
	registry := ports.NewAdapterRegistry()
	for platform, baseURL := range cfg.Sync.AdapterEndpoints {
		pid, err := id.ParsePlatformID(platform)
		if err != nil {
			return err
		}
		if err := registry.Register(adapters.NewHTTPAdapter(pid, baseURL)); err != nil {
			return err
		}
		log.Info("registered platform adapter", "platform_id", pid, "endpoint", baseURL)
	}

	priority := make([]id.PlatformID, 0, len(cfg.Sync.PlatformPriority))
	for _, p := range cfg.Sync.PlatformPriority {
		pid, err := id.ParsePlatformID(p)
		if err != nil {
			return err
		}
		priority = append(priority, pid)
	}

	engine := reconcile.NewEngine(
		reconcile.NewDetector(cfg.Sync.NumericVarianceThreshold),
		reconcile.NewResolver(priority),
		log,
	)
	syncMetrics := syncmetrics.New()
	coordinator := sync.NewCoordinator(registry, cfg.Sync.PerPlatformTimeout, log,
		sync.WithMetrics(syncMetrics))

	identityService := identity.NewService(identityStore, scoring.NewScorer(), auditor,
		identity.WithLogger(log),
		identity.WithMetrics(identitymetrics.New()),
	)
	syncService := sync.NewService(identityStore, coordinator, engine, locks, auditor,
		cfg.Sync.LockTTL, cfg.Sync.CycleTimeout, log,
		sync.WithServiceMetrics(syncMetrics),
		sync.WithMinInterval(cfg.Sync.MinInterval),
	)
	webhookService := webhook.NewService(identityStore, engine, locks, idempotency, auditor, log,
		webhook.WithMetrics(webhookmetrics.New()))

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, "creatorid", "creatorid-api")
	validator := jwttoken.NewJWTServiceAdapter(tokens)

	router := httpapi.NewRouter(log,
		identityhandler.New(identityService, tokens, validator, log),
		synchandler.New(syncService, validator, log),
		webhookhandler.New(webhookService, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting creatorid server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if auditSink != nil {
		worker := audit.NewWorker(auditSink, auditor.Inbox(), log)
		group.Go(func() error {
			if err := worker.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}
