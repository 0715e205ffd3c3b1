package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/bibee/backend/internal/config"
	delivery "github.com/bibee/backend/internal/delivery/http"
	"github.com/bibee/backend/internal/domain"
	"github.com/bibee/backend/internal/events"
	"github.com/bibee/backend/internal/logging"
	"github.com/bibee/backend/internal/metrics"
	"github.com/bibee/backend/internal/middleware"
	"github.com/bibee/backend/internal/repository/memory"
	"github.com/bibee/backend/internal/repository/postgres"
	redisrepo "github.com/bibee/backend/internal/repository/redis"
	"github.com/bibee/backend/internal/token"
	"github.com/bibee/backend/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.LoadEnv(ctx, ".env")
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logging.New(cfg.LogLevel)
	log.Info("bibee backend starting", "port", cfg.Server.Port, "debug", cfg.Debug)

	// Credential store and, without Redis, the revocation store share the pool.
	var (
		userRepo    domain.UserRepository
		eventLog    domain.EventLog
		personaRepo domain.VoicePersonaRepository
		projectRepo domain.ProjectRepository
		revocations domain.RevocationStore
		storeKind   string
		dbCheck     delivery.Pinger
	)
	if cfg.Database.URL != "" {
		pool, err := connectPostgres(ctx, log, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		if cfg.Database.RunMigrations {
			if err := postgres.Migrate(ctx, pool); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			log.Info("migrations applied")
		}
		userRepo = postgres.NewUserRepository(pool)
		eventLog = postgres.NewEventRepository(pool)
		personaRepo = postgres.NewPersonaRepository(pool)
		projectRepo = postgres.NewProjectRepository(pool)
		dbCheck = pool

		if cfg.Redis.URL == "" {
			log.Info("REDIS_URL is empty, storing revocations in postgres")
			store := postgres.NewRevocationRepository(pool, time.Now)
			go store.RunJanitor(ctx, 10*time.Minute, log)
			revocations, storeKind = store, "postgres"
		}
	} else {
		log.Warn("DATABASE_URL is empty, using in-memory credential store")
		repo := memory.NewUserRepository()
		userRepo, dbCheck = repo, repo
		eventLog = memory.NewEventLog()
		personaRepo = memory.NewPersonaRepository()
		projectRepo = memory.NewProjectRepository()
	}

	switch {
	case cfg.Redis.URL != "":
		redisCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		store, err := redisrepo.NewRevocationStore(redisCtx, cfg.Redis.URL)
		cancel()
		if err != nil {
			return err
		}
		log.Info("connected to redis")
		revocations, storeKind = store, "redis"
	case revocations == nil:
		log.Warn("no REDIS_URL or DATABASE_URL, using in-memory revocation store; revocations are not shared between instances")
		store := memory.NewRevocationStore(time.Now)
		go store.RunJanitor(ctx, time.Minute)
		revocations, storeKind = store, "memory"
	}
	defer func() {
		if err := revocations.Close(); err != nil {
			log.Warn("closing revocation store", "error", err)
		}
	}()

	// Security events go to the audit log and, when configured, the broker.
	publisher := events.Fanout{eventLog}
	if cfg.AMQP.URL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		defer amqpPub.Close()
		publisher = append(publisher, amqpPub)
		log.Info("publishing security events", "exchange", cfg.AMQP.Exchange)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	codec, err := token.NewCodec(cfg.JWT.Secret, cfg.JWT.Algorithm, time.Now)
	if err != nil {
		return err
	}

	authUsecase := usecase.NewAuthUsecase(userRepo, revocations, codec, usecase.NewBcryptHasher(bcrypt.DefaultCost), &cfg.JWT,
		usecase.WithEvents(publisher),
		usecase.WithMetrics(metrics.NewAuth(reg)),
		usecase.WithLogger(log),
	)

	handler := delivery.NewHandler(authUsecase,
		usecase.NewPersonaUsecase(personaRepo),
		usecase.NewProjectUsecase(projectRepo, personaRepo),
		eventLog, log)
	health := delivery.NewHealthHandler(delivery.ServiceChecks(dbCheck, revocations)...)
	log.Info("revocation store selected", "kind", storeKind)
	authMiddleware := middleware.NewAuthMiddleware(authUsecase, log)

	router := delivery.NewRouter(handler, health, authMiddleware, cfg.CORS.AllowedOrigins,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

// connectPostgres retries with a linear backoff while the database starts.
func connectPostgres(ctx context.Context, log *slog.Logger, url string) (*pgxpool.Pool, error) {
	const attempts = 5
	for attempt := 1; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := pgxpool.New(attemptCtx, url)
		if err == nil {
			if err = pool.Ping(attemptCtx); err == nil {
				cancel()
				log.Info("connected to postgres")
				return pool, nil
			}
			pool.Close()
		}
		cancel()

		log.Warn("postgres not reachable", "attempt", attempt, "error", err)
		if attempt == attempts {
			return nil, fmt.Errorf("could not connect to database after %d attempts: %w", attempts, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 2 * time.Second):
		}
	}
}
