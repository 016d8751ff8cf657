package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"uptask-api/api"
	"uptask-api/auth"
	"uptask-api/config"
	"uptask-api/domain"
	"uptask-api/graph"
	"uptask-api/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.SetFormatter(&log.JSONFormatter{})
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	base, err := storage.New(cfg.StorageConnectionString, cfg.UsersTable, cfg.ProjectsTable, cfg.TasksTable)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	var (
		rc     *redis.Client
		checks []api.HealthCheck
	)
	if cfg.RedisConnectionString != "" {
		rc = redis.NewClient(storage.RedisOptions(cfg.RedisConnectionString))
		checks = append(checks, func(ctx context.Context) error { return rc.Ping(ctx).Err() })
	} else {
		log.Info("redis not configured, list cache disabled")
	}
	store := storage.NewCache(base, rc, cfg.CacheTTL)

	var events domain.Publisher
	if cfg.EventsQueue != "" {
		q, err := storage.NewEventQueue(cfg.StorageConnectionString, cfg.EventsQueue)
		if err != nil {
			log.Fatalf("events queue: %v", err)
		}
		events = q
	}

	creds := auth.NewCredentials(cfg.Secret, cfg.TokenTTL, cfg.BcryptCost)
	schema := graph.NewSchema(graph.NewResolver(
		domain.NewUserService(store, creds, creds, events),
		domain.NewProjectService(store, events),
		domain.NewTaskService(store, store, events),
	))

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentEncoding},
	}))

	logger := log.StandardLogger()
	api.Register(e, schema, creds, logger, checks...)

	srv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      e,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("tracer shutdown")
	}
	if rc != nil {
		_ = rc.Close()
	}
}
