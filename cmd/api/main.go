// @title                      User Management API
// @version                    1.0
// @description                JWT authentication and role-gated CRUD over users.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/99minutos/user-management/docs"
	"github.com/99minutos/user-management/internal/api"
	"github.com/99minutos/user-management/internal/core/service"
	mongodb "github.com/99minutos/user-management/internal/infrastructure/db/mongo"
	redisdb "github.com/99minutos/user-management/internal/infrastructure/db/redis"
	"github.com/99minutos/user-management/internal/infrastructure/http/handlers"
	"github.com/99minutos/user-management/internal/infrastructure/queue"
	"github.com/99minutos/user-management/internal/pkg/config"
	"github.com/99minutos/user-management/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "user-management",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	userStore := mongodb.NewUserRepository(db)
	if err := userStore.EnsureIndexes(ctx); err != nil {
		return err
	}
	userRepo := service.NewCachedUserRepository(userStore, redisdb.NewUserCache(rdb, cfg.Redis.CacheTTL), log)

	// --- Audit trail ---
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, service.NewAuditService(mongodb.NewAuditRepository(db), log), log)
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	// --- Services ---
	tokens := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL, service.WithIssuer(cfg.Auth.JWTIssuer))
	users := service.NewUserService(userRepo, dispatcher, cfg.Auth.BcryptCost, log)
	auth := service.NewAuthService(userRepo, tokens, users, log)

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		admin, created, err := users.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			return err
		}
		log.Info().Str("user_id", admin.ID).Bool("created", created).Msg("admin account ready")
	}

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		AuthService:   auth,
		UserService:   users,
		TokenVerifier: tokens,
		Logger:        log,
		Probes: map[string]handlers.Pinger{
			"mongodb": handlers.MongoPinger(mongoClient),
			"redis":   handlers.RedisPinger(rdb),
		},
		Metrics: true,
		Swagger: true,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
