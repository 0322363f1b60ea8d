// @title           WhisperBox API
// @version         1.0
// @description     Anonymous messaging: registration with email verification, moderated message intake and inbox management.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/whisperbox/whisperbox-api/internal/api"
	"github.com/whisperbox/whisperbox-api/internal/api/handler"
	"github.com/whisperbox/whisperbox-api/internal/core/ports"
	"github.com/whisperbox/whisperbox-api/internal/core/service"
	mongodb "github.com/whisperbox/whisperbox-api/internal/infrastructure/db/mongo"
	redisdb "github.com/whisperbox/whisperbox-api/internal/infrastructure/db/redis"
	"github.com/whisperbox/whisperbox-api/internal/infrastructure/mail"
	"github.com/whisperbox/whisperbox-api/internal/infrastructure/moderation"
	"github.com/whisperbox/whisperbox-api/internal/infrastructure/queue"
	"github.com/whisperbox/whisperbox-api/internal/infrastructure/suggest"
	"github.com/whisperbox/whisperbox-api/internal/pkg/config"
	"github.com/whisperbox/whisperbox-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "whisperbox-api",
		Env:     cfg.Env,
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close")
		}
	}()

	pendingRepo := mongodb.NewPendingRepository(db)
	accountRepo := mongodb.NewAccountRepository(db)
	messageRepo := mongodb.NewMessageRepository(db)
	if err := mongodb.EnsureIndexes(ctx, pendingRepo, accountRepo, messageRepo); err != nil {
		return err
	}

	// --- External services ---
	var mailer ports.Mailer
	switch cfg.Mail.Provider {
	case "resend":
		mailer = mail.NewResendMailer(cfg.Mail.APIKey, cfg.Mail.From, mail.WithBaseURL(cfg.Mail.BaseURL))
	default:
		mailer = mail.NewLogMailer(logger.Component("mail"))
	}

	var moderator ports.Moderator = moderation.NewNoopModerator()
	if cfg.Moderation.Enabled {
		moderator = moderation.NewHTTPModerator(cfg.Moderation.APIKey, moderation.WithBaseURL(cfg.Moderation.BaseURL))
	} else {
		log.Warn().Msg("content moderation disabled; all messages are stored as not harmful")
	}

	suggester := suggest.NewGeminiSuggester(cfg.Suggest.APIKey, suggest.WithModel(cfg.Suggest.Model))

	// --- Core services ---
	issuer := service.NewCodeIssuer(mailer, logger.Component("code_issuer"))
	registrationSvc := service.NewRegistrationService(pendingRepo, accountRepo, issuer, logger.Component("registration"))
	authSvc := service.NewAuthService(accountRepo, pendingRepo, cfg.JWTSecret, cfg.JWTTTL)
	messageSvc := service.NewMessageService(
		accountRepo,
		messageRepo,
		moderator,
		redisdb.NewIdempotencyGuard(rdb, 0),
		cfg.Moderation.FailOpen,
		logger.Component("messages"),
	)

	// --- Link reconciler ---
	dispatcher := queue.NewDispatcher(cfg.Reconcile.Workers, messageSvc, logger.Component("link_repair"))
	reconciler := queue.NewReconciler(messageRepo, dispatcher, cfg.Reconcile.Interval, cfg.Reconcile.Grace, logger.Component("reconciler"))
	go reconciler.Run(ctx)

	// --- HTTP ---
	e, err := api.NewRouter(api.Deps{
		Registration: registrationSvc,
		Auth:         authSvc,
		Messages:     messageSvc,
		Suggester:    suggester,
		HealthChecks: map[string]handler.Check{
			"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Redis:             rdb,
		Log:               logger.Component("http"),
		JWTSecret:         cfg.JWTSecret,
		RateLimitAuth:     cfg.RateLimit.Auth,
		RateLimitMessages: cfg.RateLimit.Messages,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
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
