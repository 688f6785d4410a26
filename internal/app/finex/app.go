// Package finex собирает HTTP-приложение FINEX: хранилище, кэш,
// интеграции и все сервисы бизнес-логики.
package finex

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/finexapp/finex-backend/internal/cache"
	"github.com/finexapp/finex-backend/internal/config"
	"github.com/finexapp/finex-backend/internal/lib/jwt"
	"github.com/finexapp/finex-backend/internal/lib/smtp"
	"github.com/finexapp/finex-backend/internal/migrations"
	"github.com/finexapp/finex-backend/internal/paymentgateway"
	"github.com/finexapp/finex-backend/internal/proofai"
	authservice "github.com/finexapp/finex-backend/internal/services/auth"
	notifierservice "github.com/finexapp/finex-backend/internal/services/notifier"
	paymentservice "github.com/finexapp/finex-backend/internal/services/payment"
	reconcilerservice "github.com/finexapp/finex-backend/internal/services/reconciler"
	senderservice "github.com/finexapp/finex-backend/internal/services/sender"
	subservice "github.com/finexapp/finex-backend/internal/services/subscription"
	"github.com/finexapp/finex-backend/internal/storage/repository"
	"github.com/finexapp/finex-backend/internal/whatsapp"

	"github.com/go-chi/chi"
)

// App инкапсулирует HTTP-сервер и его зависимости.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New собирает приложение: подключает базу, применяет миграции,
// инициализирует кэш, интеграции и сервисы, регистрирует маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	maker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	transport := smtp.NewTransport(cfg.SMTP, logger)
	gateway := paymentgateway.NewClient(cfg.GatewayAPIURL, cfg.GatewayAPIKey)
	messenger := whatsapp.NewClient(cfg.WhatsAppAPIURL, cfg.WhatsAppAPIKey, cfg.WhatsAppInstance)

	classifier, err := proofai.NewClassifier(ctx, cfg.ProofAIModel)
	if err != nil {
		return nil, err
	}

	senderService := senderservice.New(transport, logger)
	reconcilerService := reconcilerservice.New(db, cacheRedis, logger)
	subscriptionService := subservice.New(db, db, loc, logger)
	notifierService := notifierservice.New(db, senderService, messenger, loc, logger)
	paymentService := paymentservice.New(db, subscriptionService, senderService,
		classifier, gateway, cfg.GatewayReturnURL, logger)
	authService := authservice.New(db, maker, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, maker, db,
		reconcilerService, subscriptionService, notifierService, paymentService, authService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", slog.String("error", closeErr.Error()))
		}
		return err
	}
}
