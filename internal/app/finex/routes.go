// Package finex предоставляет маршруты для основного приложения.
package finex

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/finexapp/finex-backend/internal/config"
	"github.com/finexapp/finex-backend/internal/http/handlers/account/adjust"
	accountread "github.com/finexapp/finex-backend/internal/http/handlers/account/read"
	"github.com/finexapp/finex-backend/internal/http/handlers/account/reconcile"
	"github.com/finexapp/finex-backend/internal/http/handlers/account/reconcileall"
	"github.com/finexapp/finex-backend/internal/http/handlers/auth/login"
	"github.com/finexapp/finex-backend/internal/http/handlers/auth/register"
	"github.com/finexapp/finex-backend/internal/http/handlers/payment/paymentcreate"
	"github.com/finexapp/finex-backend/internal/http/handlers/payment/paymentproof"
	"github.com/finexapp/finex-backend/internal/http/handlers/payment/paymentwebhook"
	"github.com/finexapp/finex-backend/internal/http/handlers/subscription/activate"
	sublist "github.com/finexapp/finex-backend/internal/http/handlers/subscription/list"
	"github.com/finexapp/finex-backend/internal/http/handlers/subscription/reject"
	"github.com/finexapp/finex-backend/internal/http/handlers/subscription/sweep"
	"github.com/finexapp/finex-backend/internal/http/middlewarectx"
	"github.com/finexapp/finex-backend/internal/lib/jwt"
	authservice "github.com/finexapp/finex-backend/internal/services/auth"
	notifierservice "github.com/finexapp/finex-backend/internal/services/notifier"
	paymentservice "github.com/finexapp/finex-backend/internal/services/payment"
	reconcilerservice "github.com/finexapp/finex-backend/internal/services/reconciler"
	subservice "github.com/finexapp/finex-backend/internal/services/subscription"
	"github.com/finexapp/finex-backend/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, maker jwt.Maker,
	db *repository.Storage,
	reconcilerService *reconcilerservice.Service,
	subscriptionService *subservice.Service,
	notifierService *notifierservice.Service,
	paymentService *paymentservice.Service,
	authService *authservice.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, authService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService).ServeHTTP)

		// Webhook endpoint (без аутентификации пользователя, проверяется подписью)
		r.Post("/webhooks/payment", paymentwebhook.New(logger, paymentService, cfg.WebhookSecret).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(maker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/payments", paymentcreate.New(logger, paymentService).ServeHTTP)
			r.Post("/payments/proof", paymentproof.New(logger, paymentService).ServeHTTP)
			r.Get("/accounts/{id}", accountread.New(logger, reconcilerService).ServeHTTP)
			r.Post("/accounts/{id}/reconcile", reconcile.New(logger, reconcilerService).ServeHTTP)
			r.Post("/accounts/{id}/adjust", adjust.New(logger, reconcilerService).ServeHTTP)

			// Административные конечные точки
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireAdmin(logger))

				r.Post("/subscriptions/activate", activate.New(logger, subscriptionService).ServeHTTP)
				r.Post("/subscriptions/reject", reject.New(logger, subscriptionService).ServeHTTP)
				r.Get("/subscriptions", sublist.New(logger, subscriptionService, db).ServeHTTP)
				r.Post("/subscriptions/sweep-expiry", sweep.New(logger, subscriptionService, notifierService).ServeHTTP)
				r.Post("/accounts/reconcile-all", reconcileall.New(logger, reconcilerService).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
