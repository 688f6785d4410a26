// Package sweep реализует HTTP-обработчик ежедневной сверки подписок.
//
// Handler запускает сверку статусов подписок с датами окончания и
// синхронную рассылку положенных на сегодня уведомлений, возвращая
// сводный отчёт.
package sweep

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/finexapp/finex-backend/internal/http/response"
	"github.com/finexapp/finex-backend/internal/lib/sl"
	"github.com/finexapp/finex-backend/internal/services/notifier"
	"github.com/finexapp/finex-backend/internal/services/subscription"
)

// Handler управляет HTTP-запросами на сверку подписок.
type Handler struct {
	log        *slog.Logger // Логгер для записи информации и ошибок
	sweeper    Sweeper      // Сервис сверки статусов подписок
	dispatcher Dispatcher   // Сервис рассылки уведомлений
}

// Sweeper описывает интерфейс сверки статусов подписок.
type Sweeper interface {
	SweepExpiry(ctx context.Context, today time.Time) (*subscription.SweepReport, error)
}

// Dispatcher описывает интерфейс рассылки биллинговых уведомлений.
type Dispatcher interface {
	DispatchAll(ctx context.Context, today time.Time) (*notifier.DispatchReport, error)
}

// New создает новый Handler с переданными логгером и сервисами.
func New(log *slog.Logger, sweeper Sweeper, dispatcher Dispatcher) *Handler {
	return &Handler{log: log, sweeper: sweeper, dispatcher: dispatcher}
}

// ServeHTTP godoc
// @Summary Сверить статусы подписок
// @Description Приводит статусы подписок в соответствие с датами окончания и рассылает положенные уведомления.
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} response.Response "Сводный отчёт сверки и рассылки"
// @Failure 403 {object} response.ErrorResponse "Требуется роль администратора"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при сверке"
// @Security BearerAuth
// @Router /subscriptions/sweep-expiry [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.sweep"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	now := time.Now()

	sweepReport, err := h.sweeper.SweepExpiry(r.Context(), now)
	if err != nil {
		log.Error("failed to sweep subscriptions", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not sweep subscriptions"))
		return
	}

	dispatchReport, err := h.dispatcher.DispatchAll(r.Context(), now)
	if err != nil {
		log.Error("failed to dispatch notifications", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not dispatch notifications"))
		return
	}

	log.Info("sweep finished",
		slog.Int("expired", sweepReport.Expired),
		slog.Int("revived", sweepReport.Revived),
		slog.Int("notifications_sent", dispatchReport.NotificationsSent))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"sweep":              sweepReport,
		"total_users":        dispatchReport.TotalUsers,
		"notifications_sent": dispatchReport.NotificationsSent,
		"errors":             dispatchReport.Errors,
		"by_type":            dispatchReport.ByType,
		"details":            dispatchReport.Details,
	}))
}
