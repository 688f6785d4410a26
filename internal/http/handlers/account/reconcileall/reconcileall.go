// Package reconcileall реализует HTTP-обработчик пакетной сверки балансов.
//
// Handler сверяет балансы всех активных счетов; ошибка одного счёта
// попадает в отчёт и не прерывает обработку остальных.
package reconcileall

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/finexapp/finex-backend/internal/http/response"
	"github.com/finexapp/finex-backend/internal/lib/sl"
	"github.com/finexapp/finex-backend/internal/services/reconciler"
)

// Handler управляет HTTP-запросами на пакетную сверку балансов.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики сверки
}

// Service описывает интерфейс бизнес-логики пакетной сверки.
type Service interface {
	ReconcileAll(ctx context.Context) (*reconciler.BatchResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сверить балансы всех счетов
// @Description Пересчитывает балансы всех активных счетов и возвращает сводный отчёт.
// @Tags Accounts
// @Produce  json
// @Success 200 {object} response.Response "Сводный отчёт сверки"
// @Failure 403 {object} response.ErrorResponse "Требуется роль администратора"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при сверке"
// @Security BearerAuth
// @Router /accounts/reconcile-all [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.reconcileall"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	result, err := h.service.ReconcileAll(r.Context())
	if err != nil {
		log.Error("failed to reconcile accounts", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not reconcile accounts"))
		return
	}

	log.Info("accounts reconciled",
		slog.Int("total", result.Total),
		slog.Int("updated", result.Updated),
		slog.Int("failed", result.Failed))
	render.JSON(w, r, response.StatusOKWithData(result))
}
