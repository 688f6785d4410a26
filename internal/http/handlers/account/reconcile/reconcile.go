// Package reconcile реализует HTTP-обработчик сверки баланса счёта.
//
// Handler пересчитывает баланс счёта из журнала завершённых транзакций
// и возвращает отчёт со старым и новым балансом.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/finexapp/finex-backend/internal/http/response"
	"github.com/finexapp/finex-backend/internal/lib/sl"
	"github.com/finexapp/finex-backend/internal/services/reconciler"
	"github.com/finexapp/finex-backend/internal/storage/repository"
)

// Handler управляет HTTP-запросами на сверку баланса.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики сверки
}

// Service описывает интерфейс бизнес-логики сверки баланса.
type Service interface {
	Reconcile(ctx context.Context, accountID int) (*reconciler.Result, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сверить баланс счёта
// @Description Пересчитывает баланс счёта из завершённых транзакций и возвращает отчёт.
// @Tags Accounts
// @Produce  json
// @Param id path int true "ID счёта"
// @Success 200 {object} response.Response "Отчёт сверки"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Счёт не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при сверке"
// @Security BearerAuth
// @Router /accounts/{id}/reconcile [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.reconcile"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	accountID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid account id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid account id"))
		return
	}

	result, err := h.service.Reconcile(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("account not found", slog.Int("account_id", accountID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("account not found"))
			return
		}
		log.Error("failed to reconcile account", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not reconcile account"))
		return
	}

	log.Info("account reconciled",
		slog.Int("account_id", accountID),
		slog.Bool("updated", result.Updated))
	render.JSON(w, r, response.StatusOKWithData(result))
}
