// Package read реализует HTTP-обработчик чтения счёта по ID.
package read

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
	"github.com/finexapp/finex-backend/internal/models"
	"github.com/finexapp/finex-backend/internal/storage/repository"
)

// Handler управляет HTTP-запросами на чтение счёта.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики счетов
}

// Service описывает интерфейс бизнес-логики чтения счёта.
type Service interface {
	GetAccount(ctx context.Context, accountID int) (*models.Account, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Прочитать счёт
// @Description Возвращает счёт по его ID.
// @Tags Accounts
// @Produce  json
// @Param id path int true "ID счёта"
// @Success 200 {object} response.Response "Данные счёта"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Счёт не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /accounts/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.read"
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

	account, err := h.service.GetAccount(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("account not found", slog.Int("account_id", accountID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("account not found"))
			return
		}
		log.Error("failed to read account", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read account"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(account))
}
