// Package adjust реализует HTTP-обработчик ручной корректировки баланса.
//
// Handler принимает JSON-запрос с суммой и направлением (add или subtract),
// валидирует их и возвращает новый баланс счёта.
package adjust

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/finexapp/finex-backend/internal/http/response"
	"github.com/finexapp/finex-backend/internal/lib/sl"
	"github.com/finexapp/finex-backend/internal/models"
	"github.com/finexapp/finex-backend/internal/storage/repository"
)

// Handler управляет HTTP-запросами на корректировку баланса.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики счетов
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики корректировки баланса.
type Service interface {
	Adjust(ctx context.Context, accountID int, amount, operation string) (string, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Скорректировать баланс счёта
// @Description Сдвигает баланс счёта на указанную сумму в сторону add или subtract.
// @Tags Accounts
// @Accept  json
// @Produce  json
// @Param id path int true "ID счёта"
// @Param request body models.DummyAdjust true "Сумма и направление корректировки"
// @Success 200 {object} response.Response "Новый баланс"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Счёт не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /accounts/{id}/adjust [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.adjust"
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

	var req models.DummyAdjust
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	newBalance, err := h.service.Adjust(r.Context(), accountID, req.Amount, req.Operation)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("account not found", slog.Int("account_id", accountID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("account not found"))
			return
		}
		log.Error("failed to adjust account", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not adjust account"))
		return
	}

	log.Info("account adjusted",
		slog.Int("account_id", accountID),
		slog.String("operation", req.Operation))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"new_balance": newBalance,
	}))
}
