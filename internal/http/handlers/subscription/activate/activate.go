// Package activate реализует HTTP-обработчик активации подписки администратором.
//
// Handler принимает JSON-запрос с ID подписки и типом плана, валидирует их,
// вызывает бизнес-логику активации и возвращает даты действия подписки.
package activate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/finexapp/finex-backend/internal/http/response"
	"github.com/finexapp/finex-backend/internal/lib/sl"
	"github.com/finexapp/finex-backend/internal/models"
	"github.com/finexapp/finex-backend/internal/services/subscription"
	"github.com/finexapp/finex-backend/internal/storage/repository"
)

// Handler управляет HTTP-запросами на активацию подписки.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики подписок
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики активации подписки.
type Service interface {
	Activate(ctx context.Context, subscriptionID int, planType string, refDate time.Time) (*subscription.ActivationResult, error)
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
// @Summary Активировать подписку
// @Description Переводит подписку из pending в active и зеркалирует статус на пользователя.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param request body models.DummyActivate true "ID подписки и тип плана"
// @Success 200 {object} response.Response "Даты действия подписки"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Требуется роль администратора"
// @Failure 404 {object} response.ErrorResponse "Подписка или пользователь не найдены"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при активации"
// @Security BearerAuth
// @Router /subscriptions/activate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.activate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyActivate
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

	result, err := h.service.Activate(r.Context(), req.SubscriptionID, req.PlanType, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("subscription or user not found", slog.Int("subscription_id", req.SubscriptionID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("subscription or user not found"))
			return
		}
		log.Error("failed to activate subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not activate subscription"))
		return
	}

	log.Info("subscription activated",
		slog.Int("subscription_id", req.SubscriptionID),
		slog.Bool("already_active", result.AlreadyActive))
	render.JSON(w, r, response.StatusOKWithData(result))
}
