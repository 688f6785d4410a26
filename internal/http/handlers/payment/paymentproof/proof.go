// Package paymentproof реализует HTTP-обработчик проверки чека об оплате.
//
// Handler принимает ссылку на изображение чека, запускает его анализ через
// ИИ-классификатор и возвращает, была ли подписка авто-одобрена.
package paymentproof

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/finexapp/finex-backend/internal/http/response"
	"github.com/finexapp/finex-backend/internal/lib/sl"
	"github.com/finexapp/finex-backend/internal/models"
	"github.com/finexapp/finex-backend/internal/services/payment"
	"github.com/finexapp/finex-backend/internal/storage/repository"
)

// Handler управляет HTTP-запросами на проверку чеков об оплате.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики платежей
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики проверки чека.
type Service interface {
	ReviewProof(ctx context.Context, subscriptionID int, proofURL, expectedAmount, planType string) (*payment.ProofResult, error)
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
// @Summary Проверить чек об оплате
// @Description Анализирует изображение чека и авто-одобряет подписку при совпадении суммы.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body models.DummyProof true "Данные чека"
// @Success 200 {object} response.Response "Результат анализа"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Классификатор недоступен"
// @Security BearerAuth
// @Router /payments/proof [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.proof"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyProof
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

	result, err := h.service.ReviewProof(r.Context(), req.SubscriptionID, req.ProofURL, req.ExpectedAmount, req.PlanType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("subscription not found", slog.Int("subscription_id", req.SubscriptionID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("subscription not found"))
			return
		}
		// Анализ не состоялся: вызывающая сторона должна узнать об этом,
		// а не считать подписку оставленной на ручную проверку.
		log.Error("proof analysis failed", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("could not analyze proof"))
		return
	}

	log.Info("proof reviewed",
		slog.Int("subscription_id", req.SubscriptionID),
		slog.Bool("auto_approved", result.AutoApproved))
	render.JSON(w, r, response.StatusOKWithData(result))
}
