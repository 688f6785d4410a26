// Package paymentwebhook реализует HTTP-обработчик вебхуков платёжного шлюза.
//
// Эндпоинт не требует авторизации пользователя: доставка проверяется
// HMAC-подписью в заголовке X-Api-Signature, если секрет сконфигурирован.
// Пустой секрет отключает проверку.
package paymentwebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/finexapp/finex-backend/internal/http/response"
	"github.com/finexapp/finex-backend/internal/lib/sl"
	"github.com/finexapp/finex-backend/internal/services/payment"
)

// maxWebhookBody ограничивает размер тела вебхука.
const maxWebhookBody = 1 << 20

// Service описывает интерфейс бизнес-логики обработки вебхука.
type Service interface {
	HandleWebhook(ctx context.Context, eventType, paymentID string, rawPayload []byte) (*payment.WebhookResult, error)
}

// Handler управляет HTTP-запросами вебхуков платёжного шлюза.
type Handler struct {
	log           *slog.Logger // Логгер для записи информации и ошибок
	service       Service      // Сервис бизнес-логики платежей
	webhookSecret string       // Секрет для проверки подписи, пустой отключает проверку
}

// New создает новый Handler с переданными логгером, сервисом и секретом.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// Payload — тело вебхука шлюза.
type Payload struct {
	Event   string `json:"event"`
	Payment struct {
		ID     string `json:"id"`     // ID платежа в шлюзе
		Status string `json:"status"` // статус платежа
		Amount struct {
			Value    string `json:"value"`    // сумма в строке, например "50.00"
			Currency string `json:"currency"` // валюта
		} `json:"amount"`
		Metadata map[string]string `json:"metadata"` // user_email, plan_type и др.
	} `json:"payment"`
}

// Проверка подписи webhook (X-Api-Signature)
func (h *Handler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expectedSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expectedSig), []byte(signature))
}

// ServeHTTP godoc
// @Summary Принять вебхук платёжного шлюза
// @Description Фиксирует доставку и активирует подписку по подтверждённой оплате. Идемпотентен.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param X-Api-Signature header string false "HMAC-SHA256 подпись тела"
// @Param request body Payload true "Событие шлюза"
// @Success 200 {object} response.Response "Вебхук принят"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при обработке"
// @Router /webhooks/payment [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("could not read body"))
		return
	}

	if h.webhookSecret != "" {
		signature := r.Header.Get("X-Api-Signature")
		if signature == "" || !h.verifySignature(body, signature) {
			log.Error("invalid or missing webhook signature")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid signature"))
			return
		}
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid payload"))
		return
	}

	result, err := h.service.HandleWebhook(r.Context(), payload.Event, payload.Payment.ID, body)
	if err != nil {
		log.Error("failed to process webhook event", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not process webhook"))
		return
	}

	log.Info("webhook processed",
		slog.String("event", payload.Event),
		slog.String("payment_id", payload.Payment.ID),
		slog.String("detail", result.Detail))
	render.JSON(w, r, response.StatusOKWithData(result))
}
