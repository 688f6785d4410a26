// Package payment содержит бизнес-логику обработки платежей: приём
// вебхуков шлюза, проверку чеков об оплате через ИИ-классификатор и
// создание PIX-платежей. Оба пути подтверждения идемпотентны: повторная
// доставка одного события не даёт второй активации.
package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finexapp/finex-backend/internal/lib/sl"
	"github.com/finexapp/finex-backend/internal/metrics"
	"github.com/finexapp/finex-backend/internal/models"
	"github.com/finexapp/finex-backend/internal/paymentgateway"
	"github.com/finexapp/finex-backend/internal/proofai"
	"github.com/finexapp/finex-backend/internal/services/subscription"
	"github.com/finexapp/finex-backend/internal/storage/repository"
)

// proofTolerance — допустимое расхождение между распознанной и ожидаемой
// суммами, включительно.
var proofTolerance = decimal.RequireFromString("0.50")

// maxProofImageSize ограничивает размер скачиваемого изображения чека.
const maxProofImageSize = 10 << 20

// Цены планов в BRL.
var planPrices = map[string]string{
	models.PlanMonthly:  "19.90",
	models.PlanSemester: "99.90",
	models.PlanAnnual:   "179.90",
	models.PlanLifetime: "499.90",
}

// Вебхук-события шлюза, означающие подтверждённую оплату.
var confirmedEvents = map[string]struct{}{
	"PAYMENT_CONFIRMED": {},
	"PAYMENT_RECEIVED":  {},
	"billing.paid":      {},
}

// PaymentRepository определяет методы хранилища для обработки платежей.
type PaymentRepository interface {
	CreateWebhookLog(ctx context.Context, wl models.WebhookLog) (int, error)
	FindSubscriptionByTransactionID(ctx context.Context, transactionID string) (*models.Subscription, error)
	GetSubscription(ctx context.Context, id int) (*models.Subscription, error)
	CreateSubscription(ctx context.Context, sub models.Subscription) (int, error)
	AppendSubscriptionNotes(ctx context.Context, id int, note string) error
}

// Activator активирует подписку по подтверждённой оплате.
type Activator interface {
	Activate(ctx context.Context, subscriptionID int, planType string, refDate time.Time) (*subscription.ActivationResult, error)
}

// Mailer отправляет письмо с подтверждением оплаты.
type Mailer interface {
	SendPaymentConfirmation(email, planType string, endDate time.Time) error
}

// ProofClassifier анализирует изображение чека об оплате.
type ProofClassifier interface {
	Analyze(ctx context.Context, image []byte, mimeType string) (*proofai.Analysis, error)
}

// Gateway создаёт платежи в платёжном шлюзе.
type Gateway interface {
	CreateCharge(ctx context.Context, req paymentgateway.CreateChargeRequest) (*paymentgateway.CreateChargeResponse, error)
}

// WebhookResult — итог обработки вебхука. Acknowledged выставлен всегда,
// когда шлюзу следует ответить успехом, даже если платёж не найден:
// повторные доставки того же события ничего не исправят.
type WebhookResult struct {
	Acknowledged   bool   `json:"acknowledged"`
	SubscriptionID int    `json:"subscription_id,omitempty"`
	AlreadyActive  bool   `json:"already_active,omitempty"`
	Detail         string `json:"detail,omitempty"`
}

// ProofResult — итог проверки чека об оплате.
type ProofResult struct {
	AutoApproved bool              `json:"auto_approved"`
	Analysis     *proofai.Analysis `json:"analysis"`
}

// PaymentLink — данные созданного PIX-платежа для оплаты пользователем.
type PaymentLink struct {
	SubscriptionID int    `json:"subscription_id"`
	PaymentID      string `json:"payment_id"`
	Amount         string `json:"amount"`
	BRCode         string `json:"br_code"`
	QRCodeImage    string `json:"qr_code_image"`
}

// Service реализует обработку платежей.
type Service struct {
	repo       PaymentRepository
	activator  Activator
	mailer     Mailer
	classifier ProofClassifier
	gateway    Gateway
	httpClient *http.Client
	returnURL  string
	log        *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo PaymentRepository, activator Activator, mailer Mailer,
	classifier ProofClassifier, gateway Gateway, returnURL string, log *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		activator:  activator,
		mailer:     mailer,
		classifier: classifier,
		gateway:    gateway,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		returnURL:  returnURL,
		log:        log,
	}
}

// HandleWebhook обрабатывает вебхук платёжного шлюза. Каждая доставка
// фиксируется в webhook_logs независимо от исхода. Неизвестный платёж
// логируется как ошибка, но шлюзу отвечаем успехом, чтобы не получать
// бесконечные повторы одного и того же события.
func (s *Service) HandleWebhook(ctx context.Context, eventType, paymentID string, rawPayload []byte) (*WebhookResult, error) {
	const op = "services.payment.HandleWebhook"

	if _, err := s.repo.CreateWebhookLog(ctx, models.WebhookLog{
		EventType: eventType,
		PaymentID: paymentID,
		Payload:   string(rawPayload),
		Status:    models.WebhookReceived,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.WebhooksReceived.WithLabelValues(eventType).Inc()

	if _, ok := confirmedEvents[eventType]; !ok {
		s.log.Info("ignoring webhook event", slog.String("event_type", eventType))
		return &WebhookResult{Acknowledged: true, Detail: "event ignored"}, nil
	}

	sub, err := s.repo.FindSubscriptionByTransactionID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if _, logErr := s.repo.CreateWebhookLog(ctx, models.WebhookLog{
				EventType:    eventType,
				PaymentID:    paymentID,
				Payload:      string(rawPayload),
				Status:       models.WebhookError,
				ErrorMessage: "no subscription with this transaction_id",
			}); logErr != nil {
				s.log.Error("failed to write webhook error log", sl.Err(logErr))
			}
			s.log.Error("webhook for unknown payment", slog.String("payment_id", paymentID))
			return &WebhookResult{Acknowledged: true, Detail: "subscription not found"}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	activation, err := s.activator.Activate(ctx, sub.ID, sub.PlanType, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.repo.CreateWebhookLog(ctx, models.WebhookLog{
		EventType: eventType,
		PaymentID: paymentID,
		Payload:   string(rawPayload),
		Status:    models.WebhookProcessed,
	}); err != nil {
		s.log.Error("failed to write webhook processed log", sl.Err(err))
	}

	// Дубликат события не должен давать второе письмо.
	if !activation.AlreadyActive {
		if err := s.mailer.SendPaymentConfirmation(sub.UserEmail, activation.PlanType, activation.EndDate); err != nil {
			s.log.Error("failed to send payment confirmation email",
				slog.String("user_email", sub.UserEmail), sl.Err(err))
		}
	}

	return &WebhookResult{
		Acknowledged:   true,
		SubscriptionID: sub.ID,
		AlreadyActive:  activation.AlreadyActive,
	}, nil
}

// ReviewProof скачивает изображение чека, отдаёт его классификатору и
// авто-одобряет подписку, если чек валиден и сумма сходится с ожидаемой
// в пределах proofTolerance. Иначе подписка остаётся pending, а анализ
// дописывается в её заметки для ручной проверки администратором.
// Ошибка классификатора — жёсткая и возвращается вызывающей стороне.
func (s *Service) ReviewProof(ctx context.Context, subscriptionID int, proofURL, expectedAmount, planType string) (*ProofResult, error) {
	const op = "services.payment.ReviewProof"

	expected, err := decimal.NewFromString(expectedAmount)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid expected amount: %w", op, err)
	}

	if _, err := s.repo.GetSubscription(ctx, subscriptionID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	image, mimeType, err := s.fetchProofImage(ctx, proofURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	analysis, err := s.classifier.Analyze(ctx, image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	paid, err := decimal.NewFromString(analysis.AmountPaid)
	if err != nil {
		paid = decimal.Zero
		s.log.Warn("classifier returned malformed amount",
			slog.String("amount_paid", analysis.AmountPaid), sl.Err(err))
	}

	amountMatches := paid.Sub(expected).Abs().LessThanOrEqual(proofTolerance)
	if analysis.IsValid && amountMatches {
		if _, err := s.activator.Activate(ctx, subscriptionID, planType, time.Now()); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		note := fmt.Sprintf("auto-approved by proof analysis: bank=%s confidence=%.2f amount=%s",
			analysis.Bank, analysis.Confidence, analysis.AmountPaid)
		if err := s.repo.AppendSubscriptionNotes(ctx, subscriptionID, note); err != nil {
			s.log.Error("failed to append approval note", sl.Err(err))
		}
		metrics.ProofReviews.WithLabelValues("auto_approved").Inc()
		s.log.Info("proof auto-approved",
			slog.Int("subscription_id", subscriptionID),
			slog.String("bank", analysis.Bank),
			slog.Float64("confidence", analysis.Confidence))
		return &ProofResult{AutoApproved: true, Analysis: analysis}, nil
	}

	note := fmt.Sprintf("proof analysis (manual review): is_valid=%t amount_paid=%s expected=%s bank=%s confidence=%.2f",
		analysis.IsValid, analysis.AmountPaid, expected.StringFixed(2), analysis.Bank, analysis.Confidence)
	if err := s.repo.AppendSubscriptionNotes(ctx, subscriptionID, note); err != nil {
		s.log.Error("failed to append analysis note", sl.Err(err))
	}
	metrics.ProofReviews.WithLabelValues("manual_review").Inc()

	return &ProofResult{AutoApproved: false, Analysis: analysis}, nil
}

// CreatePayment создаёт PIX-платёж в шлюзе и подписку в статусе pending,
// связанную с платежом через transaction_id.
func (s *Service) CreatePayment(ctx context.Context, userEmail, planType string) (*PaymentLink, error) {
	const op = "services.payment.CreatePayment"

	price, ok := planPrices[planType]
	if !ok {
		return nil, fmt.Errorf("%s: unknown plan type: %s", op, planType)
	}

	charge, err := s.gateway.CreateCharge(ctx, paymentgateway.CreateChargeRequest{
		Amount:        paymentgateway.Amount{Value: price, Currency: "BRL"},
		Description:   fmt.Sprintf("FINEX %s plan", planType),
		CustomerEmail: userEmail,
		ReturnURL:     s.returnURL,
		Metadata: map[string]string{
			"user_email": userEmail,
			"plan_type":  planType,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	subID, err := s.repo.CreateSubscription(ctx, models.Subscription{
		UserEmail:     userEmail,
		PlanType:      planType,
		Status:        models.SubscriptionPending,
		AmountPaid:    price,
		TransactionID: charge.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("payment created",
		slog.Int("subscription_id", subID),
		slog.String("payment_id", charge.ID),
		slog.String("user_email", userEmail),
		slog.String("plan_type", planType))

	return &PaymentLink{
		SubscriptionID: subID,
		PaymentID:      charge.ID,
		Amount:         price,
		BRCode:         charge.BRCode,
		QRCodeImage:    charge.QRCodeImage,
	}, nil
}

func (s *Service) fetchProofImage(ctx context.Context, proofURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", proofURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build proof request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch proof image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch proof image: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxProofImageSize))
	if err != nil {
		return nil, "", fmt.Errorf("read proof image: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return data, mimeType, nil
}
