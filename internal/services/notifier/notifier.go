// Package notifier содержит бизнес-логику биллинговых уведомлений:
// вычисление типа уведомления по числу дней до окончания подписки,
// дедупликацию по календарному дню и доставку по почте и WhatsApp.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finexapp/finex-backend/internal/lib/dates"
	"github.com/finexapp/finex-backend/internal/lib/sl"
	"github.com/finexapp/finex-backend/internal/metrics"
	"github.com/finexapp/finex-backend/internal/models"
)

// offsets сопоставляет diffDays = endDate - today типу уведомления.
// Остальные значения diffDays уведомления не требуют.
var offsets = map[int]models.NotificationType{
	7:  models.Notify7DaysBefore,
	3:  models.Notify3DaysBefore,
	1:  models.Notify1DayBefore,
	0:  models.NotifyOnExpiry,
	-1: models.Notify1DayAfter,
	-3: models.Notify3DaysAfter,
	-7: models.Notify7DaysAfter,
}

type template struct {
	subject string
	body    string // fmt-шаблон: username, дата окончания
}

var templates = map[models.NotificationType]template{
	models.Notify7DaysBefore: {
		subject: "FINEX: sua assinatura vence em 7 dias",
		body:    "Olá %s!\n\nSua assinatura FINEX vence em 7 dias, no dia %s.\nRenove para não perder o acesso.",
	},
	models.Notify3DaysBefore: {
		subject: "FINEX: sua assinatura vence em 3 dias",
		body:    "Olá %s!\n\nSua assinatura FINEX vence em 3 dias, no dia %s.\nRenove para não perder o acesso.",
	},
	models.Notify1DayBefore: {
		subject: "FINEX: sua assinatura vence amanhã",
		body:    "Olá %s!\n\nSua assinatura FINEX vence amanhã, dia %s.\nRenove hoje para não perder o acesso.",
	},
	models.NotifyOnExpiry: {
		subject: "FINEX: sua assinatura vence hoje",
		body:    "Olá %s!\n\nSua assinatura FINEX vence hoje, dia %s.\nRenove agora para manter o acesso.",
	},
	models.Notify1DayAfter: {
		subject: "FINEX: sua assinatura venceu ontem",
		body:    "Olá %s!\n\nSua assinatura FINEX venceu ontem, dia %s.\nRenove para recuperar o acesso.",
	},
	models.Notify3DaysAfter: {
		subject: "FINEX: sua assinatura venceu há 3 dias",
		body:    "Olá %s!\n\nSua assinatura FINEX venceu no dia %s.\nRenove para recuperar o acesso.",
	},
	models.Notify7DaysAfter: {
		subject: "FINEX: sentimos sua falta",
		body:    "Olá %s!\n\nSua assinatura FINEX venceu no dia %s, há uma semana.\nRenove para voltar a usar o FINEX.",
	},
}

// NotificationRepository определяет методы хранилища для уведомлений.
type NotificationRepository interface {
	CreateBillingNotification(ctx context.Context, n models.BillingNotification) (int, error)
	CountNotificationsOnDay(ctx context.Context, email string, ntype models.NotificationType, day time.Time) (int, error)
	ListBillableUsers(ctx context.Context) ([]*models.User, error)
}

// Emailer отправляет письмо.
type Emailer interface {
	Send(to, subject, body string) error
}

// Messenger отправляет сообщение в WhatsApp. Канал опционален.
type Messenger interface {
	Enabled() bool
	SendMessage(ctx context.Context, phone, text string) error
}

// Delivery — итог обработки одного пользователя.
type Delivery struct {
	UserEmail string                  `json:"user_email"`
	Type      models.NotificationType `json:"type"`
	Status    string                  `json:"status"`
	Error     string                  `json:"error,omitempty"`
}

// DispatchReport — итог прохода рассылки по всем пользователям.
type DispatchReport struct {
	TotalUsers        int                             `json:"total_users"`
	NotificationsSent int                             `json:"notifications_sent"`
	Errors            int                             `json:"errors"`
	ByType            map[models.NotificationType]int `json:"by_type"`
	Details           []Delivery                      `json:"details"`
}

// Service реализует вычисление и доставку биллинговых уведомлений.
type Service struct {
	repo      NotificationRepository
	email     Emailer
	messenger Messenger
	loc       *time.Location
	log       *slog.Logger
}

// New создает новый экземпляр Service. messenger может быть nil.
func New(repo NotificationRepository, email Emailer, messenger Messenger,
	loc *time.Location, log *slog.Logger) *Service {
	return &Service{repo: repo, email: email, messenger: messenger, loc: loc, log: log}
}

// DueType возвращает тип уведомления, положенный пользователю на день
// today, и false, если уведомление не требуется: пользователь админ, на
// пожизненном плане, без даты окончания или diffDays вне набора смещений.
func (s *Service) DueType(user *models.User, today time.Time) (models.NotificationType, bool) {
	if user.Role == models.RoleAdmin ||
		user.SubscriptionPlan == models.PlanLifetime ||
		user.SubscriptionEndDate == nil {
		return "", false
	}
	diff := dates.DiffDays(*user.SubscriptionEndDate, dates.Day(today, s.loc))
	ntype, ok := offsets[diff]
	return ntype, ok
}

// NotifyIfDue отправляет пользователю положенное на today уведомление,
// если оно ещё не отправлялось в этот день. Возвращает nil, если
// уведомление не требуется или уже было. Неудача доставки записывается
// в журнал со статусом failed и не является ошибкой вызова.
func (s *Service) NotifyIfDue(ctx context.Context, user *models.User, today time.Time) (*Delivery, error) {
	const op = "services.notifier.NotifyIfDue"

	ntype, ok := s.DueType(user, today)
	if !ok {
		return nil, nil
	}

	day := dates.Day(today, s.loc)
	count, err := s.repo.CountNotificationsOnDay(ctx, user.Email, ntype, day)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if count > 0 {
		return nil, nil
	}

	return s.deliver(ctx, models.NotificationTask{
		Email:            user.Email,
		Username:         user.Username,
		Phone:            user.Phone,
		NotificationType: ntype,
		SubscriptionPlan: user.SubscriptionPlan,
		ExpiryDate:       *user.SubscriptionEndDate,
	})
}

// Deliver доставляет уведомление из очереди. В отличие от NotifyIfDue
// тип уже вычислен отправителем задачи, но дедупликация по дню
// повторяется: очередь гарантирует доставку как минимум один раз.
func (s *Service) Deliver(ctx context.Context, task models.NotificationTask) (*Delivery, error) {
	const op = "services.notifier.Deliver"

	day := dates.Day(time.Now(), s.loc)
	count, err := s.repo.CountNotificationsOnDay(ctx, task.Email, task.NotificationType, day)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if count > 0 {
		s.log.Info("duplicate notification task skipped",
			slog.String("user_email", task.Email),
			slog.String("type", string(task.NotificationType)))
		return nil, nil
	}

	return s.deliver(ctx, task)
}

func (s *Service) deliver(ctx context.Context, task models.NotificationTask) (*Delivery, error) {
	const op = "services.notifier.deliver"

	tmpl, ok := templates[task.NotificationType]
	if !ok {
		return nil, fmt.Errorf("%s: no template for type %s", op, task.NotificationType)
	}
	body := fmt.Sprintf(tmpl.body, task.Username, task.ExpiryDate.Format("02/01/2006"))

	sendErr := s.email.Send(task.Email, tmpl.subject, body)
	if sendErr == nil && s.messenger != nil && s.messenger.Enabled() && task.Phone != "" {
		if err := s.messenger.SendMessage(ctx, task.Phone, tmpl.subject+"\n\n"+body); err != nil {
			// Второй канал не влияет на статус: письмо уже ушло.
			s.log.Warn("failed to send whatsapp notification",
				slog.String("user_email", task.Email), sl.Err(err))
		}
	}

	record := models.BillingNotification{
		UserEmail:        task.Email,
		NotificationType: task.NotificationType,
		SubscriptionPlan: task.SubscriptionPlan,
		ExpiryDate:       task.ExpiryDate,
		Status:           models.NotificationSent,
	}
	delivery := &Delivery{
		UserEmail: task.Email,
		Type:      task.NotificationType,
		Status:    models.NotificationSent,
	}
	if sendErr != nil {
		record.Status = models.NotificationFailed
		record.ErrorMessage = sendErr.Error()
		delivery.Status = models.NotificationFailed
		delivery.Error = sendErr.Error()
		s.log.Error("failed to send billing notification",
			slog.String("user_email", task.Email),
			slog.String("type", string(task.NotificationType)),
			sl.Err(sendErr))
	}

	if _, err := s.repo.CreateBillingNotification(ctx, record); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.NotificationsDelivered.WithLabelValues(record.Status).Inc()
	return delivery, nil
}

// DispatchAll прогоняет рассылку по всем неадминистративным пользователям
// с платной подпиской. Ошибки по одному пользователю накапливаются в
// отчёт и не прерывают обход.
func (s *Service) DispatchAll(ctx context.Context, today time.Time) (*DispatchReport, error) {
	const op = "services.notifier.DispatchAll"

	users, err := s.repo.ListBillableUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	report := &DispatchReport{
		TotalUsers: len(users),
		ByType:     make(map[models.NotificationType]int),
	}
	for _, user := range users {
		select {
		case <-ctx.Done():
			return report, fmt.Errorf("%s: %w", op, ctx.Err())
		default:
		}

		delivery, err := s.NotifyIfDue(ctx, user, today)
		if err != nil {
			report.Errors++
			report.Details = append(report.Details, Delivery{
				UserEmail: user.Email,
				Status:    models.NotificationFailed,
				Error:     err.Error(),
			})
			s.log.Error("failed to process user notification",
				slog.String("user_email", user.Email), sl.Err(err))
			continue
		}
		if delivery == nil {
			continue
		}

		report.Details = append(report.Details, *delivery)
		report.ByType[delivery.Type]++
		if delivery.Status == models.NotificationSent {
			report.NotificationsSent++
		} else {
			report.Errors++
		}
	}

	return report, nil
}

// DueTasks возвращает задачи на доставку уведомлений, положенных на
// today, без их отправки. Используется планировщиком для публикации в
// очередь; дедупликацию по дню выполняет потребитель.
func (s *Service) DueTasks(ctx context.Context, today time.Time) ([]models.NotificationTask, error) {
	const op = "services.notifier.DueTasks"

	users, err := s.repo.ListBillableUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var tasks []models.NotificationTask
	for _, user := range users {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		default:
		}

		ntype, ok := s.DueType(user, today)
		if !ok {
			continue
		}
		tasks = append(tasks, models.NotificationTask{
			Email:            user.Email,
			Username:         user.Username,
			Phone:            user.Phone,
			NotificationType: ntype,
			SubscriptionPlan: user.SubscriptionPlan,
			ExpiryDate:       *user.SubscriptionEndDate,
		})
	}
	return tasks, nil
}
