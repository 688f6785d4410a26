// Package subscription содержит бизнес-логику жизненного цикла подписок:
// активацию по подтверждённой оплате, отклонение и ежедневную сверку
// статусов с датами окончания.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finexapp/finex-backend/internal/lib/dates"
	"github.com/finexapp/finex-backend/internal/lib/sl"
	"github.com/finexapp/finex-backend/internal/models"
	"github.com/finexapp/finex-backend/internal/storage/repository"
)

// lifetimeYears — горизонт "пожизненного" плана. Дата окончания нужна,
// чтобы не делать end_date нулевым особым случаем во всех запросах.
const lifetimeYears = 100

// SubscriptionRepository определяет методы хранилища подписок.
type SubscriptionRepository interface {
	GetSubscription(ctx context.Context, id int) (*models.Subscription, error)
	ActivateSubscription(ctx context.Context, id int, planType string, startDate, endDate time.Time) (int, error)
	RejectSubscription(ctx context.Context, id int) (int, error)
	ListSubscriptions(ctx context.Context) ([]*models.Subscription, error)
}

// UserRepository определяет методы хранилища пользователей, нужные
// для зеркалирования статуса подписки в профиль.
type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListBillableUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserSubscription(ctx context.Context, email, status, plan string, endDate time.Time) (int, error)
	UpdateUserSubscriptionStatus(ctx context.Context, email, status string) error
}

// ActivationResult — итог активации подписки.
type ActivationResult struct {
	SubscriptionID int       `json:"subscription_id"`
	PlanType       string    `json:"plan_type"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	AlreadyActive  bool      `json:"already_active"`
}

// SweepReport — итог сверки статусов подписок за день.
type SweepReport struct {
	Checked int `json:"checked"`
	Expired int `json:"expired"`
	Revived int `json:"revived"`
	Failed  int `json:"failed"`
}

// Service реализует операции жизненного цикла подписки.
type Service struct {
	subs  SubscriptionRepository
	users UserRepository
	log   *slog.Logger
	loc   *time.Location
}

// New создает новый экземпляр Service. Все календарные расчёты ведутся
// в часовом поясе loc.
func New(subs SubscriptionRepository, users UserRepository, loc *time.Location, log *slog.Logger) *Service {
	return &Service{subs: subs, users: users, loc: loc, log: log}
}

// PlanPeriod возвращает дату окончания подписки плана planType,
// начавшейся start. Конец месяца прижимается к последнему дню
// короткого месяца: 31 января плюс месяц — это 28/29 февраля.
func PlanPeriod(planType string, start time.Time) (time.Time, error) {
	switch planType {
	case models.PlanMonthly:
		return dates.AddMonths(start, 1), nil
	case models.PlanSemester:
		return dates.AddMonths(start, 6), nil
	case models.PlanAnnual:
		return dates.AddMonths(start, 12), nil
	case models.PlanLifetime:
		return dates.AddYears(start, lifetimeYears), nil
	default:
		return time.Time{}, fmt.Errorf("unknown plan type: %s", planType)
	}
}

// Activate переводит подписку pending -> active и зеркалирует новый
// статус в профиль пользователя. Перевод выполняется одним условным
// UPDATE, поэтому повторная активация (дубликат вебхука) ничего не
// меняет и возвращается с AlreadyActive.
func (s *Service) Activate(ctx context.Context, subscriptionID int, planType string, refDate time.Time) (*ActivationResult, error) {
	const op = "services.subscription.Activate"

	start := dates.Day(refDate, s.loc)
	end, err := PlanPeriod(planType, start)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	affected, err := s.subs.ActivateSubscription(ctx, subscriptionID, planType, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		// Либо подписка уже активирована, либо её нет вовсе.
		sub, err := s.subs.GetSubscription(ctx, subscriptionID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if sub.Status != models.SubscriptionActive {
			return nil, fmt.Errorf("%s: subscription %d is %s, cannot activate", op, subscriptionID, sub.Status)
		}
		result := &ActivationResult{
			SubscriptionID: subscriptionID,
			PlanType:       sub.PlanType,
			AlreadyActive:  true,
		}
		if sub.StartDate != nil {
			result.StartDate = *sub.StartDate
		}
		if sub.EndDate != nil {
			result.EndDate = *sub.EndDate
		}
		return result, nil
	}

	sub, err := s.subs.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Активация без зеркалирования в профиль — повреждённое состояние,
	// поэтому отсутствие пользователя здесь поднимается как ошибка.
	if _, err := s.users.GetUserByEmail(ctx, sub.UserEmail); err != nil {
		return nil, fmt.Errorf("%s: user %s: %w", op, sub.UserEmail, err)
	}
	if _, err := s.users.UpdateUserSubscription(ctx, sub.UserEmail, models.UserSubscriptionActive, planType, end); err != nil {
		return nil, fmt.Errorf("%s: mirror to user %s: %w", op, sub.UserEmail, err)
	}

	s.log.Info("subscription activated",
		slog.Int("subscription_id", subscriptionID),
		slog.String("user_email", sub.UserEmail),
		slog.String("plan_type", planType),
		slog.Time("end_date", end))

	return &ActivationResult{
		SubscriptionID: subscriptionID,
		PlanType:       planType,
		StartDate:      start,
		EndDate:        end,
	}, nil
}

// Reject переводит подписку pending -> cancelled. Подписка в любом
// другом статусе не трогается.
func (s *Service) Reject(ctx context.Context, subscriptionID int) error {
	const op = "services.subscription.Reject"

	affected, err := s.subs.RejectSubscription(ctx, subscriptionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		sub, err := s.subs.GetSubscription(ctx, subscriptionID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return fmt.Errorf("%s: subscription %d is %s, cannot reject", op, subscriptionID, sub.Status)
	}

	s.log.Info("subscription rejected", slog.Int("subscription_id", subscriptionID))
	return nil
}

// List возвращает все подписки, новые первыми.
func (s *Service) List(ctx context.Context) ([]*models.Subscription, error) {
	const op = "services.subscription.List"

	subs, err := s.subs.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// SweepExpiry приводит статусы подписок пользователей в соответствие
// с датами окончания на день today. Статус меняется в обе стороны:
// просроченный active становится expired, а expired с датой в будущем
// (например, после ручного продления) возвращается в active. Повторный
// запуск за тот же день ничего не меняет. Ошибка по одному пользователю
// не прерывает обход остальных.
func (s *Service) SweepExpiry(ctx context.Context, today time.Time) (*SweepReport, error) {
	const op = "services.subscription.SweepExpiry"

	users, err := s.users.ListBillableUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	day := dates.Day(today, s.loc)
	report := &SweepReport{}

	for _, user := range users {
		select {
		case <-ctx.Done():
			return report, fmt.Errorf("%s: %w", op, ctx.Err())
		default:
		}

		if user.SubscriptionEndDate == nil {
			continue
		}
		report.Checked++

		// Последний день подписки ещё оплачен: end_date == today это active.
		expired := dates.DiffDays(day, *user.SubscriptionEndDate) > 0

		var next string
		switch {
		case expired && user.SubscriptionStatus == models.UserSubscriptionActive:
			next = models.UserSubscriptionExpired
		case !expired && user.SubscriptionStatus == models.UserSubscriptionExpired:
			next = models.UserSubscriptionActive
		default:
			continue
		}

		if err := s.users.UpdateUserSubscriptionStatus(ctx, user.Email, next); err != nil {
			report.Failed++
			s.log.Error("failed to update subscription status",
				slog.String("user_email", user.Email),
				slog.String("status", next),
				sl.Err(err))
			continue
		}

		if next == models.UserSubscriptionExpired {
			report.Expired++
		} else {
			report.Revived++
		}
		s.log.Info("subscription status swept",
			slog.String("user_email", user.Email),
			slog.String("status", next),
			slog.Time("end_date", *user.SubscriptionEndDate))
	}

	return report, nil
}

// IsNotFound сообщает, что err вызвана отсутствием записи в хранилище.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
