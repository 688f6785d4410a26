// Package scheduler содержит ежедневный биллинговый цикл: сверку
// статусов подписок и публикацию задач на доставку уведомлений в очередь.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	librabbitmq "github.com/finexapp/finex-backend/internal/lib/rabbitmq"
	"github.com/finexapp/finex-backend/internal/lib/sl"
	"github.com/finexapp/finex-backend/internal/models"
	"github.com/finexapp/finex-backend/internal/rabbitmq"
	"github.com/finexapp/finex-backend/internal/services/subscription"
)

// Sweeper приводит статусы подписок в соответствие с датами окончания.
type Sweeper interface {
	SweepExpiry(ctx context.Context, today time.Time) (*subscription.SweepReport, error)
}

// TaskSource вычисляет задачи на доставку уведомлений.
type TaskSource interface {
	DueTasks(ctx context.Context, today time.Time) ([]models.NotificationTask, error)
}

// Publisher публикует сообщение в очередь.
type Publisher func(ch *amqp.Channel, exchange, routingkey string, message any) error

// Service — планировщик ежедневного биллингового цикла.
type Service struct {
	sweeper Sweeper
	tasks   TaskSource
	channel *amqp.Channel
	publish Publisher
	log     *slog.Logger
}

// New создает новый экземпляр Service.
func New(sweeper Sweeper, tasks TaskSource, channel *amqp.Channel, log *slog.Logger) *Service {
	return &Service{
		sweeper: sweeper,
		tasks:   tasks,
		channel: channel,
		publish: librabbitmq.PublishMessage,
		log:     log,
	}
}

// RunOnce выполняет один биллинговый цикл: сверяет статусы и публикует
// задачи на доставку уведомлений. Ошибка публикации одной задачи не
// прерывает публикацию остальных.
func (s *Service) RunOnce(ctx context.Context, today time.Time) error {
	const op = "services.scheduler.RunOnce"

	report, err := s.sweeper.SweepExpiry(ctx, today)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("expiry sweep finished",
		slog.Int("checked", report.Checked),
		slog.Int("expired", report.Expired),
		slog.Int("revived", report.Revived),
		slog.Int("failed", report.Failed))

	tasks, err := s.tasks.DueTasks(ctx, today)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	published := 0
	for _, task := range tasks {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		default:
		}

		if err := s.publish(s.channel, rabbitmq.BillingExchange, rabbitmq.NotificationsRoutingKey, task); err != nil {
			s.log.Error("failed to publish notification task",
				slog.String("user_email", task.Email), sl.Err(err))
			continue
		}
		published++
	}

	s.log.Info("notification tasks published",
		slog.Int("due", len(tasks)),
		slog.Int("published", published))
	return nil
}

// Run запускает цикл с периодом interval до отмены контекста.
// Первый прогон выполняется сразу.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	if err := s.RunOnce(ctx, time.Now()); err != nil {
		s.log.Error("billing cycle failed", sl.Err(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunOnce(ctx, time.Now()); err != nil {
				s.log.Error("billing cycle failed", sl.Err(err))
			}
		}
	}
}
