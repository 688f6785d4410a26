package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/finexapp/finex-backend/internal/models"
	"github.com/finexapp/finex-backend/internal/rabbitmq"
	"github.com/finexapp/finex-backend/internal/services/subscription"
)

type SweeperMock struct{ mock.Mock }

func (m *SweeperMock) SweepExpiry(ctx context.Context, today time.Time) (*subscription.SweepReport, error) {
	args := m.Called(ctx, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.SweepReport), args.Error(1)
}

type TaskSourceMock struct{ mock.Mock }

func (m *TaskSourceMock) DueTasks(ctx context.Context, today time.Time) ([]models.NotificationTask, error) {
	args := m.Called(ctx, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.NotificationTask), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestSchedulerService_RunOnce(t *testing.T) {
	today := time.Date(2024, 6, 15, 3, 0, 0, 0, time.UTC)
	tasks := []models.NotificationTask{
		{Email: "a@example.com", NotificationType: models.Notify3DaysBefore},
		{Email: "b@example.com", NotificationType: models.NotifyOnExpiry},
	}

	t.Run("sweeps then publishes every due task", func(t *testing.T) {
		sweeper := new(SweeperMock)
		source := new(TaskSourceMock)
		svc := New(sweeper, source, nil, newNoopLogger())

		var published []models.NotificationTask
		svc.publish = func(_ *amqp.Channel, exchange, routingkey string, message any) error {
			assert.Equal(t, rabbitmq.BillingExchange, exchange)
			assert.Equal(t, rabbitmq.NotificationsRoutingKey, routingkey)
			published = append(published, message.(models.NotificationTask))
			return nil
		}

		sweeper.On("SweepExpiry", mock.Anything, today).
			Return(&subscription.SweepReport{Checked: 2, Expired: 1}, nil).Once()
		source.On("DueTasks", mock.Anything, today).Return(tasks, nil).Once()

		err := svc.RunOnce(context.Background(), today)
		assert.NoError(t, err)
		assert.Equal(t, tasks, published)

		sweeper.AssertExpectations(t)
		source.AssertExpectations(t)
	})

	t.Run("publish failure does not stop remaining tasks", func(t *testing.T) {
		sweeper := new(SweeperMock)
		source := new(TaskSourceMock)
		svc := New(sweeper, source, nil, newNoopLogger())

		calls := 0
		svc.publish = func(_ *amqp.Channel, _, _ string, _ any) error {
			calls++
			if calls == 1 {
				return errors.New("amqp down")
			}
			return nil
		}

		sweeper.On("SweepExpiry", mock.Anything, today).
			Return(&subscription.SweepReport{}, nil).Once()
		source.On("DueTasks", mock.Anything, today).Return(tasks, nil).Once()

		err := svc.RunOnce(context.Background(), today)
		assert.NoError(t, err)
		assert.Equal(t, 2, calls)

		sweeper.AssertExpectations(t)
		source.AssertExpectations(t)
	})

	t.Run("sweep error aborts the cycle", func(t *testing.T) {
		sweeper := new(SweeperMock)
		source := new(TaskSourceMock)
		svc := New(sweeper, source, nil, newNoopLogger())

		sweeper.On("SweepExpiry", mock.Anything, today).
			Return(nil, errors.New("db error")).Once()

		err := svc.RunOnce(context.Background(), today)
		assert.Error(t, err)

		sweeper.AssertExpectations(t)
		source.AssertExpectations(t)
	})

	t.Run("cancelled context stops publishing", func(t *testing.T) {
		sweeper := new(SweeperMock)
		source := new(TaskSourceMock)
		svc := New(sweeper, source, nil, newNoopLogger())

		svc.publish = func(_ *amqp.Channel, _, _ string, _ any) error {
			t.Fatal("publish must not be called after cancel")
			return nil
		}

		ctx, cancel := context.WithCancel(context.Background())

		sweeper.On("SweepExpiry", mock.Anything, today).
			Return(&subscription.SweepReport{}, nil).Once()
		source.On("DueTasks", mock.Anything, today).Run(func(_ mock.Arguments) {
			cancel()
		}).Return(tasks, nil).Once()

		err := svc.RunOnce(ctx, today)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
