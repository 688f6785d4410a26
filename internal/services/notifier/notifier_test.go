package notifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/finexapp/finex-backend/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateBillingNotification(ctx context.Context, n models.BillingNotification) (int, error) {
	args := m.Called(ctx, n)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) CountNotificationsOnDay(ctx context.Context, email string, ntype models.NotificationType, day time.Time) (int, error) {
	args := m.Called(ctx, email, ntype, day)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) ListBillableUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

type EmailerMock struct{ mock.Mock }

func (m *EmailerMock) Send(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type MessengerMock struct{ mock.Mock }

func (m *MessengerMock) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MessengerMock) SendMessage(ctx context.Context, phone, text string) error {
	return m.Called(ctx, phone, text).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func endDate(days int) *time.Time {
	d := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
	return &d
}

func TestNotifierService_DueType(t *testing.T) {
	today := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		user     *models.User
		wantType models.NotificationType
		wantOK   bool
	}{
		{
			name:     "seven days before",
			user:     &models.User{SubscriptionPlan: models.PlanMonthly, SubscriptionEndDate: endDate(7)},
			wantType: models.Notify7DaysBefore,
			wantOK:   true,
		},
		{
			name:     "three days before",
			user:     &models.User{SubscriptionPlan: models.PlanMonthly, SubscriptionEndDate: endDate(3)},
			wantType: models.Notify3DaysBefore,
			wantOK:   true,
		},
		{
			name:     "one day before",
			user:     &models.User{SubscriptionPlan: models.PlanMonthly, SubscriptionEndDate: endDate(1)},
			wantType: models.Notify1DayBefore,
			wantOK:   true,
		},
		{
			name:     "on expiry",
			user:     &models.User{SubscriptionPlan: models.PlanAnnual, SubscriptionEndDate: endDate(0)},
			wantType: models.NotifyOnExpiry,
			wantOK:   true,
		},
		{
			name:     "one day after",
			user:     &models.User{SubscriptionPlan: models.PlanMonthly, SubscriptionEndDate: endDate(-1)},
			wantType: models.Notify1DayAfter,
			wantOK:   true,
		},
		{
			name:     "seven days after",
			user:     &models.User{SubscriptionPlan: models.PlanMonthly, SubscriptionEndDate: endDate(-7)},
			wantType: models.Notify7DaysAfter,
			wantOK:   true,
		},
		{
			name:   "offset outside the set",
			user:   &models.User{SubscriptionPlan: models.PlanMonthly, SubscriptionEndDate: endDate(5)},
			wantOK: false,
		},
		{
			name:   "admin never notified",
			user:   &models.User{Role: models.RoleAdmin, SubscriptionPlan: models.PlanMonthly, SubscriptionEndDate: endDate(7)},
			wantOK: false,
		},
		{
			name:   "lifetime never notified",
			user:   &models.User{SubscriptionPlan: models.PlanLifetime, SubscriptionEndDate: endDate(7)},
			wantOK: false,
		},
		{
			name:   "no end date",
			user:   &models.User{SubscriptionPlan: models.PlanMonthly},
			wantOK: false,
		},
	}

	svc := New(new(RepoMock), new(EmailerMock), nil, time.UTC, newNoopLogger())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := svc.DueType(tt.user, today)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantType, got)
			}
		})
	}
}

func TestNotifierService_NotifyIfDue(t *testing.T) {
	today := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	user := &models.User{
		Email:               "user@example.com",
		Username:            "maria",
		SubscriptionPlan:    models.PlanMonthly,
		SubscriptionEndDate: endDate(3),
	}

	t.Run("sends and records when due", func(t *testing.T) {
		repo := new(RepoMock)
		email := new(EmailerMock)
		svc := New(repo, email, nil, time.UTC, newNoopLogger())

		repo.On("CountNotificationsOnDay", mock.Anything, "user@example.com", models.Notify3DaysBefore, day).
			Return(0, nil).Once()
		email.On("Send", "user@example.com", "FINEX: sua assinatura vence em 3 dias",
			mock.MatchedBy(func(body string) bool {
				return len(body) > 0
			})).Return(nil).Once()
		repo.On("CreateBillingNotification", mock.Anything, mock.MatchedBy(func(n models.BillingNotification) bool {
			return n.UserEmail == "user@example.com" &&
				n.NotificationType == models.Notify3DaysBefore &&
				n.Status == models.NotificationSent
		})).Return(1, nil).Once()

		delivery, err := svc.NotifyIfDue(context.Background(), user, today)
		assert.NoError(t, err)
		assert.Equal(t, models.NotificationSent, delivery.Status)

		repo.AssertExpectations(t)
		email.AssertExpectations(t)
	})

	t.Run("already notified today is skipped", func(t *testing.T) {
		repo := new(RepoMock)
		email := new(EmailerMock)
		svc := New(repo, email, nil, time.UTC, newNoopLogger())

		repo.On("CountNotificationsOnDay", mock.Anything, "user@example.com", models.Notify3DaysBefore, day).
			Return(1, nil).Once()

		delivery, err := svc.NotifyIfDue(context.Background(), user, today)
		assert.NoError(t, err)
		assert.Nil(t, delivery)

		repo.AssertExpectations(t)
		email.AssertExpectations(t)
	})

	t.Run("not due returns nil without touching the repo", func(t *testing.T) {
		repo := new(RepoMock)
		email := new(EmailerMock)
		svc := New(repo, email, nil, time.UTC, newNoopLogger())

		notDue := &models.User{
			Email:               "user@example.com",
			SubscriptionPlan:    models.PlanMonthly,
			SubscriptionEndDate: endDate(5),
		}
		delivery, err := svc.NotifyIfDue(context.Background(), notDue, today)
		assert.NoError(t, err)
		assert.Nil(t, delivery)

		repo.AssertExpectations(t)
	})

	t.Run("send failure recorded as failed, not an error", func(t *testing.T) {
		repo := new(RepoMock)
		email := new(EmailerMock)
		svc := New(repo, email, nil, time.UTC, newNoopLogger())

		repo.On("CountNotificationsOnDay", mock.Anything, "user@example.com", models.Notify3DaysBefore, day).
			Return(0, nil).Once()
		email.On("Send", "user@example.com", mock.Anything, mock.Anything).
			Return(errors.New("smtp down")).Once()
		repo.On("CreateBillingNotification", mock.Anything, mock.MatchedBy(func(n models.BillingNotification) bool {
			return n.Status == models.NotificationFailed && n.ErrorMessage == "smtp down"
		})).Return(1, nil).Once()

		delivery, err := svc.NotifyIfDue(context.Background(), user, today)
		assert.NoError(t, err)
		assert.Equal(t, models.NotificationFailed, delivery.Status)
		assert.Equal(t, "smtp down", delivery.Error)

		repo.AssertExpectations(t)
		email.AssertExpectations(t)
	})

	t.Run("whatsapp failure does not affect status", func(t *testing.T) {
		repo := new(RepoMock)
		email := new(EmailerMock)
		messenger := new(MessengerMock)
		svc := New(repo, email, messenger, time.UTC, newNoopLogger())

		withPhone := &models.User{
			Email:               "user@example.com",
			Username:            "maria",
			Phone:               "+5511999999999",
			SubscriptionPlan:    models.PlanMonthly,
			SubscriptionEndDate: endDate(3),
		}

		repo.On("CountNotificationsOnDay", mock.Anything, "user@example.com", models.Notify3DaysBefore, day).
			Return(0, nil).Once()
		email.On("Send", "user@example.com", mock.Anything, mock.Anything).Return(nil).Once()
		messenger.On("Enabled").Return(true).Once()
		messenger.On("SendMessage", mock.Anything, "+5511999999999", mock.Anything).
			Return(errors.New("whatsapp api down")).Once()
		repo.On("CreateBillingNotification", mock.Anything, mock.MatchedBy(func(n models.BillingNotification) bool {
			return n.Status == models.NotificationSent
		})).Return(1, nil).Once()

		delivery, err := svc.NotifyIfDue(context.Background(), withPhone, today)
		assert.NoError(t, err)
		assert.Equal(t, models.NotificationSent, delivery.Status)

		repo.AssertExpectations(t)
		email.AssertExpectations(t)
		messenger.AssertExpectations(t)
	})

	t.Run("record write error is returned", func(t *testing.T) {
		repo := new(RepoMock)
		email := new(EmailerMock)
		svc := New(repo, email, nil, time.UTC, newNoopLogger())

		repo.On("CountNotificationsOnDay", mock.Anything, "user@example.com", models.Notify3DaysBefore, day).
			Return(0, nil).Once()
		email.On("Send", "user@example.com", mock.Anything, mock.Anything).Return(nil).Once()
		repo.On("CreateBillingNotification", mock.Anything, mock.Anything).
			Return(0, errors.New("db error")).Once()

		_, err := svc.NotifyIfDue(context.Background(), user, today)
		assert.Error(t, err)

		repo.AssertExpectations(t)
	})
}

func TestNotifierService_DispatchAll(t *testing.T) {
	today := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	repo := new(RepoMock)
	email := new(EmailerMock)
	svc := New(repo, email, nil, time.UTC, newNoopLogger())

	users := []*models.User{
		{Email: "due@example.com", Username: "ana", SubscriptionPlan: models.PlanMonthly, SubscriptionEndDate: endDate(7)},
		{Email: "notdue@example.com", SubscriptionPlan: models.PlanMonthly, SubscriptionEndDate: endDate(5)},
		{Email: "broken@example.com", SubscriptionPlan: models.PlanMonthly, SubscriptionEndDate: endDate(0)},
	}

	repo.On("ListBillableUsers", mock.Anything).Return(users, nil).Once()

	repo.On("CountNotificationsOnDay", mock.Anything, "due@example.com", models.Notify7DaysBefore, day).
		Return(0, nil).Once()
	email.On("Send", "due@example.com", mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("CreateBillingNotification", mock.Anything, mock.MatchedBy(func(n models.BillingNotification) bool {
		return n.UserEmail == "due@example.com"
	})).Return(1, nil).Once()

	repo.On("CountNotificationsOnDay", mock.Anything, "broken@example.com", models.NotifyOnExpiry, day).
		Return(0, errors.New("db error")).Once()

	report, err := svc.DispatchAll(context.Background(), today)
	assert.NoError(t, err)
	assert.Equal(t, 3, report.TotalUsers)
	assert.Equal(t, 1, report.NotificationsSent)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 1, report.ByType[models.Notify7DaysBefore])
	assert.Len(t, report.Details, 2)

	repo.AssertExpectations(t)
	email.AssertExpectations(t)
}

func TestNotifierService_DueTasks(t *testing.T) {
	today := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	repo := new(RepoMock)
	svc := New(repo, nil, nil, time.UTC, newNoopLogger())

	repo.On("ListBillableUsers", mock.Anything).Return([]*models.User{
		{Email: "a@example.com", Username: "ana", SubscriptionPlan: models.PlanMonthly, SubscriptionEndDate: endDate(1)},
		{Email: "b@example.com", SubscriptionPlan: models.PlanMonthly, SubscriptionEndDate: endDate(4)},
		{Email: "c@example.com", SubscriptionPlan: models.PlanLifetime, SubscriptionEndDate: endDate(1)},
	}, nil).Once()

	tasks, err := svc.DueTasks(context.Background(), today)
	assert.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, "a@example.com", tasks[0].Email)
	assert.Equal(t, models.Notify1DayBefore, tasks[0].NotificationType)

	repo.AssertExpectations(t)
}
