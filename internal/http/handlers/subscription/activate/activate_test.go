package activate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/finexapp/finex-backend/internal/services/subscription"
	"github.com/finexapp/finex-backend/internal/storage/repository"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Activate(ctx context.Context, subscriptionID int, planType string, refDate time.Time) (*subscription.ActivationResult, error) {
	args := m.Called(ctx, subscriptionID, planType, refDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.ActivationResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestActivateHandler(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		setupMock      func(m *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "успешная активация подписки",
			requestBody: `{"subscription_id": 1, "plan_type": "monthly"}`,
			setupMock: func(m *MockService) {
				m.On("Activate", mock.Anything, 1, "monthly", mock.Anything).
					Return(&subscription.ActivationResult{
						SubscriptionID: 1,
						PlanType:       "monthly",
						EndDate:        time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
					}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"plan_type":"monthly"`,
		},
		{
			name:        "повторная активация возвращает already_active",
			requestBody: `{"subscription_id": 1, "plan_type": "monthly"}`,
			setupMock: func(m *MockService) {
				m.On("Activate", mock.Anything, 1, "monthly", mock.Anything).
					Return(&subscription.ActivationResult{
						SubscriptionID: 1,
						PlanType:       "monthly",
						AlreadyActive:  true,
					}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"already_active":true`,
		},
		{
			name:           "некорректный JSON",
			requestBody:    `{invalid`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid request body",
		},
		{
			name:           "неизвестный тип плана не проходит валидацию",
			requestBody:    `{"subscription_id": 1, "plan_type": "weekly"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field PlanType must be one of",
		},
		{
			name:           "отсутствует subscription_id",
			requestBody:    `{"plan_type": "monthly"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field SubscriptionID is a required field",
		},
		{
			name:        "подписка не найдена",
			requestBody: `{"subscription_id": 42, "plan_type": "annual"}`,
			setupMock: func(m *MockService) {
				m.On("Activate", mock.Anything, 42, "annual", mock.Anything).
					Return(nil, repository.ErrNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   "subscription or user not found",
		},
		{
			name:        "ошибка сервиса",
			requestBody: `{"subscription_id": 1, "plan_type": "monthly"}`,
			setupMock: func(m *MockService) {
				m.On("Activate", mock.Anything, 1, "monthly", mock.Anything).
					Return(nil, errors.New("db error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "could not activate subscription",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(newNoopLogger(), mockService)

			req := httptest.NewRequest(http.MethodPost, "/subscriptions/activate",
				bytes.NewBufferString(tt.requestBody))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
