package login

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/finexapp/finex-backend/internal/services/auth"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestLoginHandler(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		setupMock      func(m *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "успешный вход",
			requestBody: `{"email": "user@example.com", "password": "secret123"}`,
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, "user@example.com", "secret123").
					Return("jwt-token", nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"token":"jwt-token"`,
		},
		{
			name:           "некорректный JSON",
			requestBody:    `{invalid`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid request body",
		},
		{
			name:           "некорректный email не проходит валидацию",
			requestBody:    `{"email": "not-an-email", "password": "secret123"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field Email must be a valid email",
		},
		{
			name:        "неверные учетные данные",
			requestBody: `{"email": "user@example.com", "password": "wrong"}`,
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, "user@example.com", "wrong").
					Return("", auth.ErrInvalidCredentials).Once()
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "invalid email or password",
		},
		{
			name:        "ошибка сервиса",
			requestBody: `{"email": "user@example.com", "password": "secret123"}`,
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, "user@example.com", "secret123").
					Return("", errors.New("db error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "could not login",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(newNoopLogger(), mockService)

			req := httptest.NewRequest(http.MethodPost, "/auth/login",
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
