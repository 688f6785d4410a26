package adjust

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/finexapp/finex-backend/internal/storage/repository"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Adjust(ctx context.Context, accountID int, amount, operation string) (string, error) {
	args := m.Called(ctx, accountID, amount, operation)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRequest(id, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/accounts/"+id+"/adjust",
		bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestAdjustHandler(t *testing.T) {
	tests := []struct {
		name           string
		accountID      string
		requestBody    string
		setupMock      func(m *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "успешное пополнение",
			accountID:   "1",
			requestBody: `{"amount": "10.50", "operation": "add"}`,
			setupMock: func(m *MockService) {
				m.On("Adjust", mock.Anything, 1, "10.50", "add").Return("110.50", nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"new_balance":"110.50"`,
		},
		{
			name:        "успешное списание",
			accountID:   "1",
			requestBody: `{"amount": "10.50", "operation": "subtract"}`,
			setupMock: func(m *MockService) {
				m.On("Adjust", mock.Anything, 1, "10.50", "subtract").Return("89.50", nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"new_balance":"89.50"`,
		},
		{
			name:           "некорректный id счёта",
			accountID:      "abc",
			requestBody:    `{"amount": "10.50", "operation": "add"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid account id",
		},
		{
			name:           "некорректный JSON",
			accountID:      "1",
			requestBody:    `{invalid`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid request body",
		},
		{
			name:           "неизвестная операция не проходит валидацию",
			accountID:      "1",
			requestBody:    `{"amount": "10.50", "operation": "multiply"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field Operation must be one of",
		},
		{
			name:        "счёт не найден",
			accountID:   "42",
			requestBody: `{"amount": "10.50", "operation": "add"}`,
			setupMock: func(m *MockService) {
				m.On("Adjust", mock.Anything, 42, "10.50", "add").
					Return("", repository.ErrNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   "account not found",
		},
		{
			name:        "ошибка сервиса",
			accountID:   "1",
			requestBody: `{"amount": "10.50", "operation": "add"}`,
			setupMock: func(m *MockService) {
				m.On("Adjust", mock.Anything, 1, "10.50", "add").
					Return("", errors.New("db error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "could not adjust account",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(newNoopLogger(), mockService)

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, newRequest(tt.accountID, tt.requestBody))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
