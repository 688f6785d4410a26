package middlewarectx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finexapp/finex-backend/internal/models"
)

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name           string
		role           any
		expectedStatus int
		expectNext     bool
	}{
		{
			name:           "администратор пропускается",
			role:           models.RoleAdmin,
			expectedStatus: http.StatusOK,
			expectNext:     true,
		},
		{
			name:           "обычный пользователь получает 403",
			role:           models.RoleUser,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "роль отсутствует в контексте",
			role:           nil,
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				nextCalled = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/subscriptions/activate", nil)
			if tt.role != nil {
				req = req.WithContext(context.WithValue(req.Context(), Role, tt.role))
			}
			rr := httptest.NewRecorder()

			RequireAdmin(newNoopLogger())(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectNext, nextCalled)
		})
	}
}
