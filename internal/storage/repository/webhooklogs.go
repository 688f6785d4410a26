package repository

import (
	"context"
	"fmt"

	"github.com/finexapp/finex-backend/internal/models"
)

// CreateWebhookLog добавляет запись аудита входящего вебхука
// и возвращает её ID. Записи никогда не обновляются.
func (s *Storage) CreateWebhookLog(ctx context.Context, wl models.WebhookLog) (int, error) {
	const op = "storage.CreateWebhookLog"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO webhook_logs (event_type, payment_id, payload, status, error_message)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		wl.EventType, wl.PaymentID, wl.Payload, wl.Status, wl.ErrorMessage).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}
