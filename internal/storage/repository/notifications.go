package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/finexapp/finex-backend/internal/models"
)

// CreateBillingNotification добавляет запись в журнал уведомлений
// и возвращает её ID. Журнал только пополняется.
func (s *Storage) CreateBillingNotification(ctx context.Context, n models.BillingNotification) (int, error) {
	const op = "storage.CreateBillingNotification"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO billing_notifications
			      (user_email, notification_type, subscription_plan, expiry_date, status, error_message)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		n.UserEmail, string(n.NotificationType), n.SubscriptionPlan, n.ExpiryDate,
		n.Status, n.ErrorMessage).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// CountNotificationsOnDay возвращает количество уведомлений данного типа,
// записанных для пользователя в календарный день day. Используется как
// мягкая защита от повторной отправки в тот же день.
func (s *Storage) CountNotificationsOnDay(ctx context.Context, email string, ntype models.NotificationType, day time.Time) (int, error) {
	const op = "storage.CountNotificationsOnDay"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*)
			  FROM billing_notifications
			  WHERE user_email = $1
			    AND notification_type = $2
			    AND created_at >= $3
			    AND created_at < $3 + INTERVAL '1 day'`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, email, string(ntype), day).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
