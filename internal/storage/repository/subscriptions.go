package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/finexapp/finex-backend/internal/models"
)

// CreateSubscription вставляет новую подписку в статусе pending и возвращает её ID.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (int, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_email, plan_type, status, amount_paid, transaction_id, notes)
			  VALUES ($1, $2, $3, $4::numeric, $5, $6)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		sub.UserEmail, sub.PlanType, sub.Status, sub.AmountPaid,
		sub.TransactionID, sub.Notes).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetSubscription возвращает подписку по её ID.
func (s *Storage) GetSubscription(ctx context.Context, id int) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_email, plan_type, status, amount_paid::text,
			      start_date, end_date, transaction_id, notes, created_at
			  FROM subscriptions WHERE id = $1`
	return s.scanSubscription(s.DB.QueryRowContext(ctx, query, id), op)
}

// FindSubscriptionByTransactionID возвращает подписку по внешнему
// идентификатору платежа. Именно так вебхук находит, что активировать.
func (s *Storage) FindSubscriptionByTransactionID(ctx context.Context, transactionID string) (*models.Subscription, error) {
	const op = "storage.FindSubscriptionByTransactionID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_email, plan_type, status, amount_paid::text,
			      start_date, end_date, transaction_id, notes, created_at
			  FROM subscriptions WHERE transaction_id = $1
			  ORDER BY id DESC
			  LIMIT 1`
	return s.scanSubscription(s.DB.QueryRowContext(ctx, query, transactionID), op)
}

// ActivateSubscription переводит подписку из pending в active одной
// условной записью (check-and-set) и возвращает количество изменённых
// строк. Ноль строк означает, что подписка уже не в статусе pending —
// повторная доставка того же события не даёт второй активации.
func (s *Storage) ActivateSubscription(ctx context.Context, id int, planType string, startDate, endDate time.Time) (int, error) {
	const op = "storage.ActivateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET status = 'active', plan_type = $1, start_date = $2, end_date = $3
			  WHERE id = $4
			    AND status = 'pending'`
	result, err := s.DB.ExecContext(ctx, query, planType, startDate, endDate, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RejectSubscription переводит подписку из pending в cancelled
// и возвращает количество изменённых строк.
func (s *Storage) RejectSubscription(ctx context.Context, id int) (int, error) {
	const op = "storage.RejectSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET status = 'cancelled'
			  WHERE id = $1
			    AND status = 'pending'`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// AppendSubscriptionNotes дописывает строку к заметкам подписки.
// Используется для фиксации результатов анализа чеков.
func (s *Storage) AppendSubscriptionNotes(ctx context.Context, id int, note string) error {
	const op = "storage.AppendSubscriptionNotes"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET notes = CASE WHEN notes = '' THEN $1 ELSE notes || E'\n' || $1 END
			  WHERE id = $2`
	_, err := s.DB.ExecContext(ctx, query, note, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListSubscriptions возвращает все подписки, новые первыми.
func (s *Storage) ListSubscriptions(ctx context.Context) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_email, plan_type, status, amount_paid::text,
			      start_date, end_date, transaction_id, notes, created_at
			  FROM subscriptions
			  ORDER BY id DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		var item models.Subscription
		var startDate, endDate sql.NullTime
		if err := rows.Scan(&item.ID, &item.UserEmail, &item.PlanType, &item.Status,
			&item.AmountPaid, &startDate, &endDate, &item.TransactionID,
			&item.Notes, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if startDate.Valid {
			item.StartDate = &startDate.Time
		}
		if endDate.Valid {
			item.EndDate = &endDate.Time
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (s *Storage) scanSubscription(row *sql.Row, op string) (*models.Subscription, error) {
	var result models.Subscription
	var startDate, endDate sql.NullTime
	if err := row.Scan(&result.ID, &result.UserEmail, &result.PlanType, &result.Status,
		&result.AmountPaid, &startDate, &endDate, &result.TransactionID,
		&result.Notes, &result.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if startDate.Valid {
		result.StartDate = &startDate.Time
	}
	if endDate.Valid {
		result.EndDate = &endDate.Time
	}
	return &result, nil
}
