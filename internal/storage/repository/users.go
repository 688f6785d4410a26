package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/finexapp/finex-backend/internal/models"
)

// RegisterUser сохраняет нового пользователя в базу данных.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) error {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (email, username, password_hash, role, phone, subscription_status)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.DB.ExecContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Role, user.Phone,
		user.SubscriptionStatus); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUserByEmail возвращает пользователя по его email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT email, username, password_hash, role, phone,
			      subscription_status, subscription_plan, subscription_end_date, created_at
			  FROM users
			  WHERE email = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, email)

	var endDate sql.NullTime
	if err := row.Scan(&u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.Phone,
		&u.SubscriptionStatus, &u.SubscriptionPlan, &endDate, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if endDate.Valid {
		u.SubscriptionEndDate = &endDate.Time
	}
	return u, nil
}

// ListBillableUsers возвращает пользователей, подлежащих проверке
// истечения: не администраторов, не на плане lifetime и с заданной
// датой окончания подписки.
func (s *Storage) ListBillableUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListBillableUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT email, username, password_hash, role, phone,
			      subscription_status, subscription_plan, subscription_end_date, created_at
			  FROM users
			  WHERE role <> 'admin'
			    AND subscription_plan <> 'lifetime'
			    AND subscription_end_date IS NOT NULL
			  ORDER BY email`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		var u models.User
		var endDate sql.NullTime
		if err = rows.Scan(&u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.Phone,
			&u.SubscriptionStatus, &u.SubscriptionPlan, &endDate, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if endDate.Valid {
			u.SubscriptionEndDate = &endDate.Time
		}
		result = append(result, &u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListUsers возвращает всех пользователей.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT email, username, password_hash, role, phone,
			      subscription_status, subscription_plan, subscription_end_date, created_at
			  FROM users
			  ORDER BY email`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		var u models.User
		var endDate sql.NullTime
		if err = rows.Scan(&u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.Phone,
			&u.SubscriptionStatus, &u.SubscriptionPlan, &endDate, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if endDate.Valid {
			u.SubscriptionEndDate = &endDate.Time
		}
		result = append(result, &u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUserSubscription зеркалирует активированную подписку на
// проекцию пользователя: статус, план и дату окончания.
func (s *Storage) UpdateUserSubscription(ctx context.Context, email, status, plan string, endDate time.Time) (int, error) {
	const op = "storage.UpdateUserSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = $1,
			      subscription_plan = $2,
			      subscription_end_date = $3
			  WHERE email = $4`
	result, err := s.DB.ExecContext(ctx, query, status, plan, endDate, email)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// UpdateUserSubscriptionStatus меняет только статус подписки пользователя.
// Используется обходом SweepExpiry для восстановления дрейфа.
func (s *Storage) UpdateUserSubscriptionStatus(ctx context.Context, email, status string) error {
	const op = "storage.UpdateUserSubscriptionStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = $1
			  WHERE email = $2`
	_, err := s.DB.ExecContext(ctx, query, status, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
