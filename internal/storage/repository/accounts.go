package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/finexapp/finex-backend/internal/models"
)

// GetAccount возвращает счёт по его ID.
func (s *Storage) GetAccount(ctx context.Context, id int) (*models.Account, error) {
	const op = "storage.GetAccount"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, type, balance::text, currency, user_email, is_active, created_at
			  FROM accounts WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Account
	if err := row.Scan(&result.ID, &result.Name, &result.Type, &result.Balance,
		&result.Currency, &result.UserEmail, &result.IsActive, &result.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ListAccountIDs возвращает идентификаторы всех активных счетов.
func (s *Storage) ListAccountIDs(ctx context.Context) ([]int, error) {
	const op = "storage.ListAccountIDs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id FROM accounts WHERE is_active = true ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateAccount вставляет новый счёт и возвращает его ID.
func (s *Storage) CreateAccount(ctx context.Context, account models.Account) (int, error) {
	const op = "storage.CreateAccount"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO accounts (name, type, balance, currency, user_email, is_active)
			  VALUES ($1, $2, $3::numeric, $4, $5, $6)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		account.Name, account.Type, account.Balance, account.Currency,
		account.UserEmail, account.IsActive).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// UpdateAccountBalance записывает пересчитанный баланс счёта
// и возвращает количество изменённых строк.
func (s *Storage) UpdateAccountBalance(ctx context.Context, id int, balance string) (int, error) {
	const op = "storage.UpdateAccountBalance"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts SET balance = $1::numeric WHERE id = $2`
	result, err := s.DB.ExecContext(ctx, query, balance, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// AdjustAccountBalance атомарно прибавляет delta (возможно отрицательную)
// к балансу счёта и возвращает новый баланс.
func (s *Storage) AdjustAccountBalance(ctx context.Context, id int, delta string) (string, error) {
	const op = "storage.AdjustAccountBalance"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts
			  SET balance = balance + $1::numeric
			  WHERE id = $2
			  RETURNING balance::text`
	var newBalance string
	if err := s.DB.QueryRowContext(ctx, query, delta, id).Scan(&newBalance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newBalance, nil
}
