package repository

import (
	"context"
	"fmt"

	"github.com/finexapp/finex-backend/internal/models"
)

// CreateTransaction вставляет новую транзакцию и возвращает её ID.
func (s *Storage) CreateTransaction(ctx context.Context, tx models.Transaction) (int, error) {
	const op = "storage.CreateTransaction"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO transactions (account_id, amount, type, status, date, description, notes)
			  VALUES ($1, $2::numeric, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		tx.AccountID, tx.Amount, tx.Type, tx.Status, tx.Date,
		tx.Description, tx.Notes).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListCompletedTransactions возвращает все завершённые транзакции счёта.
// Только они участвуют в сверке баланса.
func (s *Storage) ListCompletedTransactions(ctx context.Context, accountID int) ([]*models.Transaction, error) {
	const op = "storage.ListCompletedTransactions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, account_id, amount::text, type, status, date, description, notes
			  FROM transactions
			  WHERE account_id = $1
			    AND status = 'completed'
			  ORDER BY date, id`
	rows, err := s.DB.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Transaction
	for rows.Next() {
		var item models.Transaction
		if err := rows.Scan(&item.ID, &item.AccountID, &item.Amount, &item.Type,
			&item.Status, &item.Date, &item.Description, &item.Notes); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
