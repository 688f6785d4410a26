// Package reconciler содержит бизнес-логику сверки балансов счетов.
//
// Хранимый баланс счёта должен равняться знаковой сумме его завершённых
// транзакций, но может дрейфовать. Сверка пересчитывает сумму из журнала
// транзакций и записывает её обратно, только если расхождение превышает
// один цент. Повторный запуск при неизменном наборе транзакций даёт тот
// же результат и не делает лишних записей.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finexapp/finex-backend/internal/lib/sl"
	"github.com/finexapp/finex-backend/internal/models"
	"github.com/finexapp/finex-backend/internal/storage/repository"
)

// driftTolerance — максимальное допустимое расхождение между хранимым
// и пересчитанным балансом, не требующее записи.
var driftTolerance = decimal.RequireFromString("0.01")

// batchWorkers ограничивает число одновременно сверяемых счетов.
const batchWorkers = 8

// AccountRepository определяет методы хранилища, нужные сверке.
type AccountRepository interface {
	// GetAccount возвращает счёт по ID.
	GetAccount(ctx context.Context, id int) (*models.Account, error)
	// ListAccountIDs возвращает идентификаторы всех активных счетов.
	ListAccountIDs(ctx context.Context) ([]int, error)
	// UpdateAccountBalance записывает пересчитанный баланс.
	UpdateAccountBalance(ctx context.Context, id int, balance string) (int, error)
	// AdjustAccountBalance атомарно сдвигает баланс на delta.
	AdjustAccountBalance(ctx context.Context, id int, delta string) (string, error)
	// ListCompletedTransactions возвращает завершённые транзакции счёта.
	ListCompletedTransactions(ctx context.Context, accountID int) ([]*models.Transaction, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Result — итог сверки одного счёта.
type Result struct {
	AccountID        int    `json:"account_id"`
	OldBalance       string `json:"old_balance"`
	NewBalance       string `json:"new_balance"`
	TransactionCount int    `json:"transaction_count"`
	SkippedCount     int    `json:"skipped_count,omitempty"`
	Updated          bool   `json:"updated"`
}

// BatchResult — итог сверки всех счетов. Ошибки отдельных счетов
// накапливаются и не прерывают обработку остальных.
type BatchResult struct {
	Total   int            `json:"total"`
	Updated int            `json:"updated"`
	Failed  int            `json:"failed"`
	Results []*Result      `json:"results"`
	Errors  map[int]string `json:"errors,omitempty"`
}

// Service реализует сверку и ручную корректировку балансов.
type Service struct {
	repo  AccountRepository
	cache Cache
	log   *slog.Logger

	// Записи по одному счёту сериализуются: две конкурентные сверки
	// одного счёта не должны затирать друг друга.
	mu       sync.Mutex
	accounts map[int]*sync.Mutex
}

// New создает новый экземпляр Service.
func New(repo AccountRepository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		log:      log,
		accounts: make(map[int]*sync.Mutex),
	}
}

func (s *Service) lockAccount(id int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.accounts[id]
	if !ok {
		m = &sync.Mutex{}
		s.accounts[id] = m
	}
	return m
}

// Reconcile пересчитывает баланс счёта из журнала завершённых транзакций.
// Транзакция с нечитаемой суммой пропускается с записью в лог и не
// прерывает сверку остальных. Отсутствующий счёт — ошибка ErrNotFound.
func (s *Service) Reconcile(ctx context.Context, accountID int) (*Result, error) {
	lock := s.lockAccount(accountID)
	lock.Lock()
	defer lock.Unlock()

	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account %d: %w", accountID, err)
	}

	txs, err := s.repo.ListCompletedTransactions(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list transactions for account %d: %w", accountID, err)
	}

	computed := decimal.Zero
	skipped := 0
	for _, tx := range txs {
		amount, err := decimal.NewFromString(tx.Amount)
		if err != nil {
			skipped++
			s.log.Warn("skipping transaction with malformed amount",
				slog.Int("transaction_id", tx.ID),
				slog.String("amount", tx.Amount),
				sl.Err(err))
			continue
		}
		switch tx.Type {
		case models.TransactionIncome:
			computed = computed.Add(amount)
		case models.TransactionExpense:
			computed = computed.Sub(amount)
		default:
			skipped++
			s.log.Warn("skipping transaction with unknown type",
				slog.Int("transaction_id", tx.ID),
				slog.String("type", tx.Type))
		}
	}
	computed = computed.Round(2)

	stored, err := decimal.NewFromString(account.Balance)
	if err != nil {
		return nil, fmt.Errorf("stored balance of account %d is malformed: %w", accountID, err)
	}

	result := &Result{
		AccountID:        accountID,
		OldBalance:       stored.StringFixed(2),
		NewBalance:       computed.StringFixed(2),
		TransactionCount: len(txs) - skipped,
		SkippedCount:     skipped,
	}

	if stored.Sub(computed).Abs().LessThanOrEqual(driftTolerance) {
		return result, nil
	}

	if _, err := s.repo.UpdateAccountBalance(ctx, accountID, computed.StringFixed(2)); err != nil {
		return nil, fmt.Errorf("write balance of account %d: %w", accountID, err)
	}
	result.Updated = true

	cacheKey := fmt.Sprintf("account:%d", accountID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate account cache", slog.String("key", cacheKey), sl.Err(err))
	}

	s.log.Info("reconciled account balance",
		slog.Int("account_id", accountID),
		slog.String("old_balance", result.OldBalance),
		slog.String("new_balance", result.NewBalance))
	return result, nil
}

// ReconcileAll сверяет все активные счета. Счета обрабатываются
// независимо, не более batchWorkers одновременно; ошибка одного счёта
// не блокирует остальные и попадает в отчёт.
func (s *Service) ReconcileAll(ctx context.Context) (*BatchResult, error) {
	ids, err := s.repo.ListAccountIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	batch := &BatchResult{
		Total:  len(ids),
		Errors: make(map[int]string),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, batchWorkers)

	for _, id := range ids {
		select {
		case <-ctx.Done():
			// Частичный отчёт отдаём только после завершения уже
			// запущенных воркеров: они пишут в batch.
			wg.Wait()
			return batch, fmt.Errorf("reconcile all aborted: %w", ctx.Err())
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(accountID int) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := s.Reconcile(ctx, accountID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				batch.Failed++
				batch.Errors[accountID] = err.Error()
				return
			}
			if res.Updated {
				batch.Updated++
			}
			batch.Results = append(batch.Results, res)
		}(id)
	}
	wg.Wait()

	return batch, nil
}

// GetAccount возвращает счёт по ID, используя кеш или хранилище.
func (s *Service) GetAccount(ctx context.Context, accountID int) (*models.Account, error) {
	var result *models.Account
	cacheKey := fmt.Sprintf("account:%d", accountID)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read account cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return result, nil
	}

	result, err = s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to cache account", slog.String("key", cacheKey), sl.Err(err))
	}
	return result, nil
}

// Adjust вручную корректирует баланс счёта на amount в сторону operation
// (add или subtract) и возвращает новый баланс.
func (s *Service) Adjust(ctx context.Context, accountID int, amount, operation string) (string, error) {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return "", fmt.Errorf("invalid amount: %w", err)
	}
	if value.IsNegative() {
		return "", errors.New("amount must be positive")
	}

	switch operation {
	case "add":
	case "subtract":
		value = value.Neg()
	default:
		return "", fmt.Errorf("unknown operation: %s", operation)
	}

	lock := s.lockAccount(accountID)
	lock.Lock()
	defer lock.Unlock()

	newBalance, err := s.repo.AdjustAccountBalance(ctx, accountID, value.StringFixed(2))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("adjust account %d: %w", accountID, err)
	}

	cacheKey := fmt.Sprintf("account:%d", accountID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate account cache", slog.String("key", cacheKey), sl.Err(err))
	}

	s.log.Info("adjusted account balance",
		slog.Int("account_id", accountID),
		slog.String("operation", operation),
		slog.String("new_balance", newBalance))
	return newBalance, nil
}
