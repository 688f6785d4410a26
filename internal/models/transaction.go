package models

import "time"

// Типы и статусы транзакций.
const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"

	TransactionCompleted = "completed"
	TransactionPending   = "pending"
	TransactionCancelled = "cancelled"
)

// Transaction представляет проводку по счёту.
// В баланс счёта входят только транзакции со статусом completed:
// income прибавляет сумму, expense вычитает.
// Сумма хранится положительной десятичной строкой ("150.00") и
// разбирается через decimal на границе; испорченное значение одной
// транзакции не должно ронять сверку остальных.
type Transaction struct {
	ID          int       // Уникальный идентификатор транзакции
	AccountID   int       // Счёт, к которому относится транзакция
	Amount      string    // Положительная сумма, десятичная строка
	Type        string    // income или expense
	Status      string    // completed, pending или cancelled
	Date        time.Time // Календарная дата операции, без времени суток
	Description string    // Описание операции
	Notes       string    // Произвольные заметки
}
