// Package models содержит доменные структуры FINEX: счета, транзакции,
// подписки, пользователей и журналы уведомлений и вебхуков,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Типы счетов.
const (
	AccountChecking   = "checking"
	AccountSavings    = "savings"
	AccountCreditCard = "credit_card"
	AccountInvestment = "investment"
	AccountCrypto     = "crypto"
)

// Account представляет счёт пользователя.
// Баланс хранится строкой вида "1250.00": деньги никогда не проходят
// через float64, вся арифметика ведётся через decimal.
// Инвариант: Balance равен знаковой сумме всех завершённых транзакций
// счёта; он может дрейфовать и восстанавливается сверкой.
type Account struct {
	ID        int       // Уникальный идентификатор счёта
	Name      string    // Отображаемое имя счёта
	Type      string    // Тип счёта: checking, savings, credit_card, investment, crypto
	Balance   string    // Текущий баланс, десятичная строка
	Currency  string    // Валюта счёта, например "BRL"
	UserEmail string    // Владелец счёта
	IsActive  bool      // Активен ли счёт
	CreatedAt time.Time // Дата создания
}

// DummyAdjust используется для приёма запроса ручной корректировки баланса.
type DummyAdjust struct {
	Amount    string `json:"amount" validate:"required"`                  // Сумма корректировки, строка "10.50"
	Operation string `json:"operation" validate:"required,oneof=add subtract"` // add или subtract
}
