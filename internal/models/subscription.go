package models

import "time"

// Планы и статусы подписки FINEX.
const (
	PlanMonthly  = "monthly"
	PlanSemester = "semester"
	PlanAnnual   = "annual"
	PlanLifetime = "lifetime"

	SubscriptionPending   = "pending"
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

// Subscription представляет оплату доступа пользователя к сервису.
// Создаётся в статусе pending при инициации платежа; переходит в active
// по решению администратора, подтверждённому вебхуку или валидному чеку,
// либо в cancelled при отклонении. Других переходов нет: истечение
// отражается только на проекции пользователя (User.SubscriptionStatus).
type Subscription struct {
	ID            int        // Уникальный идентификатор подписки
	UserEmail     string     // Электронная почта владельца
	PlanType      string     // monthly, semester, annual или lifetime
	Status        string     // pending, active или cancelled
	AmountPaid    string     // Оплаченная сумма, десятичная строка
	StartDate     *time.Time // Дата начала действия, nil до активации
	EndDate       *time.Time // Дата окончания действия, nil до активации
	TransactionID string     // Внешний идентификатор платежа в шлюзе
	Notes         string     // Заметки: история авто-одобрений и анализов чеков
	CreatedAt     time.Time  // Дата создания записи
}

// DummyActivate используется для приёма запроса активации подписки администратором.
type DummyActivate struct {
	SubscriptionID int    `json:"subscription_id" validate:"required"`                                 // ID подписки
	PlanType       string `json:"plan_type" validate:"required,oneof=monthly semester annual lifetime"` // Тип плана
}

// DummyReject используется для приёма запроса отклонения подписки.
type DummyReject struct {
	SubscriptionID int `json:"subscription_id" validate:"required"` // ID подписки
}

// DummyProof используется для приёма запроса проверки чека об оплате.
type DummyProof struct {
	SubscriptionID int    `json:"subscription_id" validate:"required"`                                 // ID подписки
	ProofURL       string `json:"proof_url" validate:"required,url"`                                   // Ссылка на изображение чека
	ExpectedAmount string `json:"expected_amount" validate:"required"`                                 // Ожидаемая сумма, строка "50.00"
	PlanType       string `json:"plan_type" validate:"required,oneof=monthly semester annual lifetime"` // Тип плана
}

// DummyCreatePayment используется для приёма запроса на создание PIX-платежа.
type DummyCreatePayment struct {
	PlanType string `json:"plan_type" validate:"required,oneof=monthly semester annual lifetime"` // Тип плана
}
