package models

import "time"

// Роли и статусы подписки на проекции пользователя.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	UserSubscriptionActive  = "active"
	UserSubscriptionExpired = "expired"
	UserSubscriptionNone    = "none"
)

// User представляет зарегистрированного пользователя системы.
// Поля Subscription* — проекция последней активированной подписки;
// инвариант "status = active тогда и только тогда, когда сегодня не позже
// SubscriptionEndDate" может дрейфовать и восстанавливается обходом
// SweepExpiry. Для плана lifetime статус всегда active.
type User struct {
	Email               string     // Электронная почта (уникальная)
	Username            string     // Отображаемое имя
	PasswordHash        string     // Хэш пароля пользователя
	Role                string     // Роль пользователя, admin или user
	Phone               string     // Телефон для WhatsApp-уведомлений, может быть пустым
	SubscriptionStatus  string     // active, expired или none
	SubscriptionPlan    string     // План последней активированной подписки
	SubscriptionEndDate *time.Time // Дата окончания подписки, nil если подписки не было
	CreatedAt           time.Time  // Дата регистрации
}

// DummyRegisterUser используется для приёма данных регистрации из JSON-запроса.
type DummyRegisterUser struct {
	Email    string `json:"email" validate:"required,email"`       // Электронная почта
	Username string `json:"username" validate:"required,alphanum"` // Имя пользователя
	Password string `json:"password" validate:"required,min=8"`    // Пароль (>= 8 символов)
	Phone    string `json:"phone,omitempty" validate:"omitempty"`  // Телефон (опционально)
}

// DummyLoginUser используется для приёма данных входа из JSON-запроса.
type DummyLoginUser struct {
	Email    string `json:"email" validate:"required,email"` // Электронная почта
	Password string `json:"password" validate:"required"`    // Пароль
}
