package models

import "time"

// NotificationType определяет тип биллингового уведомления: фиксированное
// смещение в днях относительно даты окончания подписки.
type NotificationType string

// Типы уведомлений и статусы их доставки.
const (
	Notify7DaysBefore NotificationType = "7_days_before"
	Notify3DaysBefore NotificationType = "3_days_before"
	Notify1DayBefore  NotificationType = "1_day_before"
	NotifyOnExpiry    NotificationType = "on_expiry"
	Notify1DayAfter   NotificationType = "1_day_after"
	Notify3DaysAfter  NotificationType = "3_days_after"
	Notify7DaysAfter  NotificationType = "7_days_after"

	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

// BillingNotification — запись журнала попыток отправки уведомления.
// Журнал только пополняется: одна запись на каждую попытку, успешную или
// нет. Дедупликация мягкая: не более одного уведомления данного типа на
// пользователя в календарный день.
type BillingNotification struct {
	ID               int              // Уникальный идентификатор записи
	UserEmail        string           // Получатель
	NotificationType NotificationType // Тип уведомления
	SubscriptionPlan string           // План подписки на момент отправки
	ExpiryDate       time.Time        // Дата окончания подписки
	Status           string           // sent или failed
	ErrorMessage     string           // Текст ошибки при неудаче
	CreatedAt        time.Time        // Момент попытки
}

// NotificationTask — сообщение для очереди уведомлений: всё, что нужно
// отправителю, чтобы доставить и записать уведомление без обращения к
// таблице пользователей.
type NotificationTask struct {
	Email            string           `json:"email"`
	Username         string           `json:"username"`
	Phone            string           `json:"phone,omitempty"`
	NotificationType NotificationType `json:"notification_type"`
	SubscriptionPlan string           `json:"subscription_plan"`
	ExpiryDate       time.Time        `json:"expiry_date"`
}
