package models

import "time"

// Статусы записей журнала вебхуков.
const (
	WebhookReceived  = "received"
	WebhookProcessed = "processed"
	WebhookError     = "error"
)

// WebhookLog — запись аудита входящих доставок вебхуков платёжного шлюза.
// Журнал только пополняется и никогда не обновляется: на одну доставку
// приходится запись received и, при обработке, вторая запись processed
// или error.
type WebhookLog struct {
	ID           int       // Уникальный идентификатор записи
	EventType    string    // Тип события, например PAYMENT_CONFIRMED
	PaymentID    string    // Внешний идентификатор платежа
	Payload      string    // Сырое тело доставки
	Status       string    // received, processed или error
	ErrorMessage string    // Текст ошибки для статуса error
	CreatedAt    time.Time // Момент записи
}
