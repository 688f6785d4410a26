package rabbitmq

// QueueConfig описывает очередь и её ключ маршрутизации в обменнике billing.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Имена обменника, очереди и ключа маршрутизации биллинговых уведомлений.
const (
	BillingExchange         = "billing"
	NotificationsQueue      = "billing_notifications"
	NotificationsRoutingKey = "expiry"
)

// GetBillingQueues возвращает набор очередей биллинговых уведомлений.
func GetBillingQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: NotificationsQueue, RoutingKey: NotificationsRoutingKey},
	}
}
