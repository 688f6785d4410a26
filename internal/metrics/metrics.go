// Package metrics содержит prometheus-счётчики приложения. Счётчики
// регистрируются в дефолтном реестре и отдаются через /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhooksReceived считает принятые вебхуки платёжного шлюза по типу события.
	WebhooksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finex_payment_webhooks_received_total",
		Help: "Number of payment gateway webhooks received, by event type.",
	}, []string{"event_type"})

	// ProofReviews считает проверки чеков по исходу: auto_approved или manual_review.
	ProofReviews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finex_proof_reviews_total",
		Help: "Number of payment proof reviews, by outcome.",
	}, []string{"outcome"})

	// NotificationsDelivered считает биллинговые уведомления по статусу записи.
	NotificationsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finex_billing_notifications_total",
		Help: "Number of billing notifications delivered, by recorded status.",
	}, []string{"status"})
)
