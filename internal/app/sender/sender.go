// Package sender собирает приложение доставки биллинговых уведомлений.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/finexapp/finex-backend/internal/config"
	"github.com/finexapp/finex-backend/internal/lib/smtp"
	"github.com/finexapp/finex-backend/internal/models"
	"github.com/finexapp/finex-backend/internal/rabbitmq"
	notifierservice "github.com/finexapp/finex-backend/internal/services/notifier"
	senderservice "github.com/finexapp/finex-backend/internal/services/sender"
	"github.com/finexapp/finex-backend/internal/storage/repository"
	"github.com/finexapp/finex-backend/internal/whatsapp"
)

// App представляет приложение отправителя уведомлений.
type App struct {
	conn            *amqp.Connection
	ch              *amqp.Channel
	notifierService *notifierservice.Service
	logger          *slog.Logger
}

// New создает новый экземпляр приложения отправителя.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetBillingQueues())
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.New(transport, logger)
	messenger := whatsapp.NewClient(cfg.WhatsAppAPIURL, cfg.WhatsAppAPIKey, cfg.WhatsAppInstance)
	notifierService := notifierservice.New(db, senderService, messenger, loc, logger)

	return &App{
		conn:            conn,
		ch:              ch,
		notifierService: notifierService,
		logger:          logger,
	}, nil
}

// Run запускает потребителя очереди уведомлений до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	handler := func(body []byte) error {
		var task models.NotificationTask
		if err := json.Unmarshal(body, &task); err != nil {
			// Неразбираемое сообщение бессмысленно возвращать в очередь.
			a.logger.Error("failed to unmarshal notification task", slog.Any("err", err))
			return nil
		}
		if _, err := a.notifierService.Deliver(ctx, task); err != nil {
			return fmt.Errorf("deliver notification: %w", err)
		}
		return nil
	}

	if err := rabbitmq.ConsumeTasks(ctx, a.ch, rabbitmq.NotificationsQueue, a.logger, handler); err != nil {
		a.logger.Error("failed to start notifications consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	return nil
}
