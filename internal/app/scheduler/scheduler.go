// Package scheduler собирает приложение планировщика биллингового цикла.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/finexapp/finex-backend/internal/config"
	"github.com/finexapp/finex-backend/internal/rabbitmq"
	notifierservice "github.com/finexapp/finex-backend/internal/services/notifier"
	schedulerservice "github.com/finexapp/finex-backend/internal/services/scheduler"
	subservice "github.com/finexapp/finex-backend/internal/services/subscription"
	"github.com/finexapp/finex-backend/internal/storage/repository"
)

// sweepInterval — период биллингового цикла.
const sweepInterval = 24 * time.Hour

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.Service
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetBillingQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	subscriptionService := subservice.New(db, db, loc, logger)
	// Планировщик только вычисляет задачи: доставкой занимается sender,
	// поэтому почтовый и WhatsApp каналы здесь не подключаются.
	notifierService := notifierservice.New(db, nil, nil, loc, logger)
	schedulerService := schedulerservice.New(subscriptionService, notifierService, ch, logger)

	return &App{
		schedulerService: schedulerService,
		conn:             conn,
		ch:               ch,
		logger:           logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", "error", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}
}

// Run запускает планировщик до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	go func() {
		if err := a.schedulerService.Run(ctx, sweepInterval); err != nil && ctx.Err() == nil {
			a.logger.Error("scheduler stopped with error", slog.Any("err", err))
		}
	}()

	<-ctx.Done()

	a.logger.Info("shutting down scheduler service")
	closeResources(a.ch, a.conn, a.logger)
	return nil
}
