// Package billing собирает приложение биллинга подписок: хранилище,
// кеш, очередь, платёжный шлюз и HTTP-сервер.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/kruglovdev/subscription-billing/internal/cache"
	"github.com/kruglovdev/subscription-billing/internal/config"
	"github.com/kruglovdev/subscription-billing/internal/lib/jwt"
	"github.com/kruglovdev/subscription-billing/internal/migrations"
	"github.com/kruglovdev/subscription-billing/internal/rabbitmq"
	authservice "github.com/kruglovdev/subscription-billing/internal/services/auth"
	billingservice "github.com/kruglovdev/subscription-billing/internal/services/billing"
	"github.com/kruglovdev/subscription-billing/internal/storage"
	"github.com/kruglovdev/subscription-billing/internal/stripe"
)

// App объединяет зависимости процесса и HTTP-сервер.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *storage.Storage
	amqpConn *amqp.Connection
}

// New инициализирует все зависимости приложения и регистрирует маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.billing.New"

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	amqpConn, err := rabbitmq.Connect(cfg.RabbitConnection.AddressRabbit, cfg.RabbitConnection.Retries, cfg.RabbitConnection.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	amqpChannel, err := rabbitmq.SetupChannel(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	publisher := rabbitmq.NewPublisher(amqpChannel)

	jwtMaker, err := jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	gateway := stripe.NewClient(cfg.Stripe.SecretKey)

	authService := authservice.NewAuthService(db, jwtMaker)
	billingService := billingservice.NewBillingService(gateway, db, cacheRedis, publisher, cfg.Stripe.ReturnURL, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, jwtMaker, authService, billingService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		amqpConn: amqpConn,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if cerr := a.amqpConn.Close(); cerr != nil {
			a.logger.Error("failed to close rabbitmq connection", slog.Any("err", cerr))
		}
		if cerr := a.db.DB.Close(); cerr != nil {
			a.logger.Error("failed to close database connection", slog.Any("err", cerr))
		}
		return err
	}
}
