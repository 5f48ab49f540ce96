// Package services содержит бизнес-логику биллинга подписок: операции
// с payment intent платёжного шлюза и сверку локальной подписки с
// подтверждённым состоянием платежа.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kruglovdev/subscription-billing/internal/lib/sl"
	"github.com/kruglovdev/subscription-billing/internal/metrics"
	"github.com/kruglovdev/subscription-billing/internal/models"
	"github.com/kruglovdev/subscription-billing/internal/rabbitmq"
	"github.com/kruglovdev/subscription-billing/internal/stripe"
)

// Gateway описывает операции платёжного шлюза, от которых зависит биллинг.
type Gateway interface {
	// CreatePaymentIntent создаёт новый intent на указанную сумму.
	CreatePaymentIntent(ctx context.Context, amount int64, currency string) (*stripe.PaymentIntent, error)
	// RetrievePaymentIntent возвращает снимок intent по идентификатору.
	RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	// ConfirmPaymentIntent подтверждает intent платёжным методом.
	ConfirmPaymentIntent(ctx context.Context, id, paymentMethod, returnURL string) (*stripe.PaymentIntent, error)
	// CancelPaymentIntent отменяет intent.
	CancelPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	// GetSubscriptionByUsername возвращает подписку пользователя.
	GetSubscriptionByUsername(ctx context.Context, username string) (*models.Subscription, error)
	// ReplaceSubscription атомарно заменяет запись подписки целиком.
	ReplaceSubscription(ctx context.Context, username string, replacement models.Subscription) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Publisher публикует события для внешнего процесса сверки.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// ReconciliationError означает, что шлюз подтвердил платёж, а локальная
// подписка обновлена не была. Самый тяжёлый класс ошибок: деньги списаны,
// состояние разошлось, требуется ручная или автоматическая сверка.
type ReconciliationError struct {
	IntentID string
	Err      error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation failed for intent %s: %v", e.IntentID, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }

// ReconciliationFailedEvent — событие для очереди ручной сверки.
type ReconciliationFailedEvent struct {
	Username   string    `json:"username"`
	IntentID   string    `json:"intent_id"`
	Status     string    `json:"status"`
	Cause      string    `json:"cause"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BillingService реализует операции с платежами и сверку подписки.
type BillingService struct {
	gateway   Gateway
	repo      SubscriptionRepository
	cache     Cache
	publisher Publisher
	returnURL string
	log       *slog.Logger
	now       func() time.Time
}

// NewBillingService создает новый экземпляр BillingService.
func NewBillingService(gateway Gateway, repo SubscriptionRepository, cache Cache,
	publisher Publisher, returnURL string, log *slog.Logger) *BillingService {
	return &BillingService{
		gateway:   gateway,
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		returnURL: returnURL,
		log:       log,
		now:       time.Now,
	}
}

// CreatePayment создаёт payment intent на шлюзе.
func (s *BillingService) CreatePayment(ctx context.Context, amount int64, currency string) (*stripe.PaymentIntent, error) {
	intent, err := s.gateway.CreatePaymentIntent(ctx, amount, currency)
	if err != nil {
		return nil, err
	}
	s.log.Info("created payment intent",
		slog.String("intent_id", intent.ID),
		slog.Int64("amount", intent.Amount),
		slog.String("currency", intent.Currency))
	return intent, nil
}

// GetPayment возвращает снимок payment intent со шлюза.
func (s *BillingService) GetPayment(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	return s.gateway.RetrievePaymentIntent(ctx, id)
}

// ConfirmSubscriptionPayment подтверждает платёж на шлюзе и сверяет
// локальную подписку пользователя с его исходом.
//
// Подписка заменяется целиком: при статусе succeeded активируется
// новое окно [now, now+durationDays], иначе активность и окно остаются
// прежними, зеркалируются только поля платежа. Повторное подтверждение
// переустанавливает то же детерминированное окно и не продлевает его
// дважды. Если локальная сверка не удалась после успешного confirm,
// подтверждение на шлюзе не откатывается: ошибка логируется и
// публикуется событие для внешней сверки.
func (s *BillingService) ConfirmSubscriptionPayment(ctx context.Context, username, intentID, paymentMethod string) (*stripe.PaymentIntent, error) {
	const op = "services.billing.ConfirmSubscriptionPayment"
	log := s.log.With(slog.String("op", op),
		slog.String("username", username),
		slog.String("intent_id", intentID))

	intent, err := s.gateway.RetrievePaymentIntent(ctx, intentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	confirmed, err := s.gateway.ConfirmPaymentIntent(ctx, intent.ID, paymentMethod, s.returnURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.PaymentConfirmTotal.WithLabelValues(confirmed.Status).Inc()

	if err := s.reconcile(ctx, username, confirmed); err != nil {
		log.Error("subscription reconciliation failed after gateway confirm", sl.Err(err))
		metrics.ReconciliationFailedTotal.Inc()
		s.publishReconciliationFailure(username, confirmed, err)
		return nil, &ReconciliationError{IntentID: confirmed.ID, Err: err}
	}

	log.Info("subscription reconciled", slog.String("status", confirmed.Status))
	return confirmed, nil
}

// reconcile строит запись-замену подписки и атомарно записывает её.
func (s *BillingService) reconcile(ctx context.Context, username string, intent *stripe.PaymentIntent) error {
	sub, err := s.repo.GetSubscriptionByUsername(ctx, username)
	if err != nil {
		return err
	}

	replacement := *sub
	if intent.Status == stripe.StatusSucceeded {
		now := s.now()
		replacement.Active = true
		replacement.StartDate = now
		replacement.EndDate = now.AddDate(0, 0, sub.Type.DurationDays)
	}
	replacement.Payment = models.Payment{
		ID:       sub.Payment.ID,
		IDStripe: intent.ID,
		Status:   intent.Status,
	}

	if err := s.repo.ReplaceSubscription(ctx, username, replacement); err != nil {
		return err
	}

	cacheKey := subscriptionCacheKey(username)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate subscription cache",
			slog.String("key", cacheKey), slog.Any("err", err))
	}
	return nil
}

// publishReconciliationFailure отправляет событие расхождения в очередь
// ручной сверки. Неудача публикации только логируется: событие уже
// зафиксировано в логе уровнем Error.
func (s *BillingService) publishReconciliationFailure(username string, intent *stripe.PaymentIntent, cause error) {
	event := ReconciliationFailedEvent{
		Username:   username,
		IntentID:   intent.ID,
		Status:     intent.Status,
		Cause:      cause.Error(),
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(rabbitmq.ReconciliationFailedRouting, event); err != nil {
		s.log.Error("failed to publish reconciliation failure event", sl.Err(err))
	}
}

// CancelPayment отменяет intent на шлюзе. Локальная подписка не меняется:
// отмена платежа не отзывает уже оплаченное окно подписки.
func (s *BillingService) CancelPayment(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	const op = "services.billing.CancelPayment"
	intent, err := s.gateway.CancelPaymentIntent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("payment intent canceled", slog.String("intent_id", intent.ID))
	return intent, nil
}

// GetSubscription возвращает подписку пользователя, используя кеш или хранилище.
func (s *BillingService) GetSubscription(ctx context.Context, username string) (*models.Subscription, error) {
	var result *models.Subscription
	cacheKey := subscriptionCacheKey(username)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read subscription from cache",
			slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found {
		return result, nil
	}

	result, err = s.repo.GetSubscriptionByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription",
			slog.String("key", cacheKey), slog.Any("err", err))
	}
	return result, nil
}

func subscriptionCacheKey(username string) string {
	return fmt.Sprintf("subscription:%s", username)
}
