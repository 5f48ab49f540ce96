// Package storage реализует хранилище данных на основе PostgreSQL
// для пользователей, подписок и платежей. Замена подписки выполняется
// целиком в одной транзакции под блокировкой строки, поэтому параллельные
// сверки по одному пользователю сериализуются на уровне базы.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kruglovdev/subscription-billing/internal/models"
)

// Ошибки хранилища, различимые бизнес-логикой.
var (
	// ErrUserNotFound — пользователь с таким username не существует.
	ErrUserNotFound = errors.New("user not found")
	// ErrSubscriptionNotFound — у пользователя нет записи подписки.
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrPaymentIntentMismatch — попытка перезаписать id_stripe платежа,
	// который уже привязан к другому intent.
	ErrPaymentIntentMismatch = errors.New("payment is bound to another payment intent")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// RegisterUser сохраняет нового пользователя вместе с неактивной подпиской
// типа по умолчанию и пустой записью платежа, чтобы последующей сверке
// всегда было что заменять. Возвращает uid пользователя.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	uid := uuid.New().String()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (uid, username, email, password_hash) VALUES ($1, $2, $3, $4)`,
		uid, user.Username, user.Email, user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var subscriptionID int
	err = tx.QueryRowContext(ctx,
		`INSERT INTO subscriptions (user_uid, type_id, active)
		 VALUES ($1, (SELECT id FROM subscription_types WHERE name = 'monthly'), false)
		 RETURNING id`,
		uid).Scan(&subscriptionID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO payments (subscription_id, status) VALUES ($1, 'created')`,
		subscriptionID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// GetUserByUsername возвращает пользователя по имени.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash FROM users WHERE username = $1`
	row := s.DB.QueryRowContext(ctx, query, username)

	var user models.User
	if err := row.Scan(&user.UID, &user.Email, &user.Username, &user.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// GetSubscriptionByUsername возвращает подписку пользователя со справочным
// типом и связанным платежом.
func (s *Storage) GetSubscriptionByUsername(ctx context.Context, username string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.id, u.username, s.active, s.start_date, s.end_date,
			      st.id, st.name, st.duration_days,
			      p.id, p.id_stripe, p.status
			  FROM subscriptions s
			  JOIN users u ON u.uid = s.user_uid
			  JOIN subscription_types st ON st.id = s.type_id
			  JOIN payments p ON p.subscription_id = s.id
			  WHERE u.username = $1`
	row := s.DB.QueryRowContext(ctx, query, username)

	var sub models.Subscription
	var startDate, endDate sql.NullTime
	var idStripe sql.NullString
	err := row.Scan(&sub.ID, &sub.Username, &sub.Active, &startDate, &endDate,
		&sub.Type.ID, &sub.Type.Name, &sub.Type.DurationDays,
		&sub.Payment.ID, &idStripe, &sub.Payment.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrSubscriptionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if startDate.Valid {
		sub.StartDate = startDate.Time
	}
	if endDate.Valid {
		sub.EndDate = endDate.Time
	}
	if idStripe.Valid {
		sub.Payment.IDStripe = idStripe.String
	}
	return &sub, nil
}

// ReplaceSubscription заменяет запись подписки пользователя целиком:
// активность, окно действия и зеркалируемые поля платежа записываются
// в одной транзакции под SELECT ... FOR UPDATE. Параллельные замены по
// одному пользователю выполняются строго последовательно, фиксируется
// запись последней закоммитившей транзакции.
//
// id_stripe платежа после первого заполнения неизменяем: замена с другим
// intent завершается ErrPaymentIntentMismatch.
func (s *Storage) ReplaceSubscription(ctx context.Context, username string, replacement models.Subscription) error {
	const op = "storage.ReplaceSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var subscriptionID, paymentID int
	var currentIDStripe sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT s.id, p.id, p.id_stripe
		 FROM subscriptions s
		 JOIN users u ON u.uid = s.user_uid
		 JOIN payments p ON p.subscription_id = s.id
		 WHERE u.username = $1
		 FOR UPDATE OF s, p`,
		username).Scan(&subscriptionID, &paymentID, &currentIDStripe)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, ErrSubscriptionNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if currentIDStripe.Valid && currentIDStripe.String != "" &&
		currentIDStripe.String != replacement.Payment.IDStripe {
		return fmt.Errorf("%s: %w", op, ErrPaymentIntentMismatch)
	}

	startDate := sql.NullTime{Time: replacement.StartDate, Valid: !replacement.StartDate.IsZero()}
	endDate := sql.NullTime{Time: replacement.EndDate, Valid: !replacement.EndDate.IsZero()}
	_, err = tx.ExecContext(ctx,
		`UPDATE subscriptions SET active = $1, start_date = $2, end_date = $3 WHERE id = $4`,
		replacement.Active, startDate, endDate, subscriptionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE payments SET id_stripe = $1, status = $2 WHERE id = $3`,
		replacement.Payment.IDStripe, replacement.Payment.Status, paymentID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
