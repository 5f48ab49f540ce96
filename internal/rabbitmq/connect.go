// Package rabbitmq настраивает подключение к RabbitMQ и публикацию
// событий биллинга. Единственный потребитель очереди — внешний процесс
// ручной сверки, разбирающий расхождения между шлюзом и локальной базой.
package rabbitmq

import (
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Exchange и очередь событий сверки.
const (
	BillingExchange             = "billing"
	ReconciliationFailedQueue   = "billing.reconciliation_failed"
	ReconciliationFailedRouting = "reconciliation_failed"
)

// Connect подключается к RabbitMQ с повторами.
func Connect(connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	var conn *amqp.Connection
	var err error

	for range retries {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}

// SetupChannel открывает канал и объявляет exchange и очередь событий сверки.
func SetupChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		BillingExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = ch.QueueDeclare(
		ReconciliationFailedQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = ch.QueueBind(ReconciliationFailedQueue, ReconciliationFailedRouting, BillingExchange, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ch, nil
}
