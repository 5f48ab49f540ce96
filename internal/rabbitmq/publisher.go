package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// Publisher публикует события биллинга в exchange.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher создаёт Publisher поверх открытого канала.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// Publish сериализует сообщение в JSON и публикует его с ключом маршрутизации.
// Сообщения персистентные: событие расхождения не должно теряться при
// перезапуске брокера.
func (p *Publisher) Publish(routingKey string, message any) error {
	const op = "rabbitmq.Publish"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.Publish(
		BillingExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
