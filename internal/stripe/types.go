// Package stripe реализует клиент платёжного шлюза Stripe.
//
// Клиент покрывает четыре операции жизненного цикла payment intent:
// создание, чтение, подтверждение и отмену. Все вызовы синхронные
// запрос/ответ; идемпотентность удалённой стороны не предполагается,
// автоматических повторов нет (повтор confirm может привести к
// повторному списанию).
package stripe

import "fmt"

// Статусы payment intent, которые различает бизнес-логика.
// Остальные значения шлюза переносятся как есть.
const (
	StatusCreated              = "created"
	StatusRequiresConfirmation = "requires_confirmation"
	StatusSucceeded            = "succeeded"
	StatusCanceled             = "canceled"
	StatusFailed               = "failed"
)

// PaymentIntent представляет снимок состояния платежа на стороне шлюза.
type PaymentIntent struct {
	ID       string `json:"id"`       // Идентификатор intent, присвоенный шлюзом
	Amount   int64  `json:"amount"`   // Сумма в минимальных единицах валюты
	Currency string `json:"currency"` // Валюта, например "usd"
	Status   string `json:"status"`   // Текущий статус intent
}

// Error представляет бизнес-ошибку, возвращённую шлюзом
// (невалидное состояние intent, неизвестный ресурс и т.п.).
// Транспортные ошибки сети возвращаются отдельно, обёрнутыми.
type Error struct {
	Type       string `json:"type"`    // Тип ошибки по классификации Stripe
	Code       string `json:"code"`    // Машиночитаемый код
	Message    string `json:"message"` // Человекочитаемое описание
	HTTPStatus int    `json:"-"`       // HTTP статус ответа шлюза
}

func (e *Error) Error() string {
	return fmt.Sprintf("stripe: %s (type=%s, code=%s, status=%d)",
		e.Message, e.Type, e.Code, e.HTTPStatus)
}

// errorEnvelope — обёртка, в которой Stripe возвращает ошибки.
type errorEnvelope struct {
	Error *Error `json:"error"`
}
