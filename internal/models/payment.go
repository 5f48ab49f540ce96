package models

// Payment представляет локальную запись о платеже подписки.
// IDStripe хранит идентификатор payment intent на стороне платёжного
// шлюза; после первого заполнения значение не меняется — один платёж
// соответствует ровно одному intent за всё время жизни записи.
type Payment struct {
	ID       int    `json:"id"`        // Идентификатор платежа
	IDStripe string `json:"id_stripe"` // Идентификатор intent в Stripe
	Status   string `json:"status"`    // Статус шлюза на момент последней сверки
}
