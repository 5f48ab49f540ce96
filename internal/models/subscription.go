package models

import "time"

// SubscriptionType описывает справочный тип подписки.
// Данные неизменяемые: длительность действия задаётся один раз в днях.
type SubscriptionType struct {
	ID           int    `json:"id"`            // Идентификатор типа
	Name         string `json:"name"`          // Название типа, например "monthly"
	DurationDays int    `json:"duration_days"` // Длительность подписки в днях (>0)
}

// Subscription представляет подписку пользователя.
// У каждого пользователя ровно одна запись подписки; при подтверждении
// оплаты запись заменяется целиком, частичные изменения полей
// наружу не видны.
//
// Инвариант: EndDate = StartDate + Type.DurationDays.
type Subscription struct {
	ID        int              `json:"id"`         // Идентификатор подписки
	Username  string           `json:"username"`   // Владелец подписки
	Active    bool             `json:"active"`     // Активна ли подписка
	StartDate time.Time        `json:"start_date"` // Дата начала оплаченного периода
	EndDate   time.Time        `json:"end_date"`   // Дата окончания оплаченного периода
	Type      SubscriptionType `json:"type"`       // Тип подписки (справочник)
	Payment   Payment          `json:"payment"`    // Связанный платёж
}
