// Package models содержит доменные структуры биллинга подписок:
// пользователя, подписку с её типом и связанный платёж.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID          string // Уникальный идентификатор пользователя
	Email        string // Электронная почта
	Username     string // Имя пользователя (уникальное)
	PasswordHash string // Хэш пароля пользователя
}
