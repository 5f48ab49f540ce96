// Package jwt реализует выпуск и проверку подписанных JWT токенов доступа.
//
// Токен подписывается симметричным ключом (HS256). Ключ получается
// однократным base64-декодированием секрета при создании MakerImpl и
// неизменен на всё время жизни процесса: смена секрета делает
// недействительными все выданные токены. Серверного списка отзыва нет,
// токен действует до естественного истечения срока.
package jwt

import (
	"encoding/base64"
	"fmt"
	"time"
)

// Maker описывает интерфейс для выпуска и разбора JWT токенов.
type Maker interface {
	// GenerateToken выпускает токен для указанного субъекта (username).
	GenerateToken(subject string) (string, error)
	// ParseToken проверяет подпись и срок действия, возвращает claims.
	ParseToken(tokenStr string) (*Claims, error)
}

// Claims содержит проверенные данные токена.
type Claims struct {
	Subject   string    // Имя пользователя, которому выдан токен
	IssuedAt  time.Time // Момент выпуска
	ExpiresAt time.Time // Момент истечения срока действия
}

// MakerImpl реализует интерфейс Maker с использованием симметричного
// ключа и времени жизни токена (TTL).
type MakerImpl struct {
	signingKey []byte        // Ключ подписи, полученный из base64-секрета
	tokenTTL   time.Duration // Время жизни токена
}

// NewJWTMaker создаёт новый MakerImpl: декодирует base64-секрет в ключ
// подписи и фиксирует TTL. Возвращает ошибку, если секрет не является
// корректной base64-строкой или пуст.
func NewJWTMaker(base64Secret string, ttl time.Duration) (*MakerImpl, error) {
	const op = "jwt.NewJWTMaker"
	key, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("%s: empty signing key", op)
	}
	return &MakerImpl{
		signingKey: key,
		tokenTTL:   ttl,
	}, nil
}
