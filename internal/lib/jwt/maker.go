package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Классифицированные ошибки разбора токена. Транспортный слой не должен
// раскрывать их клиенту, они предназначены для внутреннего логирования.
var (
	// ErrTokenMalformed — строка не разбирается в структуру JWT.
	ErrTokenMalformed = errors.New("token is malformed")
	// ErrTokenSignatureInvalid — подпись не проходит проверку ключом.
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	// ErrTokenExpired — срок действия токена истёк.
	ErrTokenExpired = errors.New("token is expired")
)

// GenerateToken выпускает токен с subject, подписывая его ключом maker'а.
//
// Время жизни токена определяется полем tokenTTL: exp = iat + TTL.
func (j *MakerImpl) GenerateToken(subject string) (string, error) {
	const op = "jwt.GenerateToken"
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.signingKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken разбирает токен, проверяет подпись и срок действия.
// Возвращает Claims либо одну из классифицированных ошибок:
// ErrTokenMalformed, ErrTokenSignatureInvalid, ErrTokenExpired.
func (j *MakerImpl) ParseToken(tokenStr string) (*Claims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{},
		func(_ *jwt.Token) (any, error) {
			return j.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenMalformed)
	}
	result := &Claims{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	return result, nil
}

// classify сводит ошибки библиотеки golang-jwt к ошибкам пакета.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignatureInvalid
	default:
		return ErrTokenMalformed
	}
}
