package jwt

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "dGVzdF9zZWNyZXRfa2V5XzEyMzQ1Njc4OTA=" // base64("test_secret_key_1234567890")

func newTestMaker(t *testing.T, ttl time.Duration) *MakerImpl {
	maker, err := NewJWTMaker(testSecret, ttl)
	require.NoError(t, err)
	return maker
}

func TestNewJWTMaker_InvalidSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{name: "not base64", secret: "%%%not-base64%%%"},
		{name: "empty secret", secret: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maker, err := NewJWTMaker(tt.secret, 15*time.Minute)
			assert.Error(t, err)
			assert.Nil(t, maker)
		})
	}
}

func TestJWTMaker_GenerateAndParseToken_RoundTrip(t *testing.T) {
	tokenTTL := 15 * time.Minute
	maker := newTestMaker(t, tokenTTL)

	tests := []struct {
		name    string
		subject string
	}{
		{name: "plain username", subject: "regular_user"},
		{name: "email-like username", subject: "user@domain.com"},
		{name: "username with digits", subject: "user123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.subject)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.subject, claims.Subject)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt, time.Second)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt, time.Second)
		})
	}
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	maker := newTestMaker(t, 15*time.Minute)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			name:    "empty token",
			token:   "",
			wantErr: ErrTokenMalformed,
		},
		{
			name:    "garbage token",
			token:   "invalid.token.here",
			wantErr: ErrTokenMalformed,
		},
		{
			name:    "expired token",
			token:   createExpiredToken(t),
			wantErr: ErrTokenExpired,
		},
		{
			name:    "wrong signing key",
			token:   createTokenWithWrongSecret(t),
			wantErr: ErrTokenSignatureInvalid,
		},
		{
			name:    "tampered signature",
			token:   tamperSignature(t, maker),
			wantErr: ErrTokenSignatureInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTMaker_DifferentSecretKeys(t *testing.T) {
	maker1 := newTestMaker(t, 15*time.Minute)
	maker2, err := NewJWTMaker(base64.StdEncoding.EncodeToString([]byte("different_secret_key")), 15*time.Minute)
	require.NoError(t, err)

	token, err := maker1.GenerateToken("testuser")
	require.NoError(t, err)

	claims, err := maker2.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenSignatureInvalid)
	assert.Nil(t, claims)

	claims, err = maker1.ParseToken(token)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
}

func TestJWTMaker_TokenExpiration(t *testing.T) {
	shortTTL := 100 * time.Millisecond
	maker := newTestMaker(t, shortTTL)

	token, err := maker.GenerateToken("testuser")
	require.NoError(t, err)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.NotNil(t, claims)

	time.Sleep(150 * time.Millisecond)

	claims, err = maker.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Nil(t, claims)
}

func createExpiredToken(t *testing.T) string {
	maker := newTestMaker(t, -time.Hour)
	token, err := maker.GenerateToken("testuser")
	require.NoError(t, err)
	return token
}

func createTokenWithWrongSecret(t *testing.T) string {
	wrongSecret := base64.StdEncoding.EncodeToString([]byte("wrong_secret_key"))
	maker, err := NewJWTMaker(wrongSecret, 15*time.Minute)
	require.NoError(t, err)
	token, err := maker.GenerateToken("testuser")
	require.NoError(t, err)
	return token
}

// tamperSignature портит последний символ сегмента подписи валидного токена.
func tamperSignature(t *testing.T, maker *MakerImpl) string {
	token, err := maker.GenerateToken("testuser")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	sig := []byte(parts[2])
	if sig[len(sig)-1] == 'A' {
		sig[len(sig)-1] = 'B'
	} else {
		sig[len(sig)-1] = 'A'
	}
	parts[2] = string(sig)
	return strings.Join(parts, ".")
}
