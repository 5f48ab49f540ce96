package middlewarectx_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/kruglovdev/subscription-billing/internal/http/middlewarectx"
	"github.com/kruglovdev/subscription-billing/internal/lib/jwt"
)

type TokenParserMock struct {
	mock.Mock
}

func (m *TokenParserMock) ParseToken(tokenStr string) (*jwt.Claims, error) {
	args := m.Called(tokenStr)
	claims, _ := args.Get(0).(*jwt.Claims)
	return claims, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestJWTMiddleware(t *testing.T) {
	parserMock := new(TokenParserMock)
	logger := newNoopLogger()

	publicPaths := []string{
		"/docs/",
		"/metrics",
		"/api/v1/auth/login",
		"/api/v1/auth/register",
	}

	handlerCalled := false
	var gotUsername any

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		gotUsername = r.Context().Value(middlewarectx.User)
		w.WriteHeader(http.StatusOK)
	})

	middleware := middlewarectx.JWTMiddleware(logger, parserMock, publicPaths)(nextHandler)

	tests := []struct {
		name           string
		path           string
		authHeader     string
		mockClaims     *jwt.Claims
		mockErr        error
		wantStatusCode int
		wantCalled     bool
		wantUsername   string
	}{
		{
			name:           "public path without header",
			path:           "/api/v1/auth/login",
			authHeader:     "",
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:           "public prefix without header",
			path:           "/docs/index.html",
			authHeader:     "",
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:           "missing Authorization header",
			path:           "/api/v1/subs",
			authHeader:     "",
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "invalid Authorization header prefix",
			path:           "/api/v1/subs",
			authHeader:     "Basic sometoken",
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "expired token",
			path:           "/api/v1/subs",
			authHeader:     "Bearer expiredtoken",
			mockErr:        jwt.ErrTokenExpired,
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "tampered token",
			path:           "/api/v1/subs",
			authHeader:     "Bearer tamperedtoken",
			mockErr:        jwt.ErrTokenSignatureInvalid,
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "parser failure",
			path:           "/api/v1/subs",
			authHeader:     "Bearer token",
			mockErr:        errors.New("some parse error"),
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "valid token",
			path:           "/api/v1/subs",
			authHeader:     "Bearer validtoken",
			mockClaims:     &jwt.Claims{Subject: "testuser"},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
			wantUsername:   "testuser",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled = false
			gotUsername = nil
			parserMock.ExpectedCalls = nil
			parserMock.Calls = nil
			if tt.mockClaims != nil || tt.mockErr != nil {
				parserMock.On("ParseToken", strings.TrimPrefix(tt.authHeader, "Bearer ")).
					Return(tt.mockClaims, tt.mockErr).Once()
			}

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rec := httptest.NewRecorder()

			middleware.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			if tt.wantUsername != "" {
				assert.Equal(t, tt.wantUsername, gotUsername)
			}
			parserMock.AssertExpectations(t)
		})
	}
}
