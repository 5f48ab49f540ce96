// Package billing предоставляет маршруты для основного приложения.
package billing

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/kruglovdev/subscription-billing/internal/config"
	"github.com/kruglovdev/subscription-billing/internal/http/handlers/auth/login"
	"github.com/kruglovdev/subscription-billing/internal/http/handlers/auth/register"
	"github.com/kruglovdev/subscription-billing/internal/http/handlers/payment/paymentcancel"
	"github.com/kruglovdev/subscription-billing/internal/http/handlers/payment/paymentconfirm"
	"github.com/kruglovdev/subscription-billing/internal/http/handlers/payment/paymentcreate"
	"github.com/kruglovdev/subscription-billing/internal/http/handlers/payment/paymentget"
	"github.com/kruglovdev/subscription-billing/internal/http/handlers/subscription/read"
	"github.com/kruglovdev/subscription-billing/internal/http/middlewarectx"
	authservice "github.com/kruglovdev/subscription-billing/internal/services/auth"
	billingservice "github.com/kruglovdev/subscription-billing/internal/services/billing"
)

// publicPaths — конечные точки, доступные без JWT.
// Элемент с завершающим "/" трактуется как префикс.
var publicPaths = []string{
	"/docs/",
	"/metrics",
	"/api/v1/auth/login",
	"/api/v1/auth/register",
	"/api/v1/users/",
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	tokenParser middlewarectx.TokenParser,
	authService *authservice.AuthService, billingService *billingservice.BillingService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.CORSMiddleware(cfg.AllowedOrigin),
		middlewarectx.JWTMiddleware(logger, tokenParser, publicPaths),
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, authService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, rate.NewLimiter(1, 3)))
			r.Get("/subs", read.New(logger, billingService).ServeHTTP)
			r.Post("/payments", paymentcreate.New(logger, billingService).ServeHTTP)
			r.Get("/payments/{id}", paymentget.New(logger, billingService).ServeHTTP)
			r.Post("/payments/{id}/confirm", paymentconfirm.New(logger, billingService).ServeHTTP)
			r.Post("/payments/{id}/cancel", paymentcancel.New(logger, billingService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
