// Package paymentconfirm реализует HTTP-обработчик подтверждения платежа.
//
// Обработчик подтверждает payment intent на платёжном шлюзе и сверяет
// подписку аутентифицированного пользователя с исходом платежа. Имя
// пользователя берётся из контекста запроса, так что подтвердить можно
// только собственную подписку.
package paymentconfirm

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/kruglovdev/subscription-billing/internal/http/middlewarectx"
	"github.com/kruglovdev/subscription-billing/internal/http/response"
	"github.com/kruglovdev/subscription-billing/internal/lib/sl"
	billingservice "github.com/kruglovdev/subscription-billing/internal/services/billing"
	"github.com/kruglovdev/subscription-billing/internal/stripe"
)

// Request — структура входных данных для подтверждения платежа.
type Request struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
}

// Service описывает интерфейс бизнес-логики подтверждения платежа.
type Service interface {
	ConfirmSubscriptionPayment(ctx context.Context, username, intentID, paymentMethod string) (*stripe.PaymentIntent, error)
}

// Handler обрабатывает запросы на подтверждение payment intent.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Подтверждение платежа
// @Description Подтверждает payment intent и сверяет подписку пользователя с исходом платежа.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param id path string true "Идентификатор payment intent"
// @Param request body Request true "Платёжный метод"
// @Success 200 {object} map[string]any "Платёж подтверждён, подписка сверена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 404 {object} response.ErrorResponse "Платёж не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка шлюза или сверки"
// @Security BearerAuth
// @Router /api/v1/payments/{id}/confirm [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.confirm"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || username == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		log.Error("missing payment intent id in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing payment intent id"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	intent, err := h.service.ConfirmSubscriptionPayment(r.Context(), username, id, req.PaymentMethod)
	if err != nil {
		// Сверка идёт после подтверждения на шлюзе, поэтому ошибка сверки
		// важнее вложенной причины: деньги уже списаны.
		var recErr *billingservice.ReconciliationError
		switch {
		case errors.As(err, &recErr):
			log.Error("failed to reconcile subscription", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("subscription update failed"))
		case errors.Is(err, stripe.ErrIntentNotFound):
			log.Error("payment intent not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("payment intent not found"))
		default:
			log.Error("failed to confirm payment intent", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("payment provider error"))
		}
		return
	}

	log.Info("payment confirmed", slog.String("intent_id", intent.ID), slog.String("status", intent.Status))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payment_intent": intent,
	}))
}
