// Package paymentcancel реализует HTTP-обработчик отмены payment intent.
//
// Отмена выполняется только на платёжном шлюзе: локальная подписка не
// меняется, уже оплаченное окно не отзывается.
package paymentcancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kruglovdev/subscription-billing/internal/http/response"
	"github.com/kruglovdev/subscription-billing/internal/lib/sl"
	"github.com/kruglovdev/subscription-billing/internal/stripe"
)

// Service описывает интерфейс бизнес-логики отмены платежа.
type Service interface {
	CancelPayment(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

// Handler обрабатывает запросы на отмену payment intent.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отмена платежа
// @Description Отменяет payment intent на платёжном шлюзе. Локальная подписка не меняется.
// @Tags Payments
// @Produce  json
// @Param id path string true "Идентификатор payment intent"
// @Success 200 {object} map[string]any "Платёж отменён"
// @Failure 404 {object} response.ErrorResponse "Платёж не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка платёжного шлюза"
// @Security BearerAuth
// @Router /api/v1/payments/{id}/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.cancel"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if id == "" {
		log.Error("missing payment intent id in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing payment intent id"))
		return
	}

	intent, err := h.service.CancelPayment(r.Context(), id)
	if err != nil {
		if errors.Is(err, stripe.ErrIntentNotFound) {
			log.Error("payment intent not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("payment intent not found"))
			return
		}
		log.Error("failed to cancel payment intent", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("payment provider error"))
		return
	}

	log.Info("payment intent canceled", slog.String("intent_id", intent.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payment_intent": intent,
	}))
}
