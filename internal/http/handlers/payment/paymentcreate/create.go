// Package paymentcreate реализует HTTP-обработчик создания payment intent.
//
// Обработчик принимает сумму и валюту, создаёт intent на платёжном шлюзе
// и возвращает его идентификатор и статус.
package paymentcreate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/kruglovdev/subscription-billing/internal/http/response"
	"github.com/kruglovdev/subscription-billing/internal/lib/sl"
	"github.com/kruglovdev/subscription-billing/internal/stripe"
)

// Request — структура входных данных для создания платежа.
//
// Amount задаётся в минимальных единицах валюты, Currency — трёхбуквенный код.
type Request struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency" validate:"required,len=3"`
}

// Service описывает интерфейс бизнес-логики создания платежа.
type Service interface {
	CreatePayment(ctx context.Context, amount int64, currency string) (*stripe.PaymentIntent, error)
}

// Handler обрабатывает запросы на создание payment intent.
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
// @Summary Создание платежа
// @Description Создаёт payment intent на платёжном шлюзе.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Сумма и валюта платежа"
// @Success 200 {object} map[string]any "Платёж создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка платёжного шлюза"
// @Security BearerAuth
// @Router /api/v1/payments [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	intent, err := h.service.CreatePayment(r.Context(), req.Amount, req.Currency)
	if err != nil {
		log.Error("failed to create payment intent", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("payment provider error"))
		return
	}

	log.Info("payment intent created", slog.String("intent_id", intent.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payment_intent": intent,
	}))
}
