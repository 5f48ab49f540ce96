// Package read реализует HTTP-обработчик для получения подписки пользователя.
//
// Handler берёт имя пользователя из контекста запроса, вызывает бизнес-логику
// чтения подписки и возвращает данные подписки в JSON-формате.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kruglovdev/subscription-billing/internal/http/middlewarectx"
	"github.com/kruglovdev/subscription-billing/internal/http/response"
	"github.com/kruglovdev/subscription-billing/internal/lib/sl"
	"github.com/kruglovdev/subscription-billing/internal/models"
	"github.com/kruglovdev/subscription-billing/internal/storage"
)

// Service описывает интерфейс бизнес-логики чтения подписки.
type Service interface {
	GetSubscription(ctx context.Context, username string) (*models.Subscription, error)
}

// Handler обрабатывает запросы на получение подписки пользователя.
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
// @Summary Получение подписки
// @Description Возвращает подписку аутентифицированного пользователя.
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} map[string]any "Данные подписки"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /api/v1/subs [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.read"

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

	sub, err := h.service.GetSubscription(r.Context(), username)
	if err != nil {
		if errors.Is(err, storage.ErrSubscriptionNotFound) {
			log.Error("subscription not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("subscription not found"))
			return
		}
		log.Error("failed to read subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read subscription"))
		return
	}

	log.Info("subscription read", slog.String("username", username))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscription": sub,
	}))
}
