package stripe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient("sk_test_123")
	client.apiURL = srv.URL
	return client
}

func TestClient_CreatePaymentIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1500", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "true", r.PostForm.Get("automatic_payment_methods[enabled]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_123","amount":1500,"currency":"usd","status":"requires_confirmation"}`))
	})

	intent, err := client.CreatePaymentIntent(context.Background(), 1500, "usd")
	require.NoError(t, err)

	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, int64(1500), intent.Amount)
	assert.Equal(t, "usd", intent.Currency)
	assert.Equal(t, StatusRequiresConfirmation, intent.Status)
}

func TestClient_RetrievePaymentIntent_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such payment_intent"}}`))
	})

	intent, err := client.RetrievePaymentIntent(context.Background(), "pi_unknown")
	assert.Nil(t, intent)
	assert.ErrorIs(t, err, ErrIntentNotFound)
}

func TestClient_ConfirmPaymentIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment_intents/pi_123/confirm", r.URL.Path)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "pm_card_visa", r.PostForm.Get("payment_method"))
		assert.Equal(t, "https://www.example.com", r.PostForm.Get("return_url"))

		_, _ = w.Write([]byte(`{"id":"pi_123","amount":1500,"currency":"usd","status":"succeeded"}`))
	})

	intent, err := client.ConfirmPaymentIntent(context.Background(), "pi_123", "pm_card_visa", "https://www.example.com")
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, intent.Status)
}

func TestClient_CancelPaymentIntent_AlreadyCanceled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment_intents/pi_123/cancel", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"payment_intent_unexpected_state","message":"This PaymentIntent could not be canceled because it has a status of canceled."}}`))
	})

	intent, err := client.CancelPaymentIntent(context.Background(), "pi_123")
	assert.Nil(t, intent)

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "payment_intent_unexpected_state", gwErr.Code)
	assert.Equal(t, http.StatusBadRequest, gwErr.HTTPStatus)
}

func TestClient_TransportError(t *testing.T) {
	client := NewClient("sk_test_123")
	client.apiURL = "http://127.0.0.1:1" // заведомо недоступный адрес

	intent, err := client.CreatePaymentIntent(context.Background(), 100, "usd")
	assert.Nil(t, intent)
	require.Error(t, err)

	var gwErr *Error
	assert.False(t, errors.As(err, &gwErr), "transport failure must not be a gateway business error")
}
