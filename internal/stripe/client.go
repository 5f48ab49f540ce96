package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrIntentNotFound возвращается, когда шлюзу неизвестен идентификатор intent.
var ErrIntentNotFound = errors.New("payment intent not found")

// Client — HTTP-клиент Stripe API.
type Client struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент Stripe с секретным ключом аккаунта.
func NewClient(secretKey string) *Client {
	return &Client{
		secretKey:  secretKey,
		apiURL:     "https://api.stripe.com/v1",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// newRequest собирает запрос к API: Stripe принимает тело
// в form-urlencoded и авторизацию по секретному ключу.
func (c *Client) newRequest(ctx context.Context, method, path string, form url.Values) (*http.Request, error) {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req, nil
}

// do выполняет запрос и декодирует ответ в intent.
// Ответы с кодом >= 400 превращаются в *Error (404 — в ErrIntentNotFound).
func (c *Client) do(req *http.Request) (*PaymentIntent, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrIntentNotFound
		}
		var envelope errorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error == nil {
			return nil, fmt.Errorf("unexpected status: %s", resp.Status)
		}
		envelope.Error.HTTPStatus = resp.StatusCode
		return nil, envelope.Error
	}

	var intent PaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &intent, nil
}

// CreatePaymentIntent создаёт новый payment intent на указанную сумму.
func (c *Client) CreatePaymentIntent(ctx context.Context, amount int64, currency string) (*PaymentIntent, error) {
	const op = "stripe.CreatePaymentIntent"

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")

	req, err := c.newRequest(ctx, http.MethodPost, "/payment_intents", form)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	intent, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return intent, nil
}

// RetrievePaymentIntent возвращает снимок intent по его идентификатору.
func (c *Client) RetrievePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	const op = "stripe.RetrievePaymentIntent"

	req, err := c.newRequest(ctx, http.MethodGet, "/payment_intents/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	intent, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return intent, nil
}

// ConfirmPaymentIntent подтверждает intent указанным платёжным методом.
// Шлюз переводит статус к succeeded либо failed.
func (c *Client) ConfirmPaymentIntent(ctx context.Context, id, paymentMethod, returnURL string) (*PaymentIntent, error) {
	const op = "stripe.ConfirmPaymentIntent"

	form := url.Values{}
	form.Set("payment_method", paymentMethod)
	form.Set("return_url", returnURL)

	req, err := c.newRequest(ctx, http.MethodPost, "/payment_intents/"+url.PathEscape(id)+"/confirm", form)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	intent, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return intent, nil
}

// CancelPaymentIntent отменяет intent. Для intent в несовместимом
// терминальном состоянии шлюз возвращает бизнес-ошибку (*Error).
func (c *Client) CancelPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	const op = "stripe.CancelPaymentIntent"

	req, err := c.newRequest(ctx, http.MethodPost, "/payment_intents/"+url.PathEscape(id)+"/cancel", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	intent, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return intent, nil
}
