// Package billing provides a minimal client for a Stripe-compatible checkout API
// and verification of its signed webhooks.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Alijeyrad/thera_backend/config"
)

const defaultAPIBaseURL = "https://api.stripe.com"

var (
	ErrNotConfigured      = errors.New("billing is not configured")
	ErrInvalidMode        = errors.New("billing: mode must be payment or subscription")
	ErrUnexpectedResponse = errors.New("billing: unexpected response from gateway")
)

type Mode string

const (
	ModePayment      Mode = "payment"
	ModeSubscription Mode = "subscription"
)

func (m Mode) Valid() bool { return m == ModePayment || m == ModeSubscription }

// Metadata keys attached to checkout sessions and echoed back in webhooks.
const (
	MetaUserID        = "user_id"
	MetaAppointmentID = "appointment_id"
)

type CheckoutRequest struct {
	PriceID       string
	Mode          Mode
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client is a lightweight checkout-session HTTP client.
type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

// New creates a Client from config. Returns ErrNotConfigured without a secret key.
func New(cfg config.BillingConfig) (*Client, error) {
	if cfg.SecretKey == "" {
		return nil, ErrNotConfigured
	}
	baseURL := strings.TrimRight(cfg.APIBaseURL, "/")
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	return &Client{
		secretKey:  cfg.SecretKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// CreateCheckoutSession starts a hosted checkout and returns its redirect URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, r CheckoutRequest) (*CheckoutSession, error) {
	if !r.Mode.Valid() {
		return nil, ErrInvalidMode
	}
	if r.PriceID == "" {
		return nil, fmt.Errorf("billing: price id is required")
	}

	form := url.Values{}
	form.Set("mode", string(r.Mode))
	form.Set("line_items[0][price]", r.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", r.SuccessURL)
	form.Set("cancel_url", r.CancelURL)
	if r.CustomerEmail != "" {
		form.Set("customer_email", r.CustomerEmail)
	}
	for k, v := range r.Metadata {
		form.Set("metadata["+k+"]", v)
	}
	if uid := r.Metadata[MetaUserID]; uid != "" {
		form.Set("client_reference_id", uid)
	}

	var sess CheckoutSession
	if err := c.post(ctx, "/v1/checkout/sessions", form, &sess); err != nil {
		return nil, fmt.Errorf("billing checkout: %w", err)
	}
	if sess.URL == "" {
		return nil, ErrUnexpectedResponse
	}
	return &sess, nil
}

// post sends a form-encoded POST to baseURL+path and decodes the JSON response into out.
func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		_ = json.Unmarshal(body, &apiErr)
		return fmt.Errorf("%w (status=%d, type=%s, msg=%s)", ErrUnexpectedResponse, res.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
