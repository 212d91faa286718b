package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/service/billing"
)

type fakeBilling struct {
	billing.Service
	err       error
	payload   []byte
	signature string
	lastReq   billing.CheckoutRequest
	payments  []domain.Payment
	lastPage  [2]int
}

func (f *fakeBilling) Payments(_ context.Context, _ uuid.UUID, page, perPage int) ([]domain.Payment, error) {
	f.lastPage = [2]int{page, perPage}
	if f.err != nil {
		return nil, f.err
	}
	return f.payments, nil
}

func (f *fakeBilling) CreateCheckout(_ context.Context, _ uuid.UUID, req billing.CheckoutRequest) (*billing.CheckoutResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &billing.CheckoutResult{SessionID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}, nil
}

func (f *fakeBilling) HandleWebhook(_ context.Context, payload []byte, sig string) (*billing.WebhookResult, error) {
	f.payload, f.signature = payload, sig
	if f.err != nil {
		return nil, f.err
	}
	return &billing.WebhookResult{EventID: "evt_1", Type: "checkout.session.completed", Applied: true}, nil
}

func TestBillingHandler_Checkout(t *testing.T) {
	apptID := uuid.New()
	svc := &fakeBilling{}
	id := clientIdentity()
	app := newApp(&id)
	app.Post("/billing/checkout", NewBillingHandler(svc).Checkout)

	res := do(t, app, http.MethodPost, "/billing/checkout", map[string]string{
		"price_id": "price_1", "mode": "payment", "appointment_id": apptID.String(),
	})
	require.Equal(t, http.StatusCreated, res.status)
	assert.Equal(t, "https://checkout.example/cs_test_1", res.data()["url"])
	require.NotNil(t, svc.lastReq.AppointmentID)
	assert.Equal(t, apptID, *svc.lastReq.AppointmentID)

	res = do(t, app, http.MethodPost, "/billing/checkout", map[string]string{"price_id": "price_1", "appointment_id": "x"})
	assert.Equal(t, http.StatusBadRequest, res.status)
}

func TestBillingHandler_NotConfigured(t *testing.T) {
	svc := &fakeBilling{err: billing.ErrNotConfigured}
	id := clientIdentity()
	app := newApp(&id)
	h := NewBillingHandler(svc)
	app.Post("/billing/checkout", h.Checkout)
	app.Post("/billing/webhook", h.Webhook)

	for _, path := range []string{"/billing/checkout", "/billing/webhook"} {
		res := do(t, app, http.MethodPost, path, map[string]string{"price_id": "price_1"})
		assert.Equal(t, http.StatusServiceUnavailable, res.status, path)
		assert.Equal(t, "billing is not configured", res.body["error"], path)
	}
}

func TestBillingHandler_Webhook(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"applied", nil, http.StatusOK},
		{"bad signature", billing.ErrInvalidSignature, http.StatusBadRequest},
		{"bad payload", billing.ErrInvalidPayload, http.StatusBadRequest},
		{"store failure", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeBilling{err: tt.err}
			app := newApp(nil)
			app.Post("/billing/webhook", NewBillingHandler(svc).Webhook)

			payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
			req := httptest.NewRequest(http.MethodPost, "/billing/webhook", bytes.NewReader(payload))
			req.Header.Set("Stripe-Signature", "t=1,v1=abc")
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, payload, svc.payload)
			assert.Equal(t, "t=1,v1=abc", svc.signature)
		})
	}
}

func TestBillingHandler_Payments(t *testing.T) {
	svc := &fakeBilling{payments: []domain.Payment{
		{ID: uuid.New(), UserID: clientID, Description: "Session fee", AmountCents: 8000, Currency: "gbp"},
	}}
	id := clientIdentity()
	app := newApp(&id)
	app.Get("/billing/payments", NewBillingHandler(svc).Payments)

	res := do(t, app, http.MethodGet, "/billing/payments?page=2&per_page=5", nil)
	require.Equal(t, http.StatusOK, res.status)
	list, isList := res.body["data"].([]any)
	require.True(t, isList)
	require.Len(t, list, 1)
	assert.Equal(t, "Session fee", list[0].(map[string]any)["description"])
	assert.EqualValues(t, 8000, list[0].(map[string]any)["amount_cents"])
	assert.Equal(t, [2]int{2, 5}, svc.lastPage)

	assert.Equal(t, http.StatusBadRequest, do(t, app, http.MethodGet, "/billing/payments?page=x", nil).status)

	anon := newApp(nil)
	anon.Get("/billing/payments", NewBillingHandler(svc).Payments)
	assert.Equal(t, http.StatusUnauthorized, do(t, anon, http.MethodGet, "/billing/payments", nil).status)
}
