package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/config"
	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/store"
	gateway "github.com/Alijeyrad/thera_backend/pkg/billing"
	"github.com/Alijeyrad/thera_backend/pkg/observability"
)

const defaultTolerance = 5 * time.Minute

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CheckoutRequest struct {
	PriceID       string
	Mode          string
	AppointmentID *uuid.UUID
}

type CheckoutResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type WebhookResult struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	// Applied is false for replays and for event types that change nothing.
	Applied bool `json:"applied"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, r gateway.CheckoutRequest) (*gateway.CheckoutSession, error)
}

type Store interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*domain.Appointment, error)
	ApplyBillingEvent(ctx context.Context, e store.BillingEffect) (bool, error)
	ListPayments(ctx context.Context, userID uuid.UUID, page store.Page) ([]domain.Payment, error)
}

type Service interface {
	CreateCheckout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (*WebhookResult, error)
	Payments(ctx context.Context, userID uuid.UUID, page, perPage int) ([]domain.Payment, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type billingService struct {
	store     Store
	gw        Gateway
	cfg       config.BillingConfig
	tolerance time.Duration
	now       func() time.Time
}

// New builds the billing bridge. gw is nil when no provider key is configured.
func New(st Store, gw Gateway, cfg config.BillingConfig) Service {
	tol := time.Duration(cfg.WebhookToleranceSeconds) * time.Second
	if tol <= 0 {
		tol = defaultTolerance
	}
	return &billingService{store: st, gw: gw, cfg: cfg, tolerance: tol, now: time.Now}
}

func (s *billingService) configured() bool {
	return s.gw != nil && s.cfg.Configured()
}

// ---------------------------------------------------------------------------
// Checkout
// ---------------------------------------------------------------------------

func (s *billingService) CreateCheckout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutResult, error) {
	if !s.configured() {
		return nil, ErrNotConfigured
	}

	mode := gateway.Mode(strings.ToLower(strings.TrimSpace(req.Mode)))
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}
	priceID := strings.TrimSpace(req.PriceID)
	if priceID == "" {
		return nil, ErrMissingPrice
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	meta := map[string]string{gateway.MetaUserID: userID.String()}
	if req.AppointmentID != nil {
		if mode != gateway.ModePayment {
			return nil, ErrInvalidMode
		}
		appt, err := s.store.GetAppointment(ctx, *req.AppointmentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("get appointment: %w", err)
		}
		if appt.ClientID != userID {
			return nil, ErrNotParticipant
		}
		meta[gateway.MetaAppointmentID] = appt.ID.String()
	}

	base := strings.TrimRight(s.cfg.PublicBaseURL, "/")
	session, err := s.gw.CreateCheckoutSession(ctx, gateway.CheckoutRequest{
		PriceID:       priceID,
		Mode:          mode,
		CustomerEmail: profile.Email,
		SuccessURL:    base + "/dashboard/client?success=true",
		CancelURL:     base + "/dashboard/client?canceled=true",
		Metadata:      meta,
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutResult{SessionID: session.ID, URL: session.URL}, nil
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

func (s *billingService) Payments(ctx context.Context, userID uuid.UUID, page, perPage int) ([]domain.Payment, error) {
	list, err := s.store.ListPayments(ctx, userID, store.Page{Page: page, PerPage: perPage})
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	if list == nil {
		list = []domain.Payment{}
	}
	return list, nil
}

// ---------------------------------------------------------------------------
// Webhook
// ---------------------------------------------------------------------------

func (s *billingService) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (*WebhookResult, error) {
	if !s.cfg.Configured() {
		return nil, ErrNotConfigured
	}

	ev, err := gateway.ParseEvent(payload, signatureHeader, s.cfg.WebhookSecret, s.tolerance, s.now())
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidSignature) {
			observability.RecordWebhook(ctx, "unknown", "invalid_signature")
			return nil, ErrInvalidSignature
		}
		observability.RecordWebhook(ctx, "unknown", "invalid_payload")
		return nil, ErrInvalidPayload
	}

	effect := store.BillingEffect{EventID: ev.ID, EventType: ev.Type}
	if ev.Type == gateway.EventCheckoutCompleted {
		cs, err := ev.CheckoutSession()
		if err != nil {
			observability.RecordWebhook(ctx, ev.Type, "invalid_payload")
			return nil, ErrInvalidPayload
		}
		s.effectOf(ctx, cs, &effect)
	}

	applied, err := s.store.ApplyBillingEvent(ctx, effect)
	if err != nil {
		observability.RecordWebhook(ctx, ev.Type, "error")
		return nil, fmt.Errorf("apply billing event: %w", err)
	}

	outcome := "applied"
	if !applied {
		outcome = "replayed"
	}
	observability.RecordWebhook(ctx, ev.Type, outcome)
	slog.InfoContext(ctx, "billing webhook processed", "event_id", ev.ID, "type", ev.Type, "outcome", outcome)

	hasEffect := effect.ActivateSubscriptionFor != nil || effect.MarkPaid != nil || effect.Payment != nil
	return &WebhookResult{EventID: ev.ID, Type: ev.Type, Applied: applied && hasEffect}, nil
}

func (s *billingService) effectOf(ctx context.Context, cs *gateway.CompletedSession, effect *store.BillingEffect) {
	if cs.PaymentStatus == "unpaid" {
		return
	}
	uid, hasUser := metaUUID(cs.Metadata, gateway.MetaUserID)

	description := "Payment"
	switch cs.Mode {
	case gateway.ModeSubscription:
		description = "Subscription"
		if hasUser {
			effect.ActivateSubscriptionFor = &uid
		}
	case gateway.ModePayment:
		if aid, ok := metaUUID(cs.Metadata, gateway.MetaAppointmentID); ok {
			description = "Session fee"
			effect.MarkPaid = &aid
		}
	}

	if !hasUser {
		slog.WarnContext(ctx, "checkout session without a user", "session_id", cs.ID, "mode", cs.Mode)
		return
	}
	effect.Payment = &store.NewPayment{
		UserID:        uid,
		AppointmentID: effect.MarkPaid,
		Description:   description,
		AmountCents:   cs.AmountTotal,
		Currency:      strings.ToLower(cs.Currency),
	}
}

func metaUUID(meta map[string]string, key string) (uuid.UUID, bool) {
	raw, ok := meta[key]
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	return id, err == nil
}
