package sms

import (
	"context"
	"errors"
	"fmt"

	"github.com/arsmn/go-smsir/smsir"
	"github.com/nyaruka/phonenumbers"

	"github.com/Alijeyrad/thera_backend/config"
)

// DefaultRegion is used to parse numbers entered without a country prefix.
const DefaultRegion = "GB"

var ErrInvalidPhone = errors.New("invalid phone number")

// Client sends transactional texts via sms.ir ultra-fast templates.
type Client struct {
	send             func(ctx context.Context, req *smsir.UltraFastSendRequest) error
	enabled          bool
	codeTemplateID   string
	statusTemplateID string
}

// NewFromConfig creates a new SMS client from the application configuration.
// If SMS is disabled, returns a client that no-ops on all operations.
func NewFromConfig(cfg config.SMSConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{enabled: false}, nil
	}

	if cfg.SMSIR.APIKey == "" {
		return nil, fmt.Errorf("sms.ir API key required when SMS enabled")
	}

	client := smsir.NewClient().WithAuthentication(cfg.SMSIR.APIKey, cfg.SMSIR.SecretKey)

	return &Client{
		send: func(ctx context.Context, req *smsir.UltraFastSendRequest) error {
			_, err := client.Verification.UltraFastSend(ctx, req)
			return err
		},
		enabled:          true,
		codeTemplateID:   cfg.SMSIR.TemplateID,
		statusTemplateID: cfg.SMSIR.ReminderTemplateID,
	}, nil
}

// NormalizePhone parses a user-entered number and returns it in E.164 form.
func NormalizePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(raw, DefaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// SendCode texts a one-time code (password reset) using the code template.
// The template must have a parameter named "code".
func (c *Client) SendCode(ctx context.Context, phoneNumber, code string) error {
	if !c.enabled {
		return nil
	}
	if code == "" {
		return fmt.Errorf("code is required")
	}
	return c.ultraFast(ctx, phoneNumber, c.codeTemplateID, smsir.UltraFastParameter{Key: "code", Value: code})
}

// SendAppointmentStatus texts a client that their session changed state.
// The template takes "status" and "when".
func (c *Client) SendAppointmentStatus(ctx context.Context, phoneNumber, status, when string) error {
	if !c.enabled {
		return nil
	}
	if status == "" {
		return fmt.Errorf("status is required")
	}
	return c.ultraFast(ctx, phoneNumber, c.statusTemplateID,
		smsir.UltraFastParameter{Key: "status", Value: status},
		smsir.UltraFastParameter{Key: "when", Value: when},
	)
}

func (c *Client) ultraFast(ctx context.Context, phoneNumber, templateID string, params ...smsir.UltraFastParameter) error {
	if phoneNumber == "" {
		return fmt.Errorf("phone number is required")
	}
	if templateID == "" {
		return fmt.Errorf("template ID is required")
	}
	mobile, err := NormalizePhone(phoneNumber)
	if err != nil {
		return err
	}

	req := &smsir.UltraFastSendRequest{
		Mobile:     mobile,
		TemplateID: templateID,
		Parameters: params,
	}
	if err := c.send(ctx, req); err != nil {
		return fmt.Errorf("sms.ir send failed: %w", err)
	}
	return nil
}

// IsEnabled returns whether SMS sending is enabled.
func (c *Client) IsEnabled() bool {
	return c.enabled
}
