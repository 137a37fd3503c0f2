package sms

import (
	"context"
	"fmt"

	"github.com/go-registration-api/internal/config"
	"github.com/go-registration-api/internal/domain"
)

// Provider delivers one SMS message. Implementations are selected by
// configuration; adding a provider means adding a variant, not rewriting
// callers.
type Provider interface {
	Send(ctx context.Context, to, body string) error
	// Name identifies the provider in logs and the config test endpoint.
	Name() string
}

// NewProvider selects the configured SMS provider. Unknown values are a
// configuration error rather than a silent fallback.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.SMSProvider {
	case "twilio":
		return NewTwilio(cfg), nil
	case "sns":
		return NewSNS(cfg)
	case "mock":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown SMS provider %q: %w", cfg.SMSProvider, domain.ErrConfig)
	}
}
