package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/go-registration-api/internal/application/field"
	"github.com/go-registration-api/internal/config"
	"github.com/go-registration-api/internal/domain"
	"github.com/go-registration-api/internal/infrastructure/sms"
	"github.com/go-registration-api/internal/infrastructure/smtp"
)

// Gateway renders and delivers outbound verification messages. It has no
// retry logic; a delivery failure is surfaced to the caller, who may resend.
type Gateway interface {
	SendEmailCode(ctx context.Context, user *domain.User, address, code string) error
	SendWelcome(ctx context.Context, user *domain.User) error
	SendSMSCode(ctx context.Context, user *domain.User, phone, code string) error
	// TestSMSConfig dry-runs the configured provider with a fixed message.
	// Missing credentials surface as domain.ErrConfig, distinct from a
	// delivery failure.
	TestSMSConfig(ctx context.Context, phone string) error
}

type gateway struct {
	mailer        smtp.Mailer
	provider      sms.Provider
	siteName      string
	siteURL       string
	expiryMinutes int
	devMode       bool
}

func NewGateway(mailer smtp.Mailer, provider sms.Provider, cfg *config.Config) Gateway {
	return &gateway{
		mailer:        mailer,
		provider:      provider,
		siteName:      cfg.SiteName,
		siteURL:       cfg.SiteURL,
		expiryMinutes: int(cfg.CodeExpiry.Minutes()),
		devMode:       cfg.AppEnv == "development",
	}
}

func (g *gateway) SendEmailCode(ctx context.Context, user *domain.User, address, code string) error {
	body, err := render(verificationTmpl, emailVars{
		UserName:        user.DisplayName(),
		SiteName:        g.siteName,
		SiteURL:         g.siteURL,
		Code:            code,
		VerificationURL: g.verificationURL(user.UserID, code),
		EmailAddress:    address,
		ExpiryMinutes:   g.expiryMinutes,
	})
	if err != nil {
		return err
	}

	g.devLog("email", address, code)

	subject := fmt.Sprintf("Email Verification for %s", g.siteName)
	if err := g.mailer.SendEmail(address, subject, body); err != nil {
		slog.Error("verification email delivery failed", "user_id", user.UserID, "err", err)
		return fmt.Errorf("verification email: %w", domain.ErrDelivery)
	}
	return nil
}

func (g *gateway) SendWelcome(ctx context.Context, user *domain.User) error {
	body, err := render(welcomeTmpl, emailVars{
		UserName: user.DisplayName(),
		SiteName: g.siteName,
		SiteURL:  g.siteURL,
		LoginURL: g.siteURL + "/login",
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Welcome to %s", g.siteName)
	if err := g.mailer.SendEmail(user.Email, subject, body); err != nil {
		slog.Error("welcome email delivery failed", "user_id", user.UserID, "err", err)
		return fmt.Errorf("welcome email: %w", domain.ErrDelivery)
	}
	return nil
}

func (g *gateway) SendSMSCode(ctx context.Context, user *domain.User, phone, code string) error {
	g.devLog("sms", phone, code)

	to := field.FormatPhone(phone)
	body := smsBody(g.siteName, code, g.expiryMinutes)
	if err := g.provider.Send(ctx, to, body); err != nil {
		if errors.Is(err, domain.ErrConfig) {
			return err
		}
		slog.Error("verification SMS delivery failed", "user_id", user.UserID, "provider", g.provider.Name(), "err", err)
		return fmt.Errorf("verification SMS: %w", domain.ErrDelivery)
	}
	return nil
}

func (g *gateway) TestSMSConfig(ctx context.Context, phone string) error {
	msg := fmt.Sprintf("Test message from %s SMS configuration.", g.siteName)
	err := g.provider.Send(ctx, field.FormatPhone(phone), msg)
	if err != nil && !errors.Is(err, domain.ErrConfig) {
		return fmt.Errorf("test SMS: %w", domain.ErrDelivery)
	}
	return err
}

func (g *gateway) verificationURL(userID, code string) string {
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("code", code)
	q.Set("channel", domain.ChannelEmail)
	return g.siteURL + "/v1/verify?" + q.Encode()
}

// devLog records the code locally in development so engineers can complete
// flows without real transports. Codes are never forwarded anywhere else.
func (g *gateway) devLog(channel, destination, code string) {
	if g.devMode {
		slog.Debug("verification code issued", "channel", channel, "to", destination, "code", code)
	}
}
