package verification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-registration-api/internal/application/dispatch"
	"github.com/go-registration-api/internal/config"
	"github.com/go-registration-api/internal/domain"
)

// Service is the verification engine. It owns the lifecycle of one-time codes
// and the verification flags on the user record. All caller identity arrives
// as explicit parameters; nothing here reads session state.
type Service interface {
	// Start issues a code for the channel and dispatches it. The first send
	// for a flow is never throttled; see Resend.
	Start(ctx context.Context, userID, channel string) error
	// Resend re-issues a code, subject to the per-(user,channel) cooldown.
	Resend(ctx context.Context, userID, channel string) error
	// Submit consumes a code. A wrong, expired, or already-used code all
	// surface as domain.ErrCodeInvalid with no further detail.
	Submit(ctx context.Context, userID, channel, code string) error
	// Skip marks phone verification as declined for the user.
	Skip(ctx context.Context, userID string) error

	Status(ctx context.Context, userID string) (*domain.VerificationState, error)
	NextStep(ctx context.Context, userID string) (string, error)
	HasPending(ctx context.Context, userID string) (bool, error)

	// Admin operations.
	ForceVerify(ctx context.Context, actor domain.Actor, userID, channel string) error
	ResetVerification(ctx context.Context, actor domain.Actor, userID, channel string) error
	Stats(ctx context.Context, actor domain.Actor) (*domain.VerificationStats, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	Count(ctx context.Context) (int, error)
	CountWhere(ctx context.Context, attr string, val bool) (int, error)
	CountWithPhone(ctx context.Context) (int, error)
}

type codeStore interface {
	Issue(ctx context.Context, userID, channel, code string, ttl time.Duration) error
	Consume(ctx context.Context, userID, code, channel string) (bool, error)
	HasPending(ctx context.Context, userID string) (bool, error)
	CountPending(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context, userID, channel string) error
}

type cooldownStore interface {
	Acquire(ctx context.Context, userID, channel string, ttl time.Duration) (bool, error)
	Clear(ctx context.Context, userID, channel string) error
}

// ServiceDeps carries the collaborators for NewService.
type ServiceDeps struct {
	Users     userStore
	Codes     codeStore
	Cooldowns cooldownStore
	Gateway   dispatch.Gateway
	Config    *config.Config
}

type service struct {
	users     userStore
	codes     codeStore
	cooldowns cooldownStore
	gateway   dispatch.Gateway

	codeLength        int
	codeExpiry        time.Duration
	resendCooldown    time.Duration
	requireEmailVerif bool
	phoneVerifEnabled bool
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:             deps.Users,
		codes:             deps.Codes,
		cooldowns:         deps.Cooldowns,
		gateway:           deps.Gateway,
		codeLength:        deps.Config.CodeLength,
		codeExpiry:        deps.Config.CodeExpiry,
		resendCooldown:    deps.Config.ResendCooldown,
		requireEmailVerif: deps.Config.RequireEmailVerif,
		phoneVerifEnabled: deps.Config.PhoneVerifEnabled,
	}
}

func (s *service) Start(ctx context.Context, userID, channel string) error {
	return s.issue(ctx, userID, channel)
}

func (s *service) Resend(ctx context.Context, userID, channel string) error {
	if !domain.ValidChannel(channel) {
		return fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}
	// The marker is set before the send so a failed delivery still counts
	// against the window; the user waits out the cooldown either way.
	ok, err := s.cooldowns.Acquire(ctx, userID, channel, s.resendCooldown)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("resend cooldown active: %w", domain.ErrRateLimited)
	}
	return s.issue(ctx, userID, channel)
}

// issue generates, stores, and dispatches a code. Storing replaces any prior
// code for the pair, so at most one code is ever valid per (user, channel).
func (s *service) issue(ctx context.Context, userID, channel string) error {
	if !domain.ValidChannel(channel) {
		return fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}

	var destination string
	switch channel {
	case domain.ChannelEmail:
		if user.EmailConfirmed {
			return fmt.Errorf("email already verified: %w", domain.ErrConflict)
		}
		destination = user.Email
	case domain.ChannelPhone:
		if !s.phoneVerifEnabled {
			return fmt.Errorf("phone verification is disabled: %w", domain.ErrForbidden)
		}
		if user.PhoneConfirmed {
			return fmt.Errorf("phone already verified: %w", domain.ErrConflict)
		}
		if user.Phone == nil || *user.Phone == "" {
			return fmt.Errorf("no phone number on record: %w", domain.ErrBadRequest)
		}
		destination = *user.Phone
	}

	code, err := generateCode(s.codeLength)
	if err != nil {
		return err
	}
	if err := s.codes.Issue(ctx, userID, channel, code, s.codeExpiry); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}

	slog.Info("verification code issued", "user_id", userID, "channel", channel)

	if channel == domain.ChannelEmail {
		return s.gateway.SendEmailCode(ctx, user, destination, code)
	}
	return s.gateway.SendSMSCode(ctx, user, destination, code)
}

func (s *service) Submit(ctx context.Context, userID, channel, code string) error {
	if !domain.ValidChannel(channel) {
		return fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.codes.Consume(ctx, userID, code, channel)
	if err != nil {
		return fmt.Errorf("consume verification code: %w", err)
	}
	if !ok {
		return domain.ErrCodeInvalid
	}

	// Verifying the email also lifts the requirement flag, so the gate and
	// the status view agree the user is done with that axis.
	updates := map[string]interface{}{
		domain.AttrEmailConfirmed:            true,
		domain.AttrEmailVerificationRequired: false,
	}
	if channel == domain.ChannelPhone {
		updates = map[string]interface{}{domain.AttrPhoneConfirmed: true}
	}
	if err := s.users.Update(ctx, userID, updates); err != nil {
		return fmt.Errorf("mark %s verified: %w", channel, err)
	}
	if err := s.cooldowns.Clear(ctx, userID, channel); err != nil {
		slog.Warn("clear cooldown marker failed", "user_id", userID, "channel", channel, "err", err)
	}

	slog.Info("channel verified", "user_id", userID, "channel", channel)

	// The welcome email is a courtesy; its failure never rolls back the
	// verification itself.
	if channel == domain.ChannelEmail && !user.EmailConfirmed {
		if err := s.gateway.SendWelcome(ctx, user); err != nil {
			slog.Warn("welcome email failed", "user_id", userID, "err", err)
		}
	}
	return nil
}

func (s *service) Skip(ctx context.Context, userID string) error {
	if !s.phoneVerifEnabled {
		return fmt.Errorf("phone verification is disabled: %w", domain.ErrForbidden)
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user.PhoneConfirmed {
		return fmt.Errorf("phone already verified: %w", domain.ErrConflict)
	}
	if err := s.users.Update(ctx, userID, map[string]interface{}{domain.AttrPhoneSkipped: true}); err != nil {
		return err
	}
	if err := s.codes.DeleteAll(ctx, userID, domain.ChannelPhone); err != nil {
		slog.Warn("purge phone codes on skip failed", "user_id", userID, "err", err)
	}
	slog.Info("phone verification skipped", "user_id", userID)
	return nil
}

func (s *service) Status(ctx context.Context, userID string) (*domain.VerificationState, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return stateOf(user), nil
}

// NextStep decides what the frontend should show next: email first, then
// phone (if enabled, on record, and not skipped), then the profile.
func (s *service) NextStep(ctx context.Context, userID string) (string, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if s.requireEmailVerif && user.EmailVerificationRequired && !user.EmailConfirmed {
		return domain.StepEmailVerification, nil
	}
	if s.phoneVerifEnabled && user.Phone != nil && *user.Phone != "" &&
		!user.PhoneConfirmed && !user.PhoneSkipped {
		return domain.StepPhoneVerification, nil
	}
	return domain.StepProfileEdit, nil
}

func (s *service) HasPending(ctx context.Context, userID string) (bool, error) {
	return s.codes.HasPending(ctx, userID)
}

func (s *service) ForceVerify(ctx context.Context, actor domain.Actor, userID, channel string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("force verify requires admin: %w", domain.ErrForbidden)
	}
	if !domain.ValidChannel(channel) {
		return fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}

	updates := map[string]interface{}{
		domain.AttrEmailConfirmed:            true,
		domain.AttrEmailVerificationRequired: false,
	}
	if channel == domain.ChannelPhone {
		updates = map[string]interface{}{domain.AttrPhoneConfirmed: true}
	}
	if err := s.users.Update(ctx, userID, updates); err != nil {
		return err
	}
	if err := s.codes.DeleteAll(ctx, userID, channel); err != nil {
		return err
	}
	if err := s.cooldowns.Clear(ctx, userID, channel); err != nil {
		slog.Warn("clear cooldown marker failed", "user_id", userID, "channel", channel, "err", err)
	}
	slog.Info("verification forced", "admin_id", actor.UserID, "user_id", userID, "channel", channel)
	return nil
}

func (s *service) ResetVerification(ctx context.Context, actor domain.Actor, userID, channel string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("reset verification requires admin: %w", domain.ErrForbidden)
	}
	if !domain.ValidChannel(channel) {
		return fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}

	// Resetting email puts the user back behind the gate until they verify
	// again.
	updates := map[string]interface{}{
		domain.AttrEmailConfirmed:            false,
		domain.AttrEmailVerificationRequired: true,
	}
	if channel == domain.ChannelPhone {
		// A reset also clears the skip so the flow re-engages.
		updates = map[string]interface{}{
			domain.AttrPhoneConfirmed: false,
			domain.AttrPhoneSkipped:   false,
		}
	}
	if err := s.users.Update(ctx, userID, updates); err != nil {
		return err
	}
	if err := s.codes.DeleteAll(ctx, userID, channel); err != nil {
		return err
	}
	if err := s.cooldowns.Clear(ctx, userID, channel); err != nil {
		slog.Warn("clear cooldown marker failed", "user_id", userID, "channel", channel, "err", err)
	}
	slog.Info("verification reset", "admin_id", actor.UserID, "user_id", userID, "channel", channel)
	return nil
}

func (s *service) Stats(ctx context.Context, actor domain.Actor) (*domain.VerificationStats, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("verification stats require admin: %w", domain.ErrForbidden)
	}

	stats := &domain.VerificationStats{}
	var err error
	if stats.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if stats.EmailVerified, err = s.users.CountWhere(ctx, domain.AttrEmailConfirmed, true); err != nil {
		return nil, err
	}
	stats.EmailPending = stats.TotalUsers - stats.EmailVerified
	if stats.PhoneVerified, err = s.users.CountWhere(ctx, domain.AttrPhoneConfirmed, true); err != nil {
		return nil, err
	}
	if stats.PhoneAdded, err = s.users.CountWithPhone(ctx); err != nil {
		return nil, err
	}
	if stats.PendingCodes, err = s.codes.CountPending(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}

func stateOf(u *domain.User) *domain.VerificationState {
	return &domain.VerificationState{
		EmailConfirmed:            u.EmailConfirmed,
		PhoneConfirmed:            u.PhoneConfirmed,
		EmailVerificationRequired: u.EmailVerificationRequired,
		PhoneSkipped:              u.PhoneSkipped,
		PhoneNumber:               u.Phone,
	}
}
