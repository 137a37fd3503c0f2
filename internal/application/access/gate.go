package access

import (
	"context"

	"github.com/go-registration-api/internal/domain"
)

// Decision is the gate's answer for one user: whether protected features are
// reachable and, when they are not, which verification step unblocks them.
type Decision struct {
	CanAccess bool   `json:"can_access"`
	NextStep  string `json:"next_step,omitempty"`
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type stepper interface {
	NextStep(ctx context.Context, userID string) (string, error)
}

// Gate answers the single question the host asks before serving protected
// content: may this user in? Only email verification blocks access; phone is
// advisory and never gates.
type Gate struct {
	users        userStore
	verification stepper
	required     bool
}

func NewGate(users userStore, verification stepper, requireEmailVerif bool) *Gate {
	return &Gate{users: users, verification: verification, required: requireEmailVerif}
}

// Check evaluates access for userID. Admins are never gated.
func (g *Gate) Check(ctx context.Context, userID string) (*Decision, error) {
	user, err := g.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleAdmin {
		return &Decision{CanAccess: true}, nil
	}

	blocked := g.required && user.EmailVerificationRequired && !user.EmailConfirmed
	if !blocked {
		return &Decision{CanAccess: true}, nil
	}

	step, err := g.verification.NextStep(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Decision{CanAccess: false, NextStep: step}, nil
}
