package access

import (
	"context"
	"testing"

	"github.com/go-registration-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockStepper struct{ mock.Mock }

func (m *mockStepper) NextStep(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func TestCheck_UnverifiedUserBlocked(t *testing.T) {
	us, st := &mockUserStore{}, &mockStepper{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{
		UserID: "u1", Role: domain.RoleUser, EmailVerificationRequired: true,
	}, nil)
	st.On("NextStep", mock.Anything, "u1").Return(domain.StepEmailVerification, nil)

	gate := NewGate(us, st, true)
	d, err := gate.Check(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, d.CanAccess)
	assert.Equal(t, domain.StepEmailVerification, d.NextStep)
}

func TestCheck_VerifiedUserAllowed(t *testing.T) {
	us, st := &mockUserStore{}, &mockStepper{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{
		UserID: "u1", Role: domain.RoleUser,
		EmailVerificationRequired: true, EmailConfirmed: true,
	}, nil)

	gate := NewGate(us, st, true)
	d, err := gate.Check(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, d.CanAccess)
	assert.Empty(t, d.NextStep)
	st.AssertNotCalled(t, "NextStep", mock.Anything, mock.Anything)
}

func TestCheck_AdminNeverGated(t *testing.T) {
	us, st := &mockUserStore{}, &mockStepper{}
	us.On("Get", mock.Anything, "a1").Return(&domain.User{
		UserID: "a1", Role: domain.RoleAdmin, EmailVerificationRequired: true,
	}, nil)

	gate := NewGate(us, st, true)
	d, err := gate.Check(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, d.CanAccess)
}

func TestCheck_RequirementDisabledGlobally(t *testing.T) {
	us, st := &mockUserStore{}, &mockStepper{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{
		UserID: "u1", Role: domain.RoleUser, EmailVerificationRequired: true,
	}, nil)

	gate := NewGate(us, st, false)
	d, err := gate.Check(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, d.CanAccess)
}

func TestCheck_RequirementWaivedPerUser(t *testing.T) {
	// Users created before the requirement was turned on are not gated.
	us, st := &mockUserStore{}, &mockStepper{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{
		UserID: "u1", Role: domain.RoleUser, EmailVerificationRequired: false,
	}, nil)

	gate := NewGate(us, st, true)
	d, err := gate.Check(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, d.CanAccess)
}

func TestCheck_UnknownUser(t *testing.T) {
	us, st := &mockUserStore{}, &mockStepper{}
	us.On("Get", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	gate := NewGate(us, st, true)
	_, err := gate.Check(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
