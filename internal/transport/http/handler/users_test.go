package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-registration-api/internal/application/access"
	"github.com/go-registration-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockUserSvc struct{ mock.Mock }

func (m *mockUserSvc) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserSvc) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	args := m.Called(ctx, username, password)
	if u, _ := args.Get(1).(*domain.User); u != nil {
		return args.String(0), u, args.Error(2)
	}
	return "", nil, args.Error(2)
}
func (m *mockUserSvc) Get(ctx context.Context, actor domain.Actor, userID string) (*domain.User, error) {
	args := m.Called(ctx, actor, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserSvc) Update(ctx context.Context, actor domain.Actor, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, actor, userID, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserSvc) Delete(ctx context.Context, actor domain.Actor, userID string) error {
	return m.Called(ctx, actor, userID).Error(0)
}

type mockGate struct{ mock.Mock }

func (m *mockGate) Check(ctx context.Context, userID string) (*access.Decision, error) {
	args := m.Called(ctx, userID)
	if d, _ := args.Get(0).(*access.Decision); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

// withChiID injects a chi URL param "id" into the request context.
func withChiID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// --- Register ---

func TestRegister_InvalidBody(t *testing.T) {
	h := NewUserHandler(&mockUserSvc{})
	r := httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewBufferString("not-json"))
	rr := httptest.NewRecorder()
	h.Register(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegister_Conflict(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Register", mock.Anything, mock.Anything).Return(nil, domain.ErrConflict)
	h := NewUserHandler(svc)

	body, _ := json.Marshal(domain.CreateUserRequest{
		Username: "alice", Password: "secret123", Email: "alice@example.com",
	})
	r := httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Register(rr, r)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRegister_HappyPath_PointsAtEmailVerification(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Register", mock.Anything, mock.Anything).Return(&domain.User{
		UserID: "u1", Username: "alice", EmailVerificationRequired: true,
	}, nil)
	h := NewUserHandler(svc)

	body, _ := json.Marshal(domain.CreateUserRequest{
		Username: "alice", Password: "secret123", Email: "alice@example.com",
	})
	r := httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Register(rr, r)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp RegisterEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, domain.StepEmailVerification, resp.NextStep)
}

// --- Get ---

func TestGet_MissingClaims(t *testing.T) {
	h := NewUserHandler(&mockUserSvc{})
	r := withChiID(httptest.NewRequest(http.MethodGet, "/v1/users/u1", nil), "u1")
	rr := httptest.NewRecorder()
	h.Get(rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGet_ForwardsActor(t *testing.T) {
	svc := &mockUserSvc{}
	actor := domain.Actor{UserID: "u1", Role: domain.RoleUser}
	svc.On("Get", mock.Anything, actor, "u1").Return(&domain.User{UserID: "u1", Username: "alice"}, nil)
	h := NewUserHandler(svc)

	r := withChiID(httptest.NewRequest(http.MethodGet, "/v1/users/u1", nil), "u1")
	r = withClaims(r, "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.Get(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "password_hash")
	svc.AssertExpectations(t)
}

func TestGet_OtherUserForbidden(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Get", mock.Anything, mock.Anything, "u1").Return(nil, domain.ErrForbidden)
	h := NewUserHandler(svc)

	r := withChiID(httptest.NewRequest(http.MethodGet, "/v1/users/u1", nil), "u1")
	r = withClaims(r, "u2", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.Get(rr, r)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

// --- Login ---

func TestLogin_BadCredentials(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Login", mock.Anything, "alice", "wrong").Return("", nil, domain.ErrUnauthorized)
	h := NewSessionHandler(svc, &mockGate{}, &mockVerificationSvc{})

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "wrong"})
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Login(rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogin_HappyPath(t *testing.T) {
	svc, gate, verif := &mockUserSvc{}, &mockGate{}, &mockVerificationSvc{}
	svc.On("Login", mock.Anything, "alice", "secret123").Return("tok", &domain.User{UserID: "u1"}, nil)
	gate.On("Check", mock.Anything, "u1").Return(&access.Decision{CanAccess: true}, nil)
	verif.On("Status", mock.Anything, "u1").Return(&domain.VerificationState{EmailConfirmed: true}, nil)
	h := NewSessionHandler(svc, gate, verif)

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "secret123"})
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Login(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp AuthEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "tok", resp.Bearer)
	assert.Equal(t, "u1", resp.User.UserID)
	assert.True(t, resp.CanAccess)
}

func TestLogin_GateBlocksUnverifiedUser(t *testing.T) {
	svc, gate, verif := &mockUserSvc{}, &mockGate{}, &mockVerificationSvc{}
	svc.On("Login", mock.Anything, "alice", "secret123").Return("tok", &domain.User{UserID: "u1"}, nil)
	gate.On("Check", mock.Anything, "u1").Return(&access.Decision{
		CanAccess: false, NextStep: domain.StepEmailVerification,
	}, nil)
	verif.On("Status", mock.Anything, "u1").Return(&domain.VerificationState{
		EmailVerificationRequired: true,
	}, nil)
	h := NewSessionHandler(svc, gate, verif)

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "secret123"})
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Login(rr, r)

	// Credentials are good, so the token is issued, but the gate verdict
	// rides along so the client routes to the verification screen.
	assert.Equal(t, http.StatusOK, rr.Code)
	var resp AuthEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "tok", resp.Bearer)
	assert.False(t, resp.CanAccess)
	assert.Equal(t, domain.StepEmailVerification, resp.NextStep)
	assert.True(t, resp.Verification.EmailVerificationRequired)
	gate.AssertExpectations(t)
}
