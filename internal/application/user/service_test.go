package user

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/go-registration-api/internal/config"
	"github.com/go-registration-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockUserStore) SoftDelete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockRegistry struct{ mock.Mock }

func (m *mockRegistry) List(ctx context.Context) ([]domain.FieldDefinition, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.FieldDefinition), args.Error(1)
}

type mockStarter struct{ mock.Mock }

func (m *mockStarter) Start(ctx context.Context, userID, channel string) error {
	return m.Called(ctx, userID, channel).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(userID, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func newService(us *mockUserStore, fr *mockRegistry, vs *mockStarter, ts *mockSigner) Service {
	return NewService(ServiceDeps{
		Users:        us,
		Fields:       fr,
		Verification: vs,
		Tokens:       ts,
		Config:       &config.Config{RequireEmailVerif: true},
	})
}

func emptyRegistry() *mockRegistry {
	fr := &mockRegistry{}
	fr.On("List", mock.Anything).Return([]domain.FieldDefinition{}, nil)
	return fr
}

func baseReq() domain.CreateUserRequest {
	return domain.CreateUserRequest{
		Username:  "alice",
		Password:  "password123",
		Email:     "Alice@Example.com",
		FirstName: "Alice",
		LastName:  "Smith",
	}
}

// --- Register ---

func TestRegister_UsernameConflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{}, nil)

	svc := newService(us, emptyRegistry(), &mockStarter{}, &mockSigner{})
	_, err := svc.Register(context.Background(), baseReq())
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegister_EmailConflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{}, nil)

	svc := newService(us, emptyRegistry(), &mockStarter{}, &mockSigner{})
	_, err := svc.Register(context.Background(), baseReq())
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegister_ValidationFailure(t *testing.T) {
	svc := newService(&mockUserStore{}, &mockRegistry{}, &mockStarter{}, &mockSigner{})
	_, err := svc.Register(context.Background(), domain.CreateUserRequest{Username: "alice"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRegister_HappyPath_HashesAndStartsVerification(t *testing.T) {
	us, vs := &mockUserStore{}, &mockStarter{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)

	var stored *domain.User
	us.On("Put", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		stored = u
		return true
	})).Return(nil)
	vs.On("Start", mock.Anything, mock.Anything, domain.ChannelEmail).Return(nil)

	svc := newService(us, emptyRegistry(), vs, &mockSigner{})
	u, err := svc.Register(context.Background(), baseReq())
	require.NoError(t, err)

	assert.NotEmpty(t, u.UserID)
	assert.Equal(t, "alice@example.com", u.Email) // lowercased
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.True(t, u.EmailVerificationRequired)
	assert.Equal(t, 1, u.Enable)
	assert.NotEqual(t, "password123", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")))
	vs.AssertExpectations(t)
}

func TestRegister_VerificationSendFailure_DoesNotFailRegistration(t *testing.T) {
	us, vs := &mockUserStore{}, &mockStarter{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.Anything).Return(nil)
	vs.On("Start", mock.Anything, mock.Anything, domain.ChannelEmail).Return(domain.ErrDelivery)

	svc := newService(us, emptyRegistry(), vs, &mockSigner{})
	_, err := svc.Register(context.Background(), baseReq())
	assert.NoError(t, err)
}

func TestRegister_RegistryRequiredFieldMissing(t *testing.T) {
	us, fr := &mockUserStore{}, &mockRegistry{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	fr.On("List", mock.Anything).Return([]domain.FieldDefinition{
		{Name: "company", Label: "Company", Type: domain.FieldText, Required: true},
	}, nil)

	svc := newService(us, fr, &mockStarter{}, &mockSigner{})
	_, err := svc.Register(context.Background(), baseReq())
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Contains(t, err.Error(), "Company")
}

func TestRegister_UnknownCustomField(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)

	req := baseReq()
	req.Fields = map[string]string{"shoe_size": "43"}

	svc := newService(us, emptyRegistry(), &mockStarter{}, &mockSigner{})
	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRegister_CustomFieldsValidatedAndSanitized(t *testing.T) {
	us, fr, vs := &mockUserStore{}, &mockRegistry{}, &mockStarter{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	fr.On("List", mock.Anything).Return([]domain.FieldDefinition{
		{Name: "company", Label: "Company", Type: domain.FieldText, Editable: true},
	}, nil)

	var stored *domain.User
	us.On("Put", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		stored = u
		return true
	})).Return(nil)
	vs.On("Start", mock.Anything, mock.Anything, domain.ChannelEmail).Return(nil)

	req := baseReq()
	req.Fields = map[string]string{"company": "  Acme\x00 Corp "}

	svc := newService(us, fr, vs, &mockSigner{})
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", stored.Attributes["company"])
}

func TestRegister_InvalidPhone(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)

	req := baseReq()
	bad := "12345"
	req.Phone = &bad

	svc := newService(us, emptyRegistry(), &mockStarter{}, &mockSigner{})
	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

// --- Login ---

func TestLogin_UnknownUser(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	svc := newService(us, &mockRegistry{}, &mockStarter{}, &mockSigner{})
	_, _, err := svc.Login(context.Background(), "ghost", "whatever")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.DefaultCost)
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{
		UserID: "u1", Username: "alice", PasswordHash: string(hash), Enable: 1,
	}, nil)

	svc := newService(us, &mockRegistry{}, &mockStarter{}, &mockSigner{})
	_, _, err := svc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_DisabledAccount(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.DefaultCost)
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{
		UserID: "u1", Username: "alice", PasswordHash: string(hash), Enable: 0,
	}, nil)

	svc := newService(us, &mockRegistry{}, &mockStarter{}, &mockSigner{})
	_, _, err := svc.Login(context.Background(), "alice", "correct")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_HappyPath(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.DefaultCost)
	us, ts := &mockUserStore{}, &mockSigner{}
	us.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{
		UserID: "u1", Username: "alice", Role: domain.RoleUser,
		PasswordHash: string(hash), Enable: 1,
	}, nil)
	ts.On("Sign", "u1", domain.RoleUser).Return("signed-token", nil)

	svc := newService(us, &mockRegistry{}, &mockStarter{}, ts)
	token, u, err := svc.Login(context.Background(), "alice", "correct")
	require.NoError(t, err)
	assert.Equal(t, "signed-token", token)
	assert.Equal(t, "u1", u.UserID)
}

// --- Get / Update / Delete authorization ---

func TestGet_OtherUserForbidden(t *testing.T) {
	svc := newService(&mockUserStore{}, &mockRegistry{}, &mockStarter{}, &mockSigner{})
	_, err := svc.Get(context.Background(), domain.Actor{UserID: "u2", Role: domain.RoleUser}, "u1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestGet_AdminSeesAnyUser(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	svc := newService(us, &mockRegistry{}, &mockStarter{}, &mockSigner{})
	u, err := svc.Get(context.Background(), domain.Actor{UserID: "a1", Role: domain.RoleAdmin}, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
}

func TestUpdate_EmailChange_ResetsConfirmation(t *testing.T) {
	us := &mockUserStore{}
	current := &domain.User{UserID: "u1", Username: "alice", Email: "old@example.com", EmailConfirmed: true}
	us.On("Get", mock.Anything, "u1").Return(current, nil)
	us.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, domain.ErrNotFound)
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(u map[string]interface{}) bool {
		return u["email"] == "new@example.com" && u[domain.AttrEmailConfirmed] == false
	})).Return(nil)

	svc := newService(us, &mockRegistry{}, &mockStarter{}, &mockSigner{})
	email := "New@Example.com"
	actor := domain.Actor{UserID: "u1", Role: domain.RoleUser}
	_, err := svc.Update(context.Background(), actor, "u1", domain.UpdateUserRequest{Email: &email})
	require.NoError(t, err)
	us.AssertExpectations(t)
}

func TestUpdate_PhoneChange_ResetsPhoneState(t *testing.T) {
	us := &mockUserStore{}
	old := "+15550000000"
	current := &domain.User{UserID: "u1", Phone: &old, PhoneConfirmed: true, PhoneSkipped: true}
	us.On("Get", mock.Anything, "u1").Return(current, nil)
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(u map[string]interface{}) bool {
		return u[domain.AttrPhoneConfirmed] == false && u[domain.AttrPhoneSkipped] == false
	})).Return(nil)

	svc := newService(us, &mockRegistry{}, &mockStarter{}, &mockSigner{})
	phone := "+15551234567"
	actor := domain.Actor{UserID: "u1", Role: domain.RoleUser}
	_, err := svc.Update(context.Background(), actor, "u1", domain.UpdateUserRequest{Phone: &phone})
	require.NoError(t, err)
	us.AssertExpectations(t)
}

func TestUpdate_NonEditableFieldRejected(t *testing.T) {
	us, fr := &mockUserStore{}, &mockRegistry{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)
	fr.On("List", mock.Anything).Return([]domain.FieldDefinition{
		{Name: "badge_id", Label: "Badge", Type: domain.FieldText, Editable: false},
	}, nil)

	svc := newService(us, fr, &mockStarter{}, &mockSigner{})
	actor := domain.Actor{UserID: "u1", Role: domain.RoleUser}
	_, err := svc.Update(context.Background(), actor, "u1", domain.UpdateUserRequest{
		Fields: map[string]string{"badge_id": "X-1"},
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDelete_SelfSoftDeletes(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)
	us.On("SoftDelete", mock.Anything, "u1").Return(nil)

	svc := newService(us, &mockRegistry{}, &mockStarter{}, &mockSigner{})
	actor := domain.Actor{UserID: "u1", Role: domain.RoleUser}
	require.NoError(t, svc.Delete(context.Background(), actor, "u1"))
	us.AssertExpectations(t)
}
