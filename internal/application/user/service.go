package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/go-registration-api/internal/application/field"
	"github.com/go-registration-api/internal/config"
	"github.com/go-registration-api/internal/domain"
	"github.com/go-registration-api/internal/pkg/id"
	"github.com/go-registration-api/internal/pkg/validate"
)

// Service handles registration, login, and profile updates. Registration
// validates submitted values against the field registry, so the set of
// accepted fields is data, not code.
type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	Get(ctx context.Context, actor domain.Actor, userID string) (*domain.User, error)
	Update(ctx context.Context, actor domain.Actor, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, actor domain.Actor, userID string) error
}

type userStore interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
}

type fieldRegistry interface {
	List(ctx context.Context) ([]domain.FieldDefinition, error)
}

// verificationStarter kicks off the email flow after registration.
type verificationStarter interface {
	Start(ctx context.Context, userID, channel string) error
}

type tokenSigner interface {
	Sign(userID, role string) (string, error)
}

// ServiceDeps carries the collaborators for NewService.
type ServiceDeps struct {
	Users        userStore
	Fields       fieldRegistry
	Verification verificationStarter
	Tokens       tokenSigner
	Config       *config.Config
}

type service struct {
	users             userStore
	fields            fieldRegistry
	verification      verificationStarter
	tokens            tokenSigner
	requireEmailVerif bool
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:             deps.Users,
		fields:            deps.Fields,
		verification:      deps.Verification,
		tokens:            deps.Tokens,
		requireEmailVerif: deps.Config.RequireEmailVerif,
	}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = field.Sanitize(req.Email, domain.FieldEmail)

	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("username already taken: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	attrs, err := s.applyRegistry(ctx, req.Fields, true)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var phone *string
	if req.Phone != nil && *req.Phone != "" {
		if err := field.Validate(*req.Phone, domain.FieldTel, nil); err != nil {
			return nil, err
		}
		p := field.Sanitize(*req.Phone, domain.FieldTel)
		phone = &p
	}

	now := time.Now().UTC()
	u := &domain.User{
		UserID:                    id.New(),
		Username:                  req.Username,
		Email:                     req.Email,
		Phone:                     phone,
		PasswordHash:              string(hash),
		Role:                      domain.RoleUser,
		FirstName:                 field.Sanitize(req.FirstName, domain.FieldText),
		LastName:                  field.Sanitize(req.LastName, domain.FieldText),
		EmailVerificationRequired: s.requireEmailVerif,
		Attributes:                attrs,
		Enable:                    1,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, fmt.Errorf("store user: %w", err)
	}

	slog.Info("user registered", "user_id", u.UserID, "username", u.Username)

	if s.requireEmailVerif {
		// Registration already succeeded; a failed first send just means the
		// user resends from the verification screen.
		if err := s.verification.Start(ctx, u.UserID, domain.ChannelEmail); err != nil {
			slog.Warn("initial verification send failed", "user_id", u.UserID, "err", err)
		}
	}
	return u, nil
}

func (s *service) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return "", nil, err
	}
	if u.Enable != 1 {
		return "", nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	token, err := s.tokens.Sign(u.UserID, u.Role)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, u, nil
}

func (s *service) Get(ctx context.Context, actor domain.Actor, userID string) (*domain.User, error) {
	if actor.UserID != userID && !actor.IsAdmin() {
		return nil, fmt.Errorf("cannot read another user: %w", domain.ErrForbidden)
	}
	return s.users.Get(ctx, userID)
}

func (s *service) Update(ctx context.Context, actor domain.Actor, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	if actor.UserID != userID && !actor.IsAdmin() {
		return nil, fmt.Errorf("cannot update another user: %w", domain.ErrForbidden)
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	current, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Username != nil && *req.Username != current.Username {
		name := strings.TrimSpace(*req.Username)
		if _, err := s.users.GetByUsername(ctx, name); err == nil {
			return nil, fmt.Errorf("username already taken: %w", domain.ErrConflict)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		updates["username"] = name
	}
	if req.Email != nil {
		email := field.Sanitize(*req.Email, domain.FieldEmail)
		if email != current.Email {
			if _, err := s.users.GetByEmail(ctx, email); err == nil {
				return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
			} else if !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			updates["email"] = email
			// A new address has to prove itself again.
			updates[domain.AttrEmailConfirmed] = false
		}
	}
	if req.Phone != nil {
		if *req.Phone == "" {
			updates[domain.AttrPhone] = ""
		} else {
			if err := field.Validate(*req.Phone, domain.FieldTel, nil); err != nil {
				return nil, err
			}
			p := field.Sanitize(*req.Phone, domain.FieldTel)
			if current.Phone == nil || p != *current.Phone {
				updates[domain.AttrPhone] = p
				updates[domain.AttrPhoneConfirmed] = false
				updates[domain.AttrPhoneSkipped] = false
			}
		}
	}
	if req.FirstName != nil {
		updates["first_name"] = field.Sanitize(*req.FirstName, domain.FieldText)
	}
	if req.LastName != nil {
		updates["last_name"] = field.Sanitize(*req.LastName, domain.FieldText)
	}

	if len(req.Fields) > 0 {
		attrs, err := s.applyRegistry(ctx, req.Fields, false)
		if err != nil {
			return nil, err
		}
		merged := current.Attributes
		if merged == nil {
			merged = map[string]string{}
		}
		for k, v := range attrs {
			merged[k] = v
		}
		updates["attributes"] = merged
	}

	if len(updates) > 0 {
		if err := s.users.Update(ctx, userID, updates); err != nil {
			return nil, err
		}
	}
	return s.users.Get(ctx, userID)
}

func (s *service) Delete(ctx context.Context, actor domain.Actor, userID string) error {
	if actor.UserID != userID && !actor.IsAdmin() {
		return fmt.Errorf("cannot delete another user: %w", domain.ErrForbidden)
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}
	slog.Info("user disabled", "user_id", userID, "actor_id", actor.UserID)
	return s.users.SoftDelete(ctx, userID)
}

// applyRegistry validates and sanitizes submitted custom-field values against
// the registry. Unknown field names are rejected. At registration, required
// registry fields must be present; on update only submitted values are checked.
func (s *service) applyRegistry(ctx context.Context, values map[string]string, registration bool) (map[string]string, error) {
	defs, err := s.fields.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load field registry: %w", err)
	}
	byName := make(map[string]*domain.FieldDefinition, len(defs))
	for i := range defs {
		byName[defs[i].Name] = &defs[i]
	}

	for name := range values {
		if domain.CoreField(name) {
			continue // core trio arrives through typed request fields
		}
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("unknown field %q: %w", name, domain.ErrBadRequest)
		}
	}

	attrs := map[string]string{}
	for i := range defs {
		def := &defs[i]
		if domain.CoreField(def.Name) {
			continue
		}
		value, submitted := values[def.Name]
		if !submitted {
			if registration && def.Required {
				return nil, fmt.Errorf("%s is required: %w", def.Label, domain.ErrBadRequest)
			}
			continue
		}
		if !registration && !def.Editable {
			return nil, fmt.Errorf("field %q is not editable: %w", def.Name, domain.ErrForbidden)
		}
		if err := field.Validate(value, def.Type, def); err != nil {
			return nil, err
		}
		attrs[def.Name] = field.Sanitize(value, def.Type)
	}
	return attrs, nil
}
