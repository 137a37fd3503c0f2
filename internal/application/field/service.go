package field

import (
	"context"
	"fmt"
	"time"

	"github.com/go-registration-api/internal/domain"
)

// Service is the field registry: the set of signup/profile attributes, their
// types and validation rules. Admin mutations require an Actor with the admin
// role; reads are open.
type Service interface {
	List(ctx context.Context) ([]domain.FieldDefinition, error)
	Get(ctx context.Context, name string) (*domain.FieldDefinition, error)
	Create(ctx context.Context, actor domain.Actor, req domain.CreateFieldRequest) (*domain.FieldDefinition, error)
	Update(ctx context.Context, actor domain.Actor, name string, req domain.UpdateFieldRequest) (*domain.FieldDefinition, error)
	Delete(ctx context.Context, actor domain.Actor, name string) error
	Reorder(ctx context.Context, actor domain.Actor, names []string) error
	Seed(ctx context.Context) error
}

type fieldStore interface {
	Put(ctx context.Context, f *domain.FieldDefinition) error
	PutIfAbsent(ctx context.Context, f *domain.FieldDefinition) error
	Get(ctx context.Context, name string) (*domain.FieldDefinition, error)
	List(ctx context.Context) ([]domain.FieldDefinition, error)
	Update(ctx context.Context, name string, updates map[string]interface{}) error
	Delete(ctx context.Context, name string) error
	Count(ctx context.Context) (int, error)
}

type service struct {
	repo fieldStore
}

func NewService(repo fieldStore) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context) ([]domain.FieldDefinition, error) {
	return s.repo.List(ctx)
}

func (s *service) Get(ctx context.Context, name string) (*domain.FieldDefinition, error) {
	return s.repo.Get(ctx, name)
}

func (s *service) Create(ctx context.Context, actor domain.Actor, req domain.CreateFieldRequest) (*domain.FieldDefinition, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("field create requires admin: %w", domain.ErrForbidden)
	}
	if !domain.ValidFieldType(req.Type) {
		return nil, fmt.Errorf("unknown field type %q: %w", req.Type, domain.ErrBadRequest)
	}
	if domain.CoreField(req.Name) {
		return nil, fmt.Errorf("%q is a core field: %w", req.Name, domain.ErrConflict)
	}

	editable := true
	if req.Editable != nil {
		editable = *req.Editable
	}
	order := 999
	if req.Order != nil {
		order = *req.Order
	}
	now := time.Now().UTC()
	f := &domain.FieldDefinition{
		Name:      req.Name,
		Label:     req.Label,
		Type:      req.Type,
		Options:   ParseOptions(req.RawOptions),
		Required:  req.Required,
		Editable:  editable,
		Order:     order,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.PutIfAbsent(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *service) Update(ctx context.Context, actor domain.Actor, name string, req domain.UpdateFieldRequest) (*domain.FieldDefinition, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("field update requires admin: %w", domain.ErrForbidden)
	}
	if domain.CoreField(name) {
		// Core trio can be relabeled and reordered, nothing else.
		if req.Type != nil || req.Required != nil || req.Editable != nil || req.RawOptions != nil {
			return nil, fmt.Errorf("core field %q cannot be redefined: %w", name, domain.ErrForbidden)
		}
	}
	if _, err := s.repo.Get(ctx, name); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": time.Now().UTC().Format(time.RFC3339)}
	if req.Label != nil {
		updates["field_label"] = *req.Label
	}
	if req.Type != nil {
		if !domain.ValidFieldType(*req.Type) {
			return nil, fmt.Errorf("unknown field type %q: %w", *req.Type, domain.ErrBadRequest)
		}
		updates["field_type"] = *req.Type
	}
	if req.RawOptions != nil {
		updates["field_options"] = ParseOptions(*req.RawOptions)
	}
	if req.Required != nil {
		updates["is_required"] = *req.Required
	}
	if req.Editable != nil {
		updates["is_editable"] = *req.Editable
	}
	if req.Order != nil {
		updates["field_order"] = *req.Order
	}
	if err := s.repo.Update(ctx, name, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, name)
}

func (s *service) Delete(ctx context.Context, actor domain.Actor, name string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("field delete requires admin: %w", domain.ErrForbidden)
	}
	if domain.CoreField(name) {
		return fmt.Errorf("core field %q cannot be deleted: %w", name, domain.ErrForbidden)
	}
	if _, err := s.repo.Get(ctx, name); err != nil {
		return err
	}
	return s.repo.Delete(ctx, name)
}

func (s *service) Reorder(ctx context.Context, actor domain.Actor, names []string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("field reorder requires admin: %w", domain.ErrForbidden)
	}
	for i, name := range names {
		if err := s.repo.Update(ctx, name, map[string]interface{}{
			"field_order": i + 1,
			"updated_at":  time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	return nil
}

// Seed inserts the default field set once. The first three are the immutable
// core fields; the rest are regular defaults the admin may change.
func (s *service) Seed(ctx context.Context) error {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	now := time.Now().UTC()
	defaults := []domain.FieldDefinition{
		{Name: domain.FieldNameLogin, Label: "Username", Type: domain.FieldText, Required: true, Editable: false, Order: 1},
		{Name: domain.FieldNameEmail, Label: "Email Address", Type: domain.FieldEmail, Required: true, Editable: true, Order: 2},
		{Name: domain.FieldNamePassword, Label: "Password", Type: domain.FieldPassword, Required: true, Editable: true, Order: 3},
		{Name: "first_name", Label: "First Name", Type: domain.FieldText, Editable: true, Order: 4},
		{Name: "last_name", Label: "Last Name", Type: domain.FieldText, Editable: true, Order: 5},
		{Name: "phone_number", Label: "Phone Number", Type: domain.FieldTel, Editable: true, Order: 6},
	}
	for i := range defaults {
		defaults[i].CreatedAt = now
		defaults[i].UpdatedAt = now
		if err := s.repo.PutIfAbsent(ctx, &defaults[i]); err != nil {
			return err
		}
	}
	return nil
}
