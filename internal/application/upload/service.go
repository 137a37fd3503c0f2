package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-registration-api/internal/domain"
	"github.com/go-registration-api/internal/pkg/id"
)

// Service stores file-type field values: bytes in S3, metadata in DynamoDB,
// and the upload id in the user's attribute for the field.
type Service interface {
	Store(ctx context.Context, actor domain.Actor, fieldName, fileName, contentType string, size int64, r io.Reader) (*domain.Upload, error)
	Open(ctx context.Context, actor domain.Actor, uploadID string) (*domain.Upload, io.ReadCloser, error)
	Delete(ctx context.Context, actor domain.Actor, uploadID string) error
}

type blobStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type uploadStore interface {
	Put(ctx context.Context, u *domain.Upload) error
	Get(ctx context.Context, uploadID string) (*domain.Upload, error)
	SoftDelete(ctx context.Context, uploadID string) error
}

type fieldRegistry interface {
	Get(ctx context.Context, name string) (*domain.FieldDefinition, error)
}

type attributeWriter interface {
	SetAttribute(ctx context.Context, userID, key, value string) error
}

// 10 MB, matching the upstream upload cap.
const maxUploadSize = 10 << 20

type service struct {
	blobs  blobStore
	metas  uploadStore
	fields fieldRegistry
	users  attributeWriter
}

func NewService(blobs blobStore, metas uploadStore, fields fieldRegistry, users attributeWriter) Service {
	return &service{blobs: blobs, metas: metas, fields: fields, users: users}
}

func (s *service) Store(ctx context.Context, actor domain.Actor, fieldName, fileName, contentType string, size int64, r io.Reader) (*domain.Upload, error) {
	if size > maxUploadSize {
		return nil, fmt.Errorf("file exceeds %d bytes: %w", maxUploadSize, domain.ErrBadRequest)
	}
	def, err := s.fields.Get(ctx, fieldName)
	if err != nil {
		return nil, err
	}
	if def.Type != domain.FieldFile {
		return nil, fmt.Errorf("field %q does not accept files: %w", fieldName, domain.ErrBadRequest)
	}

	uploadID := id.New()
	key := fmt.Sprintf("uploads/%s/%s/%s", actor.UserID, fieldName, uploadID)
	if _, err := s.blobs.Upload(ctx, key, io.LimitReader(r, maxUploadSize), contentType); err != nil {
		return nil, err
	}

	u := &domain.Upload{
		UploadID:    uploadID,
		UserID:      actor.UserID,
		FieldName:   fieldName,
		FileName:    fileName,
		ContentType: contentType,
		S3Key:       key,
		Size:        size,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.metas.Put(ctx, u); err != nil {
		return nil, fmt.Errorf("store upload metadata: %w", err)
	}
	if err := s.users.SetAttribute(ctx, actor.UserID, fieldName, uploadID); err != nil {
		return nil, fmt.Errorf("attach upload to user: %w", err)
	}

	slog.Info("file uploaded", "user_id", actor.UserID, "field", fieldName, "upload_id", uploadID, "size", size)
	return u, nil
}

func (s *service) Open(ctx context.Context, actor domain.Actor, uploadID string) (*domain.Upload, io.ReadCloser, error) {
	u, err := s.authorize(ctx, actor, uploadID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Download(ctx, u.S3Key)
	if err != nil {
		return nil, nil, err
	}
	return u, rc, nil
}

func (s *service) Delete(ctx context.Context, actor domain.Actor, uploadID string) error {
	u, err := s.authorize(ctx, actor, uploadID)
	if err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, u.S3Key); err != nil {
		return err
	}
	if err := s.metas.SoftDelete(ctx, uploadID); err != nil {
		return err
	}
	return s.users.SetAttribute(ctx, u.UserID, u.FieldName, "")
}

func (s *service) authorize(ctx context.Context, actor domain.Actor, uploadID string) (*domain.Upload, error) {
	u, err := s.metas.Get(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	if u.DeletedAt != nil {
		return nil, fmt.Errorf("upload %s: %w", uploadID, domain.ErrNotFound)
	}
	if u.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, fmt.Errorf("upload belongs to another user: %w", domain.ErrForbidden)
	}
	return u, nil
}
