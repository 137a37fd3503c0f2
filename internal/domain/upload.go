package domain

import "time"

// Upload is the metadata row for a file-type field value stored in S3.
// The user attribute for the field holds the UploadID.
type Upload struct {
	UploadID    string     `json:"id" dynamodbav:"upload_id"`
	UserID      string     `json:"user_id" dynamodbav:"user_id"`
	FieldName   string     `json:"field_name" dynamodbav:"field_name"`
	FileName    string     `json:"file_name" dynamodbav:"file_name"`
	ContentType string     `json:"content_type" dynamodbav:"content_type"`
	S3Key       string     `json:"-" dynamodbav:"s3_key"`
	Size        int64      `json:"size" dynamodbav:"size"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt   time.Time  `json:"created_at" dynamodbav:"created_at"`
}
