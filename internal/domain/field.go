package domain

import "time"

// Field types supported by the registry.
const (
	FieldText     = "text"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldTel      = "tel"
	FieldURL      = "url"
	FieldNumber   = "number"
	FieldDate     = "date"
	FieldTextarea = "textarea"
	FieldSelect   = "select"
	FieldRadio    = "radio"
	FieldCheckbox = "checkbox"
	FieldFile     = "file"
)

// FieldTypes lists every valid field type.
var FieldTypes = []string{
	FieldText, FieldEmail, FieldPassword, FieldTel, FieldURL, FieldNumber,
	FieldDate, FieldTextarea, FieldSelect, FieldRadio, FieldCheckbox, FieldFile,
}

// ValidFieldType reports whether t is a known field type.
func ValidFieldType(t string) bool {
	for _, ft := range FieldTypes {
		if ft == t {
			return true
		}
	}
	return false
}

// Core seed fields. They are created at bootstrap and can never be deleted or
// redefined as custom fields.
const (
	FieldNameLogin    = "user_login"
	FieldNameEmail    = "user_email"
	FieldNamePassword = "user_pass"
)

// CoreField reports whether name is one of the immutable seed fields.
func CoreField(name string) bool {
	return name == FieldNameLogin || name == FieldNameEmail || name == FieldNamePassword
}

// Option is one value/label pair for select, radio and checkbox fields.
// Options are normalized into this typed form at the admin boundary; the core
// never re-parses raw option strings.
type Option struct {
	Value string `json:"value" dynamodbav:"value"`
	Label string `json:"label" dynamodbav:"label"`
}

// FieldDefinition describes one signup/profile attribute.
type FieldDefinition struct {
	Name         string    `json:"name" dynamodbav:"field_name"`
	Label        string    `json:"label" dynamodbav:"field_label"`
	Type         string    `json:"type" dynamodbav:"field_type"`
	Options      []Option  `json:"options,omitempty" dynamodbav:"field_options"`
	Required     bool      `json:"required" dynamodbav:"is_required"`
	Editable     bool      `json:"editable" dynamodbav:"is_editable"`
	Order        int       `json:"order" dynamodbav:"field_order"`
	SourcePlugin *string   `json:"source_plugin,omitempty" dynamodbav:"source_plugin"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

type CreateFieldRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Label      string `json:"label" validate:"required,max=255"`
	Type       string `json:"type" validate:"required"`
	RawOptions string `json:"options"` // JSON list, CSV or "key:label" pairs
	Required   bool   `json:"required"`
	Editable   *bool  `json:"editable"`
	Order      *int   `json:"order"`
}

type UpdateFieldRequest struct {
	Label      *string `json:"label"`
	Type       *string `json:"type"`
	RawOptions *string `json:"options"`
	Required   *bool   `json:"required"`
	Editable   *bool   `json:"editable"`
	Order      *int    `json:"order"`
}
