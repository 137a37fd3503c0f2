package field

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-registration-api/internal/domain"
)

var (
	emailRe      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	intlPhoneRe  = regexp.MustCompile(`^\+[1-9]\d{10,14}$`)
	localPhoneRe = regexp.MustCompile(`^\d{10}$`)
	phoneCharsRe = regexp.MustCompile(`[^0-9+()\- ]`)
	phoneStripRe = regexp.MustCompile(`[^\d+]`)
	ctrlRe       = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// Accepted date layouts, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006-01-02 15:04:05",
}

// Validate checks a single submitted value against a field definition.
// An empty value on an optional field is always valid; all errors wrap
// domain.ErrBadRequest so callers can map them uniformly.
func Validate(value, fieldType string, def *domain.FieldDefinition) error {
	value = strings.TrimSpace(value)

	if value == "" {
		if def != nil && def.Required {
			label := "field"
			if def.Label != "" {
				label = def.Label
			}
			return fmt.Errorf("%s is required: %w", label, domain.ErrBadRequest)
		}
		return nil
	}

	switch fieldType {
	case domain.FieldEmail:
		if !emailRe.MatchString(value) {
			return fmt.Errorf("invalid email address: %w", domain.ErrBadRequest)
		}
	case domain.FieldURL:
		u, err := url.Parse(value)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("invalid URL: %w", domain.ErrBadRequest)
		}
	case domain.FieldTel:
		if !validPhone(value) {
			return fmt.Errorf("invalid phone number: %w", domain.ErrBadRequest)
		}
	case domain.FieldNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("invalid number: %w", domain.ErrBadRequest)
		}
	case domain.FieldDate:
		if !validDate(value) {
			return fmt.Errorf("invalid date: %w", domain.ErrBadRequest)
		}
	case domain.FieldPassword:
		if len(value) < 6 {
			return fmt.Errorf("password must be at least 6 characters: %w", domain.ErrBadRequest)
		}
	case domain.FieldSelect, domain.FieldRadio:
		if def != nil && len(def.Options) > 0 && !hasOption(def.Options, value) {
			return fmt.Errorf("value is not one of the allowed options: %w", domain.ErrBadRequest)
		}
	}
	return nil
}

// Sanitize normalizes a value per field type. Passwords pass through
// untouched; secret material is never mutated before hashing.
func Sanitize(value, fieldType string) string {
	switch fieldType {
	case domain.FieldPassword:
		return value
	case domain.FieldEmail:
		return strings.ToLower(strings.TrimSpace(value))
	case domain.FieldURL:
		u, err := url.Parse(strings.TrimSpace(value))
		if err != nil {
			return ""
		}
		return u.String()
	case domain.FieldTel:
		return strings.TrimSpace(phoneCharsRe.ReplaceAllString(value, ""))
	case domain.FieldNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return ""
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	case domain.FieldTextarea:
		// Preserve newlines, drop other control characters.
		var b strings.Builder
		for _, r := range strings.TrimSpace(value) {
			if r == '\n' || r == '\r' || r == '\t' || strconv.IsPrint(r) {
				b.WriteRune(r)
			}
		}
		return b.String()
	case domain.FieldFile:
		return sanitizeFileName(value)
	default:
		return ctrlRe.ReplaceAllString(strings.TrimSpace(value), "")
	}
}

// FormatPhone strips formatting and prefixes bare 10-digit numbers with +1
// for SMS delivery.
func FormatPhone(phone string) string {
	cleaned := phoneStripRe.ReplaceAllString(phone, "")
	if localPhoneRe.MatchString(cleaned) {
		return "+1" + cleaned
	}
	return cleaned
}

func validPhone(phone string) bool {
	cleaned := phoneStripRe.ReplaceAllString(phone, "")
	return intlPhoneRe.MatchString(cleaned) || localPhoneRe.MatchString(cleaned)
}

func validDate(value string) bool {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil && t.Format(layout) == value {
			return true
		}
	}
	return false
}

func hasOption(opts []domain.Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}

func sanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return ctrlRe.ReplaceAllString(name, "")
}
