package field

import (
	"encoding/json"
	"strings"

	"github.com/go-registration-api/internal/domain"
)

// ParseOptions turns an admin-supplied options string into a typed, ordered
// option list. This lenient multi-format parsing lives only at the admin
// boundary; the core always works with []domain.Option.
//
// Accepted forms, tried in order:
//  1. JSON list of {"value":..,"label":..} objects
//  2. comma-separated tokens, each optionally "key:label"; a bare token is
//     both value and label
func ParseOptions(raw string) []domain.Option {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var parsed []domain.Option
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		return parsed
	}

	var opts []domain.Option
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if k, v, found := strings.Cut(token, ":"); found {
			opts = append(opts, domain.Option{Value: strings.TrimSpace(k), Label: strings.TrimSpace(v)})
		} else {
			opts = append(opts, domain.Option{Value: token, Label: token})
		}
	}
	return opts
}
