package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-registration-api/internal/domain"
	"github.com/go-registration-api/internal/transport/http/middleware"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps login responses: the token plus the gate's verdict, so
// the client can route the session without a second request.
type AuthEnvelope struct {
	Bearer       string                    `json:"Bearer,omitempty"`
	User         *domain.User              `json:"user,omitempty"`
	Verification *domain.VerificationState `json:"verification,omitempty"`
	CanAccess    bool                      `json:"can_access"`
	NextStep     string                    `json:"next_step,omitempty"`
	Error        string                    `json:"error,omitempty"`
}

// RegisterEnvelope wraps successful registrations.
type RegisterEnvelope struct {
	User     *domain.User `json:"user"`
	NextStep string       `json:"next_step,omitempty"`
	Message  string       `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps a domain sentinel wrapped anywhere in err to its HTTP status.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrCodeInvalid):
		// Wrong, expired, and already-used all read the same to the caller.
		writeError(w, http.StatusBadRequest, "invalid or expired verification code")
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, domain.ErrDelivery):
		writeError(w, http.StatusBadGateway, "message delivery failed")
	case errors.Is(err, domain.ErrConfig):
		writeError(w, http.StatusInternalServerError, "messaging provider is not configured")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// actorFromContext converts the JWT claims into the explicit Actor the
// application layer expects.
func actorFromContext(r *http.Request) (domain.Actor, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return domain.Actor{}, false
	}
	return domain.Actor{UserID: claims.UserID, Role: claims.Role}, true
}
