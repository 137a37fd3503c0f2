package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-registration-api/internal/application/access"
	"github.com/go-registration-api/internal/application/user"
	"github.com/go-registration-api/internal/domain"
)

type accessChecker interface {
	Check(ctx context.Context, userID string) (*access.Decision, error)
}

type verificationReader interface {
	Status(ctx context.Context, userID string) (*domain.VerificationState, error)
}

// SessionHandler handles login. Sessions are stateless JWTs standing in for
// the host platform's session mechanism. The access gate is consulted at
// login so the client learns in one round trip whether the session may enter
// protected content and which verification step comes next.
type SessionHandler struct {
	svc          user.Service
	gate         accessChecker
	verification verificationReader
}

func NewSessionHandler(svc user.Service, gate accessChecker, verification verificationReader) *SessionHandler {
	return &SessionHandler{svc: svc, gate: gate, verification: verification}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, u, err := h.svc.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		httpError(w, err)
		return
	}
	decision, err := h.gate.Check(r.Context(), u.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	state, err := h.verification.Status(r.Context(), u.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		Bearer:       token,
		User:         u,
		Verification: state,
		CanAccess:    decision.CanAccess,
		NextStep:     decision.NextStep,
	})
}
