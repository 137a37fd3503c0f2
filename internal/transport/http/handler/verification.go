package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-registration-api/internal/application/verification"
	"github.com/go-registration-api/internal/domain"
)

// VerificationHandler exposes the verification flow: send, resend, validate,
// skip, status, plus the admin force/reset/stats operations.
type VerificationHandler struct {
	svc verification.Service
}

func NewVerificationHandler(svc verification.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

func (h *VerificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Start(r.Context(), actor.UserID, chi.URLParam(r, "channel")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code sent"})
}

func (h *VerificationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Resend(r.Context(), actor.UserID, chi.URLParam(r, "channel")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code resent"})
}

func (h *VerificationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	channel := chi.URLParam(r, "channel")
	if err := h.svc.Submit(r.Context(), actor.UserID, channel, body.Code); err != nil {
		httpError(w, err)
		return
	}
	next, err := h.svc.NextStep(r.Context(), actor.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message  string `json:"message"`
		NextStep string `json:"next_step"`
	}{Message: channel + " verified", NextStep: next})
}

func (h *VerificationHandler) Skip(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Skip(r.Context(), actor.UserID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "phone verification skipped"})
}

func (h *VerificationHandler) Status(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	state, err := h.svc.Status(r.Context(), actor.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	next, err := h.svc.NextStep(r.Context(), actor.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*domain.VerificationState
		NextStep string `json:"next_step"`
	}{VerificationState: state, NextStep: next})
}

// OneClick handles the link embedded in verification emails. It is public:
// the code itself is the credential.
func (h *VerificationHandler) OneClick(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, code := q.Get("user_id"), q.Get("code")
	channel := q.Get("channel")
	if channel == "" {
		channel = domain.ChannelEmail
	}
	if userID == "" || code == "" {
		writeError(w, http.StatusBadRequest, "user_id and code are required")
		return
	}
	if err := h.svc.Submit(r.Context(), userID, channel, code); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "email verified, you can close this page"})
}

func (h *VerificationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	stats, err := h.svc.Stats(r.Context(), actor)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *VerificationHandler) Force(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	userID, channel := chi.URLParam(r, "id"), chi.URLParam(r, "channel")
	if err := h.svc.ForceVerify(r.Context(), actor, userID, channel); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: channel + " verification forced"})
}

func (h *VerificationHandler) Reset(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	userID, channel := chi.URLParam(r, "id"), chi.URLParam(r, "channel")
	if err := h.svc.ResetVerification(r.Context(), actor, userID, channel); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: channel + " verification reset"})
}
