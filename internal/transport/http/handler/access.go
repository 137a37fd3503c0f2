package handler

import (
	"net/http"

	"github.com/go-registration-api/internal/application/access"
)

// AccessHandler answers the host's "may this user in" question.
type AccessHandler struct {
	gate *access.Gate
}

func NewAccessHandler(gate *access.Gate) *AccessHandler { return &AccessHandler{gate: gate} }

func (h *AccessHandler) Check(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	decision, err := h.gate.Check(r.Context(), actor.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}
