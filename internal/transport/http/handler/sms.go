package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-registration-api/internal/application/dispatch"
)

// SMSHandler lets an admin verify the SMS provider configuration end to end.
type SMSHandler struct {
	gateway dispatch.Gateway
}

func NewSMSHandler(gateway dispatch.Gateway) *SMSHandler { return &SMSHandler{gateway: gateway} }

func (h *SMSHandler) Test(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Phone == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}
	if err := h.gateway.TestSMSConfig(r.Context(), body.Phone); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "test SMS sent"})
}
