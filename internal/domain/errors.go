package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// ErrRateLimited is returned when a resend arrives inside the cooldown window.
	ErrRateLimited = errors.New("rate limited")

	// ErrConfig signals missing provider credentials. Delivery fails closed
	// rather than silently degrading to another provider.
	ErrConfig = errors.New("configuration error")

	// ErrDelivery signals that an outbound transport reported failure. The raw
	// transport error stays in the logs, not in API responses.
	ErrDelivery = errors.New("delivery failed")

	// ErrCodeInvalid covers wrong, expired and already-used codes alike so the
	// response never reveals which one it was.
	ErrCodeInvalid = errors.New("invalid or expired code")
)
