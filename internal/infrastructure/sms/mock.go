package sms

import (
	"context"
	"log/slog"
)

// Mock logs the message instead of sending it. Used in environments without
// real SMS credentials; always succeeds.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Send(ctx context.Context, to, body string) error {
	slog.Info("mock SMS", "to", to, "body", body)
	return nil
}
