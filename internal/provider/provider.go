// Package provider holds the transactional-email clients the dispatcher
// sends through. Every transport implements the same one-message contract;
// the dispatcher assumes nothing beyond "one call sends one message and may
// fail".
package provider

import "context"

// Client sends a single already-personalized message and returns the
// provider's message identifier.
type Client interface {
	Send(ctx context.Context, to, subject, htmlBody string) (messageID string, err error)
}

// Func adapts a plain function to a Client. Used by tests and one-off
// wiring.
type Func func(ctx context.Context, to, subject, htmlBody string) (string, error)

func (f Func) Send(ctx context.Context, to, subject, htmlBody string) (string, error) {
	return f(ctx, to, subject, htmlBody)
}
