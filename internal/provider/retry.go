package provider

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// WithRetry wraps a client with exponential-backoff retries on transient
// failures. The dispatcher itself never retries; this wrapper is applied at
// wiring time when RETRY_ATTEMPTS is set, keeping retry policy outside the
// per-recipient contract.
func WithRetry(c Client, attempts int) Client {
	if attempts <= 0 {
		return c
	}
	return &retryClient{inner: c, attempts: uint64(attempts)}
}

type retryClient struct {
	inner    Client
	attempts uint64
}

func (r *retryClient) Send(ctx context.Context, to, subject, htmlBody string) (string, error) {
	var id string

	operation := func() error {
		var err error
		id, err = r.inner.Send(ctx, to, subject, htmlBody)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, r.attempts), ctx))
	if err != nil {
		return "", err
	}
	return id, nil
}
