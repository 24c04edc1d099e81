package provider

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

// ResendConfig holds the Resend API key and sender identity.
type ResendConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// Resend sends mail through the Resend API.
type Resend struct {
	client *resend.Client
	cfg    ResendConfig
}

// NewResend builds a Resend client.
func NewResend(cfg ResendConfig) *Resend {
	return &Resend{client: resend.NewClient(cfg.APIKey), cfg: cfg}
}

func (r *Resend) Send(ctx context.Context, to, subject, htmlBody string) (string, error) {
	from := r.cfg.FromEmail
	if r.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", r.cfg.FromName, r.cfg.FromEmail)
	}

	sent, err := r.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	})
	if err != nil {
		return "", fmt.Errorf("resend send: %w", err)
	}

	return sent.Id, nil
}
