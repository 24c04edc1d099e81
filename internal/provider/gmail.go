package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailConfig holds the OAuth2 desktop-client credentials and an offline
// refresh token with the gmail.send scope.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	SenderEmail  string
}

// Gmail sends mail through the Gmail API on behalf of the configured
// sender.
type Gmail struct {
	svc    *gmail.Service
	sender string
}

// NewGmail builds a Gmail API client from a refresh token.
func NewGmail(ctx context.Context, cfg GmailConfig) (*Gmail, error) {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}

	return &Gmail{svc: svc, sender: cfg.SenderEmail}, nil
}

func (g *Gmail) Send(ctx context.Context, to, subject, htmlBody string) (string, error) {
	msg := &gmail.Message{Raw: rawMessage(g.sender, to, subject, htmlBody)}

	out, err := g.svc.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail send: %w", err)
	}

	return out.Id, nil
}

// rawMessage assembles an RFC822 message and encodes it the way the Gmail
// API expects: base64url without padding.
func rawMessage(from, to, subject, htmlBody string) string {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Reply-To: " + from + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)

	return base64.RawURLEncoding.EncodeToString([]byte(b.String()))
}
