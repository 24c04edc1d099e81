package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// ----------------------------
	// Dispatch policy
	// ----------------------------
	MaxBatchSize  int           `envconfig:"MAX_BATCH_SIZE" default:"200"`
	MaxUploadRows int           `envconfig:"MAX_UPLOAD_ROWS" default:"1000"`
	Concurrency   int           `envconfig:"CONCURRENCY" default:"4"`
	SendDelay     time.Duration `envconfig:"SEND_DELAY" default:"150ms"`
	SendTimeout   time.Duration `envconfig:"SEND_TIMEOUT" default:"10s"`
	RetryAttempts int           `envconfig:"RETRY_ATTEMPTS" default:"0"`

	// ----------------------------
	// Provider selection: ses | gmail | resend | smtp
	// ----------------------------
	EmailProvider string `envconfig:"EMAIL_PROVIDER" default:"smtp"`

	// ----------------------------
	// SMTP
	// ----------------------------
	SMTPHost     string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPUser     string `envconfig:"SMTP_USER" default:""`
	SMTPPassword string `envconfig:"SMTP_PASSWORD" default:""`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"noreply@sendwave.dev"`

	// ----------------------------
	// AWS SES
	// ----------------------------
	AWSRegion    string `envconfig:"AWS_REGION" default:"us-east-1"`
	AWSAccessKey string `envconfig:"AWS_ACCESS_KEY_ID" default:""`
	AWSSecretKey string `envconfig:"AWS_SECRET_ACCESS_KEY" default:""`
	SESFromEmail string `envconfig:"SES_FROM_EMAIL" default:""`
	SESFromName  string `envconfig:"SES_FROM_NAME" default:""`
	SESReplyTo   string `envconfig:"SES_REPLY_TO" default:""`

	// ----------------------------
	// Gmail API
	// ----------------------------
	GmailClientID     string `envconfig:"GMAIL_CLIENT_ID" default:""`
	GmailClientSecret string `envconfig:"GMAIL_CLIENT_SECRET" default:""`
	GmailRefreshToken string `envconfig:"GMAIL_REFRESH_TOKEN" default:""`
	GmailSenderEmail  string `envconfig:"GMAIL_SENDER_EMAIL" default:""`

	// ----------------------------
	// Resend
	// ----------------------------
	ResendAPIKey    string `envconfig:"RESEND_API_KEY" default:""`
	ResendFromEmail string `envconfig:"RESEND_FROM_EMAIL" default:""`
	ResendFromName  string `envconfig:"RESEND_FROM_NAME" default:""`

	// ----------------------------
	// HTTP API
	// ----------------------------
	APIPort string `envconfig:"API_PORT" default:"8080"`

	// ----------------------------
	// Metrics
	// ----------------------------
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`

	// ----------------------------
	// Database (optional report history)
	// ----------------------------
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return &cfg, err
}
