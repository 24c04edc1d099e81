// Package dispatch runs a campaign through a provider client under a
// bounded-concurrency, rate-limited policy, isolating each recipient's
// failure and aggregating an order-preserving report.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"SendWave/internal/metrics"
	"SendWave/internal/models"
	"SendWave/internal/provider"
	"SendWave/internal/template"
)

// Policy is the throughput and sizing policy for one dispatch.
type Policy struct {
	// MaxBatchSize rejects campaigns with more recipients; provider quotas
	// drive the value, so it is configuration, never a constant.
	MaxBatchSize int

	// Concurrency caps simultaneous provider calls. Values below 1 are
	// treated as 1.
	Concurrency int

	// InterRequestDelay spaces provider calls globally across workers.
	// Zero disables rate limiting.
	InterRequestDelay time.Duration

	// PerCallTimeout bounds each provider call. Zero disables the bound.
	PerCallTimeout time.Duration
}

// Coordinator dispatches campaigns through a provider client.
type Coordinator struct {
	client provider.Client
	policy Policy
	log    *zap.Logger
}

// New builds a coordinator. The client is shared across dispatches and must
// be safe for concurrent use.
func New(client provider.Client, policy Policy, log *zap.Logger) *Coordinator {
	if policy.Concurrency < 1 {
		policy.Concurrency = 1
	}
	return &Coordinator{client: client, policy: policy, log: log}
}

type job struct {
	idx     int
	contact models.Contact
}

// Dispatch personalizes and sends the campaign to every recipient, in a
// worker pool of policy.Concurrency goroutines. Recipient failures are
// recorded, never propagated; the only outright failures are request-level
// validation rejections, returned as *models.ConfigError before any
// provider call.
//
// Cancelling ctx stops feeding the pool; in-flight calls finish (or time
// out) and unattempted recipients are recorded as failed, with the report
// flagged incomplete. The report always covers every recipient in input
// order.
func (c *Coordinator) Dispatch(ctx context.Context, campaign models.Campaign) (*models.DispatchReport, error) {
	if err := c.validate(campaign); err != nil {
		return nil, err
	}

	start := time.Now()

	var limiter *rate.Limiter
	if c.policy.InterRequestDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(c.policy.InterRequestDelay), 1)
	}

	results := make([]models.DispatchResult, len(campaign.Recipients))
	jobs := make(chan job)

	// aborted flags recipients whose attempt failed under a cancelled
	// context; cancellation can land after the feed loop has already
	// handed every job to a worker, so the feed loop alone cannot see it.
	var aborted atomic.Bool

	var wg sync.WaitGroup
	for i := 0; i < c.policy.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res := c.sendOne(ctx, limiter, campaign, j.contact)
				if !res.Success && ctx.Err() != nil {
					aborted.Store(true)
				}
				results[j.idx] = res
			}
		}()
	}

	incomplete := false
feed:
	for i, contact := range campaign.Recipients {
		if ctx.Err() != nil {
			incomplete = true
		} else {
			select {
			case jobs <- job{idx: i, contact: contact}:
				continue
			case <-ctx.Done():
				incomplete = true
			}
		}
		c.log.Warn("dispatch cancelled",
			zap.Int("submitted", i),
			zap.Int("recipients", len(campaign.Recipients)),
		)
		break feed
	}
	close(jobs)
	wg.Wait()

	if aborted.Load() {
		incomplete = true
	}

	report := &models.DispatchReport{
		Total:      len(campaign.Recipients),
		Incomplete: incomplete,
		Results:    results,
	}
	for i := range results {
		if results[i].Email == "" && !results[i].Success && results[i].ErrorMsg == "" {
			// slot never attempted
			results[i] = models.DispatchResult{
				Email:    campaign.Recipients[i].Email,
				Success:  false,
				ErrorMsg: "dispatch cancelled",
			}
		}
		if results[i].Success {
			report.Sent++
		} else {
			report.Failed++
		}
	}

	metrics.DispatchDuration.Observe(time.Since(start).Seconds())

	c.log.Info("campaign dispatched",
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Int("total", report.Total),
		zap.Bool("incomplete", report.Incomplete),
		zap.Duration("elapsed", time.Since(start)),
	)

	return report, nil
}

func (c *Coordinator) validate(campaign models.Campaign) error {
	switch {
	case campaign.Subject == "":
		return models.NewConfigError("subject is required")
	case campaign.Body == "":
		return models.NewConfigError("htmlTemplate is required")
	case len(campaign.Recipients) == 0:
		return models.NewConfigError("users list cannot be empty")
	case c.policy.MaxBatchSize > 0 && len(campaign.Recipients) > c.policy.MaxBatchSize:
		return models.NewConfigError(fmt.Sprintf("max %d recipients per request", c.policy.MaxBatchSize))
	}
	return nil
}

// sendOne renders and sends to a single recipient. Every failure ends up in
// the result, never in an error: one bad recipient must not disturb the
// rest of the batch.
//
// The metric counters track provider calls only: recipients rejected
// locally (missing email, cancellation before the call) appear in the
// report but never move the counters.
func (c *Coordinator) sendOne(ctx context.Context, limiter *rate.Limiter, campaign models.Campaign, contact models.Contact) models.DispatchResult {
	if contact.Email == "" {
		return models.DispatchResult{Success: false, ErrorMsg: "missing email"}
	}

	if ctx.Err() != nil {
		return models.DispatchResult{Email: contact.Email, Success: false, ErrorMsg: "dispatch cancelled"}
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return models.DispatchResult{Email: contact.Email, Success: false, ErrorMsg: "dispatch cancelled"}
		}
	}

	subject := template.Render(campaign.Subject, contact)
	body := template.Render(campaign.Body, contact)

	callCtx := ctx
	if c.policy.PerCallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.policy.PerCallTimeout)
		defer cancel()
	}

	id, err := c.client.Send(callCtx, contact.Email, subject, body)
	if err != nil {
		c.log.Error("email send failed",
			zap.String("to", contact.Email),
			zap.Error(err),
		)
		metrics.EmailFailures.Inc()
		return models.DispatchResult{Email: contact.Email, Success: false, ErrorMsg: err.Error()}
	}

	metrics.EmailsSent.Inc()
	return models.DispatchResult{Email: contact.Email, Success: true, MessageID: id}
}
