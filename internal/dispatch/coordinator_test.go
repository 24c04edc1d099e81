package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"SendWave/internal/metrics"
	"SendWave/internal/models"
	"SendWave/internal/provider"
)

// mockProvider records calls and can delay or fail per address.
type mockProvider struct {
	mu       sync.Mutex
	calls    []string
	delayFor func(to string) time.Duration
	failFor  map[string]error
	count    atomic.Int64
}

func (m *mockProvider) Send(ctx context.Context, to, subject, htmlBody string) (string, error) {
	m.count.Add(1)
	m.mu.Lock()
	m.calls = append(m.calls, to)
	m.mu.Unlock()

	if m.delayFor != nil {
		select {
		case <-time.After(m.delayFor(to)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if err, ok := m.failFor[to]; ok {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return "msg-" + to, nil
}

// blockingProvider holds every call until its context ends.
type blockingProvider struct {
	started chan struct{}
	once    sync.Once
}

func (b *blockingProvider) Send(ctx context.Context, to, subject, htmlBody string) (string, error) {
	b.once.Do(func() { close(b.started) })
	<-ctx.Done()
	return "", ctx.Err()
}

// gateProvider signals each arriving call, then holds it until its context
// ends.
type gateProvider struct {
	arrived chan struct{}
}

func (g *gateProvider) Send(ctx context.Context, to, subject, htmlBody string) (string, error) {
	g.arrived <- struct{}{}
	<-ctx.Done()
	return "", ctx.Err()
}

func newCoordinator(client provider.Client, policy Policy) *Coordinator {
	return New(client, policy, zap.NewNop())
}

func recipients(n int) []models.Contact {
	list := make([]models.Contact, n)
	for i := range list {
		list[i] = models.Contact{
			FirstName: fmt.Sprintf("User%d", i),
			Email:     fmt.Sprintf("user%d@x.com", i),
		}
	}
	return list
}

func TestDispatchReportInvariants(t *testing.T) {
	mock := &mockProvider{failFor: map[string]error{
		"user2@x.com": errors.New("mailbox full"),
	}}
	c := newCoordinator(mock, Policy{Concurrency: 2})

	report, err := c.Dispatch(context.Background(), models.Campaign{
		Subject:    "Hello",
		Body:       "<p>Hi</p>",
		Recipients: recipients(5),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, report.Total, report.Sent+report.Failed)
	assert.Len(t, report.Results, 5)
	assert.Equal(t, 4, report.Sent)
	assert.Equal(t, 1, report.Failed)
	assert.False(t, report.Incomplete)

	assert.False(t, report.Results[2].Success)
	assert.Equal(t, "mailbox full", report.Results[2].ErrorMsg)
	assert.Empty(t, report.Results[2].MessageID)

	assert.True(t, report.Results[0].Success)
	assert.Equal(t, "msg-user0@x.com", report.Results[0].MessageID)
	assert.Empty(t, report.Results[0].ErrorMsg)
}

func TestDispatchSkipsMissingEmail(t *testing.T) {
	mock := &mockProvider{}
	c := newCoordinator(mock, Policy{Concurrency: 1})

	report, err := c.Dispatch(context.Background(), models.Campaign{
		Subject: "Hello",
		Body:    "<p>Hi</p>",
		Recipients: []models.Contact{
			{FirstName: "Ana", Email: "ana@x.com"},
			{FirstName: "Bo"}, // no email
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), mock.count.Load())
	assert.Equal(t, []string{"ana@x.com"}, mock.calls)

	require.Len(t, report.Results, 2)
	assert.False(t, report.Results[1].Success)
	assert.Equal(t, "missing email", report.Results[1].ErrorMsg)
	assert.Empty(t, report.Results[1].Email)
}

func TestDispatchValidation(t *testing.T) {
	cases := []struct {
		name     string
		campaign models.Campaign
	}{
		{"empty subject", models.Campaign{Body: "b", Recipients: recipients(1)}},
		{"empty body", models.Campaign{Subject: "s", Recipients: recipients(1)}},
		{"no recipients", models.Campaign{Subject: "s", Body: "b"}},
		{"oversized batch", models.Campaign{Subject: "s", Body: "b", Recipients: recipients(4)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &mockProvider{}
			c := newCoordinator(mock, Policy{Concurrency: 2, MaxBatchSize: 3})

			report, err := c.Dispatch(context.Background(), tc.campaign)
			require.Error(t, err)
			assert.True(t, models.IsConfigError(err))
			assert.Nil(t, report)
			assert.Zero(t, mock.count.Load(), "provider must not be called on rejected requests")
		})
	}
}

func TestDispatchOrderPreservedUnderConcurrency(t *testing.T) {
	const n = 20

	// later recipients finish sooner, so completion order inverts input
	// order unless results are index-addressed
	mock := &mockProvider{
		delayFor: func(to string) time.Duration {
			var i int
			fmt.Sscanf(to, "user%d@x.com", &i)
			return time.Duration(n-i) * time.Millisecond
		},
	}
	c := newCoordinator(mock, Policy{Concurrency: 4})

	report, err := c.Dispatch(context.Background(), models.Campaign{
		Subject:    "Hello",
		Body:       "<p>Hi</p>",
		Recipients: recipients(n),
	})
	require.NoError(t, err)

	require.Len(t, report.Results, n)
	for i, res := range report.Results {
		assert.Equal(t, fmt.Sprintf("user%d@x.com", i), res.Email, "result %d out of order", i)
		assert.True(t, res.Success)
	}
}

func TestDispatchPersonalizesPerRecipient(t *testing.T) {
	var mu sync.Mutex
	subjects := map[string]string{}

	client := provider.Func(func(ctx context.Context, to, subject, htmlBody string) (string, error) {
		mu.Lock()
		subjects[to] = subject
		mu.Unlock()
		return "id-" + to, nil
	})
	c := newCoordinator(client, Policy{Concurrency: 2})

	_, err := c.Dispatch(context.Background(), models.Campaign{
		Subject: "Hi {{firstName}}",
		Body:    "<p>{{firstName}} {{lastName}}</p>",
		Recipients: []models.Contact{
			{FirstName: "Ana", Email: "ana@x.com"},
			{FirstName: "Bo", Email: "bo@x.com"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hi Ana", subjects["ana@x.com"])
	assert.Equal(t, "Hi Bo", subjects["bo@x.com"])
}

func TestDispatchEndToEnd(t *testing.T) {
	mock := &mockProvider{}
	c := newCoordinator(mock, Policy{Concurrency: 1, MaxBatchSize: 50})

	report, err := c.Dispatch(context.Background(), models.Campaign{
		Subject: "Hi {{firstName}}",
		Body:    "<p>{{firstName}} {{lastName}}</p>",
		Recipients: []models.Contact{
			{Email: "a@x.com", FirstName: "Ana"},
			{Email: "", FirstName: "Bo"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.Failed)

	assert.Equal(t, "a@x.com", report.Results[0].Email)
	assert.True(t, report.Results[0].Success)
	assert.NotEmpty(t, report.Results[0].MessageID)

	assert.Empty(t, report.Results[1].Email)
	assert.False(t, report.Results[1].Success)
	assert.Equal(t, "missing email", report.Results[1].ErrorMsg)
}

func TestDispatchCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	block := &blockingProvider{started: make(chan struct{})}
	c := newCoordinator(block, Policy{Concurrency: 1})

	go func() {
		<-block.started
		cancel()
	}()

	report, err := c.Dispatch(ctx, models.Campaign{
		Subject:    "Hello",
		Body:       "<p>Hi</p>",
		Recipients: recipients(3),
	})
	require.NoError(t, err)

	assert.True(t, report.Incomplete)
	assert.Equal(t, 3, report.Total)
	assert.Len(t, report.Results, 3)
	assert.Equal(t, report.Total, report.Sent+report.Failed)

	// first recipient was in flight and failed on cancellation; the rest
	// were never attempted
	assert.False(t, report.Results[0].Success)
	for _, res := range report.Results[1:] {
		assert.False(t, res.Success)
		assert.Equal(t, "dispatch cancelled", res.ErrorMsg)
	}
}

func TestDispatchCancelledAfterAllInFlight(t *testing.T) {
	// with one idle worker per recipient the feed loop hands out every
	// job before cancellation lands; the report must still be flagged
	const n = 3

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gate := &gateProvider{arrived: make(chan struct{})}
	c := newCoordinator(gate, Policy{Concurrency: n})

	go func() {
		for i := 0; i < n; i++ {
			<-gate.arrived
		}
		cancel()
	}()

	report, err := c.Dispatch(ctx, models.Campaign{
		Subject:    "Hello",
		Body:       "<p>Hi</p>",
		Recipients: recipients(n),
	})
	require.NoError(t, err)

	assert.True(t, report.Incomplete)
	assert.Equal(t, n, report.Total)
	assert.Equal(t, n, report.Failed)
	require.Len(t, report.Results, n)
	for _, res := range report.Results {
		assert.False(t, res.Success)
	}
}

func TestDispatchMetricsCountProviderCallsOnly(t *testing.T) {
	sentBefore := testutil.ToFloat64(metrics.EmailsSent)
	failedBefore := testutil.ToFloat64(metrics.EmailFailures)

	mock := &mockProvider{failFor: map[string]error{
		"bad@x.com": errors.New("rejected"),
	}}
	c := newCoordinator(mock, Policy{Concurrency: 1})

	report, err := c.Dispatch(context.Background(), models.Campaign{
		Subject: "Hello",
		Body:    "<p>Hi</p>",
		Recipients: []models.Contact{
			{FirstName: "Ana", Email: "good@x.com"},
			{FirstName: "Bo"}, // missing email, no provider call
			{FirstName: "Cy", Email: "bad@x.com"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 2, report.Failed)

	// local missing-email failure is in the report but not the counters
	assert.Equal(t, sentBefore+1, testutil.ToFloat64(metrics.EmailsSent))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(metrics.EmailFailures))
}

func TestDispatchPerCallTimeout(t *testing.T) {
	mock := &mockProvider{
		delayFor: func(string) time.Duration { return time.Second },
	}
	c := newCoordinator(mock, Policy{Concurrency: 1, PerCallTimeout: 10 * time.Millisecond})

	report, err := c.Dispatch(context.Background(), models.Campaign{
		Subject:    "Hello",
		Body:       "<p>Hi</p>",
		Recipients: recipients(2),
	})
	require.NoError(t, err)

	// a timeout is just another recipient failure; the batch continues
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Failed)
	assert.False(t, report.Incomplete)
	for _, res := range report.Results {
		assert.Contains(t, res.ErrorMsg, "context deadline exceeded")
	}
}

func TestDispatchRateLimited(t *testing.T) {
	mock := &mockProvider{}
	c := newCoordinator(mock, Policy{Concurrency: 4, InterRequestDelay: time.Millisecond})

	start := time.Now()
	report, err := c.Dispatch(context.Background(), models.Campaign{
		Subject:    "Hello",
		Body:       "<p>Hi</p>",
		Recipients: recipients(10),
	})
	require.NoError(t, err)

	assert.Equal(t, 10, report.Sent)
	// 10 sends spaced 1ms apart can't finish instantly even with 4 workers
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}
