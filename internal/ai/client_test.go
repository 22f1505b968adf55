package ai

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu    sync.Mutex
	calls int
	errs  []error // consumed one per call; nil entries succeed
	text  string
	delay time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		cur := p.maxInFlight.Load()
		if n <= cur || p.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.calls
	p.calls++
	if idx < len(p.errs) && p.errs[idx] != nil {
		return nil, p.errs[idx]
	}
	return &Response{Text: p.text, Model: "fake-model", InputTokens: 10, OutputTokens: 5}, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestNewClient_RequiresProvider(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	assert.Error(t, err)
}

func TestClient_NoRetryByDefault(t *testing.T) {
	p := &fakeProvider{errs: []error{errors.New("503 service unavailable")}, text: "{}"}
	c, err := NewClient(ClientConfig{Provider: p})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), &Request{Operation: "op"})
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "op", te.Operation)
	assert.Equal(t, "fake", te.Provider)
	assert.Equal(t, 1, p.callCount(), "default config must not retry")
}

func TestClient_OptInRetry(t *testing.T) {
	p := &fakeProvider{errs: []error{errors.New("503 service unavailable"), nil}, text: "ok"}
	retry := DefaultRetryConfig()
	retry.MaxRetries = 2
	retry.InitialBackoff = time.Millisecond
	retry.MaxBackoff = time.Millisecond
	c, err := NewClient(ClientConfig{Provider: p, Retry: &retry})
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), &Request{Operation: "op"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 2, p.callCount())
}

func TestClient_NonRetriableNotRetried(t *testing.T) {
	p := &fakeProvider{errs: []error{&statusError{StatusCode: 401, Body: "bad key"}}}
	retry := DefaultRetryConfig()
	retry.MaxRetries = 3
	retry.InitialBackoff = time.Millisecond
	c, err := NewClient(ClientConfig{Provider: p, Retry: &retry})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), &Request{Operation: "op"})
	require.Error(t, err)
	assert.Equal(t, 1, p.callCount())
}

func TestClient_RecordsUsage(t *testing.T) {
	p := &fakeProvider{text: "{}"}
	usage := NewUsageTracker(Pricing{InputPerMillion: 1_000_000, OutputPerMillion: 2_000_000})
	c, err := NewClient(ClientConfig{Provider: p, Usage: usage})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.Complete(context.Background(), &Request{Operation: "code.review"})
		require.NoError(t, err)
	}
	_, err = c.Complete(context.Background(), &Request{Operation: "code.generate"})
	require.NoError(t, err)

	snap := c.Usage().Snapshot()
	assert.Equal(t, 4, snap.Calls)
	assert.Equal(t, int64(40), snap.InputTokens)
	assert.Equal(t, int64(20), snap.OutputTokens)
	assert.Equal(t, int64(60), snap.TotalTokens())
	assert.InDelta(t, 4*(10+10), snap.EstimatedCost, 1e-9)
	require.Len(t, snap.Operations, 2)
	assert.Equal(t, "code.generate", snap.Operations[0].Operation)
	assert.Equal(t, 3, snap.Operations[1].Calls)
}

func TestClient_ConcurrencyLimit(t *testing.T) {
	p := &fakeProvider{text: "{}", delay: 20 * time.Millisecond}
	retry := DefaultRetryConfig()
	retry.MaxConcurrentCalls = 2
	c, err := NewClient(ClientConfig{Provider: p, Retry: &retry})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Complete(context.Background(), &Request{Operation: "op"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 6, p.callCount())
	assert.LessOrEqual(t, p.maxInFlight.Load(), int32(2))
}

func TestClient_CircuitOpensAfterFailures(t *testing.T) {
	fail := errors.New("connection refused")
	p := &fakeProvider{errs: []error{fail, fail, fail, fail}}
	retry := DefaultRetryConfig()
	retry.FailureThreshold = 2
	retry.OpenTimeout = time.Hour
	c, err := NewClient(ClientConfig{Provider: p, Retry: &retry})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := c.Complete(context.Background(), &Request{Operation: "op"})
		require.Error(t, err)
	}
	assert.Equal(t, CircuitOpen, c.CircuitState())

	_, err = c.Complete(context.Background(), &Request{Operation: "op"})
	require.Error(t, err)
	assert.True(t, IsCircuitOpen(err))
	assert.True(t, IsTransportError(err))
	assert.Equal(t, 2, p.callCount(), "open circuit must fail fast")
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, 10*time.Millisecond, nil)

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.GetState())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.GetState())

	cb.RecordSuccess()
	assert.Equal(t, CircuitHalfOpen, cb.GetState())
	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, 10*time.Millisecond, nil)
	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.GetState())
}

func TestCircuitBreaker_HalfOpenAdmitsOneTrial(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, 10*time.Millisecond, nil)
	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, cb.Allow())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen, "second call while the trial is in flight")

	cb.RecordSuccess()
	assert.Equal(t, CircuitHalfOpen, cb.GetState())
	require.NoError(t, cb.Allow(), "next trial after the first succeeded")
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)

	cb.Release()
	require.NoError(t, cb.Allow(), "released trial frees the slot")
}

func TestClient_HalfOpenLetsOneConcurrentCallThrough(t *testing.T) {
	p := &fakeProvider{}
	retry := DefaultRetryConfig()
	retry.FailureThreshold = 1
	retry.OpenTimeout = 10 * time.Millisecond
	retry.SuccessThreshold = 2
	retry.MaxConcurrentCalls = 4
	c, err := NewClient(ClientConfig{Provider: p, Retry: &retry})
	require.NoError(t, err)

	c.circuitBreaker.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	p.delay = 50 * time.Millisecond

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.Complete(context.Background(), &Request{Operation: "op"})
		}()
	}
	wg.Wait()

	open := 0
	for _, err := range errs {
		if IsCircuitOpen(err) {
			open++
		}
	}
	assert.Equal(t, 1, p.callCount(), "only the trial call reaches the provider")
	assert.Equal(t, 3, open)
}

func TestIsRetriableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"status 429", &statusError{StatusCode: 429}, true},
		{"status 500", &statusError{StatusCode: 500}, true},
		{"status 400", &statusError{StatusCode: 400}, false},
		{"overloaded message", errors.New("Overloaded"), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"auth", errors.New("invalid x-api-key"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetriableError(tt.err))
		})
	}
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "CLOSED", CircuitClosed.String())
	assert.Equal(t, "OPEN", CircuitOpen.String())
	assert.Equal(t, "HALF_OPEN", CircuitHalfOpen.String())
	assert.Equal(t, "UNKNOWN", CircuitState(9).String())
}
