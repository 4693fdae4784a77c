package retry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"outfitgen/internal/domain"
)

// instantTimer fires immediately and records every requested wait.
type instantTimer struct {
	mu    sync.Mutex
	waits []time.Duration
	c     chan time.Time
}

func newInstantTimer() *instantTimer {
	return &instantTimer{c: make(chan time.Time, 1)}
}

func (t *instantTimer) Start(d time.Duration) {
	t.mu.Lock()
	t.waits = append(t.waits, d)
	t.mu.Unlock()
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }

func (t *instantTimer) Waits() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.waits...)
}

func newTestRetrier(timer *instantTimer, attempts int) *Retrier {
	return New(Options{
		Policy: Policy{Attempts: attempts, Delay: 10 * time.Second},
		Timer:  timer,
	})
}

func TestDoReturnsOnFirstSuccess(t *testing.T) {
	timer := newInstantTimer()
	r := newTestRetrier(timer, 5)
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if waits := timer.Waits(); len(waits) != 0 {
		t.Fatalf("unexpected waits: %v", waits)
	}
}

func TestDoSucceedsOnThirdAttempt(t *testing.T) {
	timer := newInstantTimer()
	r := newTestRetrier(timer, 5)
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("attempt %d: service unavailable", calls)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	waits := timer.Waits()
	if len(waits) != 2 {
		t.Fatalf("waits = %v, want 2 waits", waits)
	}
	for _, w := range waits {
		if w != 10*time.Second {
			t.Fatalf("wait = %s, want fixed 10s", w)
		}
	}
}

func TestDoExhaustsBudgetWithoutTrailingSleep(t *testing.T) {
	timer := newInstantTimer()
	r := newTestRetrier(timer, 5)
	calls := 0
	upstream := errors.New("model loading")
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return upstream
	})
	if !errors.Is(err, domain.ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
	if !errors.Is(err, upstream) {
		t.Fatalf("expected last error to be wrapped, got %v", err)
	}
	if calls != 5 {
		t.Fatalf("calls = %d, want 5", calls)
	}
	if waits := timer.Waits(); len(waits) != 4 {
		t.Fatalf("waits = %v, want 4 (none after the final attempt)", waits)
	}
}

func TestDoDoesNotRetryConfigurationErrors(t *testing.T) {
	timer := newInstantTimer()
	r := newTestRetrier(timer, 5)
	calls := 0
	cfgErr := fmt.Errorf("%w: token missing", domain.ErrConfiguration)
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return cfgErr
	})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if errors.Is(err, domain.ErrRetryExhausted) {
		t.Fatalf("configuration errors must not be reported as exhaustion: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if waits := timer.Waits(); len(waits) != 0 {
		t.Fatalf("unexpected waits: %v", waits)
	}
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	timer := newInstantTimer()
	r := newTestRetrier(timer, 5)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := r.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("boom")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	r := New(Options{})
	p := r.Policy()
	if p.Attempts != DefaultAttempts || p.Delay != 0 {
		t.Fatalf("policy = %+v", p)
	}
	if d := DefaultPolicy(); d.Attempts != 5 || d.Delay != 10*time.Second {
		t.Fatalf("DefaultPolicy = %+v", d)
	}
	r = New(Options{Policy: Policy{Attempts: 3, Delay: time.Second}})
	if got := r.Policy(); got.Attempts != 3 || got.Delay != time.Second {
		t.Fatalf("policy = %+v", got)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("503"), true},
		{fmt.Errorf("wrap: %w", domain.ErrConfiguration), false},
		{context.DeadlineExceeded, true},
		{fmt.Errorf("http request: %w", context.DeadlineExceeded), true},
		{fmt.Errorf("%w: empty", domain.ErrUpstreamGeneration), true},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Fatalf("IsRetryable(%v) = %t, want %t", tc.err, got, tc.want)
		}
	}
}

func TestDoRetriesPerCallTimeouts(t *testing.T) {
	timer := newInstantTimer()
	r := newTestRetrier(timer, 5)
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("%w: http request: %w", domain.ErrUpstreamGeneration, context.DeadlineExceeded)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestDoReportsExhaustionForRepeatedTimeouts(t *testing.T) {
	timer := newInstantTimer()
	r := newTestRetrier(timer, 3)
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return fmt.Errorf("http request: %w", context.DeadlineExceeded)
	})
	if !errors.Is(err, domain.ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}
