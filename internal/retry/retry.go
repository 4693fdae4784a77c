// Package retry runs remote calls under a bounded, fixed-delay retry budget.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"outfitgen/internal/domain"
	"outfitgen/internal/infra"
)

const (
	DefaultAttempts = 5
	DefaultDelay    = 10 * time.Second
)

// Policy bounds a retry loop. Delay is constant between attempts.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultPolicy is five attempts ten seconds apart.
func DefaultPolicy() Policy {
	return Policy{Attempts: DefaultAttempts, Delay: DefaultDelay}
}

// Options configures a Retrier.
type Options struct {
	Policy Policy
	// Retryable decides whether an error earns another attempt. Defaults to
	// IsRetryable.
	Retryable func(error) bool
	// Timer replaces the wall-clock timer between attempts.
	Timer  backoff.Timer
	Logger *infra.Logger
}

// Retrier executes operations with the configured policy.
type Retrier struct {
	policy    Policy
	retryable func(error) bool
	timer     backoff.Timer
	logger    infra.Logger
}

// New builds a Retrier, filling in defaults for zero values.
func New(opts Options) *Retrier {
	policy := opts.Policy
	if policy.Attempts <= 0 {
		policy.Attempts = DefaultAttempts
	}
	if policy.Delay < 0 {
		policy.Delay = 0
	}
	retryable := opts.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	logger := infra.NopLogger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Retrier{policy: policy, retryable: retryable, timer: opts.Timer, logger: logger}
}

// Policy returns the effective policy.
func (r *Retrier) Policy() Policy {
	return r.policy
}

// IsRetryable treats configuration problems as final. A timeout of a single
// call is retried; cancellation of the caller's context is handled by Do.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, domain.ErrConfiguration):
		return false
	default:
		return true
	}
}

// Do calls op until it succeeds, returns a non-retryable error, or the
// attempt budget runs out. Exhaustion is reported as domain.ErrRetryExhausted
// wrapping the last failure.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var (
		attempt   int
		permanent bool
	)
	operation := func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		r.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", r.policy.Attempts).
			Msgf("attempt %d failed", attempt)
		if !r.retryable(err) {
			permanent = true
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.policy.Delay), uint64(r.policy.Attempts-1)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		r.logger.Debug().Dur("wait", wait).Int("next_attempt", attempt+1).Msg("waiting before retry")
	}

	err := backoff.RetryNotifyWithTimer(operation, b, notify, r.timer)
	if err == nil {
		return nil
	}
	if permanent {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w after %d attempts: %w", domain.ErrRetryExhausted, attempt, err)
}
