// Package retry runs operations under a bounded exponential backoff, retrying
// only failures the caller classifies as transient.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy holds the retry schedule.
type Policy struct {
	MaxRetries   int           // retries after the first attempt
	MinBackoff   time.Duration // wait before the first retry
	MaxBackoff   time.Duration // ceiling for any single wait
	DeltaBackoff time.Duration // growth step, jittered ±20%
}

// DefaultPolicy returns the schedule used against the management API:
// 3 retries (4 attempts), waits between 2s and 30s growing by ~3s steps.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		MinBackoff:   2 * time.Second,
		MaxBackoff:   30 * time.Second,
		DeltaBackoff: 3 * time.Second,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.MinBackoff < 0 {
		p.MinBackoff = 0
	}
	if p.MaxBackoff < p.MinBackoff {
		p.MaxBackoff = p.MinBackoff
	}
	if p.DeltaBackoff < 0 {
		p.DeltaBackoff = 0
	}
	return p
}

// Attempt describes a retry that is about to happen.
type Attempt struct {
	Number int           // 1 for the first retry
	Err    error         // failure that triggered the retry
	Delay  time.Duration // wait before the retry
}

// Do runs op until it succeeds, fails with an error isTransient rejects, or
// the policy's retries are exhausted. Errors are returned exactly as op
// produced them. onRetry, if non-nil, is called before each wait.
// Cancelling ctx aborts a pending wait and returns the context's error.
func Do[T any](ctx context.Context, p Policy, isTransient func(error) bool, onRetry func(Attempt), op func() (T, error)) (T, error) {
	p = p.normalized()

	attempt := 0
	notify := func(err error, delay time.Duration) {
		attempt++
		if onRetry != nil {
			onRetry(Attempt{Number: attempt, Err: err, Delay: delay})
		}
	}

	res, err := backoff.Retry(ctx,
		func() (T, error) {
			res, err := op()
			if err != nil && !isTransient(err) {
				return res, backoff.Permanent(err)
			}
			return res, err
		},
		backoff.WithBackOff(NewExponentialBackOff(p)),
		backoff.WithMaxTries(uint(p.MaxRetries+1)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)

	// The final attempt's error comes back still wrapped.
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return res, err
}
