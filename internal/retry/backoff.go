package retry

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v5"
)

var _ backoff.BackOff = (*ExponentialBackOff)(nil)

// ExponentialBackOff implements backoff.BackOff with the transient-fault
// schedule: retry n (counting from zero) waits
//
//	min(MaxBackoff, MinBackoff + (2^n - 1) * jitter(DeltaBackoff))
//
// where jitter picks uniformly in [0.8, 1.2] of the delta. The first retry
// therefore waits exactly MinBackoff and later waits never shrink.
type ExponentialBackOff struct {
	policy Policy
	rand   func() float64
	retry  int
}

// NewExponentialBackOff returns a backoff schedule for p.
func NewExponentialBackOff(p Policy) *ExponentialBackOff {
	return &ExponentialBackOff{policy: p.normalized(), rand: rand.Float64}
}

// NextBackOff returns the wait before the next retry.
func (b *ExponentialBackOff) NextBackOff() time.Duration {
	n := b.retry
	b.retry++

	delta := float64(b.policy.DeltaBackoff)
	jittered := delta*0.8 + b.rand()*delta*0.4
	grow := (math.Pow(2, float64(n)) - 1) * jittered

	interval := float64(b.policy.MinBackoff) + grow
	if interval > float64(b.policy.MaxBackoff) {
		return b.policy.MaxBackoff
	}
	return time.Duration(interval)
}

// Reset restarts the schedule from the first retry.
func (b *ExponentialBackOff) Reset() {
	b.retry = 0
}
