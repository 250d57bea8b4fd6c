package broadcast

import (
	"math/rand"
	"time"
)

const (
	backoffBase = 250 * time.Millisecond
	backoffMax  = 30 * time.Second
)

// backoff produces a capped exponential schedule with equal jitter: the n-th
// delay falls in [d/2, d] where d = min(base*2^n, max). Retries never give
// up; an unreachable backbone degrades liveness, not safety.
type backoff struct {
	base     time.Duration
	max      time.Duration
	attempts int
	rng      *rand.Rand
}

func newBackoff(base, max time.Duration) *backoff {
	return &backoff{
		base: base,
		max:  max,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *backoff) Next() time.Duration {
	d := b.base << b.attempts
	if d <= 0 || d > b.max {
		d = b.max
	} else {
		b.attempts++
	}
	half := d / 2
	return half + time.Duration(b.rng.Int63n(int64(half)+1))
}

func (b *backoff) Reset() {
	b.attempts = 0
}
