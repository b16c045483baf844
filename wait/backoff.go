package wait

import "time"

// Backoff yields polling intervals that grow by Initial on each step and
// never exceed Max. A zero Max means a fixed interval.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration

	stepCount int
}

// Next returns the interval to wait before the next attempt.
func (b *Backoff) Next() time.Duration {
	b.stepCount++
	dur := b.Initial * time.Duration(b.stepCount)
	if b.Max <= 0 {
		return b.Initial
	}
	if dur > b.Max {
		return b.Max
	}
	return dur
}

// Reset starts the progression over.
func (b *Backoff) Reset() {
	b.stepCount = 0
}

// Steps returns how many intervals have been handed out.
func (b *Backoff) Steps() int {
	return b.stepCount
}
