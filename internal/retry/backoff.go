package retry

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Policy describes how a failing operation is retried: delays start at Base,
// grow by Factor each attempt, and never exceed Cap. Jitter spreads delays
// by up to +/-25% so concurrent callers don't retry in lockstep.
type Policy struct {
	Base     time.Duration
	Cap      time.Duration
	Factor   float64
	Attempts int
	Jitter   bool
}

// DefaultPolicy returns the policy used when no explicit configuration is
// given.
func DefaultPolicy() Policy {
	return Policy{
		Base:     100 * time.Millisecond,
		Cap:      30 * time.Second,
		Factor:   2.0,
		Attempts: 5,
		Jitter:   true,
	}
}

// Do runs op until it succeeds, the attempt budget is spent, or ctx is done.
// The last operation error is returned when all attempts fail.
func (p Policy) Do(ctx context.Context, op func() error) error {
	var lastErr error

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = op(); lastErr == nil {
			return nil
		}
		if attempt >= p.Attempts {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay(attempt)):
		}
	}
}

// Delay returns the pause taken after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	d := float64(p.Base)
	for i := 1; i < attempt && d < float64(p.Cap); i++ {
		d *= p.Factor
	}
	if d > float64(p.Cap) {
		d = float64(p.Cap)
	}

	if p.Jitter {
		// spread is in [-0.25, 0.25)
		spread := (randomUnit() - 0.5) / 2
		d += d * spread
		if d < float64(p.Base) {
			d = float64(p.Base)
		}
		if d > float64(p.Cap) {
			d = float64(p.Cap)
		}
	}

	return time.Duration(d)
}

// randomUnit draws a uniform value in [0, 1) from crypto/rand, falling back
// to the clock if the system source fails.
func randomUnit() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return float64(time.Now().UnixNano()%1e6) / 1e6
	}
	return float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53)
}
