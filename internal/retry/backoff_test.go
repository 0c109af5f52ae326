package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() Policy {
	return Policy{
		Base:     time.Millisecond,
		Cap:      10 * time.Millisecond,
		Factor:   2.0,
		Attempts: 3,
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func() error {
		calls++
		return errors.New("persistent")
	})

	require.Error(t, err)
	assert.Equal(t, "persistent", err.Error())
	assert.Equal(t, 3, calls)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	p := Policy{
		Base:     time.Second,
		Cap:      time.Second,
		Factor:   2.0,
		Attempts: 5,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := p.Do(ctx, func() error {
		return errors.New("fail")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestDelayGrowsAndCaps(t *testing.T) {
	p := Policy{
		Base:     100 * time.Millisecond,
		Cap:      time.Second,
		Factor:   2.0,
		Attempts: 5,
	}

	assert.Equal(t, 100*time.Millisecond, p.Delay(1))
	assert.Equal(t, 200*time.Millisecond, p.Delay(2))
	assert.Equal(t, 400*time.Millisecond, p.Delay(3))
	assert.Equal(t, time.Second, p.Delay(10))
}

func TestDelayJitterStaysInRange(t *testing.T) {
	p := Policy{
		Base:     100 * time.Millisecond,
		Cap:      time.Second,
		Factor:   2.0,
		Attempts: 5,
		Jitter:   true,
	}

	for i := 0; i < 50; i++ {
		d := p.Delay(3)
		assert.GreaterOrEqual(t, d, 300*time.Millisecond)
		assert.LessOrEqual(t, d, 500*time.Millisecond)
	}
}
