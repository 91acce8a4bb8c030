package source

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedDelayPacerZeroDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A non-positive delay never waits and never observes the context.
	assert.NoError(t, FixedDelayPacer{}.Pause(ctx))
	assert.NoError(t, FixedDelayPacer{Delay: -time.Second}.Pause(ctx))
}

func TestFixedDelayPacerWaits(t *testing.T) {
	start := time.Now()
	err := FixedDelayPacer{Delay: 10 * time.Millisecond}.Pause(context.Background())

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestFixedDelayPacerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := FixedDelayPacer{Delay: time.Minute}.Pause(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNopPacer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, NopPacer{}.Pause(ctx))
}
