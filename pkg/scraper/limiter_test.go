package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacerPacesEveryWait(t *testing.T) {
	interval := 60 * time.Millisecond
	p := NewPacer(interval)

	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	first := time.Since(start)
	// the first fetch is paced as well
	assert.GreaterOrEqual(t, first, interval-10*time.Millisecond)

	times := []time.Time{}
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(context.Background()))
		times = append(times, time.Now())
	}
	for i := 1; i < len(times); i++ {
		assert.GreaterOrEqual(t, times[i].Sub(times[i-1]), interval-10*time.Millisecond)
	}
}

func TestPacerDisabled(t *testing.T) {
	p := NewPacer(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestPacerCancelled(t *testing.T) {
	p := NewPacer(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Error(t, p.Wait(ctx))
}

func TestPacerReset(t *testing.T) {
	interval := 60 * time.Millisecond
	p := NewPacer(interval)
	require.NoError(t, p.Wait(context.Background()))

	// let a token accumulate, then throw it away
	time.Sleep(2 * interval)
	p.Reset()

	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), interval-10*time.Millisecond)
}

func TestPacerResetDisabled(t *testing.T) {
	p := NewPacer(0)
	p.Reset()
	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}
