// SPDX-License-Identifier: MIT
package spectrum

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCellReadsEmpty(t *testing.T) {
	c := NewCell()
	snap := c.Read()
	assert.Equal(t, uint64(0), snap.Generation)
	assert.Empty(t, snap.Bars)
}

func TestPublishRead(t *testing.T) {
	c := NewCell()

	gen := c.Publish([]float64{0.1, 0.2, 0.3})
	assert.Equal(t, uint64(1), gen)

	snap := c.Read()
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, snap.Bars)

	// No new publish: same snapshot again.
	again := c.Read()
	assert.Equal(t, snap.Generation, again.Generation)
	assert.Equal(t, snap.Bars, again.Bars)
}

func TestReadSeesLatestOnly(t *testing.T) {
	c := NewCell()
	c.Publish([]float64{1})
	c.Publish([]float64{2})
	c.Publish([]float64{3})

	snap := c.Read()
	assert.Equal(t, uint64(3), snap.Generation)
	assert.Equal(t, []float64{3}, snap.Bars)
}

func TestGenerationIncreasesOncePerPublish(t *testing.T) {
	c := NewCell()
	var last uint64
	for i := 1; i <= 100; i++ {
		c.Publish([]float64{float64(i)})
		snap := c.Read()
		require.Equal(t, last+1, snap.Generation)
		last = snap.Generation
	}
}

func TestResetZeroesAndRestartsGeneration(t *testing.T) {
	c := NewCell()
	c.Publish([]float64{0.5, 0.9, 1})
	c.Read()

	c.Reset(3)
	snap := c.Read()
	assert.Equal(t, uint64(0), snap.Generation)
	assert.Equal(t, []float64{0, 0, 0}, snap.Bars)

	assert.Equal(t, uint64(1), c.Publish([]float64{0.2}))
}

func TestResetAdvancesEpoch(t *testing.T) {
	c := NewCell()
	c.Publish([]float64{0.5, 0.5})
	before := c.Read()
	assert.Equal(t, uint64(0), before.Epoch)

	c.Reset(2)
	c.Publish([]float64{0.9, 0.1})
	after := c.Read()

	// Same generation as before the Reset, told apart by the epoch.
	assert.Equal(t, before.Generation, after.Generation)
	assert.Equal(t, uint64(1), after.Epoch)
	assert.Equal(t, []float64{0.9, 0.1}, after.Bars)
}

func TestResetTwiceIsStable(t *testing.T) {
	c := NewCell()
	c.Publish([]float64{0.7, 0.7})
	c.Reset(2)
	first := c.Read()
	firstBars := append([]float64(nil), first.Bars...)
	c.Reset(2)
	second := c.Read()

	assert.Equal(t, first.Generation, second.Generation)
	assert.Equal(t, firstBars, second.Bars)
}

func TestPublishTruncatesToMaxBars(t *testing.T) {
	c := NewCell()
	c.Publish(make([]float64, MaxBars+10))
	assert.Len(t, c.Read().Bars, MaxBars)
}

func TestPublishReadZeroAllocs(t *testing.T) {
	c := NewCell()
	bars := make([]float64, 50)
	allocs := testing.AllocsPerRun(100, func() {
		c.Publish(bars)
		_ = c.Read()
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Publish/Read, got %.1f", allocs)
	}
}

// TestConcurrentNoTearing publishes arrays whose every element equals the
// generation; a torn read would mix values.
func TestConcurrentNoTearing(t *testing.T) {
	c := NewCell()
	const publishes = 20000
	const n = 64

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		bars := make([]float64, n)
		for i := 1; i <= publishes; i++ {
			for j := range bars {
				bars[j] = float64(i)
			}
			c.Publish(bars)
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var last uint64
	for {
		snap := c.Read()
		require.GreaterOrEqual(t, snap.Generation, last, "generation went backwards")
		last = snap.Generation
		for _, v := range snap.Bars {
			require.Equal(t, float64(snap.Generation), v, "torn snapshot")
		}
		select {
		case <-done:
			final := c.Read()
			assert.Equal(t, uint64(publishes), final.Generation)
			return
		default:
		}
	}
}
