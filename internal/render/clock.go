// SPDX-License-Identifier: MIT
package render

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"visualizer/internal/config"
	"visualizer/internal/log"
	"visualizer/internal/metrics"
	"visualizer/internal/spectrum"
)

// ClockOptions configures a Clock. Zero values select the defaults.
type ClockOptions struct {
	Interval time.Duration // Tick period; 0 means config.DefaultRenderInterval.
	Metrics  *metrics.Metrics
	Logger   *zerolog.Logger
}

// Clock is the render loop. It is the single reader of its cell.
type Clock struct {
	cell     *spectrum.Cell
	visual   *config.Visual
	renderer Renderer
	interval time.Duration
	metrics  *metrics.Metrics
	log      zerolog.Logger
	errLog   zerolog.Logger // log sampled to one line per second.

	mu       sync.Mutex    // Protects doneChan and running during Start/Stop.
	doneChan chan struct{} // Closed to stop the loop.
	exited   chan struct{} // Closed when the loop returns.
	stopOnce sync.Once

	// Loop-owned.
	lastEpoch uint64
	lastGen   uint64
	drawnOnce bool
}

// NewClock returns a stopped clock that forwards cell snapshots to renderer.
func NewClock(cell *spectrum.Cell, visual *config.Visual, renderer Renderer, opts ClockOptions) *Clock {
	c := &Clock{
		cell:     cell,
		visual:   visual,
		renderer: renderer,
		interval: opts.Interval,
		metrics:  opts.Metrics,
		}
	if c.interval <= 0 {
		c.interval = config.DefaultRenderInterval
	}
	if opts.Logger != nil {
		c.log = *opts.Logger
	} else {
		c.log = log.Component("clock")
	}
	c.errLog = c.log.Sample(&zerolog.BurstSampler{Burst: 1, Period: time.Second})
	return c
}

// Interval returns the tick period.
func (c *Clock) Interval() time.Duration { return c.interval }

// Start launches the render goroutine. Calling Start on a running clock is a
// no-op. A stopped clock cannot be restarted.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doneChan != nil {
		c.log.Warn().Msg("Start called but clock already started")
		return
	}

	c.doneChan = make(chan struct{})
	c.exited = make(chan struct{})
	done, exited := c.doneChan, c.exited

	go func() {
		defer close(exited)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		c.log.Debug().Dur("interval", c.interval).Msg("Render loop started")
		for {
			select {
			case <-ticker.C:
				// A Stop issued during the previous render wins over a pending tick.
				select {
				case <-done:
					c.log.Debug().Msg("Render loop stopped")
					return
				default:
				}
				c.tick()
			case <-done:
				c.log.Debug().Msg("Render loop stopped")
				return
			}
		}
	}()
}

// Stop signals the loop to exit and returns immediately, so it is safe to
// call from inside Render. A render in progress completes; no further tick
// starts. Use Wait to block until the loop has exited.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doneChan == nil {
		return
	}
	c.stopOnce.Do(func() { close(c.doneChan) })
}

// Wait blocks until the loop started by Start has exited. It returns
// immediately if the clock was never started.
func (c *Clock) Wait() {
	c.mu.Lock()
	exited := c.exited
	c.mu.Unlock()
	if exited != nil {
		<-exited
	}
}

// Close stops the clock and waits for the loop. It must not be called from
// inside Render.
func (c *Clock) Close() error {
	c.Stop()
	c.Wait()
	return nil
}

// tick forwards the latest snapshot. When nothing new was published the
// previous bars are drawn again unchanged.
func (c *Clock) tick() {
	snap := c.cell.Read()
	start, end := c.visual.Colors()

	fresh := !c.drawnOnce || snap.Epoch != c.lastEpoch || snap.Generation != c.lastGen
	c.lastEpoch = snap.Epoch
	c.lastGen = snap.Generation
	c.drawnOnce = true
	c.metrics.RenderTick(fresh)

	err := c.renderer.Render(Frame{
		Generation: snap.Generation,
		Bars:       snap.Bars,
		ColorStart: start,
		ColorEnd:   end,
		Fresh:      fresh,
	})
	if err != nil {
		c.metrics.RenderError()
		c.errLog.Warn().Err(err).Msg("Render failed")
	}
}
