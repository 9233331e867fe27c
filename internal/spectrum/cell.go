// SPDX-License-Identifier: MIT
/*
Package spectrum implements the hand-off between the audio callback, which
produces bar arrays, and the render clock, which consumes them.

Cell is a triple buffer: the writer fills a private back buffer and swaps it
with the shared middle slot in one atomic operation; the reader swaps its
front buffer with the middle slot only when the writer has marked it dirty.
Neither side ever waits for the other and a reader never sees a buffer that
is still being written.

Cell has exactly one writer and one reader at a time. Reset is a writer
operation and must only be called once the producer has stopped.
*/
package spectrum

import (
	"sync/atomic"
)

// MaxBars is the largest bar array a Cell can carry.
const MaxBars = 512

const dirtyBit = 1 << 2

// Snapshot is one published bar array. Bars aliases memory owned by the Cell
// and is valid until the next Read on the same Cell; copy it to retain it.
// Epoch counts Resets, so a reader can tell a restarted generation sequence
// from the one it saw before.
type Snapshot struct {
	Epoch      uint64
	Generation uint64
	Bars       []float64
}

type slot struct {
	epoch      uint64
	generation uint64
	n          int
	bars       [MaxBars]float64
}

// Cell is the single-writer/single-reader exchange for spectrum snapshots.
type Cell struct {
	slots [3]slot

	// state holds the index of the middle slot and dirtyBit.
	state atomic.Uint32

	// Writer-owned.
	back       int
	epoch      uint64
	generation uint64

	// Reader-owned.
	front int
}

// NewCell returns an empty Cell whose Read yields generation 0 and no bars.
func NewCell() *Cell {
	c := &Cell{back: 0, front: 1}
	c.state.Store(2)
	return c
}

// Publish copies bars into the back buffer, stamps it with the next
// generation and exposes it to the reader. Bars beyond MaxBars are dropped.
// It returns the published generation. Publish never blocks or allocates.
func (c *Cell) Publish(bars []float64) uint64 {
	c.generation++
	c.write(bars, len(bars), c.generation)
	return c.generation
}

// Reset publishes n zeroed bars with generation 0 so the reader clears
// whatever it is showing. The generation counter restarts from zero and the
// epoch advances.
func (c *Cell) Reset(n int) {
	c.epoch++
	c.generation = 0
	c.write(nil, n, 0)
}

func (c *Cell) write(bars []float64, n int, generation uint64) {
	if n > MaxBars {
		n = MaxBars
	}
	if n < 0 {
		n = 0
	}

	s := &c.slots[c.back]
	copied := copy(s.bars[:n], bars)
	clear(s.bars[copied:n])
	s.n = n
	s.epoch = c.epoch
	s.generation = generation

	old := c.state.Swap(uint32(c.back) | dirtyBit)
	c.back = int(old &^ dirtyBit)
}

// Read returns the most recently published snapshot. If nothing new was
// published since the previous Read, the same snapshot is returned again.
func (c *Cell) Read() Snapshot {
	if c.state.Load()&dirtyBit != 0 {
		old := c.state.Swap(uint32(c.front))
		c.front = int(old &^ dirtyBit)
	}
	s := &c.slots[c.front]
	return Snapshot{Epoch: s.epoch, Generation: s.generation, Bars: s.bars[:s.n]}
}
