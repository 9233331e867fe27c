// SPDX-License-Identifier: MIT
package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const (
	testSampleRate = 44100
	testFrameSize  = 256
)

func testRecordingConfig(channels int) StreamConfig {
	return StreamConfig{
		Device:     Device{ID: 1, Name: "Stereo Mix"},
		Channels:   channels,
		SampleRate: testSampleRate,
		BlockSize:  testFrameSize,
	}
}

func rampBlock(n int, offset int16) []int16 {
	block := make([]int16, n)
	for i := range block {
		block[i] = int16(i) + offset
	}
	return block
}

func TestRecorderWritesWAV(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "nested", "tap.wav")
	cfg := testRecordingConfig(2)

	r, err := NewRecorder(path, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, path, r.Path())

	const blocks = 4
	for i := range blocks {
		require.True(t, r.Write(rampBlock(testFrameSize*2, int16(i))), "block %d dropped", i)
	}
	require.NoError(t, r.Close())
	assert.Equal(t, uint64(blocks), r.Written())
	assert.Zero(t, r.Dropped())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile(), "recording should be a valid WAV file")
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, uint16(2), dec.NumChans)
	assert.Equal(t, uint32(testSampleRate), dec.SampleRate)
	assert.Equal(t, uint16(16), dec.BitDepth)
	require.Len(t, buf.Data, blocks*testFrameSize*2)
	assert.Equal(t, 0, buf.Data[0])
	assert.Equal(t, 1, buf.Data[1])
	assert.Equal(t, 3, buf.Data[2*testFrameSize*2+1], "third block starts at offset 2")
}

func TestRecorderCloseIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, err := NewRecorder(filepath.Join(t.TempDir(), "tap.wav"), testRecordingConfig(1), nil)
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.False(t, r.Write(rampBlock(testFrameSize, 0)), "write after close must be refused")
}

func TestRecorderDropsWhenPoolExhausted(t *testing.T) {
	r := &Recorder{
		free:  make(chan []int16), // No buffers available.
		queue: make(chan []int16, 1),
	}

	assert.False(t, r.Write(rampBlock(8, 0)))
	assert.False(t, r.Write(rampBlock(8, 0)))
	assert.Equal(t, uint64(2), r.Dropped())
}

func TestNewRecorderErrors(t *testing.T) {
	_, err := NewRecorder(filepath.Join(t.TempDir(), "tap.wav"), StreamConfig{}, nil)
	assert.ErrorIs(t, err, ErrInvalidStreamConfig)

	// A directory where the file should be.
	dir := t.TempDir()
	_, err = NewRecorder(dir, testRecordingConfig(1), nil)
	assert.Error(t, err)
}

func TestRecorderWriteZeroAllocs(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, err := NewRecorder(filepath.Join(t.TempDir(), "tap.wav"), testRecordingConfig(2), nil)
	require.NoError(t, err)
	defer r.Close()

	block := rampBlock(testFrameSize*2, 0)
	allocs := testing.AllocsPerRun(10, func() {
		r.Write(block)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Recorder.Write, got %.1f", allocs)
	}
}
