package udp

import (
	"time"

	"github.com/rs/zerolog"

	"visualizer/internal/log"
	"visualizer/internal/render"
	"visualizer/internal/spectrum"
)

// PacketSender is the datagram side of a Renderer.
type PacketSender interface {
	Send(data []byte) error
	Close() error
}

// Renderer packs every frame into a bar packet and sends it. Stale frames
// are sent too so listeners can detect a live but silent stream.
type Renderer struct {
	sender PacketSender
	log    zerolog.Logger
	now    func() time.Time

	sequenceNum uint32 // Monotonically increasing sequence number for packets.

	// Pre-allocated buffers to avoid allocations on each tick.
	f32Buffer    []float32
	packetBuffer []byte
}

// NewRenderer sends through sender.
func NewRenderer(sender PacketSender) *Renderer {
	return &Renderer{
		sender:       sender,
		log:          log.Component("udp"),
		now:          time.Now,
		f32Buffer:    make([]float32, spectrum.MaxBars),
		packetBuffer: make([]byte, 0, PacketSize(spectrum.MaxBars)),
	}
}

// Render implements render.Renderer.
func (r *Renderer) Render(f render.Frame) error {
	bars := r.f32Buffer[:min(len(f.Bars), len(r.f32Buffer))]
	for i := range bars {
		bars[i] = float32(f.Bars[i])
	}

	r.sequenceNum++
	r.packetBuffer = AppendPacket(r.packetBuffer[:0], Packet{
		Sequence:   r.sequenceNum,
		Timestamp:  r.now().UnixNano(),
		Generation: f.Generation,
		ColorStart: f.ColorStart,
		ColorEnd:   f.ColorEnd,
		Bars:       bars,
	})

	if err := r.sender.Send(r.packetBuffer); err != nil {
		return err
	}
	if f.Fresh {
		r.log.Debug().Uint32("seq", r.sequenceNum).Int("bytes", len(r.packetBuffer)).Msg("Sent packet")
	}
	return nil
}

// Close implements the io.Closer interface. It closes the sender.
func (r *Renderer) Close() error {
	return r.sender.Close()
}

// Ensure Renderer satisfies render.Renderer at compile time.
var _ render.Renderer = (*Renderer)(nil)
