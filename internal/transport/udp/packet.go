// SPDX-License-Identifier: MIT
package udp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"visualizer/internal/config"
)

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Magic             | [4]byte        | 4            | "VBAR"                  |
| Version           | uint8          | 1            | Packet format version   |
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Generation        | uint64         | 8            | Snapshot generation     |
| Color Start       | [3]uint8       | 3            | Gradient start RGB      |
| Color End         | [3]uint8       | 3            | Gradient end RGB        |
| Bar Count         | uint16         | 2            | Number of floats (N)    |
| Bars              | []float32      | N * 4        | Bar heights in [0, 1]   |
+-----------------------------------------------------------------------------+
*/

const (
	Magic      = "VBAR"
	Version    = 1
	HeaderSize = 4 + 1 + 4 + 8 + 8 + 3 + 3 + 2
)

var (
	ErrShortPacket = errors.New("packet too short")
	ErrBadMagic    = errors.New("not a bar packet")
	ErrBadVersion  = errors.New("unsupported packet version")
)

// Packet is a decoded bar packet.
type Packet struct {
	Sequence   uint32
	Timestamp  int64
	Generation uint64
	ColorStart config.RGB
	ColorEnd   config.RGB
	Bars       []float32
}

// PacketSize returns the encoded size of a packet carrying n bars.
func PacketSize(n int) int {
	return HeaderSize + 4*n
}

// AppendPacket encodes p onto dst and returns the extended slice. It does
// not allocate when dst has room for PacketSize(len(p.Bars)) more bytes.
func AppendPacket(dst []byte, p Packet) []byte {
	dst = append(dst, Magic...)
	dst = append(dst, Version)
	dst = binary.BigEndian.AppendUint32(dst, p.Sequence)
	dst = binary.BigEndian.AppendUint64(dst, uint64(p.Timestamp))
	dst = binary.BigEndian.AppendUint64(dst, p.Generation)
	dst = append(dst, p.ColorStart.R, p.ColorStart.G, p.ColorStart.B)
	dst = append(dst, p.ColorEnd.R, p.ColorEnd.G, p.ColorEnd.B)
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(p.Bars)))
	for _, v := range p.Bars {
		dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

// DecodePacket parses b. The returned Bars do not alias b.
func DecodePacket(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(b))
	}
	if string(b[:4]) != Magic {
		return Packet{}, ErrBadMagic
	}
	if b[4] != Version {
		return Packet{}, fmt.Errorf("%w: %d", ErrBadVersion, b[4])
	}

	p := Packet{
		Sequence:   binary.BigEndian.Uint32(b[5:]),
		Timestamp:  int64(binary.BigEndian.Uint64(b[9:])),
		Generation: binary.BigEndian.Uint64(b[17:]),
		ColorStart: config.RGB{R: b[25], G: b[26], B: b[27]},
		ColorEnd:   config.RGB{R: b[28], G: b[29], B: b[30]},
	}
	n := int(binary.BigEndian.Uint16(b[31:]))
	if len(b) < PacketSize(n) {
		return Packet{}, fmt.Errorf("%w: %d bars need %d bytes, have %d", ErrShortPacket, n, PacketSize(n), len(b))
	}

	p.Bars = make([]float32, n)
	for i := range p.Bars {
		p.Bars[i] = math.Float32frombits(binary.BigEndian.Uint32(b[HeaderSize+4*i:]))
	}
	return p, nil
}
