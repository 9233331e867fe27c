package udp

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"visualizer/internal/log"
)

// ErrSenderClosed is returned by Send after Close.
var ErrSenderClosed = errors.New("UDP sender is closed")

// UDPSender writes datagrams to one connected target.
type UDPSender struct {
	target *net.UDPAddr
	log    zerolog.Logger

	mu   sync.Mutex // Guards conn against a concurrent Close.
	conn *net.UDPConn
}

// NewUDPSender dials targetAddress ("host:port"). No local port is bound
// explicitly.
func NewUDPSender(targetAddress string) (*UDPSender, error) {
	addr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address '%s': %w", targetAddress, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP for target '%s': %w", targetAddress, err)
	}

	s := &UDPSender{target: addr, conn: conn, log: log.Component("udp")}
	s.log.Info().Str("target", addr.String()).Msg("UDP sender connected")
	return s, nil
}

// Target returns the resolved destination.
func (s *UDPSender) Target() *net.UDPAddr { return s.target }

// Send writes data as a single datagram.
func (s *UDPSender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrSenderClosed
	}
	if _, err := s.conn.Write(data); err != nil {
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	return nil
}

// Close releases the connection. Further calls are no-ops.
func (s *UDPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}

	s.log.Info().Str("target", s.target.String()).Msg("Closing UDP connection")
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close UDP connection: %w", err)
	}
	return nil
}

var _ PacketSender = (*UDPSender)(nil)
