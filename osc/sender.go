package osc

import (
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
)

// Sender owns one outbound UDP socket and a repointable destination. The
// socket is unconnected, so SetDestination swaps the target without
// touching the socket itself. Delivery is fire-and-forget: Send logs
// failures and never returns them.
type Sender struct {
	mu   sync.Mutex
	conn *net.UDPConn
	dest *net.UDPAddr
	host string
	port int

	logger  zerolog.Logger
	metrics *Metrics
}

// NewSender opens the outbound socket and resolves the initial destination.
func NewSender(host string, port int, logger zerolog.Logger, metrics *Metrics) (*Sender, error) {
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, fmt.Errorf("NewSender: open socket: %w", err)
	}

	s := &Sender{
		conn:    conn,
		logger:  logger.With().Str("component", "sender").Logger(),
		metrics: metrics,
	}
	if err := s.SetDestination(host, port); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// SetDestination repoints the sender at a new host and port. In-flight
// datagrams to the old destination are unaffected.
func (s *Sender) SetDestination(host string, port int) error {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("SetDestination: resolve %s:%d: %w", host, port, err)
	}

	s.mu.Lock()
	s.dest = addr
	s.host = host
	s.port = port
	s.mu.Unlock()

	s.logger.Info().Str("host", host).Int("port", port).Msg("destination configured")
	return nil
}

// Send encodes the message and writes exactly one datagram. Encoding and
// socket failures are logged and counted, not raised; callers needing
// health visibility poll Dispatcher.Stats instead.
func (s *Sender) Send(msg *Message) {
	data, err := msg.MarshalBinary()
	if err != nil {
		s.metrics.SendErrors.Inc()
		s.logger.Error().Err(err).Str("address", msg.Address).Msg("encode failed")
		return
	}

	s.mu.Lock()
	conn, dest := s.conn, s.dest
	s.mu.Unlock()
	if conn == nil {
		s.metrics.SendErrors.Inc()
		s.logger.Warn().Str("address", msg.Address).Msg("send on closed sender")
		return
	}

	if _, err := conn.WriteToUDP(data, dest); err != nil {
		s.metrics.SendErrors.Inc()
		s.logger.Warn().Err(err).Str("address", msg.Address).Msg("send failed")
		return
	}
	s.metrics.MessagesSent.Inc()
}

// Connected reports whether the outbound socket is open.
func (s *Sender) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Destination returns the configured target.
func (s *Sender) Destination() (host string, port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.host, s.port
}

// Close releases the outbound socket.
func (s *Sender) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}
