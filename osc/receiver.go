package osc

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// stopTimeout bounds how long Stop waits for the receive loop to exit.
const stopTimeout = time.Second

// Receiver owns one inbound UDP socket and exactly one goroutine running a
// blocking receive loop. Decoded messages are handed to the deliver
// callback on the receive goroutine; closing the socket is the only
// cancellation mechanism.
type Receiver struct {
	mu      sync.Mutex
	conn    *net.UDPConn
	port    int
	done    chan struct{}
	running atomic.Bool

	deliver func(*Message)
	logger  zerolog.Logger
	metrics *Metrics
}

// NewReceiver returns a stopped receiver for the given local port. The
// socket is bound on Start.
func NewReceiver(port int, deliver func(*Message), logger zerolog.Logger, metrics *Metrics) *Receiver {
	return &Receiver{
		port:    port,
		deliver: deliver,
		logger:  logger.With().Str("component", "receiver").Logger(),
		metrics: metrics,
	}
}

// Start binds the socket and launches the receive loop. Starting an already
// running receiver is a no-op.
func (r *Receiver) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running.Load() {
		return nil
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: r.port})
	if err != nil {
		return fmt.Errorf("Start: bind port %d: %w", r.port, err)
	}

	r.conn = conn
	r.done = make(chan struct{})
	r.running.Store(true)
	go r.loop(conn, r.done)

	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		r.logger.Info().Int("port", addr.Port).Msg("listening")
	}
	return nil
}

// Stop closes the socket to unblock the loop and waits up to stopTimeout
// for it to exit. It returns regardless of whether the goroutine has
// actually finished, to bound shutdown latency.
func (r *Receiver) Stop() {
	r.mu.Lock()
	if !r.running.Load() {
		r.mu.Unlock()
		return
	}
	r.running.Store(false)
	conn, done := r.conn, r.done
	r.conn = nil
	r.mu.Unlock()

	conn.Close()

	select {
	case <-done:
	case <-time.After(stopTimeout):
		r.logger.Warn().Msg("receive loop did not exit within timeout")
	}
	r.logger.Info().Msg("stopped")
}

// SetPort changes the local port for the next Start. The receiver must be
// stopped first.
func (r *Receiver) SetPort(port int) error {
	if r.running.Load() {
		return fmt.Errorf("SetPort: receiver is running, stop it first")
	}
	r.mu.Lock()
	r.port = port
	r.mu.Unlock()
	return nil
}

// Listening reports whether the receive loop is active.
func (r *Receiver) Listening() bool {
	return r.running.Load()
}

// LocalPort returns the actually bound port while listening (which differs
// from the configured one when binding port 0), or the configured port.
func (r *Receiver) LocalPort() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		if addr, ok := r.conn.LocalAddr().(*net.UDPAddr); ok {
			return addr.Port
		}
	}
	return r.port
}

// loop blocks on the socket, decodes each datagram and forwards it. Decode
// and transient socket errors are logged and the loop moves on; only a
// closed socket ends it.
func (r *Receiver) loop(conn *net.UDPConn, done chan struct{}) {
	defer close(done)

	buf := make([]byte, MaxPacketSize)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if !r.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			r.logger.Warn().Err(err).Msg("read failed")
			continue
		}
		r.metrics.PacketsReceived.Inc()

		msg := &Message{}
		if err := msg.UnmarshalBinary(buf[:n]); err != nil {
			r.metrics.DecodeErrors.Inc()
			r.logger.Warn().Err(err).Stringer("from", addr).Msg("dropping malformed datagram")
			continue
		}

		r.deliver(msg)
	}
}
