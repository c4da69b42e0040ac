package osc

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Handler is a callback invoked for messages whose address matches the
// pattern it was registered under. Handlers run on whichever goroutine
// calls Pump, never on the network goroutine.
type Handler func(*Message)

// HandlerID identifies one registration so it can be removed again; Go
// func values are not comparable, so unregistration is by token.
type HandlerID uint64

type handlerEntry struct {
	id HandlerID
	fn Handler
}

// Stats is a point-in-time snapshot of the dispatcher state.
type Stats struct {
	SenderConnected   bool   `json:"sender_connected"`
	ReceiverListening bool   `json:"receiver_listening"`
	SendHost          string `json:"send_host"`
	SendPort          int    `json:"send_port"`
	ReceivePort       int    `json:"receive_port"`
	HandlerPatterns   int    `json:"handler_patterns"`
}

// Dispatcher is the central coordinator: it owns the sender, the receiver,
// the arrival queue and the handler registry, and bridges network-goroutine
// arrivals to handler invocations on the host's pump goroutine.
//
// The host contract: construct once, call Pump on a regular cadence from
// one consistent goroutine, call Shutdown on exit.
type Dispatcher struct {
	logger  zerolog.Logger
	metrics *Metrics

	sender   *Sender
	receiver *Receiver
	queue    *arrivalQueue
	match    *matcher

	mu       sync.Mutex
	patterns map[string][]handlerEntry
	order    []string // pattern registration order
	global   []handlerEntry
	nextID   HandlerID
	shut     bool
}

// NewDispatcher builds the sender and receiver from cfg and, when
// cfg.AutoStart is set, begins listening.
func NewDispatcher(cfg Config, opts ...OptionFunc) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("NewDispatcher: %w", err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	d := &Dispatcher{
		logger:   o.logger.With().Str("component", "dispatcher").Logger(),
		metrics:  NewMetrics(o.registerer),
		queue:    &arrivalQueue{},
		match:    newMatcher(),
		patterns: make(map[string][]handlerEntry),
	}

	sender, err := NewSender(cfg.SendHost, cfg.SendPort, o.logger, d.metrics)
	if err != nil {
		return nil, fmt.Errorf("NewDispatcher: %w", err)
	}
	d.sender = sender
	d.receiver = NewReceiver(cfg.ReceivePort, d.enqueue, o.logger, d.metrics)

	if cfg.AutoStart {
		if err := d.receiver.Start(); err != nil {
			sender.Close()
			return nil, fmt.Errorf("NewDispatcher: %w", err)
		}
	}

	return d, nil
}

// enqueue runs on the receive goroutine.
func (d *Dispatcher) enqueue(msg *Message) {
	d.mu.Lock()
	shut := d.shut
	d.mu.Unlock()
	if shut {
		return
	}

	d.queue.push(msg)
	d.metrics.QueueDepth.Set(float64(d.queue.len()))
}

// Send builds a message from the address and arguments and sends it.
func (d *Dispatcher) Send(addr string, args ...interface{}) {
	d.SendMessage(NewMessage(addr, args...))
}

// SendMessage encodes msg and writes one datagram to the configured
// destination. Best-effort: failures are logged, not returned.
func (d *Dispatcher) SendMessage(msg *Message) {
	d.sender.Send(msg)
}

// RegisterHandler appends fn to the pattern's handler list, creating the
// pattern entry if it is new, and returns the token for unregistration.
func (d *Dispatcher) RegisterHandler(pattern string, fn Handler) HandlerID {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	if _, ok := d.patterns[pattern]; !ok {
		d.order = append(d.order, pattern)
	}
	d.patterns[pattern] = append(d.patterns[pattern], handlerEntry{id: id, fn: fn})

	d.logger.Info().Str("pattern", pattern).Uint64("handler_id", uint64(id)).Msg("handler registered")
	return id
}

// UnregisterHandler removes the handler registered under pattern with the
// given token. The pattern entry is dropped once its list is empty.
func (d *Dispatcher) UnregisterHandler(pattern string, id HandlerID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries := removeEntry(d.patterns[pattern], id)
	if len(entries) == 0 {
		delete(d.patterns, pattern)
		for i, p := range d.order {
			if p == pattern {
				d.order = append(d.order[:i], d.order[i+1:]...)
				break
			}
		}
		return
	}
	d.patterns[pattern] = entries
}

// RegisterGlobalHandler appends fn to the catch-all list; it receives every
// decoded message regardless of address.
func (d *Dispatcher) RegisterGlobalHandler(fn Handler) HandlerID {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	d.global = append(d.global, handlerEntry{id: id, fn: fn})

	d.logger.Info().Uint64("handler_id", uint64(id)).Msg("global handler registered")
	return id
}

// UnregisterGlobalHandler removes a catch-all handler.
func (d *Dispatcher) UnregisterGlobalHandler(id HandlerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.global = removeEntry(d.global, id)
}

func removeEntry(entries []handlerEntry, id HandlerID) []handlerEntry {
	for i, e := range entries {
		if e.id == id {
			return append(entries[:i], entries[i+1:]...)
		}
	}
	return entries
}

// ConfigureSender repoints the outbound destination. Registered handlers
// are untouched.
func (d *Dispatcher) ConfigureSender(host string, port int) error {
	return d.sender.SetDestination(host, port)
}

// ConfigureReceiver rebinds the inbound socket to a new port. Listening is
// resumed only if the receiver was listening before the call.
func (d *Dispatcher) ConfigureReceiver(port int) error {
	wasListening := d.receiver.Listening()
	if wasListening {
		d.receiver.Stop()
	}
	if err := d.receiver.SetPort(port); err != nil {
		return fmt.Errorf("ConfigureReceiver: %w", err)
	}
	if wasListening {
		if err := d.receiver.Start(); err != nil {
			return fmt.Errorf("ConfigureReceiver: %w", err)
		}
	}
	return nil
}

// StartReceiving begins listening; a no-op when already listening.
func (d *Dispatcher) StartReceiving() error {
	return d.receiver.Start()
}

// StopReceiving stops the receive loop.
func (d *Dispatcher) StopReceiving() {
	d.receiver.Stop()
}

// Pump drains the arrival queue in FIFO order and dispatches every drained
// message: global handlers first, then the handlers of each matching
// pattern in registration order. The host calls this on its own schedule;
// handlers only ever run here.
func (d *Dispatcher) Pump() {
	msgs := d.queue.drain()
	if len(msgs) == 0 {
		return
	}
	d.metrics.QueueDepth.Set(0)

	// Snapshot the registry so register/unregister from other goroutines
	// cannot race the iteration below.
	d.mu.Lock()
	if d.shut {
		d.mu.Unlock()
		return
	}
	global := append([]handlerEntry(nil), d.global...)
	order := append([]string(nil), d.order...)
	patterns := make(map[string][]handlerEntry, len(d.patterns))
	for p, entries := range d.patterns {
		patterns[p] = append([]handlerEntry(nil), entries...)
	}
	d.mu.Unlock()

	for _, msg := range msgs {
		d.metrics.MessagesDispatched.Inc()

		for _, e := range global {
			d.invoke(e, msg)
		}
		for _, pattern := range order {
			if !d.match.match(pattern, msg.Address) {
				continue
			}
			for _, e := range patterns[pattern] {
				d.invoke(e, msg)
			}
		}
	}
}

// invoke runs one handler with panic isolation: a panicking handler is
// logged and counted, and dispatch continues with the next one.
func (d *Dispatcher) invoke(e handlerEntry, msg *Message) {
	defer func() {
		if err := recover(); err != nil {
			d.metrics.HandlerPanics.Inc()
			d.logger.Error().
				Uint64("handler_id", uint64(e.id)).
				Str("address", msg.Address).
				Interface("panic", err).
				Msg("handler panicked")
		}
	}()
	e.fn(msg)
}

// Stats returns a snapshot of the dispatcher state.
func (d *Dispatcher) Stats() Stats {
	host, port := d.sender.Destination()

	d.mu.Lock()
	patternCount := len(d.patterns)
	d.mu.Unlock()

	return Stats{
		SenderConnected:   d.sender.Connected(),
		ReceiverListening: d.receiver.Listening(),
		SendHost:          host,
		SendPort:          port,
		ReceivePort:       d.receiver.LocalPort(),
		HandlerPatterns:   patternCount,
	}
}

// Shutdown stops the receiver, closes the sender, clears the registry and
// discards anything left in the arrival queue. No handler runs after
// Shutdown returns, even for datagrams that were in flight.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	if d.shut {
		d.mu.Unlock()
		return
	}
	d.shut = true
	d.patterns = make(map[string][]handlerEntry)
	d.order = nil
	d.global = nil
	d.mu.Unlock()

	d.receiver.Stop()
	if err := d.sender.Close(); err != nil {
		d.logger.Warn().Err(err).Msg("closing sender")
	}

	dropped := len(d.queue.drain())
	d.metrics.QueueDepth.Set(0)
	d.logger.Info().Int("dropped", dropped).Msg("dispatcher shut down")
}
