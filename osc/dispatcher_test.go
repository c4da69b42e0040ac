package osc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDispatcher builds a dispatcher that binds ephemeral ports and does
// not listen unless the test starts it.
func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()

	cfg := DefaultConfig()
	cfg.ReceivePort = 0
	cfg.AutoStart = false

	d, err := NewDispatcher(cfg)
	require.NoError(t, err)
	t.Cleanup(d.Shutdown)
	return d
}

func (d *Dispatcher) injectAndPump(msgs ...*Message) {
	for _, m := range msgs {
		d.enqueue(m)
	}
	d.Pump()
}

func TestDispatchOrderingAndFanout(t *testing.T) {
	d := newTestDispatcher(t)

	var calls []string
	d.RegisterHandler("/a", func(*Message) { calls = append(calls, "h1") })
	d.RegisterHandler("/a", func(*Message) { calls = append(calls, "h2") })
	d.RegisterGlobalHandler(func(*Message) { calls = append(calls, "global") })

	d.injectAndPump(NewMessage("/a"))

	// Globals first, then pattern handlers in registration order.
	assert.Equal(t, []string{"global", "h1", "h2"}, calls)
}

func TestDispatchPanicIsolation(t *testing.T) {
	d := newTestDispatcher(t)

	var calls []string
	d.RegisterHandler("/a", func(*Message) { panic("h1 blew up") })
	d.RegisterHandler("/a", func(*Message) { calls = append(calls, "h2") })
	d.RegisterHandler("*", func(*Message) { calls = append(calls, "wildcard") })

	d.injectAndPump(NewMessage("/a"))

	assert.Equal(t, []string{"h2", "wildcard"}, calls)
}

func TestDispatchPatternMatching(t *testing.T) {
	d := newTestDispatcher(t)

	var got []string
	d.RegisterHandler("/input/button/*", func(m *Message) { got = append(got, m.Address) })

	d.injectAndPump(
		NewMessage("/input/button/1"),
		NewMessage("/input/button/2"),
		NewMessage("/input/axis/1"),
		NewMessage("/input/button/1/held"),
	)

	assert.Equal(t, []string{"/input/button/1", "/input/button/2"}, got)
}

func TestDispatchFIFO(t *testing.T) {
	d := newTestDispatcher(t)

	var got []int32
	d.RegisterGlobalHandler(func(m *Message) {
		v, err := m.Arguments[0].AsInt32()
		require.NoError(t, err)
		got = append(got, v)
	})

	d.injectAndPump(NewMessage("/n", int32(1)), NewMessage("/n", int32(2)), NewMessage("/n", int32(3)))

	assert.Equal(t, []int32{1, 2, 3}, got)
}

func TestUnregisterHandler(t *testing.T) {
	d := newTestDispatcher(t)

	var calls int
	id1 := d.RegisterHandler("/a", func(*Message) { calls++ })
	d.RegisterHandler("/a", func(*Message) { calls++ })
	assert.Equal(t, 1, d.Stats().HandlerPatterns)

	d.UnregisterHandler("/a", id1)
	d.injectAndPump(NewMessage("/a"))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, d.Stats().HandlerPatterns)

	// Dropping the last handler drops the pattern entry too.
	d.mu.Lock()
	entries := d.patterns["/a"]
	d.mu.Unlock()
	require.Len(t, entries, 1)
	d.UnregisterHandler("/a", entries[0].id)
	assert.Zero(t, d.Stats().HandlerPatterns)
}

func TestUnregisterGlobalHandler(t *testing.T) {
	d := newTestDispatcher(t)

	var calls int
	id := d.RegisterGlobalHandler(func(*Message) { calls++ })
	d.UnregisterGlobalHandler(id)

	d.injectAndPump(NewMessage("/anything"))
	assert.Zero(t, calls)
}

func TestRegisterDuringPumpDoesNotRace(t *testing.T) {
	d := newTestDispatcher(t)

	d.RegisterGlobalHandler(func(*Message) {
		// Mutating the registry from a handler must not corrupt the
		// in-flight dispatch pass.
		d.RegisterHandler("/late", func(*Message) {})
	})

	d.injectAndPump(NewMessage("/a"), NewMessage("/b"))
	assert.Equal(t, 1, d.Stats().HandlerPatterns)
}

func TestStatsSnapshot(t *testing.T) {
	d := newTestDispatcher(t)

	stats := d.Stats()
	assert.True(t, stats.SenderConnected)
	assert.False(t, stats.ReceiverListening)
	assert.Equal(t, "127.0.0.1", stats.SendHost)
	assert.Equal(t, 9000, stats.SendPort)
	assert.Zero(t, stats.HandlerPatterns)

	require.NoError(t, d.ConfigureSender("127.0.0.1", 9100))
	d.RegisterHandler("/a", func(*Message) {})

	stats = d.Stats()
	assert.Equal(t, 9100, stats.SendPort)
	assert.Equal(t, 1, stats.HandlerPatterns)

	require.NoError(t, d.StartReceiving())
	stats = d.Stats()
	assert.True(t, stats.ReceiverListening)
	assert.NotZero(t, stats.ReceivePort, "bound port should be resolved")
}

func TestConfigureReceiverPreservesHandlers(t *testing.T) {
	d := newTestDispatcher(t)
	require.NoError(t, d.StartReceiving())

	d.RegisterHandler("/keep", func(*Message) {})
	require.NoError(t, d.ConfigureReceiver(0))

	assert.True(t, d.Stats().ReceiverListening, "listening resumes after rebind")
	assert.Equal(t, 1, d.Stats().HandlerPatterns)
}

func TestShutdownStopsDispatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReceivePort = 0
	cfg.AutoStart = false

	d, err := NewDispatcher(cfg)
	require.NoError(t, err)

	var calls int
	d.RegisterHandler("/a", func(*Message) { calls++ })
	d.enqueue(NewMessage("/a"))

	d.Shutdown()

	// Neither queued nor late-arriving messages reach handlers.
	d.enqueue(NewMessage("/a"))
	d.Pump()
	assert.Zero(t, calls)

	stats := d.Stats()
	assert.False(t, stats.SenderConnected)
	assert.False(t, stats.ReceiverListening)
	assert.Zero(t, stats.HandlerPatterns)

	// Shutdown is idempotent.
	d.Shutdown()
}

func TestNewDispatcherRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SendPort = -1
	_, err := NewDispatcher(cfg)
	require.Error(t, err)
}
