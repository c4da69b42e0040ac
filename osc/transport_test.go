package osc

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newListeningDispatcher binds an ephemeral receive port and returns the
// dispatcher plus the port senders should target.
func newListeningDispatcher(t *testing.T) (*Dispatcher, int) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.ReceivePort = 0

	d, err := NewDispatcher(cfg)
	require.NoError(t, err)
	t.Cleanup(d.Shutdown)

	port := d.Stats().ReceivePort
	require.NotZero(t, port)
	return d, port
}

func TestSendReceiveEndToEnd(t *testing.T) {
	recv, port := newListeningDispatcher(t)

	var mu sync.Mutex
	var got []*Message
	recv.RegisterHandler("/synth/*", func(m *Message) {
		mu.Lock()
		got = append(got, m)
		mu.Unlock()
	})

	cfg := DefaultConfig()
	cfg.SendPort = port
	cfg.AutoStart = false
	send, err := NewDispatcher(cfg)
	require.NoError(t, err)
	t.Cleanup(send.Shutdown)

	send.Send("/synth/freq", int32(440), float32(0.8), "sine", true)

	require.Eventually(t, func() bool {
		recv.Pump()
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	m := got[0]
	assert.Equal(t, "/synth/freq", m.Address)
	require.Equal(t, 4, m.CountArguments())

	freq, err := m.Arguments[0].AsInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(440), freq)

	level, err := m.Arguments[1].AsFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(0.8), level)

	wave, err := m.Arguments[2].AsString()
	require.NoError(t, err)
	assert.Equal(t, "sine", wave)

	on, err := m.Arguments[3].AsBool()
	require.NoError(t, err)
	assert.True(t, on)
}

func TestConcurrentSenders(t *testing.T) {
	const senders = 8
	const perSender = 20

	recv, port := newListeningDispatcher(t)

	var mu sync.Mutex
	seq := make(map[int][]int) // sender -> sequence numbers in arrival order
	recv.RegisterGlobalHandler(func(m *Message) {
		var s, i int
		if _, err := fmt.Sscanf(m.Address, "/sender/%d/%d", &s, &i); err != nil {
			return
		}
		mu.Lock()
		seq[s] = append(seq[s], i)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for s := 0; s < senders; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()

			snd, err := NewSender("127.0.0.1", port, zerolog.Nop(), NewMetrics(prometheus.NewRegistry()))
			if err != nil {
				t.Error(err)
				return
			}
			defer snd.Close()

			for i := 0; i < perSender; i++ {
				snd.Send(NewMessage(fmt.Sprintf("/sender/%d/%d", s, i), int32(i)))
			}
		}(s)
	}
	wg.Wait()

	// UDP over loopback should not drop, but only eventual arrival of all
	// messages is asserted; cross-sender interleaving is unspecified.
	require.Eventually(t, func() bool {
		recv.Pump()
		mu.Lock()
		defer mu.Unlock()
		total := 0
		for _, v := range seq {
			total += len(v)
		}
		return total == senders*perSender
	}, 5*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for s := 0; s < senders; s++ {
		require.Len(t, seq[s], perSender, "sender %d", s)
		for i, v := range seq[s] {
			assert.Equal(t, i, v, "sender %d out of order", s)
		}
	}
}

func TestReceiverSurvivesMalformedDatagram(t *testing.T) {
	recv, port := newListeningDispatcher(t)

	var mu sync.Mutex
	var got int
	recv.RegisterGlobalHandler(func(*Message) {
		mu.Lock()
		got++
		mu.Unlock()
	})

	snd, err := NewSender("127.0.0.1", port, zerolog.Nop(), NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)
	defer snd.Close()

	// Raw garbage straight onto the socket, then a valid message. The
	// listener must shrug off the first and deliver the second.
	snd.mu.Lock()
	_, err = snd.conn.WriteToUDP([]byte("definitely not OSC"), snd.dest)
	snd.mu.Unlock()
	require.NoError(t, err)

	snd.Send(NewMessage("/after/garbage"))

	require.Eventually(t, func() bool {
		recv.Pump()
		mu.Lock()
		defer mu.Unlock()
		return got == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestReceiverStartStop(t *testing.T) {
	r := NewReceiver(0, func(*Message) {}, zerolog.Nop(), NewMetrics(prometheus.NewRegistry()))

	require.NoError(t, r.Start())
	assert.True(t, r.Listening())
	port := r.LocalPort()
	assert.NotZero(t, port)

	// Idempotent start keeps the same socket.
	require.NoError(t, r.Start())
	assert.Equal(t, port, r.LocalPort())

	r.Stop()
	assert.False(t, r.Listening())

	// Stop on a stopped receiver is a no-op.
	r.Stop()

	// Port can only change while stopped.
	require.NoError(t, r.SetPort(0))
	require.NoError(t, r.Start())
	assert.True(t, r.Listening())
	r.Stop()
}

func TestReceiverSetPortWhileRunning(t *testing.T) {
	r := NewReceiver(0, func(*Message) {}, zerolog.Nop(), NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, r.Start())
	defer r.Stop()

	require.Error(t, r.SetPort(9002))
}

func TestSenderRetarget(t *testing.T) {
	a, portA := newListeningDispatcher(t)
	b, portB := newListeningDispatcher(t)

	var mu sync.Mutex
	var gotA, gotB int
	a.RegisterGlobalHandler(func(*Message) { mu.Lock(); gotA++; mu.Unlock() })
	b.RegisterGlobalHandler(func(*Message) { mu.Lock(); gotB++; mu.Unlock() })

	snd, err := NewSender("127.0.0.1", portA, zerolog.Nop(), NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)
	defer snd.Close()

	snd.Send(NewMessage("/to/a"))
	require.NoError(t, snd.SetDestination("127.0.0.1", portB))
	snd.Send(NewMessage("/to/b"))

	require.Eventually(t, func() bool {
		a.Pump()
		b.Pump()
		mu.Lock()
		defer mu.Unlock()
		return gotA == 1 && gotB == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSendAfterCloseDoesNotPanic(t *testing.T) {
	snd, err := NewSender("127.0.0.1", 9000, zerolog.Nop(), NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)
	require.NoError(t, snd.Close())

	assert.False(t, snd.Connected())
	snd.Send(NewMessage("/nowhere")) // logged, not raised
}
