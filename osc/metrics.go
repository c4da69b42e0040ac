package osc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for one Dispatcher. They are
// registered against the registerer handed to NewMetrics, so two
// dispatchers in one process need separate registerers.
type Metrics struct {
	PacketsReceived    prometheus.Counter
	DecodeErrors       prometheus.Counter
	MessagesDispatched prometheus.Counter
	MessagesSent       prometheus.Counter
	SendErrors         prometheus.Counter
	HandlerPanics      prometheus.Counter
	QueueDepth         prometheus.Gauge
}

// NewMetrics creates and registers all metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PacketsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "osc_packets_received_total",
			Help: "Total number of UDP datagrams received",
		}),
		DecodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "osc_decode_errors_total",
			Help: "Total number of datagrams that failed decoding",
		}),
		MessagesDispatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "osc_messages_dispatched_total",
			Help: "Total number of messages drained and dispatched by the pump",
		}),
		MessagesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "osc_messages_sent_total",
			Help: "Total number of messages written to the outbound socket",
		}),
		SendErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "osc_send_errors_total",
			Help: "Total number of failed encode or socket writes on the send path",
		}),
		HandlerPanics: factory.NewCounter(prometheus.CounterOpts{
			Name: "osc_handler_panics_total",
			Help: "Total number of panics recovered from message handlers",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "osc_arrival_queue_depth",
			Help: "Current number of decoded messages waiting for the pump",
		}),
	}
}
