package osc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type OptionFunc func(*options)

type options struct {
	logger     zerolog.Logger
	registerer prometheus.Registerer
}

func defaultOptions() *options {
	return &options{
		logger:     zerolog.Nop(),
		registerer: prometheus.NewRegistry(),
	}
}

// WithLogger injects the logger the dispatcher and both transports write
// their diagnostics to. Without it nothing is logged.
func WithLogger(logger zerolog.Logger) OptionFunc {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegisterer registers the dispatcher metrics with reg instead of a
// private throwaway registry.
func WithRegisterer(reg prometheus.Registerer) OptionFunc {
	return func(o *options) {
		o.registerer = reg
	}
}
