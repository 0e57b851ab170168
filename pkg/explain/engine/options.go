package engine

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adRise/choco-solver/internal/metrics"
	"github.com/adRise/choco-solver/pkg/explain"
)

const defaultCapacity = 1024

type Option func(e *Engine) error

// WithLogger sets the logger of the engine. V(1) reports every
// explanation, V(2) every matched trail event.
func WithLogger(log logr.Logger) Option {
	return func(e *Engine) error {
		e.log = log
		return nil
	}
}

func WithTracer(t explain.Tracer) Option {
	return func(e *Engine) error {
		if t == nil {
			return errors.New("nil tracer")
		}
		e.tracer = t
		return nil
	}
}

// WithMetrics registers the engine collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(e *Engine) error {
		e.metrics = metrics.New(reg)
		return nil
	}
}

// WithNogoodRecording makes every stored refutation a nogood that
// Refuted can be queried against.
func WithNogoodRecording() Option {
	return func(e *Engine) error {
		e.recordNogoods = true
		return nil
	}
}

// WithInitialCapacity sets the number of trail events allocated upfront.
func WithInitialCapacity(n int) Option {
	return func(e *Engine) error {
		if n < 0 {
			return fmt.Errorf("negative trail capacity %d", n)
		}
		e.capacity = n
		return nil
	}
}

var defaults = []Option{
	func(e *Engine) error {
		if e.log.GetSink() == nil {
			e.log = logr.Discard()
		}
		return nil
	},
	func(e *Engine) error {
		if e.tracer == nil {
			e.tracer = explain.DefaultTracer{}
		}
		return nil
	},
	func(e *Engine) error {
		if e.metrics == nil {
			e.metrics = metrics.New(nil)
		}
		return nil
	},
	func(e *Engine) error {
		if e.capacity == 0 {
			e.capacity = defaultCapacity
		}
		return nil
	},
}
