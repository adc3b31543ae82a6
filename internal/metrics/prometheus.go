// Package metrics exports interview metrics to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	portfolioService "github.com/zhouzirui/investor-interview/backend/internal/service/portfolio"
)

const defaultNamespace = "investor_interview"

// Recorder implements the interview engine's Recorder and tracks WebSocket connections.
type Recorder struct {
	turns        *prometheus.CounterVec
	turnDuration *prometheus.HistogramVec
	selections   *prometheus.CounterVec
	connections  prometheus.Gauge
}

// NewRecorder registers the collectors on reg. An empty namespace uses the default.
func NewRecorder(namespace string, reg prometheus.Registerer) (*Recorder, error) {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &Recorder{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Interview turns by result (next_question, repeat, clarification, final_result, invalid_input, interpreter_failure, protocol_error).",
		}, []string{"result"}),
		turnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Latency of one interview turn including interpretation.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"result"}),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "portfolio_selections_total",
			Help:      "Completed interviews by selected portfolio.",
		}, []string{"portfolio"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections",
			Help:      "Open interview WebSocket connections.",
		}),
	}

	var err error
	if r.turns, err = registerOrReuse(reg, r.turns); err != nil {
		return nil, fmt.Errorf("register turns counter: %w", err)
	}
	if r.turnDuration, err = registerOrReuse(reg, r.turnDuration); err != nil {
		return nil, fmt.Errorf("register turn histogram: %w", err)
	}
	if r.selections, err = registerOrReuse(reg, r.selections); err != nil {
		return nil, fmt.Errorf("register selections counter: %w", err)
	}
	if r.connections, err = registerOrReuse(reg, r.connections); err != nil {
		return nil, fmt.Errorf("register connections gauge: %w", err)
	}
	return r, nil
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveTurn counts one turn and its latency.
func (r *Recorder) ObserveTurn(result string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.turns.WithLabelValues(result).Inc()
	r.turnDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}

// ObserveSelection counts a completed interview.
func (r *Recorder) ObserveSelection(selection portfolioService.Selection) {
	if r == nil {
		return
	}
	r.selections.WithLabelValues(string(selection.PortfolioID)).Inc()
}

// ConnectionOpened increments the WebSocket gauge.
func (r *Recorder) ConnectionOpened() {
	if r != nil {
		r.connections.Inc()
	}
}

// ConnectionClosed decrements the WebSocket gauge.
func (r *Recorder) ConnectionClosed() {
	if r != nil {
		r.connections.Dec()
	}
}
