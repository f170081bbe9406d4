// Package telemetry records structured operation events. Emission is
// fire-and-forget: it never blocks a tool operation and never affects its
// result.
package telemetry

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Event describes one completed tool operation.
type Event struct {
	Tool      string        `json:"tool"`
	Operation string        `json:"operation"` // create, update, read, diff, save, ...
	Path      string        `json:"path,omitempty"`
	Lines     int           `json:"lines,omitempty"`
	Extension string        `json:"extension,omitempty"`
	Duration  time.Duration `json:"duration"`
}

type opMetrics struct {
	operationsTotal *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	duration        *prometheus.HistogramVec
}

var (
	metricsOnce sync.Once
	metricsInst *opMetrics
)

func getMetrics() *opMetrics {
	metricsOnce.Do(func() {
		metricsInst = &opMetrics{
			operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "tool_operations_total",
				Help: "Completed tool operations by tool and operation kind",
			}, []string{"tool", "operation"}),
			errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "tool_errors_total",
				Help: "Failed tool targets by tool",
			}, []string{"tool"}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "tool_operation_duration_seconds",
				Help:    "Duration of tool operations",
				Buckets: prometheus.DefBuckets,
			}, []string{"tool"}),
		}
		prometheus.MustRegister(
			metricsInst.operationsTotal,
			metricsInst.errorsTotal,
			metricsInst.duration,
		)
	})
	return metricsInst
}

// Collector emits events to the metrics registry and the structured log.
type Collector struct {
	logger zerolog.Logger
}

// NewCollector creates a collector writing events through the given logger.
func NewCollector(logger zerolog.Logger) *Collector {
	return &Collector{logger: logger}
}

// Record emits one event. Failed targets never reach Record; they are
// counted through RecordError instead.
func (c *Collector) Record(ev Event) {
	m := getMetrics()
	m.operationsTotal.WithLabelValues(ev.Tool, ev.Operation).Inc()
	m.duration.WithLabelValues(ev.Tool).Observe(ev.Duration.Seconds())

	c.logger.Info().
		Str("event_type", "tool_operation").
		Str("tool", ev.Tool).
		Str("operation", ev.Operation).
		Str("path", ev.Path).
		Int("lines", ev.Lines).
		Str("extension", ev.Extension).
		Dur("duration", ev.Duration).
		Msg("Tool operation completed")
}

// RecordError counts one failed target.
func (c *Collector) RecordError(toolName string) {
	getMetrics().errorsTotal.WithLabelValues(toolName).Inc()
}

// Handler exposes the metrics registry over HTTP.
func Handler() http.Handler {
	getMetrics()
	return promhttp.Handler()
}

// Default returns a collector backed by the package-level logger.
func Default() *Collector {
	return NewCollector(log.Logger)
}
