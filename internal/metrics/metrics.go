// Package metrics exposes send counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector counts send operations on its own registry.
type Collector struct {
	registry *prometheus.Registry

	sends    *prometheus.CounterVec
	messages prometheus.Counter
	chunks   prometheus.Histogram
}

// New creates a Collector with Go runtime and process collectors registered.
func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tgpost",
			Name:      "sends_total",
			Help:      "Send operations by outcome.",
		}, []string{"outcome"}),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tgpost",
			Name:      "messages_sent_total",
			Help:      "Telegram messages delivered.",
		}),
		chunks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tgpost",
			Name:      "chunks_per_send",
			Help:      "Chunks composed per send operation.",
			Buckets:   []float64{1, 2, 3, 5, 10, 20},
		}),
	}
	reg.MustRegister(
		c.sends, c.messages, c.chunks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveSend records one send operation: how many chunks were composed,
// how many were delivered and its outcome label.
func (c *Collector) ObserveSend(outcome string, composed, delivered int) {
	c.sends.WithLabelValues(outcome).Inc()
	c.messages.Add(float64(delivered))
	if composed > 0 {
		c.chunks.Observe(float64(composed))
	}
}

// Handler serves the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
