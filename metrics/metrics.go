/*
Package metrics wires the Prometheus client library into the SMTP server
core as an optional, purely observational collaborator: nothing in smtp
depends on this package, but daemon/smtpd passes a *Collector in wherever
the core exposes a hook for it (currently: connection counts, command
counts by verb, and reply counts by status class).
*/
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector groups the counters and gauges this server publishes. It is
// safe for concurrent use, since every metric it wraps already is.
type Collector struct {
	ConnectionsTotal  prometheus.Counter
	ConnectionsActive prometheus.Gauge
	CommandsTotal     *prometheus.CounterVec
	RepliesTotal      *prometheus.CounterVec
	RejectedTotal     prometheus.Counter
	// BytesReceived is registered with the other metrics, but nothing in
	// this module increments it, so it stays at zero unless a caller adds
	// to it.
	BytesReceived prometheus.Counter
}

// NewCollector builds a Collector and registers it with reg. Passing
// prometheus.NewRegistry() keeps a daemon's metrics isolated from the
// global default registry, which matters for tests that construct more
// than one daemon in a process.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smtpcore",
			Name:      "connections_total",
			Help:      "Total number of accepted TCP connections.",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "smtpcore",
			Name:      "connections_active",
			Help:      "Number of connections currently being served.",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smtpcore",
			Name:      "commands_total",
			Help:      "Total number of commands received, by verb.",
		}, []string{"verb"}),
		RepliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smtpcore",
			Name:      "replies_total",
			Help:      "Total number of replies sent, by status class.",
		}, []string{"class"}),
		RejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smtpcore",
			Name:      "connections_rejected_total",
			Help:      "Total number of connections rejected by rate limiting.",
		}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smtpcore",
			Name:      "bytes_received_total",
			Help:      "Total bytes read from peers across all connections.",
		}),
	}
	reg.MustRegister(c.ConnectionsTotal, c.ConnectionsActive, c.CommandsTotal, c.RepliesTotal, c.RejectedTotal, c.BytesReceived)
	return c
}

// ReplyClass reduces a three-digit SMTP status code to its class label,
// e.g. 250 -> "2xx".
func ReplyClass(code int) string {
	if code < 100 || code > 599 {
		return "xxx"
	}
	return string(rune('0'+code/100)) + "xx"
}

// ObserveCommand increments the command counter for verb. It is a no-op
// on a nil Collector so callers do not need to guard every call site when
// metrics are disabled.
func (c *Collector) ObserveCommand(verb string) {
	if c == nil {
		return
	}
	c.CommandsTotal.WithLabelValues(verb).Inc()
}

// ObserveReply increments the reply counter for code's class.
func (c *Collector) ObserveReply(code int) {
	if c == nil {
		return
	}
	c.RepliesTotal.WithLabelValues(ReplyClass(code)).Inc()
}
