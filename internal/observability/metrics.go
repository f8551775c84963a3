package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voicetimer/voicetimer-go/pkg/device"
)

// Metrics holds the device collectors.
type Metrics struct {
	registry *prometheus.Registry

	commands    *prometheus.CounterVec
	ignored     *prometheus.CounterVec
	active      prometheus.Gauge
	expirations prometheus.Counter
	reaped      prometheus.Counter
	sessions    prometheus.Gauge
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "voicetimer",
				Subsystem: "device",
				Name:      "commands_total",
				Help:      "Dispatched commands.",
			},
			[]string{"source", "cmd", "status"},
		),
		ignored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "voicetimer",
				Subsystem: "parser",
				Name:      "ignored_total",
				Help:      "Inputs that parsed to no command.",
			},
			[]string{"reason"},
		),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voicetimer",
			Subsystem: "timers",
			Name:      "active",
			Help:      "Timers in the table.",
		}),
		expirations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voicetimer",
			Subsystem: "timers",
			Name:      "expirations_total",
			Help:      "Timers that reached zero.",
		}),
		reaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voicetimer",
			Subsystem: "timers",
			Name:      "reaped_total",
			Help:      "Expired timers removed after ringing.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voicetimer",
			Subsystem: "link",
			Name:      "sessions",
			Help:      "Connected link sessions.",
		}),
	}
	m.registry.MustRegister(m.commands, m.ignored, m.active, m.expirations, m.reaped, m.sessions)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Attach records every event of dev.
func (m *Metrics) Attach(dev *device.Device) {
	m.active.Set(float64(len(dev.Timers())))
	dev.OnEvent(func(ev device.Event) {
		m.Observe(ev)
		m.active.Set(float64(len(dev.Timers())))
	})
}

// Observe records one device event.
func (m *Metrics) Observe(ev device.Event) {
	switch ev.Kind {
	case device.EventDispatched:
		m.commands.WithLabelValues(
			ev.Input.Source.String(),
			ev.Result.Command.Cmd.String(),
			ev.Result.Status.String(),
		).Inc()
		if ev.Input.Reason != "" {
			m.ignored.WithLabelValues(ev.Input.Reason).Inc()
		}
	case device.EventExpired:
		m.expirations.Add(float64(len(ev.Timers)))
	case device.EventReaped:
		m.reaped.Add(float64(len(ev.Timers)))
	}
}

// SessionOpened counts a link session.
func (m *Metrics) SessionOpened() { m.sessions.Inc() }

// SessionClosed uncounts a link session.
func (m *Metrics) SessionClosed() { m.sessions.Dec() }
