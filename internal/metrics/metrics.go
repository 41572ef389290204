// Package metrics exposes the bot's Prometheus collectors. Metrics
// implements the observer hooks of the command pipeline, the menu engine
// and the recovery chain, so components never import Prometheus directly.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gdbot"

type Metrics struct {
	// Labels: command, outcome (ok|error)
	Commands *prometheus.CounterVec
	// Labels: command
	CommandDuration *prometheus.HistogramVec
	// Labels: kind (message_create|reaction_add|reaction_remove)
	Events *prometheus.CounterVec
	// Labels: reason (duplicate|self|bot)
	EventsDropped *prometheus.CounterVec
	// Labels: handler, the recovery entry that claimed the error
	ErrorsHandled *prometheus.CounterVec

	ActiveSessions prometheus.Gauge
	// Labels: reason (closed|timeout|preempted|failed|shutdown)
	SessionsClosed *prometheus.CounterVec
}

// New registers every collector with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands run, by command and outcome.",
		}, []string{"command", "outcome"}),
		CommandDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time spent running a command.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"command"}),
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound platform events accepted by the router.",
		}, []string{"kind"}),
		EventsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Inbound platform events ignored by the router.",
		}, []string{"reason"}),
		ErrorsHandled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_handled_total",
			Help:      "Errors claimed by the recovery chain, by handler.",
		}, []string{"handler"}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "menu_sessions_active",
			Help:      "Interactive sessions currently open.",
		}),
		SessionsClosed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "menu_sessions_closed_total",
			Help:      "Interactive sessions terminated, by reason.",
		}, []string{"reason"}),
	}
}

func (m *Metrics) ObserveCommand(name, outcome string, elapsed time.Duration) {
	m.Commands.WithLabelValues(name, outcome).Inc()
	m.CommandDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

func (m *Metrics) EventReceived(kind string) { m.Events.WithLabelValues(kind).Inc() }

func (m *Metrics) EventDropped(reason string) { m.EventsDropped.WithLabelValues(reason).Inc() }

// ErrorHandled matches the recovery chain's observer signature.
func (m *Metrics) ErrorHandled(handler string) { m.ErrorsHandled.WithLabelValues(handler).Inc() }

func (m *Metrics) SessionOpened() { m.ActiveSessions.Inc() }

func (m *Metrics) SessionClosed(reason string) {
	m.ActiveSessions.Dec()
	m.SessionsClosed.WithLabelValues(reason).Inc()
}

// BusDrops exports a bus drop counter read at scrape time.
func BusDrops(reg prometheus.Registerer, drops func() uint64) {
	promauto.With(reg).NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bus_drops_total",
		Help:      "Events not delivered to a subscriber whose buffer was full.",
	}, func() float64 { return float64(drops()) })
}
