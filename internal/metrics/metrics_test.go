package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveCommand("rank", "ok", 20*time.Millisecond)
	m.ObserveCommand("rank", "ok", 30*time.Millisecond)
	m.ObserveCommand("ping", "error", time.Millisecond)
	m.EventReceived("message_create")
	m.EventDropped("duplicate")
	m.ErrorHandled("validation")
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed("timeout")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Commands.WithLabelValues("rank", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("ping", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))
	assert.Equal(t, 2, testutil.CollectAndCount(m.CommandDuration))

	expected := `
		# HELP gdbot_menu_sessions_closed_total Interactive sessions terminated, by reason.
		# TYPE gdbot_menu_sessions_closed_total counter
		gdbot_menu_sessions_closed_total{reason="timeout"} 1
	`
	require.NoError(t, testutil.CollectAndCompare(m.SessionsClosed, strings.NewReader(expected)))
}

func TestBusDrops(t *testing.T) {
	reg := prometheus.NewRegistry()
	var n uint64 = 7
	BusDrops(reg, func() uint64 { return n })

	count, err := testutil.GatherAndCount(reg, "gdbot_bus_drops_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expected := `
		# HELP gdbot_bus_drops_total Events not delivered to a subscriber whose buffer was full.
		# TYPE gdbot_bus_drops_total counter
		gdbot_bus_drops_total 7
	`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "gdbot_bus_drops_total"))
}

func TestDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
