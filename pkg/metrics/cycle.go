package metrics

import "github.com/prometheus/client_golang/prometheus"

// Cycle counts refresh cycle activity. The zero value and nil are both usable
// and record nothing.
type Cycle struct {
	ticks          prometheus.Counter
	readFailures   prometheus.Counter
	insertFailures prometheus.Counter
}

// NewCycle registers the refresh cycle counters on reg.
func NewCycle(reg prometheus.Registerer) *Cycle {
	c := &Cycle{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aduba_cycle_ticks_total",
			Help: "Simulation ticks fired by the refresh cycle.",
		}),
		readFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aduba_cycle_read_failures_total",
			Help: "Failed latest-reading lookups.",
		}),
		insertFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aduba_cycle_insert_failures_total",
			Help: "Simulated readings that could not be persisted.",
		}),
	}
	if reg != nil {
		reg.MustRegister(c.ticks, c.readFailures, c.insertFailures)
	}
	return c
}

// Tick counts a fired interval.
func (c *Cycle) Tick() {
	if c == nil || c.ticks == nil {
		return
	}
	c.ticks.Inc()
}

// ReadFailed counts a store read failure.
func (c *Cycle) ReadFailed() {
	if c == nil || c.readFailures == nil {
		return
	}
	c.readFailures.Inc()
}

// InsertFailed counts a store write failure.
func (c *Cycle) InsertFailed() {
	if c == nil || c.insertFailures == nil {
		return
	}
	c.insertFailures.Inc()
}
