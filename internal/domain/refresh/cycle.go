package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/aduba/internal/domain/reading"
	"github.com/yanqian/aduba/internal/domain/session"
	"github.com/yanqian/aduba/pkg/metrics"
	"github.com/yanqian/aduba/pkg/util"
)

// DefaultInterval is how often a new reading is simulated while active.
const DefaultInterval = 30 * time.Second

// Config tunes a Cycle.
type Config struct {
	Interval         time.Duration
	FallbackDeviceID string
	DeviceID         string
}

// State is what the presentation layer renders. Error is empty when unset.
type State struct {
	CurrentReading *reading.Reading
	IsLoading      bool
	Error          string
}

// Option customizes a Cycle.
type Option func(*Cycle)

// WithTicker replaces the interval source.
func WithTicker(f util.TickerFunc) Option {
	return func(c *Cycle) { c.newTicker = f }
}

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Cycle) { c.now = now }
}

// WithIDFunc replaces the identity source for simulated readings.
func WithIDFunc(f func() string) Option {
	return func(c *Cycle) { c.newID = f }
}

// WithObserver registers f to receive a snapshot after every state change.
func WithObserver(f func(State)) Option {
	return func(c *Cycle) { c.observer = f }
}

// WithMetrics counts ticks and store failures.
func WithMetrics(m *metrics.Cycle) Option {
	return func(c *Cycle) { c.metrics = m }
}

// Cycle owns the current reading. It fetches the latest stored reading when
// activated and simulates and persists a new one on every interval.
type Cycle struct {
	cfg       Config
	source    session.Source
	repo      reading.Repository
	gen       *reading.Generator
	logger    *slog.Logger
	newTicker util.TickerFunc
	now       func() time.Time
	newID     func() string
	observer  func(State)
	metrics   *metrics.Cycle

	mu    sync.Mutex
	state State
	stop  chan struct{}
	wg    sync.WaitGroup
}

// New builds an inactive Cycle.
func New(cfg Config, source session.Source, repo reading.Repository, gen *reading.Generator, logger *slog.Logger, opts ...Option) *Cycle {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.FallbackDeviceID == "" {
		cfg.FallbackDeviceID = reading.FallbackDeviceID
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = reading.DefaultDeviceID
	}
	if gen == nil {
		gen = reading.NewGenerator(nil)
	}
	c := &Cycle{
		cfg:       cfg,
		source:    source,
		repo:      repo,
		gen:       gen,
		logger:    logger.With("component", "refresh.cycle"),
		newTicker: util.NewTicker,
		now:       util.NowUTC,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the current state.
func (c *Cycle) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Activate marks the cycle as loading, starts the initial fetch and the
// interval, and returns without waiting for either. Activating an active
// cycle does nothing. When ctx ends the interval stops and the cycle may be
// activated again.
func (c *Cycle) Activate(ctx context.Context) {
	c.mu.Lock()
	if c.stop != nil {
		c.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	c.stop = stop
	c.state.IsLoading = true
	snap := c.snapshotLocked()
	ticker := c.newTicker(c.cfg.Interval)
	c.wg.Add(2)
	c.mu.Unlock()

	c.notify(snap)
	go func() {
		defer c.wg.Done()
		c.Refresh(ctx)
	}()
	go c.loop(ctx, stop, ticker)
}

// Deactivate cancels the interval and waits for in-flight work to finish.
// Store calls already running are not aborted. Once it returns the cycle no
// longer touches the store or the observer on its own.
func (c *Cycle) Deactivate() {
	c.mu.Lock()
	stop := c.stop
	c.stop = nil
	c.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	c.wg.Wait()
}

// Refresh loads the newest stored reading of the signed-in user. Without a
// user it does nothing. When the store has no reading a simulated one is
// shown instead, without writing it.
func (c *Cycle) Refresh(ctx context.Context) {
	user, ok := c.source.CurrentUser()
	if !ok {
		c.update(func(s *State) { s.IsLoading = false })
		return
	}

	latest, found, err := c.repo.FindLatest(ctx, user.ID)
	if err != nil {
		c.metrics.ReadFailed()
		c.logger.Warn("latest reading lookup failed", "user_id", user.ID, "error", err)
		c.update(func(s *State) {
			s.Error = errorMessage(err)
			s.IsLoading = false
		})
		return
	}

	var current reading.Reading
	if found {
		current = latest
		current.CapacityStatus = reading.ParseCapacity(string(latest.CapacityStatus))
	} else {
		current = reading.New(reading.SimulatedID, c.cfg.FallbackDeviceID, c.gen.Generate(), c.now())
	}
	c.update(func(s *State) {
		s.CurrentReading = &current
		s.IsLoading = false
	})
}

// Simulate generates a reading, persists it and, when the insert succeeds,
// makes it current. The reading is returned either way; false means nobody
// is signed in and nothing was generated. Insert failures leave Error as is.
func (c *Cycle) Simulate(ctx context.Context) (reading.Reading, bool) {
	user, ok := c.source.CurrentUser()
	if !ok {
		return reading.Reading{}, false
	}

	r := reading.New(c.newID(), c.cfg.DeviceID, c.gen.Generate(), c.now())
	if err := c.repo.Insert(ctx, user.ID, r); err != nil {
		// TODO: surface insert failures through State.Error once the dashboard
		// can tell a failed save apart from a failed load.
		c.metrics.InsertFailed()
		c.logger.Warn("simulated reading not persisted", "user_id", user.ID, "reading_id", r.ID, "error", err)
		return r, true
	}

	adopted := r
	c.update(func(s *State) { s.CurrentReading = &adopted })
	return r, true
}

func (c *Cycle) loop(ctx context.Context, stop <-chan struct{}, ticker util.Ticker) {
	defer c.wg.Done()
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			c.mu.Lock()
			if c.stop == stop {
				c.stop = nil
			}
			c.mu.Unlock()
			return
		case <-ticker.C():
			c.metrics.Tick()
			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				c.Simulate(ctx)
			}()
		}
	}
}

func (c *Cycle) update(mutate func(*State)) {
	c.mu.Lock()
	mutate(&c.state)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Cycle) notify(s State) {
	if c.observer != nil {
		c.observer(s)
	}
}

func (c *Cycle) snapshotLocked() State {
	out := c.state
	if c.state.CurrentReading != nil {
		r := *c.state.CurrentReading
		out.CurrentReading = &r
	}
	return out
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "failed to load readings"
}
