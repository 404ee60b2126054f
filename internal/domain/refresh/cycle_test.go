package refresh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/aduba/internal/domain/reading"
	"github.com/yanqian/aduba/internal/domain/session"
	"github.com/yanqian/aduba/pkg/util"
)

func TestCycle_ActivateWithoutUserEndsLoading(t *testing.T) {
	repo := newFakeRepo()
	c, _ := newTestCycle(&fakeSource{}, repo)

	c.Activate(context.Background())
	defer c.Deactivate()

	// Used to stay loading forever when nobody was signed in.
	require.Eventually(t, func() bool { return !c.State().IsLoading }, time.Second, 5*time.Millisecond)
	require.Nil(t, c.State().CurrentReading)
	require.Empty(t, c.State().Error)
	require.Zero(t, repo.finds.Load())
}

func TestCycle_RefreshEmptyStoreShowsSimulatedReading(t *testing.T) {
	repo := newFakeRepo()
	c, _ := newTestCycle(signedIn(), repo)

	c.Refresh(context.Background())

	st := c.State()
	require.False(t, st.IsLoading)
	require.NotNil(t, st.CurrentReading)
	require.Equal(t, reading.SimulatedID, st.CurrentReading.ID)
	require.Equal(t, reading.FallbackDeviceID, st.CurrentReading.DeviceID)
	require.Equal(t, testNow, st.CurrentReading.RecordedAt)
	require.Zero(t, repo.inserts.Load())
}

func TestCycle_RefreshAdoptsLatestStoredReading(t *testing.T) {
	repo := newFakeRepo()
	older := reading.New("r-1", "ADUBA-001", reading.Payload{Humidity: 58, CapacityStatus: reading.CapacityLow}, testNow.Add(-time.Hour))
	newer := reading.New("r-2", "ADUBA-001", reading.Payload{Humidity: 61, CapacityStatus: "Alto"}, testNow)
	repo.rows["u-1"] = []reading.Reading{older, newer}
	c, _ := newTestCycle(signedIn(), repo)

	c.Refresh(context.Background())

	st := c.State()
	require.NotNil(t, st.CurrentReading)
	require.Equal(t, "r-2", st.CurrentReading.ID)
	require.Equal(t, 61, st.CurrentReading.Humidity)
	require.Equal(t, reading.CapacityHigh, st.CurrentReading.CapacityStatus)
}

func TestCycle_RefreshUnknownCapacityFallsBackToMedium(t *testing.T) {
	repo := newFakeRepo()
	repo.rows["u-1"] = []reading.Reading{reading.New("r-1", "ADUBA-001", reading.Payload{CapacityStatus: "overflowing"}, testNow)}
	c, _ := newTestCycle(signedIn(), repo)

	c.Refresh(context.Background())

	require.Equal(t, reading.CapacityMedium, c.State().CurrentReading.CapacityStatus)
}

func TestCycle_RefreshFailureSetsErrorAndKeepsReading(t *testing.T) {
	repo := newFakeRepo()
	repo.rows["u-1"] = []reading.Reading{reading.New("r-1", "ADUBA-001", reading.Payload{CapacityStatus: reading.CapacityLow}, testNow)}
	c, _ := newTestCycle(signedIn(), repo)
	c.Refresh(context.Background())

	repo.setFindErr(errors.New("connection refused"))
	c.Refresh(context.Background())

	st := c.State()
	require.Equal(t, "connection refused", st.Error)
	require.False(t, st.IsLoading)
	require.Equal(t, "r-1", st.CurrentReading.ID)
}

func TestCycle_SimulatePersistsAndAdopts(t *testing.T) {
	repo := newFakeRepo()
	c, _ := newTestCycle(signedIn(), repo)
	c.Refresh(context.Background())
	before := c.State().CurrentReading

	r, ok := c.Simulate(context.Background())
	require.True(t, ok)
	require.Equal(t, int64(1), repo.inserts.Load())

	st := c.State()
	require.Equal(t, r, *st.CurrentReading)
	require.NotEqual(t, before.ID, r.ID)
	require.Equal(t, reading.DefaultDeviceID, r.DeviceID)
	require.Equal(t, testNow, r.RecordedAt)
	require.Equal(t, []reading.Reading{r}, repo.rows["u-1"])
}

func TestCycle_SimulateInsertFailureLeavesStateUntouched(t *testing.T) {
	repo := newFakeRepo()
	repo.rows["u-1"] = []reading.Reading{reading.New("r-1", "ADUBA-001", reading.Payload{CapacityStatus: reading.CapacityLow}, testNow)}
	c, _ := newTestCycle(signedIn(), repo)
	c.Refresh(context.Background())
	repo.setInsertErr(errors.New("permission denied"))

	r, ok := c.Simulate(context.Background())
	require.True(t, ok)
	require.NotEmpty(t, r.ID)

	st := c.State()
	require.Equal(t, "r-1", st.CurrentReading.ID)
	require.Empty(t, st.Error)
}

func TestCycle_SimulateWithoutUserDoesNothing(t *testing.T) {
	repo := newFakeRepo()
	c, _ := newTestCycle(&fakeSource{}, repo)

	_, ok := c.Simulate(context.Background())
	require.False(t, ok)
	require.Zero(t, repo.inserts.Load())
	require.Nil(t, c.State().CurrentReading)
}

func TestCycle_TickInsertsExactlyOneReading(t *testing.T) {
	repo := newFakeRepo()
	c, tk := newTestCycle(signedIn(), repo)

	c.Activate(context.Background())
	require.Eventually(t, func() bool { return !c.State().IsLoading }, time.Second, 5*time.Millisecond)
	require.Equal(t, DefaultInterval, tk.interval)

	tk.fire()
	require.Eventually(t, func() bool { return repo.inserts.Load() == 1 }, time.Second, 5*time.Millisecond)
	c.Deactivate()

	require.Equal(t, int64(1), repo.inserts.Load())
	require.Equal(t, reading.DefaultDeviceID, c.State().CurrentReading.DeviceID)
}

func TestCycle_DeactivateStopsTicker(t *testing.T) {
	repo := newFakeRepo()
	c, tk := newTestCycle(signedIn(), repo)

	c.Activate(context.Background())
	c.Deactivate()

	require.True(t, tk.stopped.Load())
	select {
	case tk.ch <- testNow:
		t.Fatal("ticker still consumed after deactivate")
	default:
	}
	require.Zero(t, repo.inserts.Load())
}

func TestCycle_DeactivateWithRealTickerHaltsInserts(t *testing.T) {
	repo := newFakeRepo()
	c := New(Config{Interval: 5 * time.Millisecond}, signedIn(), repo, testGenerator(), newTestLogger())

	c.Activate(context.Background())
	require.Eventually(t, func() bool { return repo.inserts.Load() >= 2 }, time.Second, time.Millisecond)
	c.Deactivate()

	settled := repo.inserts.Load()
	time.Sleep(25 * time.Millisecond)
	require.Equal(t, settled, repo.inserts.Load())
}

func TestCycle_OverlappingTicksDoNotWait(t *testing.T) {
	repo := newFakeRepo()
	release := make(chan struct{})
	repo.insertGate = release
	c, tk := newTestCycle(signedIn(), repo)

	c.Activate(context.Background())
	tk.fire()
	tk.fire()

	require.Eventually(t, func() bool { return repo.inserting.Load() == 2 }, time.Second, 5*time.Millisecond)
	close(release)
	c.Deactivate()
	require.Equal(t, int64(2), repo.inserts.Load())
}

func TestCycle_ActivateTwiceIsNoop(t *testing.T) {
	var built atomic.Int32
	tk := newManualTicker()
	c := New(Config{}, signedIn(), newFakeRepo(), testGenerator(), newTestLogger(),
		WithTicker(func(d time.Duration) util.Ticker {
			built.Add(1)
			tk.interval = d
			return tk
		}),
	)

	c.Activate(context.Background())
	c.Activate(context.Background())
	c.Deactivate()
	c.Deactivate()

	require.Equal(t, int32(1), built.Load())
}

func TestCycle_EndedContextAllowsReactivation(t *testing.T) {
	var built atomic.Int32
	first, second := newManualTicker(), newManualTicker()
	repo := newFakeRepo()
	c := New(Config{}, signedIn(), repo, testGenerator(), newTestLogger(),
		WithTicker(func(time.Duration) util.Ticker {
			if built.Add(1) == 1 {
				return first
			}
			return second
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	c.Activate(ctx)
	cancel()
	require.Eventually(t, first.stopped.Load, time.Second, 5*time.Millisecond)

	c.Activate(context.Background())
	defer c.Deactivate()
	require.Equal(t, int32(2), built.Load())
	second.fire()
	require.Eventually(t, func() bool { return repo.inserts.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestCycle_ObserverSeesEveryChange(t *testing.T) {
	var mu sync.Mutex
	var seen []State
	repo := newFakeRepo()
	tk := newManualTicker()
	c := New(Config{}, signedIn(), repo, testGenerator(), newTestLogger(),
		WithTicker(tk.factory),
		WithClock(func() time.Time { return testNow }),
		WithObserver(func(s State) {
			mu.Lock()
			seen = append(seen, s)
			mu.Unlock()
		}),
	)

	c.Activate(context.Background())
	require.Eventually(t, func() bool { return !c.State().IsLoading }, time.Second, 5*time.Millisecond)
	c.Deactivate()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	require.True(t, seen[0].IsLoading)
	require.Nil(t, seen[0].CurrentReading)
	require.False(t, seen[1].IsLoading)
	require.Equal(t, reading.SimulatedID, seen[1].CurrentReading.ID)
}

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestCycle(src session.Source, repo reading.Repository) (*Cycle, *manualTicker) {
	tk := newManualTicker()
	var seq atomic.Int64
	c := New(Config{}, src, repo, testGenerator(), newTestLogger(),
		WithTicker(tk.factory),
		WithClock(func() time.Time { return testNow }),
		WithIDFunc(func() string { return fmt.Sprintf("sim-%d", seq.Add(1)) }),
	)
	return c, tk
}

func testGenerator() *reading.Generator {
	return reading.NewGenerator(rand.New(rand.NewPCG(1, 2)))
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signedIn() *fakeSource {
	return &fakeSource{user: &session.Session{Email: "ana@example.com", ID: "u-1"}}
}

type fakeSource struct {
	user *session.Session
}

func (f *fakeSource) CurrentUser() (session.Session, bool) {
	if f.user == nil {
		return session.Session{}, false
	}
	return *f.user, true
}

type manualTicker struct {
	ch       chan time.Time
	interval time.Duration
	stopped  atomic.Bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) factory(d time.Duration) util.Ticker {
	m.interval = d
	return m
}

func (m *manualTicker) fire() { m.ch <- testNow }

func (m *manualTicker) C() <-chan time.Time { return m.ch }

func (m *manualTicker) Stop() { m.stopped.Store(true) }

type fakeRepo struct {
	mu         sync.Mutex
	rows       map[string][]reading.Reading
	findErr    error
	insertErr  error
	insertGate chan struct{}

	finds     atomic.Int64
	inserts   atomic.Int64
	inserting atomic.Int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[string][]reading.Reading{}}
}

func (f *fakeRepo) setFindErr(err error) {
	f.mu.Lock()
	f.findErr = err
	f.mu.Unlock()
}

func (f *fakeRepo) setInsertErr(err error) {
	f.mu.Lock()
	f.insertErr = err
	f.mu.Unlock()
}

func (f *fakeRepo) FindLatest(_ context.Context, userID string) (reading.Reading, bool, error) {
	f.finds.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return reading.Reading{}, false, f.findErr
	}
	rows := f.rows[userID]
	if len(rows) == 0 {
		return reading.Reading{}, false, nil
	}
	latest := rows[0]
	for _, r := range rows[1:] {
		if r.RecordedAt.After(latest.RecordedAt) {
			latest = r
		}
	}
	return latest, true, nil
}

func (f *fakeRepo) Insert(_ context.Context, userID string, r reading.Reading) error {
	f.inserting.Add(1)
	if f.insertGate != nil {
		<-f.insertGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows[userID] = append(f.rows[userID], r)
	f.inserts.Add(1)
	return nil
}

func (f *fakeRepo) ListSince(_ context.Context, userID string, since time.Time, limit int) ([]reading.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []reading.Reading
	for _, r := range f.rows[userID] {
		if !r.RecordedAt.Before(since) {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
