package reading

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/yanqian/aduba/pkg/errors"
)

func TestService_RecordFillsDefaultsAndPublishes(t *testing.T) {
	repo := newMemoryRepo()
	pub := &stubPublisher{}
	svc := newTestService(repo, pub)

	got, err := svc.Record(context.Background(), "user-1", Reading{
		Payload: Payload{Humidity: 60, Temperature: 64, SoilHumidity: 50, PHLevel: 7.1, ComposterRotation: 20, ReservoirRotation: 3, CapacityStatus: "Alto"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, got.ID)
	require.Equal(t, DefaultDeviceID, got.DeviceID)
	require.Equal(t, CapacityHigh, got.CapacityStatus)
	require.Equal(t, fixedNow, got.RecordedAt)

	latest, found, err := svc.Latest(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, got, latest)
	require.Len(t, pub.published, 1)
}

func TestService_RecordRejectsInvalidReading(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)

	_, err := svc.Record(context.Background(), "user-1", Reading{
		Payload: Payload{Humidity: 140, CapacityStatus: CapacityLow},
	})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Contains(t, err.Error(), "humidity")

	_, err = svc.Record(context.Background(), "user-1", Reading{ID: "not-a-uuid", Payload: Payload{CapacityStatus: CapacityLow}})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestService_PublishFailureDoesNotFailRecord(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &stubPublisher{err: errors.New("broker down")})

	_, err := svc.Record(context.Background(), "user-1", Reading{Payload: Payload{Humidity: 60, CapacityStatus: CapacityLow}})
	require.NoError(t, err)
	_, found, err := repo.FindLatest(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, found)
}

func TestService_StatsAveragesPerDay(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	day1 := fixedNow.AddDate(0, 0, -1)
	require.NoError(t, repo.Insert(context.Background(), "u", New("a", DefaultDeviceID, Payload{Humidity: 60, Temperature: 60, PHLevel: 7}, day1)))
	require.NoError(t, repo.Insert(context.Background(), "u", New("b", DefaultDeviceID, Payload{Humidity: 64, Temperature: 66, PHLevel: 6.8}, day1.Add(time.Hour))))
	require.NoError(t, repo.Insert(context.Background(), "u", New("c", DefaultDeviceID, Payload{Humidity: 55, Temperature: 61, PHLevel: 7.4}, fixedNow)))
	require.NoError(t, repo.Insert(context.Background(), "u", New("old", DefaultDeviceID, Payload{Humidity: 1}, fixedNow.AddDate(0, 0, -30))))

	stats, err := svc.Stats(context.Background(), "u", 7)
	require.NoError(t, err)
	require.False(t, stats.Sample)
	require.Equal(t, []StatPoint{
		{Date: day1.Format("02/01"), Humidity: 62, Temperature: 63, PH: 6.9},
		{Date: fixedNow.Format("02/01"), Humidity: 55, Temperature: 61, PH: 7.4},
	}, stats.Points)
}

func TestService_StatsWithoutReadingsReturnsSamples(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)

	stats, err := svc.Stats(context.Background(), "u", 0)
	require.NoError(t, err)
	require.True(t, stats.Sample)
	require.Equal(t, 7, stats.Days)
	require.Len(t, stats.Points, 7)
	require.Equal(t, fixedNow.Format("02/01"), stats.Points[6].Date)
	for _, p := range stats.Points {
		require.GreaterOrEqual(t, p.Humidity, 55.0)
		require.LessOrEqual(t, p.Humidity, 65.0)
		require.GreaterOrEqual(t, p.PH, 6.5)
		require.LessOrEqual(t, p.PH, 8.0)
	}
}

func TestService_ExportWritesOneRowPerReading(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	require.NoError(t, repo.Insert(context.Background(), "u", New("a", DefaultDeviceID, Payload{Humidity: 60, CapacityStatus: CapacityHigh}, fixedNow.Add(-time.Hour))))
	require.NoError(t, repo.Insert(context.Background(), "u", New("b", DefaultDeviceID, Payload{Humidity: 61, CapacityStatus: CapacityLow}, fixedNow)))

	data, err := svc.Export(context.Background(), "u", time.Time{})
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Leituras")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "Registrado em", rows[0][0])
	require.Equal(t, "Alto", rows[1][8])
	require.Equal(t, "Baixo", rows[2][8])
}

func TestService_HistoryKeepsNewestRowsWhenOverLimit(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(Config{HistoryLimit: 500}, repo, nil, nil, nil, newTestLogger())
	svc.(*service).now = func() time.Time { return fixedNow }
	ctx := context.Background()
	for i := 0; i < 600; i++ {
		at := fixedNow.Add(-time.Duration(599-i) * 30 * time.Second)
		require.NoError(t, repo.Insert(ctx, "u", New(fmt.Sprintf("r-%03d", i), DefaultDeviceID, Payload{CapacityStatus: CapacityLow}, at)))
	}

	page, err := svc.History(ctx, "u", time.Time{}, 0)
	require.NoError(t, err)
	require.True(t, page.Truncated)
	require.Len(t, page.Readings, 500)
	require.Equal(t, "r-100", page.Readings[0].ID)
	require.Equal(t, fixedNow, page.Readings[499].RecordedAt)

	page, err = svc.History(ctx, "u", fixedNow.Add(-time.Hour), 0)
	require.NoError(t, err)
	require.False(t, page.Truncated)
	require.Len(t, page.Readings, 121)
}

func TestService_ExportIsNotCappedByHistoryLimit(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(Config{HistoryLimit: 5}, repo, nil, nil, nil, newTestLogger())
	svc.(*service).now = func() time.Time { return fixedNow }
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		at := fixedNow.Add(-time.Duration(i) * time.Minute)
		require.NoError(t, repo.Insert(ctx, "u", New(fmt.Sprintf("r-%02d", i), DefaultDeviceID, Payload{CapacityStatus: CapacityLow}, at)))
	}

	data, err := svc.Export(ctx, "u", time.Time{})
	require.NoError(t, err)
	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Leituras")
	require.NoError(t, err)
	require.Len(t, rows, 13)
}

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestService(repo Repository, pub Publisher) Service {
	svc := NewService(Config{}, repo, pub, NewGenerator(rand.New(rand.NewPCG(3, 4))), nil, newTestLogger())
	svc.(*service).now = func() time.Time { return fixedNow }
	return svc
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memoryRepo struct {
	mu   sync.Mutex
	rows map[string][]Reading
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[string][]Reading{}}
}

func (m *memoryRepo) FindLatest(_ context.Context, userID string) (Reading, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[userID]
	if len(rows) == 0 {
		return Reading{}, false, nil
	}
	latest := rows[0]
	for _, r := range rows[1:] {
		if r.RecordedAt.After(latest.RecordedAt) {
			latest = r
		}
	}
	return latest, true, nil
}

func (m *memoryRepo) Insert(_ context.Context, userID string, r Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[userID] = append(m.rows[userID], r)
	return nil
}

func (m *memoryRepo) ListSince(_ context.Context, userID string, since time.Time, limit int) ([]Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Reading
	for _, r := range m.rows[userID] {
		if !r.RecordedAt.Before(since) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type stubPublisher struct {
	err       error
	published []Reading
}

func (p *stubPublisher) Publish(_ context.Context, _ string, r Reading) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, r)
	return nil
}

func (p *stubPublisher) Name() string { return "stub" }

func (p *stubPublisher) Close() error { return nil }
