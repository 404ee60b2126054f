package readingrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/aduba/internal/domain/reading"
)

func TestMemoryRepository_LatestAndOrdering(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	_, found, err := repo.FindLatest(ctx, "u-1")
	require.NoError(t, err)
	require.False(t, found)

	mid := reading.New("b", reading.DefaultDeviceID, reading.Payload{Humidity: 60}, base.Add(time.Hour))
	late := reading.New("c", reading.DefaultDeviceID, reading.Payload{Humidity: 61}, base.Add(2*time.Hour))
	early := reading.New("a", reading.DefaultDeviceID, reading.Payload{Humidity: 59}, base)
	for _, rd := range []reading.Reading{mid, late, early} {
		require.NoError(t, repo.Insert(ctx, "u-1", rd))
	}
	require.NoError(t, repo.Insert(ctx, "u-2", reading.New("x", "OTHER", reading.Payload{}, base.Add(5*time.Hour))))

	latest, found, err := repo.FindLatest(ctx, "u-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "c", latest.ID)

	rows, err := repo.ListSince(ctx, "u-1", base.Add(30*time.Minute), 0)
	require.NoError(t, err)
	require.Equal(t, []reading.Reading{mid, late}, rows)

	limited, err := repo.ListSince(ctx, "u-1", time.Time{}, 2)
	require.NoError(t, err)
	require.Equal(t, []reading.Reading{mid, late}, limited)
}
