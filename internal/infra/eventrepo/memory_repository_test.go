package eventrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/aduba/internal/domain/events"
)

func TestMemoryRepository_ListNewestFirstWithDateFilter(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	first := events.Event{ID: "1", UserID: "u-1", EventType: "rega", EventDate: "2026-03-13", CreatedAt: base}
	second := events.Event{ID: "2", UserID: "u-1", EventType: "colheita", EventDate: "2026-03-14", CreatedAt: base.Add(time.Minute)}
	require.NoError(t, repo.Insert(ctx, first))
	require.NoError(t, repo.Insert(ctx, second))
	require.NoError(t, repo.Insert(ctx, events.Event{ID: "3", UserID: "u-2", EventDate: "2026-03-14"}))

	all, err := repo.List(ctx, "u-1", "")
	require.NoError(t, err)
	require.Equal(t, []events.Event{second, first}, all)

	day, err := repo.List(ctx, "u-1", "2026-03-13")
	require.NoError(t, err)
	require.Equal(t, []events.Event{first}, day)
}
