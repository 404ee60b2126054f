package settings

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/aduba/pkg/errors"
)

func TestService_GetReturnsDefaults(t *testing.T) {
	svc := NewService("", newFakeRepo(), newTestLogger())

	got, err := svc.Get(context.Background(), "u-1")
	require.NoError(t, err)
	require.True(t, got.NotificationsEnabled)
	require.Equal(t, "ADUBA-001", got.DeviceID)
	require.Empty(t, got.ID)
}

func TestService_SetNotificationsInsertsThenUpdates(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService("", repo, newTestLogger()).(*service)
	clock := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	created, err := svc.SetNotifications(context.Background(), "u-1", false)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.NotificationsEnabled)
	require.Equal(t, 1, repo.inserts)
	require.Equal(t, clock, created.UpdatedAt)

	clock = clock.Add(time.Hour)
	updated, err := svc.SetNotifications(context.Background(), "u-1", true)
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.True(t, updated.NotificationsEnabled)
	require.Equal(t, 1, repo.inserts)
	require.Equal(t, 1, repo.updates)
	require.Equal(t, clock, updated.UpdatedAt)

	got, err := svc.Get(context.Background(), "u-1")
	require.NoError(t, err)
	require.Equal(t, updated, got)
}

func TestService_StorageFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("timeout")
	svc := NewService("", repo, newTestLogger())

	_, err := svc.Get(context.Background(), "u-1")
	require.True(t, apperrors.IsCode(err, apperrors.CodeStorage))
	_, err = svc.SetNotifications(context.Background(), "", true)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRepo struct {
	rows    map[string]DeviceSettings
	err     error
	inserts int
	updates int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[string]DeviceSettings{}}
}

func (f *fakeRepo) Get(_ context.Context, userID string) (DeviceSettings, bool, error) {
	if f.err != nil {
		return DeviceSettings{}, false, f.err
	}
	s, ok := f.rows[userID]
	return s, ok, nil
}

func (f *fakeRepo) Insert(_ context.Context, s DeviceSettings) error {
	f.inserts++
	f.rows[s.UserID] = s
	return nil
}

func (f *fakeRepo) UpdateNotifications(_ context.Context, userID string, enabled bool, at time.Time) error {
	f.updates++
	s := f.rows[userID]
	s.NotificationsEnabled = enabled
	s.UpdatedAt = at
	f.rows[userID] = s
	return nil
}
