package settings

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/aduba/pkg/errors"
	"github.com/yanqian/aduba/pkg/util"
)

// Service reads and changes device settings.
type Service interface {
	Get(ctx context.Context, userID string) (DeviceSettings, error)
	SetNotifications(ctx context.Context, userID string, enabled bool) (DeviceSettings, error)
}

type service struct {
	defaultDeviceID string
	repo            Repository
	logger          *slog.Logger
	now             func() time.Time
}

// NewService constructs a Service instance.
func NewService(defaultDeviceID string, repo Repository, logger *slog.Logger) Service {
	if defaultDeviceID == "" {
		defaultDeviceID = "ADUBA-001"
	}
	return &service{
		defaultDeviceID: defaultDeviceID,
		repo:            repo,
		logger:          logger.With("component", "settings.service"),
		now:             util.NowUTC,
	}
}

// Get returns the stored settings or the defaults when the user has none.
// Notifications default to enabled.
func (s *service) Get(ctx context.Context, userID string) (DeviceSettings, error) {
	if strings.TrimSpace(userID) == "" {
		return DeviceSettings{}, apperrors.Wrap(apperrors.CodeInvalidInput, "user id cannot be empty", nil)
	}
	current, found, err := s.repo.Get(ctx, userID)
	if err != nil {
		return DeviceSettings{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load settings", err)
	}
	if !found {
		return s.defaults(userID), nil
	}
	return current, nil
}

func (s *service) SetNotifications(ctx context.Context, userID string, enabled bool) (DeviceSettings, error) {
	if strings.TrimSpace(userID) == "" {
		return DeviceSettings{}, apperrors.Wrap(apperrors.CodeInvalidInput, "user id cannot be empty", nil)
	}
	current, found, err := s.repo.Get(ctx, userID)
	if err != nil {
		return DeviceSettings{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load settings", err)
	}
	now := s.now()
	if found {
		if err := s.repo.UpdateNotifications(ctx, userID, enabled, now); err != nil {
			return DeviceSettings{}, apperrors.Wrap(apperrors.CodeStorage, "failed to update settings", err)
		}
		current.NotificationsEnabled = enabled
		current.UpdatedAt = now
		return current, nil
	}

	created := s.defaults(userID)
	created.ID = uuid.NewString()
	created.NotificationsEnabled = enabled
	created.UpdatedAt = now
	if err := s.repo.Insert(ctx, created); err != nil {
		return DeviceSettings{}, apperrors.Wrap(apperrors.CodeStorage, "failed to save settings", err)
	}
	s.logger.Info("device settings created", "user_id", userID, "device_id", created.DeviceID)
	return created, nil
}

func (s *service) defaults(userID string) DeviceSettings {
	return DeviceSettings{UserID: userID, DeviceID: s.defaultDeviceID, NotificationsEnabled: true}
}
