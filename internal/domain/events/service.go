package events

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/aduba/pkg/errors"
	"github.com/yanqian/aduba/pkg/util"
)

// Service lists and records composter events.
type Service interface {
	List(ctx context.Context, userID, date string) ([]Event, error)
	Create(ctx context.Context, userID string, req CreateRequest) (Event, error)
}

type service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service instance.
func NewService(repo Repository, logger *slog.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger.With("component", "events.service"),
		now:    util.NowUTC,
	}
}

func (s *service) List(ctx context.Context, userID, date string) ([]Event, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "user id cannot be empty", nil)
	}
	date = strings.TrimSpace(date)
	if date != "" {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "date must be YYYY-MM-DD", err)
		}
	}
	items, err := s.repo.List(ctx, userID, date)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to load events", err)
	}
	if items == nil {
		items = []Event{}
	}
	return items, nil
}

func (s *service) Create(ctx context.Context, userID string, req CreateRequest) (Event, error) {
	if strings.TrimSpace(userID) == "" {
		return Event{}, apperrors.Wrap(apperrors.CodeInvalidInput, "user id cannot be empty", nil)
	}
	eventType := strings.TrimSpace(req.EventType)
	if eventType == "" {
		return Event{}, apperrors.Wrap(apperrors.CodeInvalidInput, "event_type cannot be empty", nil)
	}
	now := s.now()
	date := strings.TrimSpace(req.EventDate)
	if date == "" {
		date = now.Format(DateLayout)
	} else if _, err := time.Parse(DateLayout, date); err != nil {
		return Event{}, apperrors.Wrap(apperrors.CodeInvalidInput, "event_date must be YYYY-MM-DD", err)
	}
	e := Event{
		ID:          uuid.NewString(),
		UserID:      userID,
		EventType:   eventType,
		Description: strings.TrimSpace(req.Description),
		EventDate:   date,
		CreatedAt:   now,
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		return Event{}, apperrors.Wrap(apperrors.CodeStorage, "failed to save event", err)
	}
	s.logger.Debug("event recorded", "user_id", userID, "event_type", eventType, "event_date", date)
	return e, nil
}
