package reading

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/aduba/pkg/errors"
	"github.com/yanqian/aduba/pkg/metrics"
	"github.com/yanqian/aduba/pkg/util"
)

// Config tunes the reading service.
type Config struct {
	DefaultDeviceID string
	StatsDays       int
	HistoryLimit    int
	SheetTitle      string
}

// Service exposes the Reading Store to the API.
type Service interface {
	Latest(ctx context.Context, userID string) (Reading, bool, error)
	Record(ctx context.Context, userID string, r Reading) (Reading, error)
	History(ctx context.Context, userID string, since time.Time, limit int) (HistoryPage, error)
	Stats(ctx context.Context, userID string, days int) (Stats, error)
	Export(ctx context.Context, userID string, since time.Time) ([]byte, error)
}

// HistoryPage is the newest window of readings since a point in time, oldest
// first. Truncated reports that older rows in the window were left out.
type HistoryPage struct {
	Readings  []Reading `json:"readings"`
	Truncated bool      `json:"truncated"`
}

type service struct {
	cfg       Config
	repo      Repository
	publisher Publisher
	gen       *Generator
	metrics   *metrics.Registry
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a Service instance. publisher may be nil.
func NewService(cfg Config, repo Repository, publisher Publisher, gen *Generator, reg *metrics.Registry, logger *slog.Logger) Service {
	if cfg.DefaultDeviceID == "" {
		cfg.DefaultDeviceID = DefaultDeviceID
	}
	if cfg.StatsDays <= 0 {
		cfg.StatsDays = 7
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 500
	}
	if cfg.SheetTitle == "" {
		cfg.SheetTitle = "Leituras"
	}
	if gen == nil {
		gen = NewGenerator(nil)
	}
	return &service{
		cfg:       cfg,
		repo:      repo,
		publisher: publisher,
		gen:       gen,
		metrics:   reg,
		logger:    logger.With("component", "reading.service"),
		now:       util.NowUTC,
	}
}

func (s *service) Latest(ctx context.Context, userID string) (Reading, bool, error) {
	if strings.TrimSpace(userID) == "" {
		return Reading{}, false, apperrors.Wrap(apperrors.CodeInvalidInput, "user id cannot be empty", nil)
	}
	r, found, err := s.repo.FindLatest(ctx, userID)
	if err != nil {
		return Reading{}, false, apperrors.Wrap(apperrors.CodeStorage, "failed to load latest reading", err)
	}
	return r, found, nil
}

func (s *service) Record(ctx context.Context, userID string, r Reading) (Reading, error) {
	if strings.TrimSpace(userID) == "" {
		return Reading{}, apperrors.Wrap(apperrors.CodeInvalidInput, "user id cannot be empty", nil)
	}
	switch {
	case r.ID == "" || r.Simulated():
		r.ID = uuid.NewString()
	default:
		if _, err := uuid.Parse(r.ID); err != nil {
			return Reading{}, apperrors.Wrap(apperrors.CodeInvalidInput, "id must be a uuid", err)
		}
	}
	if strings.TrimSpace(r.DeviceID) == "" {
		r.DeviceID = s.cfg.DefaultDeviceID
	}
	if r.RecordedAt.IsZero() {
		r.RecordedAt = s.now()
	}
	r.RecordedAt = r.RecordedAt.UTC()
	if c, ok := LookupCapacity(string(r.CapacityStatus)); ok {
		r.CapacityStatus = c
	}
	if err := r.Validate(); err != nil {
		return Reading{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}
	if err := s.repo.Insert(ctx, userID, r); err != nil {
		return Reading{}, apperrors.Wrap(apperrors.CodeStorage, "failed to store reading", err)
	}
	s.metrics.ReadingRecorded()
	s.publish(ctx, userID, r)
	return r, nil
}

func (s *service) publish(ctx context.Context, userID string, r Reading) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, userID, r); err != nil {
		s.metrics.PublishFailed(s.publisher.Name())
		s.logger.Warn("reading publish failed", "publisher", s.publisher.Name(), "reading_id", r.ID, "error", err)
	}
}

func (s *service) History(ctx context.Context, userID string, since time.Time, limit int) (HistoryPage, error) {
	if strings.TrimSpace(userID) == "" {
		return HistoryPage{}, apperrors.Wrap(apperrors.CodeInvalidInput, "user id cannot be empty", nil)
	}
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	rows, err := s.repo.ListSince(ctx, userID, s.windowStart(since), limit+1)
	if err != nil {
		return HistoryPage{}, apperrors.Wrap(apperrors.CodeStorage, "failed to list readings", err)
	}
	page := HistoryPage{Readings: rows}
	if len(rows) > limit {
		page.Readings = rows[len(rows)-limit:]
		page.Truncated = true
	}
	return page, nil
}

func (s *service) windowStart(since time.Time) time.Time {
	if since.IsZero() {
		return s.now().AddDate(0, 0, -s.cfg.StatsDays)
	}
	return since
}

// Stats averages readings per calendar day over the last days. When the user
// has no readings it returns one sample point per day instead.
func (s *service) Stats(ctx context.Context, userID string, days int) (Stats, error) {
	if strings.TrimSpace(userID) == "" {
		return Stats{}, apperrors.Wrap(apperrors.CodeInvalidInput, "user id cannot be empty", nil)
	}
	if days <= 0 {
		days = s.cfg.StatsDays
	}
	now := s.now()
	since := startOfDay(now).AddDate(0, 0, -(days - 1))
	rows, err := s.repo.ListSince(ctx, userID, since, 0)
	if err != nil {
		return Stats{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load statistics", err)
	}
	if len(rows) == 0 {
		return s.sampleStats(now, days), nil
	}
	return Stats{Days: days, Points: dailyAverages(rows)}, nil
}

func (s *service) sampleStats(now time.Time, days int) Stats {
	points := make([]StatPoint, 0, days)
	for i := 0; i < days; i++ {
		day := now.AddDate(0, 0, -(days - 1 - i))
		points = append(points, StatPoint{
			Date:        day.Format("02/01"),
			Humidity:    round1(s.gen.Float(55, 10)),
			Temperature: round1(s.gen.Float(60, 10)),
			PH:          round1(s.gen.Float(6.5, 1.5)),
		})
	}
	return Stats{Days: days, Sample: true, Points: points}
}

type dayBucket struct {
	day                time.Time
	humidity, temp, ph float64
	count              int
}

func dailyAverages(rows []Reading) []StatPoint {
	buckets := map[time.Time]*dayBucket{}
	for _, r := range rows {
		day := startOfDay(r.RecordedAt)
		b, ok := buckets[day]
		if !ok {
			b = &dayBucket{day: day}
			buckets[day] = b
		}
		b.humidity += float64(r.Humidity)
		b.temp += float64(r.Temperature)
		b.ph += r.PHLevel
		b.count++
	}
	ordered := make([]*dayBucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].day.Before(ordered[j].day) })
	points := make([]StatPoint, 0, len(ordered))
	for _, b := range ordered {
		n := float64(b.count)
		points = append(points, StatPoint{
			Date:        b.day.Format("02/01"),
			Humidity:    round1(b.humidity / n),
			Temperature: round1(b.temp / n),
			PH:          math.Round(b.ph/n*100) / 100,
		})
	}
	return points
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
