// Package tracker is the service layer: it runs the logging actions and
// their streak, achievement and event side effects, and serves the
// aggregate views.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/franckalain/nutritrack/internal/achievements"
	"github.com/franckalain/nutritrack/internal/aggregate"
	"github.com/franckalain/nutritrack/internal/calendar"
	"github.com/franckalain/nutritrack/internal/database"
	"github.com/franckalain/nutritrack/internal/events"
	"github.com/franckalain/nutritrack/internal/locker"
	"github.com/franckalain/nutritrack/internal/metrics"
	"github.com/franckalain/nutritrack/internal/ml"
	"github.com/franckalain/nutritrack/internal/water"
	"github.com/oklog/ulid/v2"
)

// ErrModelUnavailable is returned by AI operations when no model is configured
var ErrModelUnavailable = errors.New("no AI model configured")

// ErrInvalidProfile is returned when a profile fails validation
var ErrInvalidProfile = errors.New("invalid profile")

// Config wires a Service. Only DB is required.
type Config struct {
	DB        database.DB
	Model     ml.Model
	Locker    locker.Locker
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	// Location decides which calendar date "today" is
	Location *time.Location
	Now      func() time.Time
	Logger   *slog.Logger
}

// Service runs every user-facing tracking operation
type Service struct {
	db           database.DB
	engine       *aggregate.Engine
	achievements *achievements.Tracker
	water        *water.Tracker
	model        ml.Model
	publisher    events.Publisher
	metrics      *metrics.Metrics
	now          func() time.Time
	loc          *time.Location
	logger       *slog.Logger

	idMu    sync.Mutex
	entropy *rand.Rand
}

// New creates a service from cfg, filling defaults for optional fields
func New(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Publisher == nil {
		cfg.Publisher = events.Nop{}
	}
	if cfg.Locker == nil {
		cfg.Locker = locker.NewLocal()
	}

	ach := achievements.NewTracker(cfg.DB, cfg.Logger).WithClock(cfg.Now)
	w := water.NewTracker(cfg.DB, ach, cfg.Logger).
		WithLocker(cfg.Locker).
		WithPublisher(cfg.Publisher).
		WithMetrics(cfg.Metrics).
		WithClock(cfg.Now, cfg.Location)

	return &Service{
		db:           cfg.DB,
		engine:       aggregate.NewEngine(cfg.DB),
		achievements: ach,
		water:        w,
		model:        cfg.Model,
		publisher:    cfg.Publisher,
		metrics:      cfg.Metrics,
		now:          cfg.Now,
		loc:          cfg.Location,
		logger:       cfg.Logger,
		entropy:      rand.New(rand.NewSource(cfg.Now().UnixNano())),
	}
}

// Today is the current calendar date in the service's location
func (s *Service) Today() string {
	return calendar.Today(s.now(), s.loc)
}

func (s *Service) newID(at time.Time) string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), s.entropy).String()
}

// sideEffectFailed logs and counts a best-effort update that did not land
func (s *Service) sideEffectFailed(effect, userID string, err error) {
	s.metrics.SideEffectFailed(effect)
	s.logger.Warn("Side effect failed",
		slog.String("effect", effect),
		slog.String("user", userID),
		slog.String("error", err.Error()))
}

func (s *Service) publish(ctx context.Context, eventType, userID string, data interface{}) {
	ev, err := events.New(eventType, userID, data, s.now())
	if err == nil {
		err = s.publisher.Publish(ctx, ev)
	}
	if err != nil {
		s.sideEffectFailed("event", userID, fmt.Errorf("%s: %w", eventType, err))
	}
}
