// Package water accumulates a user's daily water intake and detects the
// call that crosses the daily hydration goal.
package water

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/franckalain/nutritrack/internal/achievements"
	"github.com/franckalain/nutritrack/internal/calendar"
	"github.com/franckalain/nutritrack/internal/events"
	"github.com/franckalain/nutritrack/internal/locker"
	"github.com/franckalain/nutritrack/internal/metrics"
	"github.com/franckalain/nutritrack/internal/models"
)

// GoalMl is the fixed daily hydration goal
const GoalMl = 2000

// ErrInvalidAmount is returned for a zero or negative amount
var ErrInvalidAmount = errors.New("water amount must be positive")

// Store is the water side of the log store
type Store interface {
	GetWater(ctx context.Context, userID, date string) (*models.WaterLog, error)
	AddWater(ctx context.Context, userID, date string, amount float64, at time.Time) (prior, updated float64, err error)
}

// Achiever receives hydration progress
type Achiever interface {
	Increment(ctx context.Context, userID, achievementID string, delta float64) (achievements.Update, error)
}

// Result describes one logging call
type Result struct {
	Date   string  `json:"date"`
	Prior  float64 `json:"prior"`
	Amount float64 `json:"amount"`
	// GoalMet is true only on the call that crossed GoalMl for the day
	GoalMet bool `json:"goal_met"`
	// Unlocked is set when the crossing unlocked the hydration achievement
	Unlocked bool `json:"unlocked,omitempty"`
}

// Tracker logs water and fires the hydration trigger
type Tracker struct {
	store     Store
	achiever  Achiever
	lock      locker.Locker
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
	loc       *time.Location
	logger    *slog.Logger
}

// NewTracker creates a tracker with an in-process locker and no event
// publisher. A nil logger uses slog.Default().
func NewTracker(store Store, achiever Achiever, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:     store,
		achiever:  achiever,
		lock:      locker.NewLocal(),
		publisher: events.Nop{},
		now:       time.Now,
		loc:       time.Local,
		logger:    logger,
	}
}

// WithLocker replaces the per user-day lock
func (t *Tracker) WithLocker(l locker.Locker) *Tracker {
	t.lock = l
	return t
}

// WithPublisher sets where water and hydration events go
func (t *Tracker) WithPublisher(p events.Publisher) *Tracker {
	t.publisher = p
	return t
}

// WithMetrics records counters on m
func (t *Tracker) WithMetrics(m *metrics.Metrics) *Tracker {
	t.metrics = m
	return t
}

// WithClock sets the time source and the location used to pick "today"
func (t *Tracker) WithClock(now func() time.Time, loc *time.Location) *Tracker {
	t.now = now
	if loc != nil {
		t.loc = loc
	}
	return t
}

// Log adds amountMl to today's record, creating it if needed. The goal
// fires exactly when prior < GoalMl <= updated, so a first call of 2000 ml
// or more fires and every later call that day does not. Hydration
// achievement and event failures are logged, never returned.
func (t *Tracker) Log(ctx context.Context, userID string, amountMl float64) (Result, error) {
	if amountMl <= 0 || math.IsNaN(amountMl) || math.IsInf(amountMl, 0) {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidAmount, amountMl)
	}

	now := t.now()
	date := calendar.Today(now, t.loc)

	unlock, err := t.lock.Lock(ctx, userID+"/"+date)
	if err != nil {
		return Result{}, fmt.Errorf("log water: %w", err)
	}
	prior, updated, err := t.store.AddWater(ctx, userID, date, amountMl, now.UTC())
	unlock()
	if err != nil {
		return Result{}, fmt.Errorf("log water: %w", err)
	}

	res := Result{
		Date:    date,
		Prior:   prior,
		Amount:  updated,
		GoalMet: Crossed(prior, updated),
	}
	t.metrics.Water(amountMl)
	t.publish(ctx, events.WaterLogged, userID, res)

	if res.GoalMet {
		t.metrics.GoalMet()
		t.publish(ctx, events.HydrationGoalMet, userID, res)
		res.Unlocked = t.hydrationProgress(ctx, userID)
	}
	return res, nil
}

// Daily returns the amount logged on date, 0 when nothing was logged
func (t *Tracker) Daily(ctx context.Context, userID, date string) (float64, error) {
	if _, err := calendar.Parse(date); err != nil {
		return 0, fmt.Errorf("daily water: %w", err)
	}
	w, err := t.store.GetWater(ctx, userID, date)
	if err != nil {
		return 0, fmt.Errorf("daily water for %s: %w", date, err)
	}
	if w == nil {
		return 0, nil
	}
	return w.Amount, nil
}

// Crossed reports whether moving from prior to updated crosses GoalMl
func Crossed(prior, updated float64) bool {
	return prior < GoalMl && updated >= GoalMl
}

func (t *Tracker) hydrationProgress(ctx context.Context, userID string) bool {
	if t.achiever == nil {
		return false
	}
	u, err := t.achiever.Increment(ctx, userID, achievements.Water3, 1)
	if err != nil {
		t.metrics.SideEffectFailed("achievement")
		t.logger.Warn("Failed to record hydration achievement progress",
			slog.String("user", userID),
			slog.String("error", err.Error()))
		return false
	}
	if u.NewlyUnlocked {
		t.metrics.Unlocked(achievements.Water3)
		t.publish(ctx, events.AchievementUnlocked, userID, u.State)
	}
	return u.NewlyUnlocked
}

func (t *Tracker) publish(ctx context.Context, eventType, userID string, data interface{}) {
	ev, err := events.New(eventType, userID, data, t.now())
	if err == nil {
		err = t.publisher.Publish(ctx, ev)
	}
	if err != nil {
		t.metrics.SideEffectFailed("event")
		t.logger.Warn("Failed to publish event",
			slog.String("type", eventType),
			slog.String("user", userID),
			slog.String("error", err.Error()))
	}
}
