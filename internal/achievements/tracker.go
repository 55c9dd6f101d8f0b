package achievements

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/franckalain/nutritrack/internal/models"
)

// Store is the part of the log store the tracker needs
type Store interface {
	ListAchievementStates(ctx context.Context, userID string) ([]models.AchievementState, error)
	GetAchievementState(ctx context.Context, userID, achievementID string) (*models.AchievementState, error)
	SaveAchievementState(ctx context.Context, state *models.AchievementState) error
}

// Update is the outcome of one progress update
type Update struct {
	State models.AchievementState
	// NewlyUnlocked is true only for the call that wrote the unlock timestamp
	NewlyUnlocked bool
}

// Tracker maps progress values onto stored achievement state
type Tracker struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger
}

// NewTracker creates a tracker over store. A nil logger uses slog.Default().
func NewTracker(store Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{store: store, now: time.Now, logger: logger}
}

// WithClock replaces the time source, for tests and replays
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// List returns every catalog entry merged with the user's stored state.
// Entries without state report zero progress and locked.
func (t *Tracker) List(ctx context.Context, userID string) ([]models.AchievementStatus, error) {
	states, err := t.store.ListAchievementStates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievement states: %w", err)
	}

	byID := make(map[string]models.AchievementState, len(states))
	for _, s := range states {
		byID[s.AchievementID] = s
	}

	out := make([]models.AchievementStatus, 0, len(catalog))
	for _, a := range catalog {
		st := models.AchievementStatus{Achievement: a}
		if s, ok := byID[a.ID]; ok {
			st.Progress = s.Progress
			st.UnlockedAt = s.UnlockedAt
			st.Unlocked = s.UnlockedAt != nil
		}
		out = append(out, st)
	}
	return out, nil
}

// UpdateProgress records progress towards an achievement. The value is
// clamped to [0, target] and never lowers stored progress. Reaching the
// target writes the unlock timestamp once; an unlock is never undone.
// Unknown achievement ids are ignored.
func (t *Tracker) UpdateProgress(ctx context.Context, userID, achievementID string, progress float64) (Update, error) {
	a, ok := Lookup(achievementID)
	if !ok {
		t.logger.Debug("Ignoring progress for unknown achievement", slog.String("achievement", achievementID))
		return Update{}, nil
	}

	prior, err := t.store.GetAchievementState(ctx, userID, achievementID)
	if err != nil {
		return Update{}, fmt.Errorf("read achievement %s: %w", achievementID, err)
	}
	return t.apply(ctx, a, userID, prior, progress)
}

// Increment adds delta to the stored progress of an achievement
func (t *Tracker) Increment(ctx context.Context, userID, achievementID string, delta float64) (Update, error) {
	a, ok := Lookup(achievementID)
	if !ok {
		return Update{}, nil
	}

	prior, err := t.store.GetAchievementState(ctx, userID, achievementID)
	if err != nil {
		return Update{}, fmt.Errorf("read achievement %s: %w", achievementID, err)
	}
	var current float64
	if prior != nil {
		current = prior.Progress
	}
	return t.apply(ctx, a, userID, prior, current+delta)
}

func (t *Tracker) apply(ctx context.Context, a models.Achievement, userID string, prior *models.AchievementState, progress float64) (Update, error) {
	now := t.now().UTC()
	clamped := math.Max(0, math.Min(progress, a.Target))

	next := models.AchievementState{
		UserID:        userID,
		AchievementID: a.ID,
		Progress:      clamped,
		LastUpdated:   now,
	}
	if prior != nil {
		next.Progress = math.Max(prior.Progress, clamped)
		next.UnlockedAt = prior.UnlockedAt
	}

	newly := false
	if next.UnlockedAt == nil && clamped >= a.Target {
		next.UnlockedAt = &now
		newly = true
	}

	if err := t.store.SaveAchievementState(ctx, &next); err != nil {
		return Update{}, fmt.Errorf("save achievement %s: %w", a.ID, err)
	}

	if newly {
		t.logger.Info("Achievement unlocked",
			slog.String("user", userID),
			slog.String("achievement", a.ID))
	}
	return Update{State: next, NewlyUnlocked: newly}, nil
}
