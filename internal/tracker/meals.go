package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/franckalain/nutritrack/internal/achievements"
	"github.com/franckalain/nutritrack/internal/calendar"
	"github.com/franckalain/nutritrack/internal/events"
	"github.com/franckalain/nutritrack/internal/models"
	"github.com/franckalain/nutritrack/internal/streak"
)

// ErrInvalidMeal is returned when a meal fails validation
var ErrInvalidMeal = errors.New("invalid meal")

// MealInput is a meal as submitted by a client. Empty Source, Category and
// Date default to manual, Snack and today.
type MealInput struct {
	FoodName string          `json:"food_name"`
	Calories float64         `json:"calories"`
	Protein  float64         `json:"protein"`
	Carbs    float64         `json:"carbs"`
	Fat      float64         `json:"fat"`
	Source   models.Source   `json:"source,omitempty"`
	Category models.Category `json:"category,omitempty"`
	Date     string          `json:"date,omitempty"`
	ImageURL string          `json:"image_url,omitempty"`
}

// LoggedMeal is the outcome of LogMeal
type LoggedMeal struct {
	Meal   models.Meal  `json:"meal"`
	Streak streak.State `json:"streak"`
	// Unlocked lists achievements unlocked by this meal
	Unlocked []string `json:"unlocked,omitempty"`
}

func (s *Service) buildMeal(userID string, in MealInput) (models.Meal, error) {
	name := strings.TrimSpace(in.FoodName)
	if userID == "" {
		return models.Meal{}, fmt.Errorf("%w: missing user", ErrInvalidMeal)
	}
	if name == "" {
		return models.Meal{}, fmt.Errorf("%w: food name is required", ErrInvalidMeal)
	}
	for field, v := range map[string]float64{
		"calories": in.Calories, "protein": in.Protein, "carbs": in.Carbs, "fat": in.Fat,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return models.Meal{}, fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidMeal, field)
		}
	}

	if in.Source == "" {
		in.Source = models.SourceManual
	}
	if !in.Source.Valid() {
		return models.Meal{}, fmt.Errorf("%w: unknown source %q", ErrInvalidMeal, in.Source)
	}
	if in.Category == "" {
		in.Category = models.CategorySnack
	}
	if !in.Category.Valid() {
		return models.Meal{}, fmt.Errorf("%w: unknown category %q", ErrInvalidMeal, in.Category)
	}

	now := s.now()
	if in.Date == "" {
		in.Date = calendar.Today(now, s.loc)
	}
	if !calendar.Valid(in.Date) {
		return models.Meal{}, fmt.Errorf("%w: bad date %q", ErrInvalidMeal, in.Date)
	}

	return models.Meal{
		ID:        s.newID(now),
		UserID:    userID,
		FoodName:  name,
		Calories:  in.Calories,
		Protein:   in.Protein,
		Carbs:     in.Carbs,
		Fat:       in.Fat,
		Source:    in.Source,
		Category:  in.Category,
		Date:      in.Date,
		ImageURL:  in.ImageURL,
		CreatedAt: now.UTC(),
	}, nil
}

// LogMeal writes a meal, then advances the streak and pushes achievement
// progress. Only the meal write can fail the call: streak, achievement and
// event failures are logged and counted.
func (s *Service) LogMeal(ctx context.Context, userID string, in MealInput) (*LoggedMeal, error) {
	meal, err := s.buildMeal(userID, in)
	if err != nil {
		return nil, err
	}
	if err := s.db.SaveMeal(ctx, &meal); err != nil {
		return nil, fmt.Errorf("log meal: %w", err)
	}
	s.metrics.MealLogged(string(meal.Source))
	s.logger.Debug("Meal logged",
		slog.String("user", userID),
		slog.String("meal", meal.ID),
		slog.Float64("calories", meal.Calories))

	out := &LoggedMeal{Meal: meal}
	s.publish(ctx, events.MealLogged, userID, meal)

	if s.progress(ctx, userID, achievements.FirstMeal, 1) {
		out.Unlocked = append(out.Unlocked, achievements.FirstMeal)
	}

	st, changed, err := s.advanceStreak(ctx, userID)
	if err != nil {
		s.sideEffectFailed("streak", userID, err)
		return out, nil
	}
	out.Streak = st
	if changed {
		s.publish(ctx, events.StreakUpdated, userID, st)
		if s.progress(ctx, userID, achievements.Streak7, float64(st.Current)) {
			out.Unlocked = append(out.Unlocked, achievements.Streak7)
		}
	}
	return out, nil
}

// advanceStreak applies a log event dated today to the stored streak. A
// user without a profile starts from the zero state.
func (s *Service) advanceStreak(ctx context.Context, userID string) (streak.State, bool, error) {
	profile, err := s.db.GetProfile(ctx, userID)
	if err != nil {
		return streak.State{}, false, fmt.Errorf("read profile: %w", err)
	}
	var prior streak.State
	if profile != nil {
		prior = streak.State{Current: profile.CurrentStreak, LastLogDate: profile.LastLogDate}
	}

	next := streak.Advance(prior, s.Today())
	if !streak.Changed(prior, next) {
		return next, false, nil
	}
	if err := s.db.UpdateStreak(ctx, userID, next.Current, next.LastLogDate); err != nil {
		return prior, false, fmt.Errorf("write streak: %w", err)
	}
	return next, true, nil
}

// progress pushes an achievement value and reports whether it unlocked
func (s *Service) progress(ctx context.Context, userID, achievementID string, value float64) bool {
	u, err := s.achievements.UpdateProgress(ctx, userID, achievementID, value)
	if err != nil {
		s.sideEffectFailed("achievement", userID, err)
		return false
	}
	if u.NewlyUnlocked {
		s.metrics.Unlocked(achievementID)
		s.publish(ctx, events.AchievementUnlocked, userID, u.State)
	}
	return u.NewlyUnlocked
}

// Meal fetches one meal, nil when it does not exist
func (s *Service) Meal(ctx context.Context, userID, id string) (*models.Meal, error) {
	return s.db.GetMeal(ctx, userID, id)
}

// DeleteMeal removes a meal. Streak and achievements are left as they are.
func (s *Service) DeleteMeal(ctx context.Context, userID, id string) error {
	if err := s.db.DeleteMeal(ctx, userID, id); err != nil {
		return fmt.Errorf("delete meal %s: %w", id, err)
	}
	s.publish(ctx, events.MealDeleted, userID, map[string]string{"id": id})
	return nil
}
