package tracker

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/franckalain/nutritrack/internal/models"
	"github.com/franckalain/nutritrack/internal/water"
)

// Weekly is the stats screen: calories and water for the 7 days ending at Ref
type Weekly struct {
	Ref      string               `json:"ref"`
	Calories []models.DayCalories `json:"calories"`
	Water    []models.DayWater    `json:"water"`
}

// orToday returns date, or today when date is empty
func (s *Service) orToday(date string) string {
	if date == "" {
		return s.Today()
	}
	return date
}

// Dashboard returns the summary for date (today when empty)
func (s *Service) Dashboard(ctx context.Context, userID, date string) (*models.Dashboard, error) {
	defer s.metrics.ObserveRead("dashboard", time.Now())
	return s.engine.Dashboard(ctx, userID, s.orToday(date))
}

// Weekly returns both weekly series ending at ref (today when empty)
func (s *Service) Weekly(ctx context.Context, userID, ref string) (*Weekly, error) {
	defer s.metrics.ObserveRead("weekly", time.Now())
	ref = s.orToday(ref)

	calories, err := s.engine.WeeklyCalorieSeries(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	waterSeries, err := s.engine.WeeklyWaterSeries(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	return &Weekly{Ref: ref, Calories: calories, Water: waterSeries}, nil
}

// History returns every meal grouped by date, newest date first
func (s *Service) History(ctx context.Context, userID string) ([]models.HistoryGroup, error) {
	defer s.metrics.ObserveRead("history", time.Now())
	return s.engine.History(ctx, userID)
}

// Achievements lists the catalog with the user's progress
func (s *Service) Achievements(ctx context.Context, userID string) ([]models.AchievementStatus, error) {
	defer s.metrics.ObserveRead("achievements", time.Now())
	return s.achievements.List(ctx, userID)
}

// LogWater adds amountMl to today's water record
func (s *Service) LogWater(ctx context.Context, userID string, amountMl float64) (water.Result, error) {
	return s.water.Log(ctx, userID, amountMl)
}

// Water returns the amount logged on date (today when empty)
func (s *Service) Water(ctx context.Context, userID, date string) (float64, error) {
	return s.water.Daily(ctx, userID, s.orToday(date))
}

// Profile returns the stored profile, nil when the user has none
func (s *Service) Profile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return s.db.GetProfile(ctx, userID)
}

// SaveProfile stores the editable profile fields. Streak fields are owned
// by meal logging and are not written here.
func (s *Service) SaveProfile(ctx context.Context, p *models.UserProfile) error {
	if p.UserID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidProfile)
	}
	if p.CalorieTarget < 0 || math.IsNaN(p.CalorieTarget) || math.IsInf(p.CalorieTarget, 0) {
		return fmt.Errorf("%w: calorie target %v", ErrInvalidProfile, p.CalorieTarget)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	if err := s.db.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
