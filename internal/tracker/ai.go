package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/franckalain/nutritrack/internal/ml"
	"github.com/franckalain/nutritrack/internal/models"
)

// emptyWeekReport is returned instead of calling the model when nothing
// was logged in the last 7 days
var emptyWeekReport = models.InsightReport{
	Summary:           "Not enough data yet.",
	Tips:              []string{"Start logging your meals to get personalized insights!"},
	Score:             0,
	NutritionAnalysis: "No meals logged in the last 7 days.",
}

// AnalyzeImage estimates a meal from a photo. Nothing is logged.
func (s *Service) AnalyzeImage(ctx context.Context, data []byte, mimeType string) (*models.AnalysisResult, error) {
	if s.model == nil {
		return nil, ErrModelUnavailable
	}
	r, err := s.model.AnalyzeImage(ctx, data, mimeType)
	if err != nil {
		s.logger.Warn("Image analysis failed", slog.String("error", err.Error()))
		return nil, err
	}
	return r, nil
}

// AnalyzeAudio estimates a meal from a spoken description. Nothing is logged.
func (s *Service) AnalyzeAudio(ctx context.Context, data []byte, mimeType string) (*models.AnalysisResult, error) {
	if s.model == nil {
		return nil, ErrModelUnavailable
	}
	r, err := s.model.AnalyzeAudio(ctx, data, mimeType)
	if err != nil {
		s.logger.Warn("Audio analysis failed", slog.String("error", err.Error()))
		return nil, err
	}
	return r, nil
}

// Insights reports on the meals of the 7 days ending today
func (s *Service) Insights(ctx context.Context, userID string) (*models.InsightReport, error) {
	meals, err := s.engine.WeeklyDetail(ctx, userID, s.Today())
	if err != nil {
		return nil, fmt.Errorf("insights: %w", err)
	}
	if len(meals) == 0 {
		report := emptyWeekReport
		report.Tips = append([]string(nil), emptyWeekReport.Tips...)
		return &report, nil
	}
	if s.model == nil {
		return nil, ErrModelUnavailable
	}
	return s.model.GenerateInsights(ctx, meals)
}

// MealPlan asks for a day of meals sized to the user's calorie target
func (s *Service) MealPlan(ctx context.Context, userID, preferences string) ([]models.MealPlanItem, error) {
	if s.model == nil {
		return nil, ErrModelUnavailable
	}
	profile, err := s.db.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("meal plan: %w", err)
	}
	if preferences == "" {
		preferences = ml.DefaultPreferences
	}
	return s.model.GenerateMealPlan(ctx, profile.Target(), preferences)
}

// AcceptPlanItem logs a suggested meal as an AI meal for today
func (s *Service) AcceptPlanItem(ctx context.Context, userID string, item models.MealPlanItem) (*LoggedMeal, error) {
	category := item.Meal
	if !category.Valid() {
		category = models.CategorySnack
	}
	return s.LogMeal(ctx, userID, MealInput{
		FoodName: item.FoodName,
		Calories: item.Calories,
		Protein:  item.Protein,
		Carbs:    item.Carbs,
		Fat:      item.Fat,
		Source:   models.SourceAI,
		Category: category,
	})
}
