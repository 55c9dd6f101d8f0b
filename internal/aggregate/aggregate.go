// Package aggregate derives daily and weekly nutrition summaries from raw
// meal and water logs. It owns no state: every call reads the log store.
package aggregate

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/franckalain/nutritrack/internal/calendar"
	"github.com/franckalain/nutritrack/internal/models"
)

// Store is the read side of the log store used for aggregation
type Store interface {
	MealsByDate(ctx context.Context, userID, date string) ([]models.Meal, error)
	MealsByDates(ctx context.Context, userID string, dates []string) ([]models.Meal, error)
	AllMeals(ctx context.Context, userID string) ([]models.Meal, error)
	GetWater(ctx context.Context, userID, date string) (*models.WaterLog, error)
	WaterByDates(ctx context.Context, userID string, dates []string) ([]models.WaterLog, error)
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// Engine computes summaries. Store failures are returned to the caller,
// never replaced with zero values.
type Engine struct {
	store Store
}

// NewEngine creates an aggregation engine over store
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// DailyTotals sums calories and macros over every meal logged on date
func (e *Engine) DailyTotals(ctx context.Context, userID, date string) (models.DailyTotals, error) {
	if _, err := calendar.Parse(date); err != nil {
		return models.DailyTotals{}, fmt.Errorf("daily totals: %w", err)
	}
	meals, err := e.store.MealsByDate(ctx, userID, date)
	if err != nil {
		return models.DailyTotals{}, fmt.Errorf("daily totals for %s: %w", date, err)
	}
	return sumDay(date, meals), nil
}

// Dashboard combines the day's totals with the user's calorie target
func (e *Engine) Dashboard(ctx context.Context, userID, date string) (*models.Dashboard, error) {
	totals, err := e.DailyTotals(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	profile, err := e.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("dashboard profile: %w", err)
	}
	water, err := e.store.GetWater(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("dashboard water: %w", err)
	}

	target := profile.Target()
	d := &models.Dashboard{
		Totals:            totals,
		CalorieTarget:     target,
		RemainingCalories: RemainingCalories(target, totals.Calories),
		ProgressPercent:   ProgressPercent(target, totals.Calories),
		MacroTargets:      MacroTargetsFor(target),
	}
	if water != nil {
		d.Water = water.Amount
	}
	if profile != nil {
		d.CurrentStreak = profile.CurrentStreak
	}
	return d, nil
}

// WeeklyCalorieSeries returns exactly seven entries, oldest first, covering
// the six days before ref and ref itself. Days without meals report 0.
func (e *Engine) WeeklyCalorieSeries(ctx context.Context, userID, ref string) ([]models.DayCalories, error) {
	days, err := calendar.Week(ref)
	if err != nil {
		return nil, fmt.Errorf("weekly series: %w", err)
	}
	meals, err := e.store.MealsByDates(ctx, userID, days)
	if err != nil {
		return nil, fmt.Errorf("weekly series ending %s: %w", ref, err)
	}

	byDate := make(map[string]float64, len(days))
	for _, m := range meals {
		byDate[m.Date] += m.Calories
	}

	// Built from the window, not from the query result, so order and
	// length never depend on what the store returned.
	series := make([]models.DayCalories, 0, len(days))
	for _, d := range days {
		series = append(series, models.DayCalories{Date: d, TotalCalories: byDate[d]})
	}
	return series, nil
}

// WeeklyDetail returns every meal of the weekly window ending at ref, unordered
func (e *Engine) WeeklyDetail(ctx context.Context, userID, ref string) ([]models.Meal, error) {
	days, err := calendar.Week(ref)
	if err != nil {
		return nil, fmt.Errorf("weekly detail: %w", err)
	}
	meals, err := e.store.MealsByDates(ctx, userID, days)
	if err != nil {
		return nil, fmt.Errorf("weekly detail ending %s: %w", ref, err)
	}
	return meals, nil
}

// WeeklyWaterSeries returns seven daily water amounts, oldest first
func (e *Engine) WeeklyWaterSeries(ctx context.Context, userID, ref string) ([]models.DayWater, error) {
	days, err := calendar.Week(ref)
	if err != nil {
		return nil, fmt.Errorf("weekly water: %w", err)
	}
	logs, err := e.store.WaterByDates(ctx, userID, days)
	if err != nil {
		return nil, fmt.Errorf("weekly water ending %s: %w", ref, err)
	}

	byDate := make(map[string]float64, len(logs))
	for _, w := range logs {
		byDate[w.Date] = w.Amount
	}

	series := make([]models.DayWater, 0, len(days))
	for _, d := range days {
		series = append(series, models.DayWater{Date: d, Amount: byDate[d]})
	}
	return series, nil
}

// History groups all of a user's meals by date, most recent date first
func (e *Engine) History(ctx context.Context, userID string) ([]models.HistoryGroup, error) {
	meals, err := e.store.AllMeals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return GroupByDate(meals), nil
}

// GroupByDate partitions meals by date. Groups are ordered by date
// descending whatever the input order; meals keep their input order.
func GroupByDate(meals []models.Meal) []models.HistoryGroup {
	index := make(map[string]int)
	var groups []models.HistoryGroup
	for _, m := range meals {
		i, ok := index[m.Date]
		if !ok {
			i = len(groups)
			index[m.Date] = i
			groups = append(groups, models.HistoryGroup{Date: m.Date})
		}
		groups[i].Meals = append(groups[i].Meals, m)
		groups[i].TotalCalories += m.Calories
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Date > groups[j].Date
	})
	return groups
}

// RemainingCalories is max(0, target - consumed)
func RemainingCalories(target, consumed float64) float64 {
	return math.Max(0, target-consumed)
}

// ProgressPercent is consumed/target as a rounded percentage capped at 100
func ProgressPercent(target, consumed float64) int {
	if target <= 0 {
		return 0
	}
	return int(math.Min(math.Round(consumed/target*100), 100))
}

// MacroTargetsFor splits a calorie target 30/40/30 into protein, carbs and
// fat grams (4, 4 and 9 kcal per gram).
func MacroTargetsFor(target float64) models.MacroTargets {
	return models.MacroTargets{
		Protein: math.Round(target * 0.3 / 4),
		Carbs:   math.Round(target * 0.4 / 4),
		Fat:     math.Round(target * 0.3 / 9),
	}
}

func sumDay(date string, meals []models.Meal) models.DailyTotals {
	totals := models.DailyTotals{Date: date}
	for _, m := range meals {
		totals.Add(m)
	}
	return totals
}
