package aggregate

import (
	"context"
	"errors"
	"testing"

	"github.com/franckalain/nutritrack/internal/calendar"
	"github.com/franckalain/nutritrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore returns whatever it holds, in reverse insertion order, to make
// sure nothing depends on the store's ordering.
type fakeStore struct {
	meals   []models.Meal
	water   []models.WaterLog
	profile *models.UserProfile
	err     error
}

func (f *fakeStore) filter(keep func(models.Meal) bool) []models.Meal {
	var out []models.Meal
	for i := len(f.meals) - 1; i >= 0; i-- {
		if keep(f.meals[i]) {
			out = append(out, f.meals[i])
		}
	}
	return out
}

func (f *fakeStore) MealsByDate(_ context.Context, userID, date string) ([]models.Meal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.filter(func(m models.Meal) bool { return m.UserID == userID && m.Date == date }), nil
}

func (f *fakeStore) MealsByDates(_ context.Context, userID string, dates []string) ([]models.Meal, error) {
	if f.err != nil {
		return nil, f.err
	}
	set := map[string]bool{}
	for _, d := range dates {
		set[d] = true
	}
	return f.filter(func(m models.Meal) bool { return m.UserID == userID && set[m.Date] }), nil
}

func (f *fakeStore) AllMeals(_ context.Context, userID string) ([]models.Meal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.filter(func(m models.Meal) bool { return m.UserID == userID }), nil
}

func (f *fakeStore) GetWater(_ context.Context, userID, date string) (*models.WaterLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, w := range f.water {
		if w.UserID == userID && w.Date == date {
			return &w, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) WaterByDates(_ context.Context, userID string, dates []string) ([]models.WaterLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.WaterLog
	for _, w := range f.water {
		for _, d := range dates {
			if w.UserID == userID && w.Date == d {
				out = append(out, w)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func m(user, date string, kcal, protein, carbs, fat float64) models.Meal {
	return models.Meal{UserID: user, Date: date, Calories: kcal, Protein: protein, Carbs: carbs, Fat: fat}
}

func TestDailyTotals_SumsOnlyThatDate(t *testing.T) {
	store := &fakeStore{meals: []models.Meal{
		m("u1", "2024-03-01", 300, 20, 30, 10),
		m("u1", "2024-03-01", 450.5, 25, 40, 12.5),
		m("u1", "2024-03-02", 999, 1, 1, 1),
		m("u2", "2024-03-01", 999, 1, 1, 1),
	}}
	e := NewEngine(store)

	got, err := e.DailyTotals(context.Background(), "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 750.5, got.Calories)
	assert.Equal(t, 45.0, got.Protein)
	assert.Equal(t, 70.0, got.Carbs)
	assert.Equal(t, 22.5, got.Fat)
	assert.Equal(t, 2, got.Meals)
}

func TestDailyTotals_NoMealsIsZero(t *testing.T) {
	e := NewEngine(&fakeStore{})

	got, err := e.DailyTotals(context.Background(), "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, models.DailyTotals{Date: "2024-03-01"}, got)
}

func TestDailyTotals_StoreFailureIsNotZeroFilled(t *testing.T) {
	boom := errors.New("store unreachable")
	e := NewEngine(&fakeStore{err: boom})

	_, err := e.DailyTotals(context.Background(), "u1", "2024-03-01")
	assert.ErrorIs(t, err, boom)

	_, err = e.WeeklyCalorieSeries(context.Background(), "u1", "2024-03-01")
	assert.ErrorIs(t, err, boom)

	_, err = e.History(context.Background(), "u1")
	assert.ErrorIs(t, err, boom)
}

func TestInvalidDatesAreTyped(t *testing.T) {
	e := NewEngine(&fakeStore{})
	ctx := context.Background()

	_, err := e.DailyTotals(ctx, "u1", "2024-13-01")
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)

	_, err = e.Dashboard(ctx, "u1", "bad")
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)

	_, err = e.WeeklyCalorieSeries(ctx, "u1", "03/07/2024")
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)

	_, err = e.WeeklyWaterSeries(ctx, "u1", "")
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)
}

func TestWeeklyCalorieSeries(t *testing.T) {
	store := &fakeStore{meals: []models.Meal{
		m("u1", "2024-03-07", 500, 0, 0, 0),
		m("u1", "2024-03-01", 200, 0, 0, 0),
		m("u1", "2024-03-04", 300, 0, 0, 0),
		m("u1", "2024-03-04", 100, 0, 0, 0),
		m("u1", "2024-02-29", 800, 0, 0, 0), // outside the window
	}}
	e := NewEngine(store)

	series, err := e.WeeklyCalorieSeries(context.Background(), "u1", "2024-03-07")
	require.NoError(t, err)
	assert.Equal(t, []models.DayCalories{
		{Date: "2024-03-01", TotalCalories: 200},
		{Date: "2024-03-02", TotalCalories: 0},
		{Date: "2024-03-03", TotalCalories: 0},
		{Date: "2024-03-04", TotalCalories: 400},
		{Date: "2024-03-05", TotalCalories: 0},
		{Date: "2024-03-06", TotalCalories: 0},
		{Date: "2024-03-07", TotalCalories: 500},
	}, series)
}

func TestWeeklyCalorieSeries_EmptyWeekHasSevenZeroes(t *testing.T) {
	e := NewEngine(&fakeStore{})

	series, err := e.WeeklyCalorieSeries(context.Background(), "u1", "2024-01-03")
	require.NoError(t, err)
	require.Len(t, series, 7)
	assert.Equal(t, "2023-12-28", series[0].Date)
	assert.Equal(t, "2024-01-03", series[6].Date)
	for _, d := range series {
		assert.Zero(t, d.TotalCalories)
	}
}

func TestWeeklyDetail(t *testing.T) {
	store := &fakeStore{meals: []models.Meal{
		m("u1", "2024-03-01", 1, 0, 0, 0),
		m("u1", "2024-03-07", 2, 0, 0, 0),
		m("u1", "2024-03-08", 3, 0, 0, 0),
	}}
	e := NewEngine(store)

	meals, err := e.WeeklyDetail(context.Background(), "u1", "2024-03-07")
	require.NoError(t, err)
	assert.Len(t, meals, 2)
}

func TestWeeklyWaterSeries(t *testing.T) {
	store := &fakeStore{water: []models.WaterLog{
		{UserID: "u1", Date: "2024-03-05", Amount: 2500},
		{UserID: "u1", Date: "2024-03-07", Amount: 750},
	}}
	e := NewEngine(store)

	series, err := e.WeeklyWaterSeries(context.Background(), "u1", "2024-03-07")
	require.NoError(t, err)
	require.Len(t, series, 7)
	assert.Equal(t, 2500.0, series[4].Amount)
	assert.Equal(t, 750.0, series[6].Amount)
	assert.Zero(t, series[0].Amount)
}

func TestHistory_GroupsByDateDescending(t *testing.T) {
	store := &fakeStore{meals: []models.Meal{
		m("u1", "2024-03-01", 100, 0, 0, 0),
		m("u1", "2024-03-03", 250, 0, 0, 0),
		m("u1", "2024-03-01", 150.25, 0, 0, 0),
		m("u1", "2024-03-02", 80, 0, 0, 0),
	}}
	e := NewEngine(store)

	groups, err := e.History(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "2024-03-03", groups[0].Date)
	assert.Equal(t, "2024-03-02", groups[1].Date)
	assert.Equal(t, "2024-03-01", groups[2].Date)
	assert.Equal(t, 250.25, groups[2].TotalCalories)
	assert.Len(t, groups[2].Meals, 2)
}

func TestDashboard(t *testing.T) {
	store := &fakeStore{
		meals:   []models.Meal{m("u1", "2024-03-01", 1500, 0, 0, 0)},
		water:   []models.WaterLog{{UserID: "u1", Date: "2024-03-01", Amount: 1200}},
		profile: &models.UserProfile{UserID: "u1", CalorieTarget: 1800, CurrentStreak: 3},
	}
	e := NewEngine(store)

	d, err := e.Dashboard(context.Background(), "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1800.0, d.CalorieTarget)
	assert.Equal(t, 300.0, d.RemainingCalories)
	assert.Equal(t, 83, d.ProgressPercent)
	assert.Equal(t, 1200.0, d.Water)
	assert.Equal(t, 3, d.CurrentStreak)
	assert.Equal(t, models.MacroTargets{Protein: 135, Carbs: 180, Fat: 60}, d.MacroTargets)
}

func TestDashboard_NoProfileUsesDefaultTarget(t *testing.T) {
	e := NewEngine(&fakeStore{})

	d, err := e.Dashboard(context.Background(), "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, float64(models.DefaultCalorieTarget), d.CalorieTarget)
	assert.Equal(t, float64(models.DefaultCalorieTarget), d.RemainingCalories)
	assert.Zero(t, d.ProgressPercent)
}

func TestProgressMath(t *testing.T) {
	assert.Equal(t, 0.0, RemainingCalories(2000, 2600))
	assert.Equal(t, 100, ProgressPercent(2000, 2600))
	assert.Equal(t, 50, ProgressPercent(2000, 1000))
	assert.Equal(t, 1, ProgressPercent(2000, 10))
	assert.Equal(t, 0, ProgressPercent(0, 10))
}
