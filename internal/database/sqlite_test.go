package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/franckalain/nutritrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func meal(id, user, date string, kcal float64, created time.Time) *models.Meal {
	return &models.Meal{
		ID: id, UserID: user, FoodName: "food " + id,
		Calories: kcal, Protein: 10, Carbs: 20, Fat: 5,
		Source: models.SourceManual, Category: models.CategoryLunch,
		Date: date, CreatedAt: created,
	}
}

func TestSaveAndGetMeal(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	in := meal("m1", "u1", "2024-03-01", 450, created)
	in.ImageURL = "gs://bucket/m1.jpg"
	require.NoError(t, db.SaveMeal(ctx, in))

	got, err := db.GetMeal(ctx, "u1", "m1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "food m1", got.FoodName)
	assert.Equal(t, 450.0, got.Calories)
	assert.Equal(t, models.SourceManual, got.Source)
	assert.Equal(t, models.CategoryLunch, got.Category)
	assert.Equal(t, "gs://bucket/m1.jpg", got.ImageURL)
	assert.True(t, created.Equal(got.CreatedAt))

	// Other users cannot see it
	other, err := db.GetMeal(ctx, "u2", "m1")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestDeleteMeal(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.SaveMeal(ctx, meal("m1", "u1", "2024-03-01", 100, time.Now())))

	require.NoError(t, db.DeleteMeal(ctx, "u1", "m1"))
	got, err := db.GetMeal(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.Nil(t, got)

	err = db.DeleteMeal(ctx, "u1", "m1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMealOrdering(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, db.SaveMeal(ctx, meal("a", "u1", "2024-03-01", 100, base)))
	require.NoError(t, db.SaveMeal(ctx, meal("b", "u1", "2024-03-01", 200, base.Add(500*time.Millisecond))))
	require.NoError(t, db.SaveMeal(ctx, meal("c", "u1", "2024-03-02", 300, base.Add(-time.Hour))))
	require.NoError(t, db.SaveMeal(ctx, meal("d", "u2", "2024-03-01", 999, base)))

	day, err := db.MealsByDate(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, "b", day[0].ID, "newest first within a day")
	assert.Equal(t, "a", day[1].ID)

	all, err := db.AllMeals(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestMealsByDates(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	now := time.Now()

	require.NoError(t, db.SaveMeal(ctx, meal("a", "u1", "2024-03-01", 100, now)))
	require.NoError(t, db.SaveMeal(ctx, meal("b", "u1", "2024-03-03", 200, now)))
	require.NoError(t, db.SaveMeal(ctx, meal("c", "u1", "2024-03-09", 300, now)))

	got, err := db.MealsByDates(ctx, "u1", []string{"2024-03-01", "2024-03-02", "2024-03-03"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = db.MealsByDates(ctx, "u1", make([]string, MaxDatesPerQuery+1))
	assert.Error(t, err)

	none, err := db.MealsByDates(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAddWater(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	missing, err := db.GetWater(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Nil(t, missing)

	prior, updated, err := db.AddWater(ctx, "u1", "2024-03-01", 1500, at)
	require.NoError(t, err)
	assert.Equal(t, 0.0, prior)
	assert.Equal(t, 1500.0, updated)

	prior, updated, err = db.AddWater(ctx, "u1", "2024-03-01", 600, at.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1500.0, prior)
	assert.Equal(t, 2100.0, updated)

	w, err := db.GetWater(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, 2100.0, w.Amount)
	assert.True(t, at.Add(time.Hour).Equal(w.UpdatedAt))

	logs, err := db.WaterByDates(ctx, "u1", []string{"2024-02-29", "2024-03-01"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "2024-03-01", logs[0].Date)
}

func TestAddWater_ConcurrentIncrementsAreNotLost(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := db.AddWater(ctx, "u1", "2024-03-01", 100, time.Now())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	w, err := db.GetWater(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, 1000.0, w.Amount)
}

func TestProfileAndStreak(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	p, err := db.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, p)

	// Streak update on a user without a profile creates one
	require.NoError(t, db.UpdateStreak(ctx, "u1", 1, "2024-03-01"))
	p, err = db.GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, "2024-03-01", p.LastLogDate)
	assert.Equal(t, float64(models.DefaultCalorieTarget), p.Target())

	// Saving descriptive fields keeps the streak
	require.NoError(t, db.SaveProfile(ctx, &models.UserProfile{UserID: "u1", Name: "Sam", CalorieTarget: 1800}))
	p, err = db.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Sam", p.Name)
	assert.Equal(t, 1800.0, p.CalorieTarget)
	assert.Equal(t, 1, p.CurrentStreak)

	require.NoError(t, db.UpdateStreak(ctx, "u1", 2, "2024-03-02"))
	p, err = db.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, p.CurrentStreak)
	assert.Equal(t, 1800.0, p.CalorieTarget)
}

func TestAchievementStates(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	st, err := db.GetAchievementState(ctx, "u1", "first_meal")
	require.NoError(t, err)
	assert.Nil(t, st)

	require.NoError(t, db.SaveAchievementState(ctx, &models.AchievementState{
		UserID: "u1", AchievementID: "streak_7", Progress: 3, LastUpdated: now,
	}))
	require.NoError(t, db.SaveAchievementState(ctx, &models.AchievementState{
		UserID: "u1", AchievementID: "first_meal", Progress: 1, UnlockedAt: &now, LastUpdated: now,
	}))

	st, err = db.GetAchievementState(ctx, "u1", "first_meal")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.True(t, st.Unlocked())
	assert.True(t, now.Equal(*st.UnlockedAt))

	states, err := db.ListAchievementStates(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, states, 2)

	others, err := db.ListAchievementStates(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "postgres", "", "", "")
	assert.Error(t, err)
}
