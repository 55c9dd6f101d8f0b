package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/franckalain/nutritrack/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only against a live server: NUTRITRACK_TEST_MONGO_URI=mongodb://localhost:27017
func newTestMongo(t *testing.T) *MongoDB {
	t.Helper()
	uri := os.Getenv("NUTRITRACK_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("NUTRITRACK_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	name := "nutritrack_test_" + uuid.NewString()[:8]
	db, err := NewMongoDB(ctx, uri, name)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.client.Database(name).Drop(context.Background())
		db.Close()
	})
	return db
}

func TestMongo_MealsAndWater(t *testing.T) {
	ctx := context.Background()
	db := newTestMongo(t)
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, db.SaveMeal(ctx, meal("a", "u1", "2024-03-01", 100, base)))
	require.NoError(t, db.SaveMeal(ctx, meal("b", "u1", "2024-03-02", 200, base)))

	all, err := db.AllMeals(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)

	prior, updated, err := db.AddWater(ctx, "u1", "2024-03-01", 1500, base)
	require.NoError(t, err)
	assert.Equal(t, 0.0, prior)
	assert.Equal(t, 1500.0, updated)

	prior, updated, err = db.AddWater(ctx, "u1", "2024-03-01", 600, base)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, prior)
	assert.Equal(t, 2100.0, updated)

	require.NoError(t, db.DeleteMeal(ctx, "u1", "a"))
	assert.ErrorIs(t, db.DeleteMeal(ctx, "u1", "a"), ErrNotFound)
}

func TestMongo_ProfileAndAchievements(t *testing.T) {
	ctx := context.Background()
	db := newTestMongo(t)
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, db.UpdateStreak(ctx, "u1", 3, "2024-03-01"))
	p, err := db.GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 3, p.CurrentStreak)

	require.NoError(t, db.SaveAchievementState(ctx, &models.AchievementState{
		UserID: "u1", AchievementID: "first_meal", Progress: 1, UnlockedAt: &now, LastUpdated: now,
	}))
	st, err := db.GetAchievementState(ctx, "u1", "first_meal")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.True(t, st.Unlocked())
}
