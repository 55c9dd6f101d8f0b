package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/franckalain/nutritrack/internal/models"
)

// ErrNotFound is returned when deleting or fetching a specific meal that does not exist.
// Absent water logs, profiles and achievement states are not errors: getters return nil, nil.
var ErrNotFound = errors.New("record not found")

// MaxDatesPerQuery bounds set-membership date queries to one weekly window
const MaxDatesPerQuery = 7

// DB interface defines the log store the tracking core depends on.
// Every record is partitioned by user id.
type DB interface {
	SaveMeal(ctx context.Context, meal *models.Meal) error
	GetMeal(ctx context.Context, userID, id string) (*models.Meal, error)
	DeleteMeal(ctx context.Context, userID, id string) error
	// MealsByDate returns one day's meals, newest first
	MealsByDate(ctx context.Context, userID, date string) ([]models.Meal, error)
	// MealsByDates returns the meals of up to MaxDatesPerQuery dates in no particular order
	MealsByDates(ctx context.Context, userID string, dates []string) ([]models.Meal, error)
	// AllMeals returns every meal ordered by date then creation time, both descending
	AllMeals(ctx context.Context, userID string) ([]models.Meal, error)

	GetWater(ctx context.Context, userID, date string) (*models.WaterLog, error)
	WaterByDates(ctx context.Context, userID string, dates []string) ([]models.WaterLog, error)
	// AddWater creates or increments the (user, date) record and reports the
	// amount before and after this call
	AddWater(ctx context.Context, userID, date string, amount float64, at time.Time) (prior, updated float64, err error)

	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, profile *models.UserProfile) error
	// UpdateStreak writes the streak fields, creating a bare profile if needed
	UpdateStreak(ctx context.Context, userID string, streak int, lastLogDate string) error

	ListAchievementStates(ctx context.Context, userID string) ([]models.AchievementState, error)
	GetAchievementState(ctx context.Context, userID, achievementID string) (*models.AchievementState, error)
	SaveAchievementState(ctx context.Context, state *models.AchievementState) error

	Close() error
}

// Open creates the store selected by driver ("sqlite" or "mongo")
func Open(ctx context.Context, driver, path, uri, name string) (DB, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLiteDB(path)
	case "mongo":
		return NewMongoDB(ctx, uri, name)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func checkDates(dates []string) error {
	if len(dates) > MaxDatesPerQuery {
		return fmt.Errorf("too many dates in query: %d (max %d)", len(dates), MaxDatesPerQuery)
	}
	return nil
}
