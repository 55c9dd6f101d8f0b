package models

import (
	"time"
)

// Source tells how a meal's nutrition values were obtained
type Source string

const (
	SourceAI     Source = "AI"
	SourceManual Source = "manual"
)

// Valid reports whether s is a known source
func (s Source) Valid() bool {
	return s == SourceAI || s == SourceManual
}

// Category is the meal slot a food entry belongs to
type Category string

const (
	CategoryBreakfast Category = "Breakfast"
	CategoryLunch     Category = "Lunch"
	CategoryDinner    Category = "Dinner"
	CategorySnack     Category = "Snack"
)

// Valid reports whether c is one of the four meal categories
func (c Category) Valid() bool {
	switch c {
	case CategoryBreakfast, CategoryLunch, CategoryDinner, CategorySnack:
		return true
	}
	return false
}

// Meal represents one logged food entry. Meals are never updated in place.
type Meal struct {
	ID       string   `json:"id" bson:"_id"`
	UserID   string   `json:"user_id" bson:"user_id"`
	FoodName string   `json:"food_name" bson:"food_name"`
	Calories float64  `json:"calories" bson:"calories"` // kcal
	Protein  float64  `json:"protein" bson:"protein"`   // grams
	Carbs    float64  `json:"carbs" bson:"carbs"`       // grams
	Fat      float64  `json:"fat" bson:"fat"`           // grams
	Source   Source   `json:"source" bson:"source"`
	Category Category `json:"category" bson:"category"`

	// Date is the user-local calendar date (YYYY-MM-DD) the meal counts towards
	Date      string    `json:"date" bson:"date"`
	ImageURL  string    `json:"image_url,omitempty" bson:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// WaterLog is the per-user, per-date water accumulator
type WaterLog struct {
	UserID    string    `json:"user_id" bson:"user_id"`
	Date      string    `json:"date" bson:"date"`
	Amount    float64   `json:"amount" bson:"amount"` // ml
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// DefaultCalorieTarget is used when a user has no profile or no positive target
const DefaultCalorieTarget = 2000

// UserProfile holds the per-user fields the tracking core reads and writes
type UserProfile struct {
	UserID             string    `json:"user_id" bson:"_id"`
	Name               string    `json:"name,omitempty" bson:"name,omitempty"`
	Goal               string    `json:"goal,omitempty" bson:"goal,omitempty"`
	CalorieTarget      float64   `json:"calorie_target" bson:"calorie_target"`
	CurrentStreak      int       `json:"current_streak" bson:"current_streak"`
	LastLogDate        string    `json:"last_log_date,omitempty" bson:"last_log_date,omitempty"`
	OnboardingComplete bool      `json:"onboarding_complete" bson:"onboarding_complete"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at"`
}

// Target returns the calorie target, falling back to DefaultCalorieTarget
func (p *UserProfile) Target() float64 {
	if p == nil || p.CalorieTarget <= 0 {
		return DefaultCalorieTarget
	}
	return p.CalorieTarget
}

// DailyTotals is the sum of every meal logged on one date
type DailyTotals struct {
	Date     string  `json:"date"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Meals    int     `json:"meals"`
}

// Add accumulates one meal into the totals
func (t *DailyTotals) Add(m Meal) {
	t.Calories += m.Calories
	t.Protein += m.Protein
	t.Carbs += m.Carbs
	t.Fat += m.Fat
	t.Meals++
}

// MacroTargets are daily gram targets derived from a calorie target
type MacroTargets struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

// Dashboard is the daily summary shown on the home and stats screens
type Dashboard struct {
	Totals            DailyTotals  `json:"totals"`
	CalorieTarget     float64      `json:"calorie_target"`
	RemainingCalories float64      `json:"remaining_calories"`
	ProgressPercent   int          `json:"progress_percent"`
	MacroTargets      MacroTargets `json:"macro_targets"`
	Water             float64      `json:"water"`
	CurrentStreak     int          `json:"current_streak"`
}

// DayCalories is one bar of the weekly calorie chart
type DayCalories struct {
	Date          string  `json:"date"`
	TotalCalories float64 `json:"total_calories"`
}

// DayWater is one bar of the weekly water chart
type DayWater struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// HistoryGroup is all meals of one date with their calorie total
type HistoryGroup struct {
	Date          string  `json:"date"`
	TotalCalories float64 `json:"total_calories"`
	Meals         []Meal  `json:"meals"`
}
