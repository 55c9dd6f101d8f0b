package models

import "time"

// AchievementCategory groups catalog entries
type AchievementCategory string

const (
	AchievementMeals  AchievementCategory = "meals"
	AchievementStreak AchievementCategory = "streak"
	AchievementWater  AchievementCategory = "water"
	AchievementWeight AchievementCategory = "weight"
)

// Achievement is a fixed catalog definition, not owned by any user
type Achievement struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Icon        string              `json:"icon"`
	Category    AchievementCategory `json:"category"`
	Target      float64             `json:"target"`
}

// AchievementState is one user's stored progress towards one achievement
type AchievementState struct {
	UserID        string     `json:"user_id" bson:"user_id"`
	AchievementID string     `json:"achievement_id" bson:"achievement_id"`
	Progress      float64    `json:"progress" bson:"progress"`
	UnlockedAt    *time.Time `json:"unlocked_at,omitempty" bson:"unlocked_at,omitempty"`
	LastUpdated   time.Time  `json:"last_updated" bson:"last_updated"`
}

// Unlocked reports whether the unlock timestamp has been written
func (s *AchievementState) Unlocked() bool {
	return s != nil && s.UnlockedAt != nil
}

// AchievementStatus joins a catalog entry with a user's state at read time
type AchievementStatus struct {
	Achievement
	Progress   float64    `json:"progress"`
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}
