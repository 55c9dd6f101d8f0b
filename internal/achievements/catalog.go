// Package achievements tracks per-user progress against a fixed catalog of milestones.
package achievements

import "github.com/franckalain/nutritrack/internal/models"

// Catalog ids
const (
	FirstMeal    = "first_meal"
	Streak7      = "streak_7"
	Water3       = "water_3"
	CalorieGoal5 = "calorie_goal_5"
)

// catalog is the static definition table. Per-user progress is stored
// separately and joined at read time.
var catalog = []models.Achievement{
	{
		ID:          FirstMeal,
		Title:       "Novice Logger",
		Description: "Log your first meal to start your journey.",
		Icon:        "utensils",
		Category:    models.AchievementMeals,
		Target:      1,
	},
	{
		ID:          Streak7,
		Title:       "Dedicated",
		Description: "Maintain a 7-day meal logging streak.",
		Icon:        "flame",
		Category:    models.AchievementStreak,
		Target:      7,
	},
	{
		ID:          Water3,
		Title:       "Water Wizard",
		Description: "Meet your hydration goal for 3 days.",
		Icon:        "droplet",
		Category:    models.AchievementWater,
		Target:      3,
	},
	{
		// Listed for display only: no event drives it yet.
		ID:          CalorieGoal5,
		Title:       "Calorie Conscious",
		Description: "Stay within your calorie goal for 5 days.",
		Icon:        "target",
		Category:    models.AchievementMeals,
		Target:      5,
	},
}

// Catalog returns a copy of the catalog in display order
func Catalog() []models.Achievement {
	out := make([]models.Achievement, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a catalog entry by id
func Lookup(id string) (models.Achievement, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return models.Achievement{}, false
}
