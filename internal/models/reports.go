package models

// AnalysisResult is the AI estimate for a photographed or described meal
type AnalysisResult struct {
	FoodName   string  `json:"food_name"`
	Calories   float64 `json:"calories"`
	Protein    float64 `json:"protein"`
	Carbs      float64 `json:"carbs"`
	Fat        float64 `json:"fat"`
	Confidence float64 `json:"confidence"` // 0-1
}

// InsightReport is the weekly health report produced from logged meals
type InsightReport struct {
	Summary           string   `json:"summary"`
	Tips              []string `json:"tips"`
	Score             int      `json:"score"` // 0-100
	NutritionAnalysis string   `json:"nutrition_analysis"`
}

// MealPlanItem is one suggested meal of a generated daily plan
type MealPlanItem struct {
	Meal     Category `json:"meal"`
	FoodName string   `json:"food_name"`
	Calories float64  `json:"calories"`
	Protein  float64  `json:"protein"`
	Carbs    float64  `json:"carbs"`
	Fat      float64  `json:"fat"`
	Reason   string   `json:"reason"`
}
