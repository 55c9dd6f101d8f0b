package ml

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/franckalain/nutritrack/internal/models"
)

// DefaultPreferences is used when a meal plan is requested without any
const DefaultPreferences = "No specific preferences"

const imagePrompt = `Analyze this food image and provide nutritional information.
Return ONLY a JSON object with the following fields:
{
	"food_name": "Main food item identified",
	"calories": number,
	"protein": number (grams),
	"carbs": number (grams),
	"fat": number (grams),
	"confidence": number (0-1)
}`

const audioPrompt = `Listen to this audio description of a person talking about what they ate.
Extract the food items and provide nutritional information.
Return ONLY a JSON object with the following fields:
{
	"food_name": "Summary of food items mentioned",
	"calories": number,
	"protein": number,
	"carbs": number,
	"fat": number,
	"confidence": number (0-1)
}`

// mealSummary is the reduced meal shape sent to the model
type mealSummary struct {
	Food     string          `json:"food"`
	Kcal     float64         `json:"kcal"`
	Protein  float64         `json:"protein"`
	Carbs    float64         `json:"carbs"`
	Fat      float64         `json:"fat"`
	Category models.Category `json:"category"`
	Date     string          `json:"date"`
}

func insightsPrompt(meals []models.Meal) (string, error) {
	summary := make([]mealSummary, 0, len(meals))
	for _, m := range meals {
		summary = append(summary, mealSummary{
			Food:     m.FoodName,
			Kcal:     m.Calories,
			Protein:  m.Protein,
			Carbs:    m.Carbs,
			Fat:      m.Fat,
			Category: m.Category,
			Date:     m.Date,
		})
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("encode meals for prompt: %w", err)
	}

	return fmt.Sprintf(`Analyze the following meal logs for a user over the last 7 days:
%s

Provide a health insight report in JSON format with the following fields:
- summary: A brief summary of their eating pattern and nutrition quality.
- tips: An array of 3 actionable, specific health tips based on their actual food choices.
- score: A nutrition score from 0-100.
- nutrition_analysis: A more detailed analysis of their macro balance and caloric intake.

Format the response as a JSON string. Do not include markdown formatting.`, data), nil
}

func mealPlanPrompt(targetCalories float64, preferences string) string {
	if strings.TrimSpace(preferences) == "" {
		preferences = DefaultPreferences
	}
	return fmt.Sprintf(`Generate a daily meal plan for a target of %.0f calories.
Preferences: %s

Return ONLY a JSON array of 4 meals (Breakfast, Lunch, Dinner, Snack) with these fields:
[
	{
		"meal": "Breakfast",
		"food_name": "string",
		"calories": number,
		"protein": number,
		"carbs": number,
		"fat": number,
		"reason": "Why this is good for the target"
	}
]`, targetCalories, preferences)
}
