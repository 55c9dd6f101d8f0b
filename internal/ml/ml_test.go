package ml

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/franckalain/nutritrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *models.AnalysisResult
	}{
		{
			name: "bare object",
			text: `{"food_name":"Apple","calories":95,"protein":0.5,"carbs":25,"fat":0.3,"confidence":0.9}`,
			want: &models.AnalysisResult{FoodName: "Apple", Calories: 95, Protein: 0.5, Carbs: 25, Fat: 0.3, Confidence: 0.9},
		},
		{
			name: "markdown fence and prose",
			text: "Sure! Here you go:\n```json\n{\"food_name\": \"Pizza slice\", \"calories\": 285, \"protein\": 12, \"carbs\": 36, \"fat\": 10, \"confidence\": 0.75}\n```\nEnjoy.",
			want: &models.AnalysisResult{FoodName: "Pizza slice", Calories: 285, Protein: 12, Carbs: 36, Fat: 10, Confidence: 0.75},
		},
		{
			name: "values are not clamped",
			text: `{"food_name":"Mystery","calories":-5,"confidence":3}`,
			want: &models.AnalysisResult{FoodName: "Mystery", Calories: -5, Confidence: 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnalysis(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAnalysis_Failures(t *testing.T) {
	for _, text := range []string{
		"I could not identify any food in this picture.",
		`{"food_name": "Soup", "calories": "lots"}`,
		`} backwards {`,
		`{"calories": 100}`,
	} {
		_, err := ParseAnalysis(text)
		assert.ErrorIs(t, err, ErrAnalysis, text)
	}
}

func TestParseMealPlan(t *testing.T) {
	text := "Plan:\n[{\"meal\":\"Breakfast\",\"food_name\":\"Eggs\",\"calories\":300,\"reason\":\"protein\"}," +
		"{\"meal\":\"Snack\",\"food_name\":\"Nuts\",\"calories\":200}]"

	plan, err := ParseMealPlan(text)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, models.CategoryBreakfast, plan[0].Meal)
	assert.Equal(t, "Nuts", plan[1].FoodName)

	_, err = ParseMealPlan(`{"meal":"Breakfast"}`)
	assert.ErrorIs(t, err, ErrAnalysis)
}

func TestParseInsights(t *testing.T) {
	r, err := ParseInsights(`{"summary":"ok","tips":["a","b","c"],"score":64,"nutrition_analysis":"fine"}`)
	require.NoError(t, err)
	assert.Equal(t, 64, r.Score)
	assert.Len(t, r.Tips, 3)
	assert.Equal(t, "fine", r.NutritionAnalysis)
}

func TestMealPlanPrompt_DefaultPreferences(t *testing.T) {
	assert.Contains(t, mealPlanPrompt(1800, ""), "Preferences: "+DefaultPreferences)
	assert.Contains(t, mealPlanPrompt(1800, "vegetarian"), "Preferences: vegetarian")
	assert.Contains(t, mealPlanPrompt(1800, ""), "target of 1800 calories")
}

func TestInsightsPrompt_IncludesMeals(t *testing.T) {
	prompt, err := insightsPrompt([]models.Meal{{FoodName: "Ramen", Calories: 650, Category: models.CategoryDinner, Date: "2024-03-01"}})
	require.NoError(t, err)
	assert.Contains(t, prompt, `"food":"Ramen"`)
	assert.Contains(t, prompt, `"kcal":650`)
}

func newLocal(t *testing.T, dir string) Model {
	t.Helper()
	m, err := NewModel(Options{Type: "local", Fixtures: dir})
	require.NoError(t, err)
	require.NoError(t, m.Load(context.Background()))
	t.Cleanup(func() { m.Close() })
	return m
}

func TestLocalModel_BuiltinFixtures(t *testing.T) {
	ctx := context.Background()
	m := newLocal(t, "")

	r, err := m.AnalyzeImage(ctx, []byte{0xff, 0xd8}, "image/jpeg")
	require.NoError(t, err)
	assert.NotEmpty(t, r.FoodName)

	_, err = m.AnalyzeAudio(ctx, nil, "audio/m4a")
	assert.ErrorIs(t, err, ErrAnalysis)

	report, err := m.GenerateInsights(ctx, []models.Meal{{FoodName: "x"}})
	require.NoError(t, err)
	assert.NotEmpty(t, report.Summary)

	plan, err := m.GenerateMealPlan(ctx, 1500, "")
	require.NoError(t, err)
	require.Len(t, plan, 4)
	var total float64
	for _, item := range plan {
		total += item.Calories
	}
	assert.InDelta(t, 1500, total, 2)
}

func TestLocalModel_FixtureOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.json"),
		[]byte(`{"food_name":"Sushi","calories":350,"protein":20,"carbs":45,"fat":8,"confidence":0.6}`), 0o644))
	m := newLocal(t, dir)

	r, err := m.AnalyzeImage(context.Background(), []byte("img"), "")
	require.NoError(t, err)
	assert.Equal(t, "Sushi", r.FoodName)

	// Files not overridden still come from the built-in set
	_, err = m.AnalyzeAudio(context.Background(), []byte("audio"), "")
	assert.NoError(t, err)
}

func TestNewModel_Unsupported(t *testing.T) {
	_, err := NewModel(Options{Type: "openai"})
	assert.Error(t, err)
}

func TestGoogleConfig_RequiresProject(t *testing.T) {
	t.Setenv("GOOGLE_PROJECT_ID", "")
	t.Setenv("GOOGLE_LOCATION", "")
	_, err := NewModel(Options{Type: "google", ConfigPath: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}

func TestGoogleConfig_LoadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "google.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project_id: demo\nlocation: europe-west1\n"), 0o644))

	c := GoogleConfig{BaseConfig: BaseConfig{ConfigPath: path}}
	require.NoError(t, c.Load())
	assert.Equal(t, "demo", c.ProjectID)
	assert.Equal(t, "europe-west1", c.Location)
	assert.Equal(t, DefaultGoogleModel, c.Model)
}
