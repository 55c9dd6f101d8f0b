package ml

import (
	"context"
	"embed"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/franckalain/nutritrack/internal/models"
)

//go:embed fixtures/*.json
var builtinFixtures embed.FS

// LocalConfig holds configuration for the local model
type LocalConfig struct {
	BaseConfig `yaml:",inline"`
	// FixturesDir overrides the built-in canned responses file by file
	FixturesDir string `json:"fixtures_dir" yaml:"fixtures_dir"`
}

// Load loads the local configuration
func (c *LocalConfig) Load() error {
	dir := c.FixturesDir
	if err := c.LoadConfig(c.ConfigPath, "local", c); err != nil {
		return err
	}
	if dir != "" {
		c.FixturesDir = dir
	}

	// Fall back to environment variables if not set
	if c.FixturesDir == "" {
		c.FixturesDir = os.Getenv("LOCAL_MODEL_FIXTURES")
	}
	return nil
}

// LocalModel answers from canned responses. It needs no network access and
// runs responses through the same parsers as the remote model.
type LocalModel struct {
	config LocalConfig
}

// LocalModelFactory implements ModelFactory for local models
type LocalModelFactory struct {
	config LocalConfig
}

// NewLocalModelFactory creates a new local model factory
func NewLocalModelFactory(config LocalConfig) *LocalModelFactory {
	return &LocalModelFactory{config: config}
}

// CreateModel creates a new local model instance
func (f *LocalModelFactory) CreateModel() (Model, error) {
	return &LocalModel{
		config: f.config,
	}, nil
}

// Load checks that every canned response can be read
func (m *LocalModel) Load(ctx context.Context) error {
	for _, name := range []string{"image.json", "audio.json", "insights.json", "meal_plan.json"} {
		if _, err := m.fixture(name); err != nil {
			return err
		}
	}
	return nil
}

func (m *LocalModel) Close() error { return nil }

func (m *LocalModel) AnalyzeImage(ctx context.Context, data []byte, mimeType string) (*models.AnalysisResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrAnalysis)
	}
	return m.analysis("image.json")
}

func (m *LocalModel) AnalyzeAudio(ctx context.Context, data []byte, mimeType string) (*models.AnalysisResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty recording", ErrAnalysis)
	}
	return m.analysis("audio.json")
}

func (m *LocalModel) GenerateInsights(ctx context.Context, meals []models.Meal) (*models.InsightReport, error) {
	text, err := m.fixture("insights.json")
	if err != nil {
		return nil, err
	}
	return ParseInsights(text)
}

// GenerateMealPlan scales the canned plan so its calories add up to targetCalories
func (m *LocalModel) GenerateMealPlan(ctx context.Context, targetCalories float64, preferences string) ([]models.MealPlanItem, error) {
	text, err := m.fixture("meal_plan.json")
	if err != nil {
		return nil, err
	}
	plan, err := ParseMealPlan(text)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, item := range plan {
		total += item.Calories
	}
	if total <= 0 || targetCalories <= 0 {
		return plan, nil
	}
	f := targetCalories / total
	for i := range plan {
		plan[i].Calories = math.Round(plan[i].Calories * f)
		plan[i].Protein = math.Round(plan[i].Protein * f)
		plan[i].Carbs = math.Round(plan[i].Carbs * f)
		plan[i].Fat = math.Round(plan[i].Fat * f)
	}
	return plan, nil
}

func (m *LocalModel) analysis(name string) (*models.AnalysisResult, error) {
	text, err := m.fixture(name)
	if err != nil {
		return nil, err
	}
	return ParseAnalysis(text)
}

// fixture reads name from the configured directory, then from the built-in set
func (m *LocalModel) fixture(name string) (string, error) {
	if m.config.FixturesDir != "" {
		data, err := os.ReadFile(filepath.Join(m.config.FixturesDir, name))
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("%w: read fixture %s: %v", ErrAnalysis, name, err)
		}
	}
	data, err := builtinFixtures.ReadFile("fixtures/" + name)
	if err != nil {
		return "", fmt.Errorf("%w: no fixture %s: %v", ErrAnalysis, name, err)
	}
	return string(data), nil
}
