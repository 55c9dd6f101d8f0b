package ml

import (
	"context"
	"fmt"

	"github.com/franckalain/nutritrack/internal/models"
)

// Analyzer estimates the nutrition of a meal from a photo or a spoken description
type Analyzer interface {
	AnalyzeImage(ctx context.Context, data []byte, mimeType string) (*models.AnalysisResult, error)
	AnalyzeAudio(ctx context.Context, data []byte, mimeType string) (*models.AnalysisResult, error)
}

// ReportGenerator writes weekly insights and daily meal plans
type ReportGenerator interface {
	GenerateInsights(ctx context.Context, meals []models.Meal) (*models.InsightReport, error)
	GenerateMealPlan(ctx context.Context, targetCalories float64, preferences string) ([]models.MealPlanItem, error)
}

// Model represents a generative model backing both interfaces
type Model interface {
	Analyzer
	ReportGenerator
	// Load initializes the model with its configuration
	Load(ctx context.Context) error
	Close() error
}

// ModelFactory creates a new model instance based on configuration
type ModelFactory interface {
	// CreateModel creates a new model instance
	CreateModel() (Model, error)
}

// Options select and configure a model. Fields left empty are read from
// the provider config file or the environment.
type Options struct {
	Type       string // "google" or "local"
	ConfigPath string
	ModelName  string
	Fixtures   string
}

// NewModel creates a new model instance based on the model type
func NewModel(opts Options) (Model, error) {
	var factory ModelFactory

	switch opts.Type {
	case "google":
		config := GoogleConfig{
			BaseConfig: BaseConfig{ConfigPath: opts.ConfigPath},
			Model:      opts.ModelName,
		}
		if err := config.Load(); err != nil {
			return nil, fmt.Errorf("failed to load Google config: %w", err)
		}
		factory = NewGoogleModelFactory(config)
	case "", "local":
		config := LocalConfig{
			BaseConfig:  BaseConfig{ConfigPath: opts.ConfigPath},
			FixturesDir: opts.Fixtures,
		}
		if err := config.Load(); err != nil {
			return nil, fmt.Errorf("failed to load local config: %w", err)
		}
		factory = NewLocalModelFactory(config)
	default:
		return nil, fmt.Errorf("unsupported model type: %s", opts.Type)
	}
	return factory.CreateModel()
}
