package ml

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/franckalain/nutritrack/internal/models"
	"google.golang.org/api/option"
)

// DefaultGoogleModel is the Gemini model used when none is configured
const DefaultGoogleModel = "gemini-1.5-flash"

// GoogleConfig holds configuration for the Google model
type GoogleConfig struct {
	BaseConfig      `yaml:",inline"`
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Location        string `json:"location" yaml:"location"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
	Model           string `json:"model" yaml:"model"`
}

// Load loads the Google configuration
func (c *GoogleConfig) Load() error {
	model := c.Model
	if err := c.LoadConfig(c.ConfigPath, "google", c); err != nil {
		return err
	}
	if model != "" {
		c.Model = model
	}

	// Fall back to environment variables if not set
	if c.ProjectID == "" {
		c.ProjectID = os.Getenv("GOOGLE_PROJECT_ID")
	}
	if c.Location == "" {
		c.Location = os.Getenv("GOOGLE_LOCATION")
	}
	if c.CredentialsFile == "" {
		c.CredentialsFile = os.Getenv("GOOGLE_CREDENTIALS_FILE")
	}
	if c.Model == "" {
		c.Model = DefaultGoogleModel
	}

	if c.ProjectID == "" || c.Location == "" {
		return fmt.Errorf("google model needs a project id and a location")
	}
	return nil
}

// GoogleModel implements the Model interface for Google's Vertex AI
type GoogleModel struct {
	config GoogleConfig
	client *genai.Client
	model  *genai.GenerativeModel
}

// GoogleModelFactory implements ModelFactory for Google models
type GoogleModelFactory struct {
	config GoogleConfig
}

// NewGoogleModelFactory creates a new Google model factory
func NewGoogleModelFactory(config GoogleConfig) *GoogleModelFactory {
	return &GoogleModelFactory{config: config}
}

// CreateModel creates a new Google model instance
func (f *GoogleModelFactory) CreateModel() (Model, error) {
	return &GoogleModel{
		config: f.config,
	}, nil
}

// Load initializes the Google model
func (m *GoogleModel) Load(ctx context.Context) error {
	opts := []option.ClientOption{}

	if m.config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(m.config.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, m.config.ProjectID, m.config.Location, opts...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	m.client = client
	m.model = client.GenerativeModel(m.config.Model)
	slog.Info("Vertex AI model ready", slog.String("model", m.config.Model), slog.String("location", m.config.Location))
	return nil
}

func (m *GoogleModel) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}

// AnalyzeImage estimates the nutrition of a photographed meal
func (m *GoogleModel) AnalyzeImage(ctx context.Context, data []byte, mimeType string) (*models.AnalysisResult, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	text, err := m.generate(ctx, genai.Text(imagePrompt), genai.Blob{MIMEType: mimeType, Data: data})
	if err != nil {
		return nil, err
	}
	return ParseAnalysis(text)
}

// AnalyzeAudio estimates the nutrition of a meal described in a voice recording
func (m *GoogleModel) AnalyzeAudio(ctx context.Context, data []byte, mimeType string) (*models.AnalysisResult, error) {
	if mimeType == "" {
		mimeType = "audio/m4a"
	}
	text, err := m.generate(ctx, genai.Blob{MIMEType: mimeType, Data: data}, genai.Text(audioPrompt))
	if err != nil {
		return nil, err
	}
	return ParseAnalysis(text)
}

// GenerateInsights asks the model for a report on a week of meals
func (m *GoogleModel) GenerateInsights(ctx context.Context, meals []models.Meal) (*models.InsightReport, error) {
	prompt, err := insightsPrompt(meals)
	if err != nil {
		return nil, err
	}
	text, err := m.generate(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}
	return ParseInsights(text)
}

// GenerateMealPlan asks the model for four meals adding up to targetCalories
func (m *GoogleModel) GenerateMealPlan(ctx context.Context, targetCalories float64, preferences string) ([]models.MealPlanItem, error) {
	text, err := m.generate(ctx, genai.Text(mealPlanPrompt(targetCalories, preferences)))
	if err != nil {
		return nil, err
	}
	return ParseMealPlan(text)
}

// generate calls the model and concatenates the text parts of the first candidate
func (m *GoogleModel) generate(ctx context.Context, parts ...genai.Part) (string, error) {
	if m.model == nil {
		return "", fmt.Errorf("%w: model not loaded", ErrAnalysis)
	}

	resp, err := m.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("%w: failed to call ai: %v", ErrAnalysis, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no response generated", ErrAnalysis)
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: no content in response", ErrAnalysis)
	}
	return sb.String(), nil
}
