package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/franckalain/nutritrack/internal/models"
)

// ErrAnalysis wraps every failure to obtain or parse a model response
var ErrAnalysis = errors.New("AI analysis failed")

// extractJSON returns the text between the first open and the last close
// delimiter, dropping any prose or markdown fences around it.
func extractJSON(text string, open, close byte) (string, error) {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: no JSON %c...%c block in response", ErrAnalysis, open, close)
	}
	return text[start : end+1], nil
}

func decode(text string, open, close byte, out interface{}) error {
	block, err := extractJSON(text, open, close)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(block), out); err != nil {
		return fmt.Errorf("%w: failed to parse model response: %v", ErrAnalysis, err)
	}
	return nil
}

// ParseAnalysis reads a food analysis object out of a model response
func ParseAnalysis(text string) (*models.AnalysisResult, error) {
	var out models.AnalysisResult
	if err := decode(text, '{', '}', &out); err != nil {
		return nil, err
	}
	if out.FoodName == "" {
		return nil, fmt.Errorf("%w: response names no food", ErrAnalysis)
	}
	return &out, nil
}

// ParseInsights reads an insight report object out of a model response
func ParseInsights(text string) (*models.InsightReport, error) {
	var out models.InsightReport
	if err := decode(text, '{', '}', &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParseMealPlan reads a meal plan array out of a model response
func ParseMealPlan(text string) ([]models.MealPlanItem, error) {
	var out []models.MealPlanItem
	if err := decode(text, '[', ']', &out); err != nil {
		return nil, err
	}
	return out, nil
}
