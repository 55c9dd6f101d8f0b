package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/franckalain/nutritrack/internal/calendar"
	"github.com/franckalain/nutritrack/internal/database"
	"github.com/franckalain/nutritrack/internal/ml"
	"github.com/franckalain/nutritrack/internal/models"
	"github.com/franckalain/nutritrack/internal/tracker"
	"github.com/franckalain/nutritrack/internal/water"
	"github.com/gorilla/mux"
)

// maxUploadBytes bounds photo and voice uploads
const maxUploadBytes = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, tracker.ErrInvalidMeal), errors.Is(err, tracker.ErrInvalidProfile),
		errors.Is(err, water.ErrInvalidAmount), errors.Is(err, calendar.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tracker.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ml.ErrAnalysis):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		if status == http.StatusInternalServerError {
			writeError(w, status, "internal error")
			return
		}
	}
	writeError(w, status, err.Error())
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func user(r *http.Request) string {
	id, _ := UserID(r.Context())
	return id
}

func (s *Server) handleLogMeal(w http.ResponseWriter, r *http.Request) {
	var in tracker.MealInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid meal body: "+err.Error())
		return
	}
	out, err := s.svc.LogMeal(r.Context(), user(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleGetMeal(w http.ResponseWriter, r *http.Request) {
	meal, err := s.svc.Meal(r.Context(), user(r), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if meal == nil {
		writeError(w, http.StatusNotFound, "meal not found")
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

func (s *Server) handleDeleteMeal(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteMeal(r.Context(), user(r), mux.Vars(r)["id"]); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type waterRequest struct {
	Amount float64 `json:"amount"`
}

func (s *Server) handleLogWater(w http.ResponseWriter, r *http.Request) {
	var req waterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid water body: "+err.Error())
		return
	}
	res, err := s.svc.LogWater(r.Context(), user(r), req.Amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetWater(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	amount, err := s.svc.Water(r.Context(), user(r), date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "amount": amount})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard(r.Context(), user(r), r.URL.Query().Get("date"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	wk, err := s.svc.Weekly(r.Context(), user(r), r.URL.Query().Get("ref"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wk)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	groups, err := s.svc.History(r.Context(), user(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if groups == nil {
		groups = []models.HistoryGroup{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Achievements(r.Context(), user(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Profile(r.Context(), user(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var p models.UserProfile
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile body: "+err.Error())
		return
	}
	// The authenticated user wins over whatever the body claims
	p.UserID = user(r)
	if err := s.svc.SaveProfile(r.Context(), &p); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &p)
}

type analyzeFunc func(ctx context.Context, data []byte, mimeType string) (*models.AnalysisResult, error)

// handleAnalyze takes the raw media as the body; Content-Type names its format
func (s *Server) handleAnalyze(analyze analyzeFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		if len(data) == 0 {
			writeError(w, http.StatusBadRequest, "empty upload")
			return
		}
		res, err := analyze(r.Context(), data, r.Header.Get("Content-Type"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Insights(r.Context(), user(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type mealPlanRequest struct {
	Preferences string `json:"preferences"`
}

func (s *Server) handleMealPlan(w http.ResponseWriter, r *http.Request) {
	var req mealPlanRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid meal plan body: "+err.Error())
			return
		}
	}
	plan, err := s.svc.MealPlan(r.Context(), user(r), req.Preferences)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleAcceptPlanItem(w http.ResponseWriter, r *http.Request) {
	var item models.MealPlanItem
	if err := decodeBody(r, &item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid meal plan item: "+err.Error())
		return
	}
	out, err := s.svc.AcceptPlanItem(r.Context(), user(r), item)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}
