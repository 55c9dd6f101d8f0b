package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/franckalain/nutritrack/internal/metrics"
	"github.com/franckalain/nutritrack/internal/models"
	"github.com/franckalain/nutritrack/internal/tracker"
	"github.com/franckalain/nutritrack/internal/water"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Service is the tracking API the transports expose
type Service interface {
	LogMeal(ctx context.Context, userID string, in tracker.MealInput) (*tracker.LoggedMeal, error)
	Meal(ctx context.Context, userID, id string) (*models.Meal, error)
	DeleteMeal(ctx context.Context, userID, id string) error
	LogWater(ctx context.Context, userID string, amountMl float64) (water.Result, error)
	Water(ctx context.Context, userID, date string) (float64, error)
	Dashboard(ctx context.Context, userID, date string) (*models.Dashboard, error)
	Weekly(ctx context.Context, userID, ref string) (*tracker.Weekly, error)
	History(ctx context.Context, userID string) ([]models.HistoryGroup, error)
	Achievements(ctx context.Context, userID string) ([]models.AchievementStatus, error)
	Profile(ctx context.Context, userID string) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, p *models.UserProfile) error
	AnalyzeImage(ctx context.Context, data []byte, mimeType string) (*models.AnalysisResult, error)
	AnalyzeAudio(ctx context.Context, data []byte, mimeType string) (*models.AnalysisResult, error)
	Insights(ctx context.Context, userID string) (*models.InsightReport, error)
	MealPlan(ctx context.Context, userID, preferences string) ([]models.MealPlanItem, error)
	AcceptPlanItem(ctx context.Context, userID string, item models.MealPlanItem) (*tracker.LoggedMeal, error)
}

// Options configure a Server
type Options struct {
	// JWTSecret enables bearer authentication; empty trusts DevUserHeader
	JWTSecret   string
	StaticDir   string
	CORSOrigins []string
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	// AccessLog receives one line per request; nil discards
	AccessLog io.Writer
}

type Server struct {
	svc       Service
	hub       *Hub
	secret    string
	staticDir string
	origins   []string
	metrics   *metrics.Metrics
	logger    *slog.Logger
	accessLog io.Writer
}

func New(svc Service, hub *Hub, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.AccessLog == nil {
		opts.AccessLog = io.Discard
	}
	if hub == nil {
		hub = NewHub()
	}
	if opts.JWTSecret == "" {
		opts.Logger.Warn("No JWT secret configured, trusting the " + DevUserHeader + " header")
	}
	return &Server{
		svc:       svc,
		hub:       hub,
		secret:    opts.JWTSecret,
		staticDir: opts.StaticDir,
		origins:   opts.CORSOrigins,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		accessLog: opts.AccessLog,
	}
}

// Handler builds the routed, logged and CORS-wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.authMiddleware)
	api.HandleFunc("/meals", s.handleLogMeal).Methods(http.MethodPost)
	api.HandleFunc("/meals/{id}", s.handleGetMeal).Methods(http.MethodGet)
	api.HandleFunc("/meals/{id}", s.handleDeleteMeal).Methods(http.MethodDelete)
	api.HandleFunc("/water", s.handleLogWater).Methods(http.MethodPost)
	api.HandleFunc("/water", s.handleGetWater).Methods(http.MethodGet)
	api.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/weekly", s.handleWeekly).Methods(http.MethodGet)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/achievements", s.handleAchievements).Methods(http.MethodGet)
	api.HandleFunc("/profile", s.handleGetProfile).Methods(http.MethodGet)
	api.HandleFunc("/profile", s.handleSaveProfile).Methods(http.MethodPut)
	api.HandleFunc("/analyze/image", s.handleAnalyze(s.svc.AnalyzeImage)).Methods(http.MethodPost)
	api.HandleFunc("/analyze/audio", s.handleAnalyze(s.svc.AnalyzeAudio)).Methods(http.MethodPost)
	api.HandleFunc("/insights", s.handleInsights).Methods(http.MethodGet)
	api.HandleFunc("/meal-plan", s.handleMealPlan).Methods(http.MethodPost)
	api.HandleFunc("/meal-plan/accept", s.handleAcceptPlanItem).Methods(http.MethodPost)

	// Serve static files
	if s.staticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
	}

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization", DevUserHeader}),
	)
	return handlers.LoggingHandler(s.accessLog, handlers.RecoveryHandler()(cors(r)))
}

// Start serves on port until ctx is cancelled or the process receives
// SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", slog.String("port", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.hub.Close()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
