package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/franckalain/nutritrack/internal/models"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteDB implements the DB interface
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
	}

	// Immediate transactions take the write lock up front so two
	// read-modify-write transactions never both read the old value.
	dsn := dbPath + "?_pragma=foreign_keys(on)&_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing schema: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

func initializeSchema(db *sql.DB) error {
	schemaBytes, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("error reading schema file: %w", err)
	}

	if _, err := db.Exec(string(schemaBytes)); err != nil {
		return fmt.Errorf("error executing schema: %w", err)
	}

	slog.Debug("Database schema initialized")
	return nil
}

const mealColumns = `id, user_id, food_name, calories, protein, carbs, fat, source, category, date, image_url, created_at`

// SaveMeal inserts a new meal
func (s *SQLiteDB) SaveMeal(ctx context.Context, meal *models.Meal) error {
	query := `INSERT INTO meals (` + mealColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if meal.CreatedAt.IsZero() {
		meal.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		meal.ID, meal.UserID, meal.FoodName,
		meal.Calories, meal.Protein, meal.Carbs, meal.Fat,
		string(meal.Source), string(meal.Category), meal.Date,
		nullString(meal.ImageURL), formatTime(meal.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert meal: %w", err)
	}
	return nil
}

// GetMeal retrieves one meal, or nil if it does not exist
func (s *SQLiteDB) GetMeal(ctx context.Context, userID, id string) (*models.Meal, error) {
	query := `SELECT ` + mealColumns + ` FROM meals WHERE user_id = ? AND id = ?`

	meal, err := scanMeal(s.db.QueryRowContext(ctx, query, userID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &meal, nil
}

// DeleteMeal removes one meal
func (s *SQLiteDB) DeleteMeal(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM meals WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("meal %s: %w", id, ErrNotFound)
	}
	return nil
}

// MealsByDate returns one day's meals, newest first
func (s *SQLiteDB) MealsByDate(ctx context.Context, userID, date string) ([]models.Meal, error) {
	query := `SELECT ` + mealColumns + ` FROM meals WHERE user_id = ? AND date = ? ORDER BY created_at DESC`
	return s.queryMeals(ctx, query, userID, date)
}

// MealsByDates returns the meals of the given dates
func (s *SQLiteDB) MealsByDates(ctx context.Context, userID string, dates []string) ([]models.Meal, error) {
	if err := checkDates(dates); err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, nil
	}
	query := `SELECT ` + mealColumns + ` FROM meals WHERE user_id = ? AND date IN (` + placeholders(len(dates)) + `)`
	return s.queryMeals(ctx, query, withDates(userID, dates)...)
}

// AllMeals returns every meal of a user, most recent first
func (s *SQLiteDB) AllMeals(ctx context.Context, userID string) ([]models.Meal, error) {
	query := `SELECT ` + mealColumns + ` FROM meals WHERE user_id = ? ORDER BY date DESC, created_at DESC`
	return s.queryMeals(ctx, query, userID)
}

func (s *SQLiteDB) queryMeals(ctx context.Context, query string, args ...any) ([]models.Meal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query meals: %w", err)
	}
	defer rows.Close()

	var meals []models.Meal
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

// GetWater returns the water record of one date, or nil if none was logged
func (s *SQLiteDB) GetWater(ctx context.Context, userID, date string) (*models.WaterLog, error) {
	query := `SELECT user_id, date, amount, updated_at FROM water_logs WHERE user_id = ? AND date = ?`

	w, err := scanWater(s.db.QueryRowContext(ctx, query, userID, date))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// WaterByDates returns the water records that exist for the given dates
func (s *SQLiteDB) WaterByDates(ctx context.Context, userID string, dates []string) ([]models.WaterLog, error) {
	if err := checkDates(dates); err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, nil
	}
	query := `SELECT user_id, date, amount, updated_at FROM water_logs WHERE user_id = ? AND date IN (` + placeholders(len(dates)) + `)`

	rows, err := s.db.QueryContext(ctx, query, withDates(userID, dates)...)
	if err != nil {
		return nil, fmt.Errorf("query water: %w", err)
	}
	defer rows.Close()

	var logs []models.WaterLog
	for rows.Next() {
		w, err := scanWater(rows)
		if err != nil {
			return nil, fmt.Errorf("scan water: %w", err)
		}
		logs = append(logs, w)
	}
	return logs, rows.Err()
}

// AddWater increments the day's water record inside one transaction
func (s *SQLiteDB) AddWater(ctx context.Context, userID, date string, amount float64, at time.Time) (float64, float64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	var prior float64
	err = tx.QueryRowContext(ctx,
		`SELECT amount FROM water_logs WHERE user_id = ? AND date = ?`, userID, date).Scan(&prior)
	if err != nil && err != sql.ErrNoRows {
		return 0, 0, fmt.Errorf("read water: %w", err)
	}

	updated := prior + amount
	_, err = tx.ExecContext(ctx, `
		INSERT INTO water_logs (user_id, date, amount, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			amount = excluded.amount,
			updated_at = excluded.updated_at`,
		userID, date, updated, formatTime(at))
	if err != nil {
		return 0, 0, fmt.Errorf("write water: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return prior, updated, nil
}

// GetProfile returns the user's profile, or nil if none exists
func (s *SQLiteDB) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := `
		SELECT user_id, name, goal, calorie_target, current_streak, last_log_date,
			onboarding_complete, created_at
		FROM profiles WHERE user_id = ?`

	var p models.UserProfile
	var name, goal, lastLog sql.NullString
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &name, &goal, &p.CalorieTarget, &p.CurrentStreak, &lastLog,
		&p.OnboardingComplete, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Name = name.String
	p.Goal = goal.String
	p.LastLogDate = lastLog.String
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

// SaveProfile creates or replaces the descriptive profile fields. The
// streak fields are only written by UpdateStreak.
func (s *SQLiteDB) SaveProfile(ctx context.Context, p *models.UserProfile) error {
	query := `
		INSERT INTO profiles (user_id, name, goal, calorie_target, onboarding_complete, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			name = excluded.name,
			goal = excluded.goal,
			calorie_target = excluded.calorie_target,
			onboarding_complete = excluded.onboarding_complete`

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, query,
		p.UserID, nullString(p.Name), nullString(p.Goal), p.CalorieTarget,
		p.OnboardingComplete, formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// UpdateStreak writes the streak fields of a profile
func (s *SQLiteDB) UpdateStreak(ctx context.Context, userID string, streak int, lastLogDate string) error {
	query := `
		INSERT INTO profiles (user_id, current_streak, last_log_date, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			current_streak = excluded.current_streak,
			last_log_date = excluded.last_log_date`

	_, err := s.db.ExecContext(ctx, query, userID, streak, nullString(lastLogDate), formatTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("update streak: %w", err)
	}
	return nil
}

// ListAchievementStates returns every stored achievement state of a user
func (s *SQLiteDB) ListAchievementStates(ctx context.Context, userID string) ([]models.AchievementState, error) {
	query := `SELECT user_id, achievement_id, progress, unlocked_at, last_updated
		FROM achievement_states WHERE user_id = ?`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query achievements: %w", err)
	}
	defer rows.Close()

	var states []models.AchievementState
	for rows.Next() {
		st, err := scanAchievementState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		states = append(states, st)
	}
	return states, rows.Err()
}

// GetAchievementState returns one stored state, or nil if never updated
func (s *SQLiteDB) GetAchievementState(ctx context.Context, userID, achievementID string) (*models.AchievementState, error) {
	query := `SELECT user_id, achievement_id, progress, unlocked_at, last_updated
		FROM achievement_states WHERE user_id = ? AND achievement_id = ?`

	st, err := scanAchievementState(s.db.QueryRowContext(ctx, query, userID, achievementID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// SaveAchievementState creates or replaces a state
func (s *SQLiteDB) SaveAchievementState(ctx context.Context, st *models.AchievementState) error {
	query := `
		INSERT INTO achievement_states (user_id, achievement_id, progress, unlocked_at, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, achievement_id) DO UPDATE SET
			progress = excluded.progress,
			unlocked_at = excluded.unlocked_at,
			last_updated = excluded.last_updated`

	var unlocked *string
	if st.UnlockedAt != nil {
		u := formatTime(*st.UnlockedAt)
		unlocked = &u
	}
	_, err := s.db.ExecContext(ctx, query,
		st.UserID, st.AchievementID, st.Progress, unlocked, formatTime(st.LastUpdated))
	if err != nil {
		return fmt.Errorf("save achievement: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeal(row scanner) (models.Meal, error) {
	var m models.Meal
	var source, category, createdAt string
	var imageURL sql.NullString

	err := row.Scan(
		&m.ID, &m.UserID, &m.FoodName,
		&m.Calories, &m.Protein, &m.Carbs, &m.Fat,
		&source, &category, &m.Date, &imageURL, &createdAt,
	)
	if err != nil {
		return m, err
	}
	m.Source = models.Source(source)
	m.Category = models.Category(category)
	m.ImageURL = imageURL.String
	m.CreatedAt = parseTime(createdAt)
	return m, nil
}

func scanWater(row scanner) (models.WaterLog, error) {
	var w models.WaterLog
	var updatedAt string
	if err := row.Scan(&w.UserID, &w.Date, &w.Amount, &updatedAt); err != nil {
		return w, err
	}
	w.UpdatedAt = parseTime(updatedAt)
	return w, nil
}

func scanAchievementState(row scanner) (models.AchievementState, error) {
	var st models.AchievementState
	var unlocked sql.NullString
	var lastUpdated string
	if err := row.Scan(&st.UserID, &st.AchievementID, &st.Progress, &unlocked, &lastUpdated); err != nil {
		return st, err
	}
	if unlocked.Valid {
		t := parseTime(unlocked.String)
		st.UnlockedAt = &t
	}
	st.LastUpdated = parseTime(lastUpdated)
	return st, nil
}

// timeLayout is fixed width so that stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func withDates(userID string, dates []string) []any {
	args := make([]any, 0, len(dates)+1)
	args = append(args, userID)
	for _, d := range dates {
		args = append(args, d)
	}
	return args
}
