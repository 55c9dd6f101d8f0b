package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/franckalain/nutritrack/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB implements the DB interface on a MongoDB database with one
// collection per record kind.
type MongoDB struct {
	client *mongo.Client
	dbName string
}

// NewMongoDB connects to the MongoDB server at uri and ensures the indexes
// the tracking queries rely on.
func NewMongoDB(ctx context.Context, uri, dbName string) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %w", err)
	}

	m := &MongoDB{client: client, dbName: dbName}
	if err := m.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return m, nil
}

func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	// Compound index on user, date and creation time serves both the
	// per-day query and the full history ordering.
	_, err := m.meals().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "date", Value: -1},
			{Key: "created_at", Value: -1},
		},
	})
	if err != nil {
		return fmt.Errorf("error creating meals index: %w", err)
	}

	// At most one water record per user and date
	_, err = m.water().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "date", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("error creating water index: %w", err)
	}

	_, err = m.achievements().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "achievement_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("error creating achievements index: %w", err)
	}
	return nil
}

func (m *MongoDB) meals() *mongo.Collection {
	return m.client.Database(m.dbName).Collection("meals")
}

func (m *MongoDB) water() *mongo.Collection {
	return m.client.Database(m.dbName).Collection("water")
}

func (m *MongoDB) profiles() *mongo.Collection {
	return m.client.Database(m.dbName).Collection("profiles")
}

func (m *MongoDB) achievements() *mongo.Collection {
	return m.client.Database(m.dbName).Collection("achievements")
}

// SaveMeal inserts a new meal document
func (m *MongoDB) SaveMeal(ctx context.Context, meal *models.Meal) error {
	if meal.CreatedAt.IsZero() {
		meal.CreatedAt = time.Now().UTC()
	}
	if _, err := m.meals().InsertOne(ctx, meal); err != nil {
		return fmt.Errorf("insert meal: %w", err)
	}
	return nil
}

// GetMeal finds one meal, or nil if it does not exist
func (m *MongoDB) GetMeal(ctx context.Context, userID, id string) (*models.Meal, error) {
	var meal models.Meal
	err := m.meals().FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&meal)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &meal, nil
}

// DeleteMeal removes one meal document
func (m *MongoDB) DeleteMeal(ctx context.Context, userID, id string) error {
	res, err := m.meals().DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("meal %s: %w", id, ErrNotFound)
	}
	return nil
}

// MealsByDate returns one day's meals, newest first
func (m *MongoDB) MealsByDate(ctx context.Context, userID, date string) ([]models.Meal, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return m.findMeals(ctx, bson.M{"user_id": userID, "date": date}, opts)
}

// MealsByDates returns the meals of the given dates
func (m *MongoDB) MealsByDates(ctx context.Context, userID string, dates []string) ([]models.Meal, error) {
	if err := checkDates(dates); err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, nil
	}
	return m.findMeals(ctx, bson.M{"user_id": userID, "date": bson.M{"$in": dates}}, options.Find())
}

// AllMeals returns every meal of a user, most recent first
func (m *MongoDB) AllMeals(ctx context.Context, userID string) ([]models.Meal, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: -1},
		{Key: "created_at", Value: -1},
	})
	return m.findMeals(ctx, bson.M{"user_id": userID}, opts)
}

func (m *MongoDB) findMeals(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Meal, error) {
	cursor, err := m.meals().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query meals: %w", err)
	}
	var meals []models.Meal
	if err := cursor.All(ctx, &meals); err != nil {
		return nil, fmt.Errorf("decode meals: %w", err)
	}
	return meals, nil
}

// GetWater returns the water record of one date, or nil if none was logged
func (m *MongoDB) GetWater(ctx context.Context, userID, date string) (*models.WaterLog, error) {
	var w models.WaterLog
	err := m.water().FindOne(ctx, bson.M{"user_id": userID, "date": date}).Decode(&w)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// WaterByDates returns the water records that exist for the given dates
func (m *MongoDB) WaterByDates(ctx context.Context, userID string, dates []string) ([]models.WaterLog, error) {
	if err := checkDates(dates); err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, nil
	}
	cursor, err := m.water().Find(ctx, bson.M{"user_id": userID, "date": bson.M{"$in": dates}})
	if err != nil {
		return nil, fmt.Errorf("query water: %w", err)
	}
	var logs []models.WaterLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("decode water: %w", err)
	}
	return logs, nil
}

// AddWater atomically increments the day's record with $inc and upsert,
// reading the document as it was before the update.
func (m *MongoDB) AddWater(ctx context.Context, userID, date string, amount float64, at time.Time) (float64, float64, error) {
	filter := bson.M{"user_id": userID, "date": date}
	update := bson.M{
		"$inc": bson.M{"amount": amount},
		"$set": bson.M{"updated_at": at.UTC()},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var before models.WaterLog
	err := m.water().FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, 0, fmt.Errorf("increment water: %w", err)
	}
	return before.Amount, before.Amount + amount, nil
}

// GetProfile returns the user's profile, or nil if none exists
func (m *MongoDB) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := m.profiles().FindOne(ctx, bson.M{"_id": userID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveProfile merges the descriptive profile fields, leaving streak fields alone
func (m *MongoDB) SaveProfile(ctx context.Context, p *models.UserProfile) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	update := bson.M{
		"$set": bson.M{
			"name":                p.Name,
			"goal":                p.Goal,
			"calorie_target":      p.CalorieTarget,
			"onboarding_complete": p.OnboardingComplete,
		},
		"$setOnInsert": bson.M{"created_at": p.CreatedAt},
	}
	_, err := m.profiles().UpdateOne(ctx, bson.M{"_id": p.UserID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// UpdateStreak writes the streak fields of a profile
func (m *MongoDB) UpdateStreak(ctx context.Context, userID string, streak int, lastLogDate string) error {
	update := bson.M{
		"$set": bson.M{
			"current_streak": streak,
			"last_log_date":  lastLogDate,
		},
		"$setOnInsert": bson.M{"created_at": time.Now().UTC()},
	}
	_, err := m.profiles().UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("update streak: %w", err)
	}
	return nil
}

// ListAchievementStates returns every stored achievement state of a user
func (m *MongoDB) ListAchievementStates(ctx context.Context, userID string) ([]models.AchievementState, error) {
	cursor, err := m.achievements().Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("query achievements: %w", err)
	}
	var states []models.AchievementState
	if err := cursor.All(ctx, &states); err != nil {
		return nil, fmt.Errorf("decode achievements: %w", err)
	}
	return states, nil
}

// GetAchievementState returns one stored state, or nil if never updated
func (m *MongoDB) GetAchievementState(ctx context.Context, userID, achievementID string) (*models.AchievementState, error) {
	var st models.AchievementState
	err := m.achievements().FindOne(ctx, bson.M{"user_id": userID, "achievement_id": achievementID}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// SaveAchievementState creates or replaces a state document
func (m *MongoDB) SaveAchievementState(ctx context.Context, st *models.AchievementState) error {
	filter := bson.M{"user_id": st.UserID, "achievement_id": st.AchievementID}
	_, err := m.achievements().ReplaceOne(ctx, filter, st, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save achievement: %w", err)
	}
	return nil
}

// Close disconnects from the MongoDB server
func (m *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
