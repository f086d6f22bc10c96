package repository

import (
	"context"
	"time"

	"github.com/gatherly/notification-engine/internal/domain"
	apperrors "github.com/gatherly/notification-engine/internal/shared/errors"
	"github.com/gatherly/notification-engine/internal/shared/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const preferencesCollection = "notification_preferences"

// PreferencesRepository handles notification preference data operations
type PreferencesRepository struct {
	client *mongodb.MongoClient
}

// NewPreferencesRepository creates a new preferences repository
func NewPreferencesRepository(client *mongodb.MongoClient) *PreferencesRepository {
	return &PreferencesRepository{client: client}
}

// EnsureIndexes creates the unique user_id index backing get-or-create
func (r *PreferencesRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("user_idx").SetUnique(true),
		},
	}
	return r.client.CreateIndexes(ctx, preferencesCollection, indexes)
}

// GetOrCreate returns the user's preferences, lazily inserting the defaults
// on first access. The upsert-on-conflict makes concurrent first accesses
// converge on a single document instead of racing a read-then-write.
func (r *PreferencesRepository) GetOrCreate(ctx context.Context, userID string) (*domain.NotificationPreferences, error) {
	defaults := domain.DefaultPreferences(userID)
	now := time.Now()

	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"user_id":               userID,
			"email_enabled":         defaults.EmailEnabled,
			"reminders_enabled":     defaults.RemindersEnabled,
			"confirmations_enabled": defaults.ConfirmationsEnabled,
			"updates_enabled":       defaults.UpdatesEnabled,
			"reminder_offsets":      defaults.ReminderOffsets,
			"created_at":            now,
			"updated_at":            now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var prefs domain.NotificationPreferences
	err := r.client.Collection(preferencesCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&prefs)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load preferences", err)
	}
	return &prefs, nil
}

// Save upserts the user's preferences. Offsets are normalized before write.
func (r *PreferencesRepository) Save(ctx context.Context, prefs *domain.NotificationPreferences) error {
	prefs.NormalizeOffsets()
	now := time.Now()

	filter := bson.M{"user_id": prefs.UserID}
	update := bson.M{
		"$set": bson.M{
			"email_enabled":         prefs.EmailEnabled,
			"reminders_enabled":     prefs.RemindersEnabled,
			"confirmations_enabled": prefs.ConfirmationsEnabled,
			"updates_enabled":       prefs.UpdatesEnabled,
			"reminder_offsets":      prefs.ReminderOffsets,
			"updated_at":            now,
		},
		"$setOnInsert": bson.M{
			"user_id":    prefs.UserID,
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := r.client.Collection(preferencesCollection).UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return apperrors.NewInternalError("failed to save preferences", err)
	}
	return nil
}

// DistinctReminderOffsets returns the union of reminder offsets across all
// stored preference documents. The reminder sweep adds the defaults on top so
// users who never saved preferences are still covered.
func (r *PreferencesRepository) DistinctReminderOffsets(ctx context.Context) ([]int, error) {
	values, err := r.client.Collection(preferencesCollection).Distinct(ctx, "reminder_offsets", bson.M{})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load reminder offsets", err)
	}

	offsets := make([]int, 0, len(values))
	for _, v := range values {
		switch n := v.(type) {
		case int32:
			offsets = append(offsets, int(n))
		case int64:
			offsets = append(offsets, int(n))
		case float64:
			offsets = append(offsets, int(n))
		}
	}
	return offsets, nil
}
