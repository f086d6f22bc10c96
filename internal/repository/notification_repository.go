package repository

import (
	"context"
	"time"

	"github.com/gatherly/notification-engine/internal/domain"
	apperrors "github.com/gatherly/notification-engine/internal/shared/errors"
	"github.com/gatherly/notification-engine/internal/shared/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const notificationsCollection = "notifications"

// NotificationRepository handles notification data operations. Every query is
// scoped to a user_id so one user can never read or mutate another user's
// records, regardless of caller trust.
type NotificationRepository struct {
	client *mongodb.MongoClient
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(client *mongodb.MongoClient) *NotificationRepository {
	return &NotificationRepository{client: client}
}

// EnsureIndexes creates the indexes the store relies on. The partial unique
// index over (user_id, event_id, offset_hours) for reminder documents is the
// dedup guarantee for the reminder sweep: overlapping sweeps racing on the
// same triple lose at the storage layer, not in application code.
func (r *NotificationRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
				{Key: "_id", Value: -1},
			},
			Options: options.Index().SetName("user_created_idx"),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "is_read", Value: 1},
			},
			Options: options.Index().SetName("user_unread_idx"),
		},
		{
			Keys: bson.D{
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("created_idx"),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "metadata.event_id", Value: 1},
				{Key: "metadata.offset_hours", Value: 1},
			},
			Options: options.Index().
				SetName("reminder_dedup_idx").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"type": domain.NotificationTypeReminder}),
		},
	}

	return r.client.CreateIndexes(ctx, notificationsCollection, indexes)
}

// Create appends a new notification. A reminder hitting the dedup index
// returns apperrors.ErrDuplicateReminder, which callers treat as a normal
// skip rather than a failure.
func (r *NotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	notification.ID = primitive.NewObjectID()
	notification.IsRead = false
	notification.EmailSent = false
	notification.CreatedAt = time.Now()

	_, err := r.client.Collection(notificationsCollection).InsertOne(ctx, notification)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) && notification.Type == domain.NotificationTypeReminder {
			return apperrors.ErrDuplicateReminder
		}
		return apperrors.NewInternalError("failed to create notification", err)
	}
	return nil
}

// ListForUser returns the user's notifications newest first, stable for equal
// timestamps via the _id tie-break. An empty notificationType matches all.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, notificationType domain.NotificationType, limit, offset int) ([]*domain.Notification, int64, error) {
	filter := bson.M{"user_id": userID}
	if notificationType != "" {
		filter["type"] = notificationType
	}

	coll := r.client.Collection(notificationsCollection)

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to count notifications", err)
	}

	opts := options.Find().
		SetSkip(int64(offset)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to list notifications", err)
	}
	defer cursor.Close(ctx)

	notifications := make([]*domain.Notification, 0, limit)
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to decode notifications", err)
	}

	return notifications, total, nil
}

// MarkRead flips is_read to true for one of the caller's notifications.
// Marking an already-read notification is a no-op. A notification owned by a
// different user yields an unauthorized error, never a silent success.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperrors.NewValidationError("invalid notification id", err)
	}

	coll := r.client.Collection(notificationsCollection)
	filter := bson.M{"_id": objectID, "user_id": userID}
	update := bson.M{"$set": bson.M{"is_read": true}}

	result, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperrors.NewInternalError("failed to mark notification read", err)
	}
	if result.MatchedCount == 0 {
		// Distinguish someone else's notification from a missing one
		count, err := coll.CountDocuments(ctx, bson.M{"_id": objectID})
		if err == nil && count > 0 {
			return apperrors.NewUnauthorizedError("notification belongs to another user", nil)
		}
		return apperrors.NewNotFoundError("notification not found", nil)
	}
	return nil
}

// MarkAllRead flips every unread notification of the user and returns how
// many changed. Already-read rows are untouched, so repeat calls are no-ops.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	filter := bson.M{"user_id": userID, "is_read": false}
	update := bson.M{"$set": bson.M{"is_read": true}}

	result, err := r.client.Collection(notificationsCollection).UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to mark notifications read", err)
	}
	return result.ModifiedCount, nil
}

// MarkEmailSent flips email_sent to true after the provider accepted the
// message. The transition is one-way; there is no path back to false.
func (r *NotificationRepository) MarkEmailSent(ctx context.Context, userID string, id primitive.ObjectID) error {
	filter := bson.M{"_id": id, "user_id": userID}
	update := bson.M{"$set": bson.M{"email_sent": true}}

	_, err := r.client.Collection(notificationsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return apperrors.NewInternalError("failed to mark email sent", err)
	}
	return nil
}

// DeleteAll removes every notification of the user ("clear all") and returns
// the count removed. Scope is global across types.
func (r *NotificationRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	result, err := r.client.Collection(notificationsCollection).DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, apperrors.NewInternalError("failed to delete notifications", err)
	}
	return result.DeletedCount, nil
}

// CountUnread returns the number of unread notifications for the badge
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	count, err := r.client.Collection(notificationsCollection).CountDocuments(ctx, bson.M{"user_id": userID, "is_read": false})
	if err != nil {
		return 0, apperrors.NewInternalError("failed to count unread notifications", err)
	}
	return count, nil
}

// LatestConfirmationAction returns the action recorded by the user's most
// recent confirmation for the event, or "" when none exists. The dispatcher
// uses it to ignore repeated RSVPs in the same direction.
func (r *NotificationRepository) LatestConfirmationAction(ctx context.Context, userID, eventID string) (domain.RSVPAction, error) {
	filter := bson.M{
		"user_id":           userID,
		"type":              domain.NotificationTypeConfirmation,
		"metadata.event_id": eventID,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	var latest domain.Notification
	err := r.client.Collection(notificationsCollection).FindOne(ctx, filter, opts).Decode(&latest)
	if err == mongo.ErrNoDocuments {
		return "", nil
	}
	if err != nil {
		return "", apperrors.NewInternalError("failed to load latest confirmation", err)
	}
	return latest.Metadata.Action, nil
}

// DeleteOlderThan removes notifications created before the cutoff regardless
// of read status. Used by the retention sweep.
func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.client.Collection(notificationsCollection).DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, apperrors.NewInternalError("failed to prune notifications", err)
	}
	return result.DeletedCount, nil
}
