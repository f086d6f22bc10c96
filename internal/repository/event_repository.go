package repository

import (
	"context"
	"time"

	"github.com/gatherly/notification-engine/internal/domain"
	apperrors "github.com/gatherly/notification-engine/internal/shared/errors"
	"github.com/gatherly/notification-engine/internal/shared/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	eventsCollection    = "events"
	attendeesCollection = "event_attendees"
	usersCollection     = "users"
)

// EventRepository reads the CRUD application's events, attendee and user
// collections. The notification engine treats all three as read-only views;
// writes stay with the owning application.
type EventRepository struct {
	client *mongodb.MongoClient
}

// NewEventRepository creates a new event repository
func NewEventRepository(client *mongodb.MongoClient) *EventRepository {
	return &EventRepository{client: client}
}

// GetEvent returns one event by id
func (r *EventRepository) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	var event domain.Event
	err := r.client.Collection(eventsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.NewNotFoundError("event not found", err)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load event", err)
	}
	return &event, nil
}

// FindStartingBetween returns non-cancelled events whose start falls inside
// [from, to]. The reminder sweep calls this once per offset with a window of
// plus/minus half the sweep interval.
func (r *EventRepository) FindStartingBetween(ctx context.Context, from, to time.Time) ([]*domain.Event, error) {
	filter := bson.M{
		"start_at":  bson.M{"$gte": from, "$lte": to},
		"cancelled": bson.M{"$ne": true},
	}

	cursor, err := r.client.Collection(eventsCollection).Find(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query upcoming events", err)
	}
	defer cursor.Close(ctx)

	var events []*domain.Event
	if err = cursor.All(ctx, &events); err != nil {
		return nil, apperrors.NewInternalError("failed to decode upcoming events", err)
	}
	return events, nil
}

// ListAttendees returns the user ids currently attending the event
func (r *EventRepository) ListAttendees(ctx context.Context, eventID string) ([]string, error) {
	cursor, err := r.client.Collection(attendeesCollection).Find(ctx, bson.M{"event_id": eventID})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query attendees", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		UserID string `bson:"user_id"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, apperrors.NewInternalError("failed to decode attendees", err)
	}

	userIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		userIDs = append(userIDs, row.UserID)
	}
	return userIDs, nil
}

// LookupEmail returns the email address on file for a user. The auth provider
// owns the users collection; only the address is read here.
func (r *EventRepository) LookupEmail(ctx context.Context, userID string) (string, error) {
	var row struct {
		Email string `bson:"email"`
	}
	err := r.client.Collection(usersCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&row)
	if err == mongo.ErrNoDocuments {
		return "", apperrors.NewNotFoundError("user not found", err)
	}
	if err != nil {
		return "", apperrors.NewInternalError("failed to load user email", err)
	}
	return row.Email, nil
}
