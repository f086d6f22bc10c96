package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType represents the category of a notification
type NotificationType string

const (
	NotificationTypeReminder     NotificationType = "reminder"
	NotificationTypeConfirmation NotificationType = "confirmation"
	NotificationTypeCancellation NotificationType = "cancellation"
	NotificationTypeUpdate       NotificationType = "update"
)

// Valid reports whether t is a known notification type
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeReminder, NotificationTypeConfirmation,
		NotificationTypeCancellation, NotificationTypeUpdate:
		return true
	}
	return false
}

// RSVPAction represents the direction of an RSVP change
type RSVPAction string

const (
	RSVPActionJoined RSVPAction = "joined"
	RSVPActionLeft   RSVPAction = "left"
)

// Metadata carries the type-specific structured data of a notification.
// Only the fields relevant to the notification's type are set; it is used
// for linking and deduplication, not for rendering.
type Metadata struct {
	EventID     string     `json:"event_id,omitempty" bson:"event_id,omitempty"`
	EventTitle  string     `json:"event_title,omitempty" bson:"event_title,omitempty"`
	Action      RSVPAction `json:"action,omitempty" bson:"action,omitempty"`
	OffsetHours int        `json:"offset_hours,omitempty" bson:"offset_hours,omitempty"`

	// Populated for update notifications only
	ChangedFields []string `json:"changed_fields,omitempty" bson:"changed_fields,omitempty"`
	OldDate       string   `json:"old_date,omitempty" bson:"old_date,omitempty"`
	NewDate       string   `json:"new_date,omitempty" bson:"new_date,omitempty"`
	OldTime       string   `json:"old_time,omitempty" bson:"old_time,omitempty"`
	NewTime       string   `json:"new_time,omitempty" bson:"new_time,omitempty"`
	OldLocation   string   `json:"old_location,omitempty" bson:"old_location,omitempty"`
	NewLocation   string   `json:"new_location,omitempty" bson:"new_location,omitempty"`
}

// Notification represents a single delivered notification instance.
// A record is immutable after creation except for the one-way IsRead and
// EmailSent transitions.
type Notification struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string             `json:"user_id" bson:"user_id"`
	Type      NotificationType   `json:"type" bson:"type"`
	Title     string             `json:"title" bson:"title"`
	Message   string             `json:"message" bson:"message"`
	Metadata  Metadata           `json:"metadata" bson:"metadata"`
	IsRead    bool               `json:"is_read" bson:"is_read"`
	EmailSent bool               `json:"email_sent" bson:"email_sent"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
