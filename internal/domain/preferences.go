package domain

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultReminderOffsets are the hours-before-event reminder points applied
// to users who never saved preferences.
var DefaultReminderOffsets = []int{24, 1}

// Channel represents a delivery medium
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
)

// NotificationPreferences represents a user's notification delivery settings,
// one document per user.
type NotificationPreferences struct {
	ID                   primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID               string             `json:"user_id" bson:"user_id"`
	EmailEnabled         bool               `json:"email_enabled" bson:"email_enabled"`
	RemindersEnabled     bool               `json:"reminders_enabled" bson:"reminders_enabled"`
	ConfirmationsEnabled bool               `json:"confirmations_enabled" bson:"confirmations_enabled"`
	UpdatesEnabled       bool               `json:"updates_enabled" bson:"updates_enabled"`
	ReminderOffsets      []int              `json:"reminder_offsets" bson:"reminder_offsets"`
	CreatedAt            time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" bson:"updated_at"`
}

// DefaultPreferences returns the preferences applied to a user who has never
// saved any: every category on, email off, reminders at 24h and 1h.
func DefaultPreferences(userID string) *NotificationPreferences {
	return &NotificationPreferences{
		UserID:               userID,
		EmailEnabled:         false,
		RemindersEnabled:     true,
		ConfirmationsEnabled: true,
		UpdatesEnabled:       true,
		ReminderOffsets:      append([]int(nil), DefaultReminderOffsets...),
	}
}

// CategoryEnabled reports whether the given notification category is enabled
func (p *NotificationPreferences) CategoryEnabled(t NotificationType) bool {
	switch t {
	case NotificationTypeReminder:
		return p.RemindersEnabled
	case NotificationTypeConfirmation:
		return p.ConfirmationsEnabled
	case NotificationTypeCancellation, NotificationTypeUpdate:
		return p.UpdatesEnabled
	}
	return false
}

// HasOffset reports whether offsetHours is one of the user's reminder points
func (p *NotificationPreferences) HasOffset(offsetHours int) bool {
	for _, h := range p.ReminderOffsets {
		if h == offsetHours {
			return true
		}
	}
	return false
}

// NormalizeOffsets drops non-positive values, collapses duplicates and sorts
// the remaining offsets largest first. An empty result falls back to the
// defaults so a user can never save themselves out of reminders entirely
// while the reminders category stays enabled.
func (p *NotificationPreferences) NormalizeOffsets() {
	seen := make(map[int]struct{}, len(p.ReminderOffsets))
	kept := p.ReminderOffsets[:0]
	for _, h := range p.ReminderOffsets {
		if h <= 0 {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		kept = append(kept, h)
	}
	if len(kept) == 0 {
		kept = append([]int(nil), DefaultReminderOffsets...)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(kept)))
	p.ReminderOffsets = kept
}
