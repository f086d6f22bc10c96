package domain

import "time"

// Event is the read-only slice of an event record the engine needs for
// message text and reminder scheduling. The CRUD application owns the
// underlying collection; the engine never writes it.
type Event struct {
	ID           string    `json:"id" bson:"_id"`
	Title        string    `json:"title" bson:"title"`
	Date         string    `json:"date" bson:"date"`                   // YYYY-MM-DD
	Time         string    `json:"time,omitempty" bson:"time"`         // HH:MM, may be unset
	LocationName string    `json:"location_name" bson:"location_name"`
	StartAt      time.Time `json:"start_at" bson:"start_at"`
	Cancelled    bool      `json:"cancelled,omitempty" bson:"cancelled"`
}

// TriggerType identifies the upstream action that caused a dispatch
type TriggerType string

const (
	TriggerRSVPJoined   TriggerType = "event.rsvp_joined"
	TriggerRSVPLeft     TriggerType = "event.rsvp_left"
	TriggerEventUpdated TriggerType = "event.updated"
	TriggerEventDeleted TriggerType = "event.deleted"
)

// TriggerEvent is the message the CRUD application publishes after one of its
// own writes has committed. Deletion triggers carry the attendee list and the
// full event snapshot because neither is readable once the event row is gone.
type TriggerEvent struct {
	Type      TriggerType `json:"type"`
	Event     Event       `json:"event"`
	OldEvent  *Event      `json:"old_event,omitempty"` // update triggers only
	UserID    string      `json:"user_id,omitempty"`   // RSVP triggers only
	Attendees []string    `json:"attendees,omitempty"` // update/delete triggers
	Timestamp time.Time   `json:"timestamp"`
}
