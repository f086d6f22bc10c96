// Package factory builds notification payloads for each trigger type.
// Builders are pure: they never touch storage and degrade by omission when
// an event is missing display fields.
package factory

import (
	"fmt"
	"strings"

	"github.com/gatherly/notification-engine/internal/domain"
)

// Payload is a rendered notification body ready for the dispatcher
type Payload struct {
	Title    string
	Message  string
	Metadata domain.Metadata
}

// BuildConfirmation builds the payload for an RSVP join or leave
func BuildConfirmation(event domain.Event, action domain.RSVPAction) Payload {
	title := event.Title
	if title == "" {
		title = "an event"
	}

	var p Payload
	switch action {
	case domain.RSVPActionLeft:
		p.Title = fmt.Sprintf("You've left %s", title)
		p.Message = fmt.Sprintf("You are no longer attending %s%s.", title, whenClause(event))
	default:
		p.Title = fmt.Sprintf("You're going to %s", title)
		p.Message = fmt.Sprintf("Your spot at %s%s is confirmed.", title, whenClause(event))
	}
	p.Metadata = domain.Metadata{
		EventID:    event.ID,
		EventTitle: event.Title,
		Action:     action,
	}
	return p
}

// BuildCancellation builds the payload sent to every attendee of a deleted or
// cancelled event. Callers must invoke it while the event fields are still
// readable.
func BuildCancellation(event domain.Event) Payload {
	title := event.Title
	if title == "" {
		title = "An event you joined"
	}

	msg := fmt.Sprintf("%s%s has been cancelled by the organizer.", title, whenClause(event))
	if event.LocationName != "" {
		msg += fmt.Sprintf(" It was planned at %s.", event.LocationName)
	}

	return Payload{
		Title:   fmt.Sprintf("Cancelled: %s", title),
		Message: msg,
		Metadata: domain.Metadata{
			EventID:    event.ID,
			EventTitle: event.Title,
		},
	}
}

// BuildUpdate builds the payload for a material event edit. Only date, time
// and location changes count; the second return value is false when nothing
// material changed and no notification should be dispatched.
func BuildUpdate(old, updated domain.Event) (Payload, bool) {
	meta := domain.Metadata{
		EventID:    updated.ID,
		EventTitle: updated.Title,
	}

	var lines []string
	if old.Date != updated.Date {
		meta.ChangedFields = append(meta.ChangedFields, "date")
		meta.OldDate, meta.NewDate = old.Date, updated.Date
		lines = append(lines, changeLine("date", old.Date, updated.Date))
	}
	if old.Time != updated.Time {
		meta.ChangedFields = append(meta.ChangedFields, "time")
		meta.OldTime, meta.NewTime = old.Time, updated.Time
		lines = append(lines, changeLine("time", old.Time, updated.Time))
	}
	if old.LocationName != updated.LocationName {
		meta.ChangedFields = append(meta.ChangedFields, "location")
		meta.OldLocation, meta.NewLocation = old.LocationName, updated.LocationName
		lines = append(lines, changeLine("location", old.LocationName, updated.LocationName))
	}

	if len(lines) == 0 {
		return Payload{}, false
	}

	title := updated.Title
	if title == "" {
		title = "An event you joined"
	}

	return Payload{
		Title:    fmt.Sprintf("Updated: %s", title),
		Message:  fmt.Sprintf("%s has changed. %s", title, strings.Join(lines, " ")),
		Metadata: meta,
	}, true
}

// BuildReminder builds the payload for a time-boxed reminder. Wording is
// driven by a human-readable tier derived from offsetHours, not the raw
// number.
func BuildReminder(event domain.Event, offsetHours int) Payload {
	title := event.Title
	if title == "" {
		title = "Your event"
	}

	var frame string
	switch {
	case offsetHours >= 48:
		frame = fmt.Sprintf("is in %d days", offsetHours/24)
	case offsetHours >= 24:
		frame = "is tomorrow"
	case offsetHours > 1:
		frame = fmt.Sprintf("is in %d hours", offsetHours)
	default:
		frame = "is starting soon"
	}

	msg := fmt.Sprintf("%s %s", title, frame)
	if when := whenClause(event); when != "" {
		msg += "," + when
	}
	if event.LocationName != "" {
		msg += fmt.Sprintf(" at %s", event.LocationName)
	}
	msg += "."

	return Payload{
		Title:   fmt.Sprintf("Reminder: %s %s", title, frame),
		Message: msg,
		Metadata: domain.Metadata{
			EventID:     event.ID,
			EventTitle:  event.Title,
			OffsetHours: offsetHours,
		},
	}
}

// changeLine renders one old-to-new transition, tolerating unset values
func changeLine(field, old, new_ string) string {
	label := strings.ToUpper(field[:1]) + field[1:]
	switch {
	case old == "" && new_ == "":
		return ""
	case old == "":
		return fmt.Sprintf("%s set to %s.", label, new_)
	case new_ == "":
		return fmt.Sprintf("%s (%s) removed.", label, old)
	default:
		return fmt.Sprintf("%s changed from %s to %s.", label, old, new_)
	}
}

// whenClause renders " on <date> at <time>", omitting whatever is unset
func whenClause(event domain.Event) string {
	var b strings.Builder
	if event.Date != "" {
		fmt.Fprintf(&b, " on %s", event.Date)
	}
	if event.Time != "" {
		fmt.Fprintf(&b, " at %s", event.Time)
	}
	return b.String()
}
