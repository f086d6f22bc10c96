package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gatherly/notification-engine/internal/domain"
	"github.com/gatherly/notification-engine/internal/shared/logger"
)

type fakeAttendeeSource struct {
	attendees map[string][]string
}

func (s *fakeAttendeeSource) ListAttendees(_ context.Context, eventID string) ([]string, error) {
	return s.attendees[eventID], nil
}

func newTriggerFixture() (*TriggerProcessor, *dispatcherFixture, *fakeAttendeeSource) {
	f := newDispatcherFixture()
	attendees := &fakeAttendeeSource{attendees: make(map[string][]string)}
	p := NewTriggerProcessor(f.dispatcher, attendees, logger.NewLogger())
	return p, f, attendees
}

func TestProcessRSVPJoined(t *testing.T) {
	p, f, _ := newTriggerFixture()

	trigger := &domain.TriggerEvent{
		Type:   domain.TriggerRSVPJoined,
		Event:  domain.Event{ID: "evt-1", Title: "Book Swap"},
		UserID: "user-1",
	}
	if err := p.Process(context.Background(), trigger); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if f.store.createdCount() != 1 {
		t.Fatalf("created = %d, want 1", f.store.createdCount())
	}
	n := f.store.created[0]
	if n.Type != domain.NotificationTypeConfirmation || n.UserID != "user-1" {
		t.Errorf("created %q for %q", n.Type, n.UserID)
	}
	if n.Metadata.Action != domain.RSVPActionJoined {
		t.Errorf("Action = %q", n.Metadata.Action)
	}
}

func TestProcessRSVPWithoutUserIsDropped(t *testing.T) {
	p, f, _ := newTriggerFixture()

	trigger := &domain.TriggerEvent{
		Type:  domain.TriggerRSVPLeft,
		Event: domain.Event{ID: "evt-1", Title: "Book Swap"},
	}
	if err := p.Process(context.Background(), trigger); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if f.store.createdCount() != 0 {
		t.Error("malformed trigger should create nothing")
	}
}

func TestProcessUpdateNotifiesAttendees(t *testing.T) {
	p, f, attendees := newTriggerFixture()
	attendees.attendees["evt-1"] = []string{"user-1", "user-2", "user-3"}

	old := domain.Event{ID: "evt-1", Title: "Book Swap", Date: "2026-07-18"}
	updated := old
	updated.Date = "2026-07-25"

	trigger := &domain.TriggerEvent{
		Type:     domain.TriggerEventUpdated,
		Event:    updated,
		OldEvent: &old,
	}
	if err := p.Process(context.Background(), trigger); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if f.store.createdCount() != 3 {
		t.Errorf("created = %d, want one per attendee", f.store.createdCount())
	}
}

func TestProcessCosmeticUpdateCreatesNothing(t *testing.T) {
	p, f, attendees := newTriggerFixture()
	attendees.attendees["evt-1"] = []string{"user-1"}

	old := domain.Event{ID: "evt-1", Title: "Book Swap", Date: "2026-07-18"}
	updated := old
	updated.Title = "Book Swap (new flyer)"

	trigger := &domain.TriggerEvent{
		Type:     domain.TriggerEventUpdated,
		Event:    updated,
		OldEvent: &old,
	}
	if err := p.Process(context.Background(), trigger); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if f.store.createdCount() != 0 {
		t.Error("cosmetic edit should create nothing")
	}
}

func TestProcessUpdateWithoutOldStateIsDropped(t *testing.T) {
	p, f, _ := newTriggerFixture()

	trigger := &domain.TriggerEvent{
		Type:  domain.TriggerEventUpdated,
		Event: domain.Event{ID: "evt-1", Title: "Book Swap", Date: "2026-07-25"},
	}
	if err := p.Process(context.Background(), trigger); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if f.store.createdCount() != 0 {
		t.Error("update without previous state should create nothing")
	}
}

func TestProcessDeletedUsesEmbeddedAttendees(t *testing.T) {
	p, f, attendees := newTriggerFixture()
	// the live view is empty: the event row is already gone
	attendees.attendees["evt-1"] = nil

	trigger := &domain.TriggerEvent{
		Type:      domain.TriggerEventDeleted,
		Event:     domain.Event{ID: "evt-1", Title: "Book Swap"},
		Attendees: []string{"user-1", "user-2"},
	}
	if err := p.Process(context.Background(), trigger); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if f.store.createdCount() != 2 {
		t.Fatalf("created = %d, want 2", f.store.createdCount())
	}
	for _, n := range f.store.created {
		if n.Type != domain.NotificationTypeCancellation {
			t.Errorf("Type = %q, want cancellation", n.Type)
		}
	}
}

func TestProcessTotalDispatchFailureSurfaces(t *testing.T) {
	p, f, _ := newTriggerFixture()
	f.store.createErr = func(*domain.Notification) error {
		return errors.New("write concern error")
	}

	trigger := &domain.TriggerEvent{
		Type:      domain.TriggerEventDeleted,
		Event:     domain.Event{ID: "evt-1", Title: "Book Swap"},
		Attendees: []string{"user-1", "user-2"},
	}

	if err := p.Process(context.Background(), trigger); err == nil {
		t.Fatal("a fully failed fan-out must surface so the trigger can be requeued")
	}
}

func TestProcessUnknownTriggerIsIgnored(t *testing.T) {
	p, f, _ := newTriggerFixture()

	trigger := &domain.TriggerEvent{Type: "event.renamed", Event: domain.Event{ID: "evt-1"}}
	if err := p.Process(context.Background(), trigger); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if f.store.createdCount() != 0 {
		t.Error("unknown trigger should create nothing")
	}
}
