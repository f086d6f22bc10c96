package service

import (
	"context"
	"fmt"

	"github.com/gatherly/notification-engine/internal/domain"
	"github.com/gatherly/notification-engine/internal/factory"
	"github.com/gatherly/notification-engine/internal/shared/logger"
)

// AttendeeSource lists the current attendees of an event
type AttendeeSource interface {
	ListAttendees(ctx context.Context, eventID string) ([]string, error)
}

// TriggerProcessor turns committed upstream actions (RSVP toggles, event
// edits and deletions) into dispatches. Triggers arrive after the primary
// write succeeded, so notifications always reflect committed state.
type TriggerProcessor struct {
	dispatcher *Dispatcher
	attendees  AttendeeSource
	log        *logger.Logger
}

// NewTriggerProcessor creates a new trigger processor
func NewTriggerProcessor(dispatcher *Dispatcher, attendees AttendeeSource, log *logger.Logger) *TriggerProcessor {
	return &TriggerProcessor{
		dispatcher: dispatcher,
		attendees:  attendees,
		log:        log,
	}
}

// Process routes one trigger event to the dispatcher
func (p *TriggerProcessor) Process(ctx context.Context, trigger *domain.TriggerEvent) error {
	switch trigger.Type {
	case domain.TriggerRSVPJoined:
		return p.handleRSVP(ctx, trigger, domain.RSVPActionJoined)
	case domain.TriggerRSVPLeft:
		return p.handleRSVP(ctx, trigger, domain.RSVPActionLeft)
	case domain.TriggerEventUpdated:
		return p.handleUpdated(ctx, trigger)
	case domain.TriggerEventDeleted:
		return p.handleDeleted(ctx, trigger)
	default:
		p.log.Warn("unknown trigger type", "type", trigger.Type)
		return nil
	}
}

// handleRSVP dispatches a confirmation to the acting user
func (p *TriggerProcessor) handleRSVP(ctx context.Context, trigger *domain.TriggerEvent, action domain.RSVPAction) error {
	if trigger.UserID == "" {
		p.log.Warn("rsvp trigger missing user id", "event_id", trigger.Event.ID)
		return nil
	}

	payload := factory.BuildConfirmation(trigger.Event, action)
	_, err := p.dispatcher.Notify(ctx, trigger.UserID, domain.NotificationTypeConfirmation, payload)
	return err
}

// handleUpdated notifies every attendee of a material edit. Cosmetic edits
// (description, image) produce no payload and no notifications.
func (p *TriggerProcessor) handleUpdated(ctx context.Context, trigger *domain.TriggerEvent) error {
	if trigger.OldEvent == nil {
		p.log.Warn("update trigger missing previous event state", "event_id", trigger.Event.ID)
		return nil
	}

	payload, material := factory.BuildUpdate(*trigger.OldEvent, trigger.Event)
	if !material {
		return nil
	}

	recipients, err := p.recipients(ctx, trigger)
	if err != nil {
		return err
	}

	result := p.dispatcher.NotifyMany(ctx, recipients, domain.NotificationTypeUpdate, func(string) factory.Payload {
		return payload
	})
	return p.summarize(trigger, result)
}

// handleDeleted notifies every attendee that the event was cancelled. The
// trigger carries the attendee list and event snapshot because the record is
// already gone by the time this runs.
func (p *TriggerProcessor) handleDeleted(ctx context.Context, trigger *domain.TriggerEvent) error {
	recipients, err := p.recipients(ctx, trigger)
	if err != nil {
		return err
	}

	payload := factory.BuildCancellation(trigger.Event)
	result := p.dispatcher.NotifyMany(ctx, recipients, domain.NotificationTypeCancellation, func(string) factory.Payload {
		return payload
	})
	return p.summarize(trigger, result)
}

// recipients prefers the attendee list embedded in the trigger and falls
// back to the live view for triggers that omit it.
func (p *TriggerProcessor) recipients(ctx context.Context, trigger *domain.TriggerEvent) ([]string, error) {
	if len(trigger.Attendees) > 0 {
		return trigger.Attendees, nil
	}
	return p.attendees.ListAttendees(ctx, trigger.Event.ID)
}

// summarize converts a fully failed bulk dispatch into an error so the
// consumer can requeue; partial success is accepted and logged.
func (p *TriggerProcessor) summarize(trigger *domain.TriggerEvent, result DispatchResult) error {
	if len(result.Failures) > 0 && len(result.Created) == 0 {
		return fmt.Errorf("dispatch failed for all %d recipients of %s", len(result.Failures), trigger.Event.ID)
	}
	return nil
}
