package service

import (
	"context"
	"errors"
	"sync"

	"github.com/gatherly/notification-engine/internal/domain"
	"github.com/gatherly/notification-engine/internal/factory"
	"github.com/gatherly/notification-engine/internal/metrics"
	"github.com/gatherly/notification-engine/internal/queue"
	apperrors "github.com/gatherly/notification-engine/internal/shared/errors"
	"github.com/gatherly/notification-engine/internal/shared/logger"
	"github.com/google/uuid"
)

// notifyManyConcurrency bounds the parallel fan-out of bulk dispatches
const notifyManyConcurrency = 16

// NotificationStore is the slice of the notification repository the
// dispatcher writes through.
type NotificationStore interface {
	Create(ctx context.Context, notification *domain.Notification) error
	LatestConfirmationAction(ctx context.Context, userID, eventID string) (domain.RSVPAction, error)
}

// Publisher pushes a freshly created record to live subscribers
type Publisher interface {
	Publish(n *domain.Notification)
}

// EmailDirectory resolves a recipient's email address
type EmailDirectory interface {
	LookupEmail(ctx context.Context, userID string) (string, error)
}

// DispatchFailure records one recipient a bulk dispatch could not reach
type DispatchFailure struct {
	UserID string
	Err    error
}

// DispatchResult is the partial-success outcome of NotifyMany
type DispatchResult struct {
	Created  []*domain.Notification
	Failures []DispatchFailure
}

// Dispatcher is the orchestration core: it gates channels through
// preferences, persists the in-app record, fans out to live subscribers and
// hands the email channel its job. Notification delivery is best-effort; a
// dispatch failure must never roll back the business action that caused it,
// which is why the only error surfaced is the store write.
type Dispatcher struct {
	store    NotificationStore
	resolver *Resolver
	hub      Publisher
	emails   *queue.EmailQueue
	users    EmailDirectory
	log      *logger.Logger
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(store NotificationStore, resolver *Resolver, hub Publisher, emails *queue.EmailQueue, users EmailDirectory, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		store:    store,
		resolver: resolver,
		hub:      hub,
		emails:   emails,
		users:    users,
		log:      log,
	}
}

// Notify delivers one notification to one user. It returns (nil, nil) when
// the dispatch was intentionally skipped: category disabled, duplicate
// reminder, or a repeated RSVP in the same direction. The record is truly
// absent in those cases, not created-then-hidden.
func (d *Dispatcher) Notify(ctx context.Context, userID string, notificationType domain.NotificationType, payload factory.Payload) (*domain.Notification, error) {
	prefs := d.resolver.Resolve(ctx, userID)

	if !IsChannelEnabled(prefs, notificationType, domain.ChannelInApp) {
		metrics.NotificationsSkipped.WithLabelValues(string(notificationType), "category_disabled").Inc()
		return nil, nil
	}

	if notificationType == domain.NotificationTypeConfirmation {
		latest, err := d.store.LatestConfirmationAction(ctx, userID, payload.Metadata.EventID)
		if err != nil {
			d.log.Warn("confirmation dedup check failed, dispatching anyway", "error", err, "user_id", userID)
		} else if latest != "" && latest == payload.Metadata.Action {
			metrics.NotificationsSkipped.WithLabelValues(string(notificationType), "unchanged_rsvp").Inc()
			return nil, nil
		}
	}

	n := &domain.Notification{
		UserID:   userID,
		Type:     notificationType,
		Title:    payload.Title,
		Message:  payload.Message,
		Metadata: payload.Metadata,
	}

	if err := d.store.Create(ctx, n); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateReminder) {
			// Normal control flow under overlapping sweeps, not a failure
			metrics.NotificationsSkipped.WithLabelValues(string(notificationType), "duplicate_reminder").Inc()
			return nil, nil
		}
		metrics.DispatchFailures.WithLabelValues(string(notificationType)).Inc()
		d.log.Error("failed to persist notification", "error", err, "user_id", userID, "type", notificationType)
		return nil, err
	}

	metrics.NotificationsCreated.WithLabelValues(string(notificationType)).Inc()
	d.hub.Publish(n)

	if IsChannelEnabled(prefs, notificationType, domain.ChannelEmail) {
		d.enqueueEmail(ctx, n)
	}

	return n, nil
}

// enqueueEmail hands the record to the email workers without blocking the
// in-app path on provider health.
func (d *Dispatcher) enqueueEmail(ctx context.Context, n *domain.Notification) {
	recipient, err := d.users.LookupEmail(ctx, n.UserID)
	if err != nil || recipient == "" {
		d.log.Warn("no email address for recipient, skipping email channel", "error", err, "user_id", n.UserID)
		return
	}

	d.emails.Push(&queue.EmailJob{
		ID:           uuid.New().String(),
		Priority:     queue.PriorityFor(n.Type),
		Notification: n,
		Recipient:    recipient,
	})
	metrics.EmailQueueSize.Set(float64(d.emails.Len()))
}

// NotifyMany delivers one notification per recipient, concurrently and
// independently: one failing recipient never blocks the rest. buildPayload
// is invoked once per recipient so messages can be personalized.
func (d *Dispatcher) NotifyMany(ctx context.Context, userIDs []string, notificationType domain.NotificationType, buildPayload func(userID string) factory.Payload) DispatchResult {
	var (
		mu     sync.Mutex
		result DispatchResult
		wg     sync.WaitGroup
		sem    = make(chan struct{}, notifyManyConcurrency)
	)

	for _, userID := range userIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(userID string) {
			defer wg.Done()
			defer func() { <-sem }()

			n, err := d.Notify(ctx, userID, notificationType, buildPayload(userID))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				result.Failures = append(result.Failures, DispatchFailure{UserID: userID, Err: err})
			case n != nil:
				result.Created = append(result.Created, n)
			}
		}(userID)
	}

	wg.Wait()

	if len(result.Failures) > 0 {
		d.log.Warn("bulk dispatch partially failed",
			"type", notificationType, "created", len(result.Created), "failed", len(result.Failures))
	}
	return result
}
