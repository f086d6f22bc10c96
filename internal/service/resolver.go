package service

import (
	"context"

	"github.com/gatherly/notification-engine/internal/domain"
	"github.com/gatherly/notification-engine/internal/shared/logger"
)

// PreferenceStore is the slice of the preferences repository the resolver needs
type PreferenceStore interface {
	GetOrCreate(ctx context.Context, userID string) (*domain.NotificationPreferences, error)
}

// Resolver resolves per-user delivery preferences, falling back to the
// defaults when the store is unreachable. Missing a notification is worse UX
// than an unwanted one, so resolution fails open for delivery.
type Resolver struct {
	store PreferenceStore
	log   *logger.Logger
}

// NewResolver creates a new preference resolver
func NewResolver(store PreferenceStore, log *logger.Logger) *Resolver {
	return &Resolver{store: store, log: log}
}

// Resolve returns the user's preferences, creating the default document on
// first access. A store failure is logged and answered with in-memory
// defaults; it never propagates to the dispatch path.
func (r *Resolver) Resolve(ctx context.Context, userID string) *domain.NotificationPreferences {
	prefs, err := r.store.GetOrCreate(ctx, userID)
	if err != nil {
		r.log.Warn("preference resolution failed, assuming defaults", "error", err, "user_id", userID)
		return domain.DefaultPreferences(userID)
	}
	return prefs
}

// IsChannelEnabled reports whether a channel may deliver the given category.
// It is a pure function of its inputs. Email requires the category flag AND
// the email master switch; in-app requires only the category flag, so in-app
// visibility can be narrowed per category but never fully suppressed beyond
// that.
func IsChannelEnabled(prefs *domain.NotificationPreferences, category domain.NotificationType, channel domain.Channel) bool {
	if !prefs.CategoryEnabled(category) {
		return false
	}
	switch channel {
	case domain.ChannelEmail:
		return prefs.EmailEnabled
	case domain.ChannelInApp:
		return true
	}
	return false
}
