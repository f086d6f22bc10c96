package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/gatherly/notification-engine/internal/domain"
	"github.com/gatherly/notification-engine/internal/shared/logger"
)

func TestResolveReturnsStoredPreferences(t *testing.T) {
	stored := domain.DefaultPreferences("user-1")
	stored.EmailEnabled = true
	stored.ReminderOffsets = []int{48}

	r := NewResolver(&fakePreferenceStore{prefs: stored}, logger.NewLogger())

	got := r.Resolve(context.Background(), "user-1")
	if !reflect.DeepEqual(got, stored) {
		t.Errorf("Resolve() = %+v, want stored document", got)
	}
}

func TestResolveFailsOpenToDefaults(t *testing.T) {
	r := NewResolver(&fakePreferenceStore{err: errors.New("mongo: server selection timeout")}, logger.NewLogger())

	got := r.Resolve(context.Background(), "user-1")
	if got == nil {
		t.Fatal("Resolve() must never return nil")
	}
	if !reflect.DeepEqual(got, domain.DefaultPreferences("user-1")) {
		t.Errorf("Resolve() on store failure = %+v, want defaults", got)
	}
}

func TestIsChannelEnabled(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*domain.NotificationPreferences)
		category domain.NotificationType
		channel  domain.Channel
		want     bool
	}{
		{
			name:     "in-app on by default",
			mutate:   func(*domain.NotificationPreferences) {},
			category: domain.NotificationTypeReminder,
			channel:  domain.ChannelInApp,
			want:     true,
		},
		{
			name:     "email requires master switch",
			mutate:   func(*domain.NotificationPreferences) {},
			category: domain.NotificationTypeReminder,
			channel:  domain.ChannelEmail,
			want:     false,
		},
		{
			name:     "email on when switch and category on",
			mutate:   func(p *domain.NotificationPreferences) { p.EmailEnabled = true },
			category: domain.NotificationTypeConfirmation,
			channel:  domain.ChannelEmail,
			want:     true,
		},
		{
			name: "category off suppresses email despite master switch",
			mutate: func(p *domain.NotificationPreferences) {
				p.EmailEnabled = true
				p.ConfirmationsEnabled = false
			},
			category: domain.NotificationTypeConfirmation,
			channel:  domain.ChannelEmail,
			want:     false,
		},
		{
			name:     "category off suppresses in-app",
			mutate:   func(p *domain.NotificationPreferences) { p.RemindersEnabled = false },
			category: domain.NotificationTypeReminder,
			channel:  domain.ChannelInApp,
			want:     false,
		},
		{
			name:     "cancellations follow the updates flag",
			mutate:   func(p *domain.NotificationPreferences) { p.UpdatesEnabled = false },
			category: domain.NotificationTypeCancellation,
			channel:  domain.ChannelInApp,
			want:     false,
		},
		{
			name:     "unknown channel is never enabled",
			mutate:   func(*domain.NotificationPreferences) {},
			category: domain.NotificationTypeReminder,
			channel:  domain.Channel("carrier_pigeon"),
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs := domain.DefaultPreferences("user-1")
			tt.mutate(prefs)
			if got := IsChannelEnabled(prefs, tt.category, tt.channel); got != tt.want {
				t.Errorf("IsChannelEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}
