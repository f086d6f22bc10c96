package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gatherly/notification-engine/internal/domain"
	apperrors "github.com/gatherly/notification-engine/internal/shared/errors"
	"github.com/gatherly/notification-engine/internal/shared/mongodb"
)

// TestCreate_InitializesRecord verifies new notifications start unread and unsent
func TestCreate_InitializesRecord(t *testing.T) {
	t.Skip("Requires MongoDB connection - run with integration test suite")

	client := setupTestMongoDB(t)
	defer teardownTestMongoDB(t, client)

	repo := NewNotificationRepository(client)
	ctx := context.Background()

	n := &domain.Notification{
		UserID:  "user-1",
		Type:    domain.NotificationTypeConfirmation,
		Title:   "You're going to Book Swap",
		Message: "Your spot at Book Swap is confirmed.",
		Metadata: domain.Metadata{
			EventID: "evt-1",
			Action:  domain.RSVPActionJoined,
		},
	}

	err := repo.Create(ctx, n)
	require.NoError(t, err)
	require.False(t, n.ID.IsZero())
	assert.False(t, n.IsRead)
	assert.False(t, n.EmailSent)
	assert.False(t, n.CreatedAt.IsZero())
}

// TestCreate_ReminderDedup verifies the partial unique index rejects a second
// reminder for the same (user, event, offset) triple
func TestCreate_ReminderDedup(t *testing.T) {
	t.Skip("Requires MongoDB connection - run with integration test suite")

	client := setupTestMongoDB(t)
	defer teardownTestMongoDB(t, client)

	repo := NewNotificationRepository(client)
	ctx := context.Background()
	require.NoError(t, repo.EnsureIndexes(ctx))

	reminder := func() *domain.Notification {
		return &domain.Notification{
			UserID: "user-1",
			Type:   domain.NotificationTypeReminder,
			Title:  "Reminder: Book Swap is tomorrow",
			Metadata: domain.Metadata{
				EventID:     "evt-1",
				OffsetHours: 24,
			},
		}
	}

	require.NoError(t, repo.Create(ctx, reminder()))

	err := repo.Create(ctx, reminder())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDuplicateReminder))

	// a different offset for the same event is a distinct reminder
	other := reminder()
	other.Metadata.OffsetHours = 1
	assert.NoError(t, repo.Create(ctx, other))

	// non-reminder types never hit the index
	assert.NoError(t, repo.Create(ctx, &domain.Notification{
		UserID:   "user-1",
		Type:     domain.NotificationTypeConfirmation,
		Metadata: domain.Metadata{EventID: "evt-1"},
	}))
	assert.NoError(t, repo.Create(ctx, &domain.Notification{
		UserID:   "user-1",
		Type:     domain.NotificationTypeConfirmation,
		Metadata: domain.Metadata{EventID: "evt-1"},
	}))
}

// TestMarkRead_OwnershipIsolation verifies cross-user mutation is rejected
func TestMarkRead_OwnershipIsolation(t *testing.T) {
	t.Skip("Requires MongoDB connection - run with integration test suite")

	client := setupTestMongoDB(t)
	defer teardownTestMongoDB(t, client)

	repo := NewNotificationRepository(client)
	ctx := context.Background()

	n := &domain.Notification{UserID: "user-1", Type: domain.NotificationTypeUpdate, Title: "Updated: Book Swap"}
	require.NoError(t, repo.Create(ctx, n))

	// the owner can mark it read, and repeating the call is a no-op
	require.NoError(t, repo.MarkRead(ctx, "user-1", n.ID.Hex()))
	require.NoError(t, repo.MarkRead(ctx, "user-1", n.ID.Hex()))

	// another user gets unauthorized, not a silent success
	err := repo.MarkRead(ctx, "user-2", n.ID.Hex())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.CodeOf(err))

	// a malformed id is a validation error
	err = repo.MarkRead(ctx, "user-1", "bad-hex")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))

	// a well-formed id that matches nothing is not-found
	err = repo.MarkRead(ctx, "user-1", primitive.NewObjectID().Hex())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

// TestMarkRead_RepeatIsIdempotent verifies re-marking an already-read
// notification succeeds and leaves its state unchanged
func TestMarkRead_RepeatIsIdempotent(t *testing.T) {
	t.Skip("Requires MongoDB connection - run with integration test suite")

	client := setupTestMongoDB(t)
	defer teardownTestMongoDB(t, client)

	repo := NewNotificationRepository(client)
	ctx := context.Background()

	n := &domain.Notification{UserID: "user-1", Type: domain.NotificationTypeConfirmation, Title: "You're going to Book Swap"}
	require.NoError(t, repo.Create(ctx, n))

	require.NoError(t, repo.MarkRead(ctx, "user-1", n.ID.Hex()))

	unread, err := repo.CountUnread(ctx, "user-1")
	require.NoError(t, err)
	require.EqualValues(t, 0, unread)

	// second mark of the same row is a no-op, not an error
	require.NoError(t, repo.MarkRead(ctx, "user-1", n.ID.Hex()))

	unread, err = repo.CountUnread(ctx, "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, unread)

	listed, total, err := repo.ListForUser(ctx, "user-1", "", 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].IsRead)
}

// TestMarkAllRead_CountsOnlyChangedRows verifies repeat calls report zero
func TestMarkAllRead_CountsOnlyChangedRows(t *testing.T) {
	t.Skip("Requires MongoDB connection - run with integration test suite")

	client := setupTestMongoDB(t)
	defer teardownTestMongoDB(t, client)

	repo := NewNotificationRepository(client)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &domain.Notification{UserID: "user-1", Type: domain.NotificationTypeUpdate}))
	}
	require.NoError(t, repo.Create(ctx, &domain.Notification{UserID: "user-2", Type: domain.NotificationTypeUpdate}))

	changed, err := repo.MarkAllRead(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), changed)

	changed, err = repo.MarkAllRead(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), changed)

	// the other user's records are untouched
	unread, err := repo.CountUnread(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

// TestListForUser_OrderAndFilter verifies newest-first order and type filtering
func TestListForUser_OrderAndFilter(t *testing.T) {
	t.Skip("Requires MongoDB connection - run with integration test suite")

	client := setupTestMongoDB(t)
	defer teardownTestMongoDB(t, client)

	repo := NewNotificationRepository(client)
	ctx := context.Background()

	for _, typ := range []domain.NotificationType{
		domain.NotificationTypeReminder,
		domain.NotificationTypeConfirmation,
		domain.NotificationTypeCancellation,
	} {
		require.NoError(t, repo.Create(ctx, &domain.Notification{UserID: "user-1", Type: typ}))
	}

	all, total, err := repo.ListForUser(ctx, "user-1", "", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt), "expected newest first")
	}

	reminders, total, err := repo.ListForUser(ctx, "user-1", domain.NotificationTypeReminder, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, reminders, 1)
	assert.Equal(t, domain.NotificationTypeReminder, reminders[0].Type)
}

// TestLatestConfirmationAction verifies the most recent direction wins
func TestLatestConfirmationAction(t *testing.T) {
	t.Skip("Requires MongoDB connection - run with integration test suite")

	client := setupTestMongoDB(t)
	defer teardownTestMongoDB(t, client)

	repo := NewNotificationRepository(client)
	ctx := context.Background()

	action, err := repo.LatestConfirmationAction(ctx, "user-1", "evt-1")
	require.NoError(t, err)
	assert.Empty(t, action)

	require.NoError(t, repo.Create(ctx, &domain.Notification{
		UserID:   "user-1",
		Type:     domain.NotificationTypeConfirmation,
		Metadata: domain.Metadata{EventID: "evt-1", Action: domain.RSVPActionJoined},
	}))
	require.NoError(t, repo.Create(ctx, &domain.Notification{
		UserID:   "user-1",
		Type:     domain.NotificationTypeConfirmation,
		Metadata: domain.Metadata{EventID: "evt-1", Action: domain.RSVPActionLeft},
	}))

	action, err = repo.LatestConfirmationAction(ctx, "user-1", "evt-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RSVPActionLeft, action)
}

// TestDeleteOlderThan verifies the retention sweep ignores read status
func TestDeleteOlderThan(t *testing.T) {
	t.Skip("Requires MongoDB connection - run with integration test suite")

	client := setupTestMongoDB(t)
	defer teardownTestMongoDB(t, client)

	repo := NewNotificationRepository(client)
	ctx := context.Background()

	n := &domain.Notification{UserID: "user-1", Type: domain.NotificationTypeUpdate}
	require.NoError(t, repo.Create(ctx, n))

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	deleted, err = repo.DeleteOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

// ============= Test Helpers =============

// setupTestMongoDB initializes a test MongoDB connection
func setupTestMongoDB(t *testing.T) *mongodb.MongoClient {
	// export MONGODB_TEST_URI="mongodb://localhost:27017"
	client, err := mongodb.NewMongoClient("mongodb://localhost:27017", "notification_engine_test")
	require.NoError(t, err, "Failed to connect to test MongoDB")
	return client
}

// teardownTestMongoDB cleans up test collections
func teardownTestMongoDB(t *testing.T, client *mongodb.MongoClient) {
	ctx := context.Background()

	for _, coll := range []string{
		notificationsCollection,
		preferencesCollection,
	} {
		if err := client.Collection(coll).Drop(ctx); err != nil {
			t.Logf("Warning: Failed to drop collection %s: %v", coll, err)
		}
	}

	client.Disconnect(ctx)
}
