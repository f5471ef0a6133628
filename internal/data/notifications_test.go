package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestNotificationsCreateAndRead(t *testing.T) {
	c := setupDB(t)
	ctx := context.Background()

	notifications := NewNotificationsStore(c.Notifications())
	user := bson.NewObjectID()

	first, err := notifications.Create(ctx, CreateNotificationParams{
		UserID: user,
		Type:   NotificationTypeMessage,
		Title:  "New message",
		Body:   "alice: hi",
	})
	require.NoError(t, err)
	assert.False(t, first.IsRead)

	second, err := notifications.Create(ctx, CreateNotificationParams{
		UserID: user,
		Type:   NotificationTypeStreak,
		Title:  "New streak",
		Body:   "bob posted a streak",
		Data:   bson.M{"chat_id": bson.NewObjectID().Hex()},
	})
	require.NoError(t, err)

	all, err := notifications.GetForUser(ctx, user, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Toggle one read; the unread filter drops it.
	require.NoError(t, notifications.SetRead(ctx, first.ID, true))
	unread, err := notifications.GetForUser(ctx, user, true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, second.ID, unread[0].ID)

	// And back again.
	require.NoError(t, notifications.SetRead(ctx, first.ID, false))
	unread, err = notifications.GetForUser(ctx, user, true)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	// Other users see nothing.
	none, err := notifications.GetForUser(ctx, bson.NewObjectID(), false)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.ErrorIs(t, notifications.SetRead(ctx, bson.NewObjectID(), true), ErrNotFound)
}
