package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestUsersCreateGetAndSearch(t *testing.T) {
	c := setupDB(t)
	ctx := context.Background()

	users := NewUsersStore(c.Users(), c.Chats(), c.Messages())

	alice, err := users.Create(ctx, CreateUserParams{
		Email:    "Alice@Example.com",
		Username: "Alice",
		Bio:      "hi there",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", alice.Email)
	assert.Equal(t, "alice", alice.Username)
	assert.True(t, alice.Settings.NotificationsEnabled)
	assert.Equal(t, "light", alice.Settings.Theme)

	// Same email again fails with the duplicate-key kind.
	_, err = users.Create(ctx, CreateUserParams{
		Email:    "alice@example.com",
		Username: "alice2",
	})
	require.ErrorIs(t, err, ErrDuplicateKey)

	// Point lookup by email is case-insensitive via normalization.
	got, err := users.GetByEmail(ctx, "ALICE@example.COM")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = users.GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ErrNotFound)

	// Substring search is case-insensitive and unanchored.
	_, err = users.Create(ctx, CreateUserParams{Email: "bob@example.com", Username: "bobalice"})
	require.NoError(t, err)

	found, err := users.SearchByUsername(ctx, "ALI")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUsersUpdateAndOnlineStatus(t *testing.T) {
	c := setupDB(t)
	ctx := context.Background()

	users := NewUsersStore(c.Users(), c.Chats(), c.Messages())

	u, err := users.Create(ctx, CreateUserParams{Email: "carol@example.com", Username: "carol"})
	require.NoError(t, err)
	require.True(t, u.LastSeen.IsZero())

	bio := "new bio"
	updated, err := users.Update(ctx, u.ID, UserUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "new bio", updated.Bio)
	assert.Equal(t, "carol", updated.Username, "unset fields stay untouched")
	assert.False(t, updated.UpdatedAt.Before(u.UpdatedAt))

	// lastSeen is stamped on both transitions.
	require.NoError(t, users.SetOnlineStatus(ctx, u.ID, true))
	online, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, online.IsOnline)
	assert.False(t, online.LastSeen.IsZero())

	require.NoError(t, users.SetOnlineStatus(ctx, u.ID, false))
	offline, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, offline.IsOnline)
	assert.False(t, offline.LastSeen.Before(online.LastSeen))

	require.ErrorIs(t, users.SetOnlineStatus(ctx, bson.NewObjectID(), true), ErrNotFound)
}

func TestUsersDeleteCascade(t *testing.T) {
	c := setupDB(t)
	ctx := context.Background()

	users := NewUsersStore(c.Users(), c.Chats(), c.Messages())
	chats := NewChatsStore(c.Chats(), c.Messages())
	messages := NewMessagesStore(c.Messages(), c.Chats())

	victim, err := users.Create(ctx, CreateUserParams{Email: "dave@example.com", Username: "dave"})
	require.NoError(t, err)
	other, err := users.Create(ctx, CreateUserParams{Email: "erin@example.com", Username: "erin"})
	require.NoError(t, err)

	// A chat the victim participates in, plus a message they sent there.
	shared, err := chats.Create(ctx, CreateChatParams{
		Name:         "dave & erin",
		Type:         ChatTypeDirect,
		Participants: []bson.ObjectID{victim.ID, other.ID},
	})
	require.NoError(t, err)
	_, err = messages.Send(ctx, SendMessageParams{
		ChatID: shared.ID, SenderID: victim.ID, Content: "hi", Type: MessageTypeText,
	})
	require.NoError(t, err)

	// A chat the victim is not part of survives the cascade.
	solo, err := chats.Create(ctx, CreateChatParams{
		Name:         "erin only",
		Type:         ChatTypeGroup,
		Participants: []bson.ObjectID{other.ID},
	})
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, victim.ID))

	_, err = users.GetByID(ctx, victim.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = chats.GetByID(ctx, shared.ID)
	require.ErrorIs(t, err, ErrNotFound)

	msgs, err := messages.GetForChat(ctx, shared.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	survivor, err := chats.GetByID(ctx, solo.ID)
	require.NoError(t, err)
	assert.Equal(t, "erin only", survivor.Name)

	// Deleting again reports the user as gone.
	require.ErrorIs(t, users.Delete(ctx, victim.ID), ErrNotFound)
}
