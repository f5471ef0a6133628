package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestChatsCreateAndParticipants(t *testing.T) {
	c := setupDB(t)
	ctx := context.Background()

	chats := NewChatsStore(c.Chats(), c.Messages())

	a := bson.NewObjectID()
	b := bson.NewObjectID()
	z := bson.NewObjectID()

	chat, err := chats.Create(ctx, CreateChatParams{
		Name:         "pair",
		Type:         ChatTypeDirect,
		Participants: []bson.ObjectID{a, b},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, chat.UnreadCount)
	assert.False(t, chat.IsArchived)
	assert.False(t, chat.IsPinned)
	assert.True(t, chat.Settings.AllowInvites)
	assert.True(t, chat.Settings.AllowMedia)
	assert.True(t, chat.Settings.AllowPolls)
	assert.False(t, chat.Settings.EncryptionEnabled)

	// Adding an existing participant fails; adding a new one works.
	require.ErrorIs(t, chats.AddParticipant(ctx, chat.ID, a), ErrAlreadyMember)
	require.NoError(t, chats.AddParticipant(ctx, chat.ID, z))
	require.ErrorIs(t, chats.AddParticipant(ctx, bson.NewObjectID(), a), ErrNotFound)

	// Removing someone who never joined is a silent no-op; removing from
	// a missing chat is not.
	require.NoError(t, chats.RemoveParticipant(ctx, chat.ID, bson.NewObjectID()))
	require.NoError(t, chats.RemoveParticipant(ctx, chat.ID, z))
	require.ErrorIs(t, chats.RemoveParticipant(ctx, bson.NewObjectID(), a), ErrNotFound)

	got, err := chats.GetByID(ctx, chat.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []bson.ObjectID{a, b}, got.Participants)
}

func TestChatsGetForUserOrdering(t *testing.T) {
	c := setupDB(t)
	ctx := context.Background()

	chats := NewChatsStore(c.Chats(), c.Messages())
	messages := NewMessagesStore(c.Messages(), c.Chats())

	user := bson.NewObjectID()

	quiet, err := chats.Create(ctx, CreateChatParams{
		Name: "quiet", Type: ChatTypeGroup, Participants: []bson.ObjectID{user},
	})
	require.NoError(t, err)
	busy, err := chats.Create(ctx, CreateChatParams{
		Name: "busy", Type: ChatTypeGroup, Participants: []bson.ObjectID{user},
	})
	require.NoError(t, err)

	_, err = messages.Send(ctx, SendMessageParams{
		ChatID: busy.ID, SenderID: user, Content: "ping", Type: MessageTypeText,
	})
	require.NoError(t, err)

	list, err := chats.GetForUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 2)

	// The messaged chat sorts first; the never-messaged one sorts as if
	// lastMessageAt were zero, i.e. last.
	assert.Equal(t, busy.ID, list[0].ID)
	assert.Equal(t, quiet.ID, list[1].ID)

	// Chats of other users never show up.
	none, err := chats.GetForUser(ctx, bson.NewObjectID())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestChatsUpdateAndFlags(t *testing.T) {
	c := setupDB(t)
	ctx := context.Background()

	chats := NewChatsStore(c.Chats(), c.Messages())

	chat, err := chats.Create(ctx, CreateChatParams{
		Name: "room", Type: ChatTypeGroup, Participants: []bson.ObjectID{bson.NewObjectID()},
	})
	require.NoError(t, err)

	name := "renamed"
	settings := chat.Settings
	settings.EncryptionEnabled = true
	updated, err := chats.Update(ctx, chat.ID, ChatUpdate{Name: &name, Settings: &settings})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.True(t, updated.Settings.EncryptionEnabled)
	assert.Equal(t, chat.Type, updated.Type, "unset fields stay untouched")

	require.NoError(t, chats.SetArchived(ctx, chat.ID, true))
	require.NoError(t, chats.SetPinned(ctx, chat.ID, true))
	got, err := chats.GetByID(ctx, chat.ID)
	require.NoError(t, err)
	assert.True(t, got.IsArchived)
	assert.True(t, got.IsPinned)

	// Each flag toggles independently.
	require.NoError(t, chats.SetArchived(ctx, chat.ID, false))
	got, err = chats.GetByID(ctx, chat.ID)
	require.NoError(t, err)
	assert.False(t, got.IsArchived)
	assert.True(t, got.IsPinned)

	require.ErrorIs(t, chats.SetPinned(ctx, bson.NewObjectID(), true), ErrNotFound)
}

func TestChatsDeleteCascadesMessages(t *testing.T) {
	c := setupDB(t)
	ctx := context.Background()

	chats := NewChatsStore(c.Chats(), c.Messages())
	messages := NewMessagesStore(c.Messages(), c.Chats())

	user := bson.NewObjectID()
	chat, err := chats.Create(ctx, CreateChatParams{
		Name: "doomed", Type: ChatTypeGroup, Participants: []bson.ObjectID{user},
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = messages.Send(ctx, SendMessageParams{
			ChatID: chat.ID, SenderID: user, Content: "msg", Type: MessageTypeText,
		})
		require.NoError(t, err)
	}

	require.NoError(t, chats.Delete(ctx, chat.ID))

	_, err = chats.GetByID(ctx, chat.ID)
	require.ErrorIs(t, err, ErrNotFound)

	left, err := messages.GetForChat(ctx, chat.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, left)

	require.ErrorIs(t, chats.Delete(ctx, chat.ID), ErrNotFound)
}
