package data

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ChatsStore performs chat registry operations. It holds the messages
// collection too, because deleting a chat cascades to its messages.
type ChatsStore struct {
	chats    *mongo.Collection
	messages *mongo.Collection
}

// NewChatsStore returns a ChatsStore over the provided collections.
func NewChatsStore(chats, messages *mongo.Collection) *ChatsStore {
	return &ChatsStore{chats: chats, messages: messages}
}

// CreateChatParams carries the fields accepted when opening a chat.
// Description and Avatar are optional.
type CreateChatParams struct {
	Name         string
	Type         string
	Participants []bson.ObjectID
	Description  string
	Avatar       string
}

// Create inserts a chat with default settings, zero unread count, and the
// archived/pinned flags cleared.
func (s *ChatsStore) Create(ctx context.Context, p CreateChatParams) (*Chat, error) {
	now := time.Now()
	chat := &Chat{
		Name:         p.Name,
		Description:  p.Description,
		Type:         p.Type,
		Avatar:       p.Avatar,
		Participants: p.Participants,
		UnreadCount:  0,
		IsArchived:   false,
		IsPinned:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
		Settings:     DefaultChatSettings(),
	}
	if chat.Participants == nil {
		chat.Participants = []bson.ObjectID{}
	}

	result, err := s.chats.InsertOne(ctx, chat)
	if err != nil {
		return nil, errors.Wrap(err, "insert chat")
	}

	chat.ID = result.InsertedID.(bson.ObjectID)
	return chat, nil
}

// GetByID finds a chat by ObjectID.
func (s *ChatsStore) GetByID(ctx context.Context, id bson.ObjectID) (*Chat, error) {
	var chat Chat
	err := s.chats.FindOne(ctx, bson.M{"_id": id}).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get chat")
	}
	return &chat, nil
}

// GetForUser returns every chat the user participates in, most recently
// messaged first. Chats that were never messaged keep a zero
// lastMessageAt and therefore sort last.
func (s *ChatsStore) GetForUser(ctx context.Context, userID bson.ObjectID) ([]*Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}})

	cursor, err := s.chats.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "get chats for user")
	}
	defer cursor.Close(ctx)

	var chats []*Chat
	if err = cursor.All(ctx, &chats); err != nil {
		return nil, errors.Wrap(err, "decode chats")
	}
	return chats, nil
}

// AddParticipant adds a user to the chat's participant set. Returns
// ErrNotFound for a missing chat and ErrAlreadyMember when the user is
// already present.
func (s *ChatsStore) AddParticipant(ctx context.Context, chatID, userID bson.ObjectID) error {
	chat, err := s.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if chat.HasParticipant(userID) {
		return ErrAlreadyMember
	}

	// $addToSet keeps membership a set even if two callers race past the
	// check above; one of them will just be a no-op.
	_, err = s.chats.UpdateByID(ctx, chatID, bson.M{
		"$addToSet": bson.M{"participants": userID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return errors.Wrap(err, "add participant")
	}
	return nil
}

// RemoveParticipant removes a user from the chat. Removing a user who
// never joined is a no-op; only a missing chat is an error.
func (s *ChatsStore) RemoveParticipant(ctx context.Context, chatID, userID bson.ObjectID) error {
	result, err := s.chats.UpdateByID(ctx, chatID, bson.M{
		"$pull": bson.M{"participants": userID},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return errors.Wrap(err, "remove participant")
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ChatUpdate lists the profile and settings fields that may be patched.
// Nil fields are left untouched.
type ChatUpdate struct {
	Name        *string
	Description *string
	Avatar      *string
	Settings    *ChatSettings
}

// Update patches the provided fields and stamps updatedAt, returning the
// updated record.
func (s *ChatsStore) Update(ctx context.Context, id bson.ObjectID, u ChatUpdate) (*Chat, error) {
	set := bson.M{"updated_at": time.Now()}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Avatar != nil {
		set["avatar"] = *u.Avatar
	}
	if u.Settings != nil {
		set["settings"] = *u.Settings
	}

	result, err := s.chats.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return nil, errors.Wrap(err, "update chat")
	}
	if result.MatchedCount == 0 {
		return nil, ErrNotFound
	}

	return s.GetByID(ctx, id)
}

// SetArchived sets the archived flag to the given value.
func (s *ChatsStore) SetArchived(ctx context.Context, id bson.ObjectID, archived bool) error {
	return s.setFlag(ctx, id, "is_archived", archived)
}

// SetPinned sets the pinned flag to the given value.
func (s *ChatsStore) SetPinned(ctx context.Context, id bson.ObjectID, pinned bool) error {
	return s.setFlag(ctx, id, "is_pinned", pinned)
}

func (s *ChatsStore) setFlag(ctx context.Context, id bson.ObjectID, field string, value bool) error {
	result, err := s.chats.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		field:        value,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return errors.Wrapf(err, "set %s", field)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete hard-deletes a chat and all of its messages, messages first.
// The two deletes are separate store calls; an interruption between them
// leaves the chat without its messages rather than the reverse.
func (s *ChatsStore) Delete(ctx context.Context, id bson.ObjectID) error {
	if _, err := s.messages.DeleteMany(ctx, bson.M{"chat_id": id}); err != nil {
		return errors.Wrap(err, "delete chat messages")
	}

	result, err := s.chats.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "delete chat")
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
