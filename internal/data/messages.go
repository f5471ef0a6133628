package data

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vybechat/backend/internal/emoji"
)

// Default page sizes applied when the caller passes a non-positive limit.
const (
	DefaultMessagePageSize = 50
	DefaultSearchLimit     = 20
)

// MessagesStore provides message database operations. It holds the chats
// collection too, because sending a message advances the parent chat's
// last-message pointer.
type MessagesStore struct {
	messages *mongo.Collection
	chats    *mongo.Collection
}

// NewMessagesStore returns a MessagesStore over the provided collections.
func NewMessagesStore(messages, chats *mongo.Collection) *MessagesStore {
	return &MessagesStore{messages: messages, chats: chats}
}

// SendMessageParams carries the fields accepted when sending a message.
// ReplyToMessageID, Attachments, and Encryption are optional.
type SendMessageParams struct {
	ChatID           bson.ObjectID
	SenderID         bson.ObjectID
	Content          string
	Type             string
	ReplyToMessageID bson.ObjectID
	Attachments      []Attachment
	Encryption       *Encryption
}

// Send inserts a message with status "sent" and then patches the parent
// chat's lastMessageId/lastMessageAt. The two writes are independent
// store calls: a failure between them leaves the chat's last-message
// pointer stale, and that is surfaced to the caller rather than rolled
// back.
func (s *MessagesStore) Send(ctx context.Context, p SendMessageParams) (*Message, error) {
	now := time.Now()
	msg := &Message{
		ChatID:           p.ChatID,
		SenderID:         p.SenderID,
		Content:          p.Content,
		Type:             p.Type,
		Status:           MessageStatusSent,
		Timestamp:        now,
		ReplyToMessageID: p.ReplyToMessageID,
		ForwardedFrom:    []string{},
		Reactions:        map[string]Reaction{},
		Attachments:      p.Attachments,
		IsEdited:         false,
		IsDeleted:        false,
		Encryption:       p.Encryption,
		Metadata: MessageMetadata{
			ReadBy:               []bson.ObjectID{},
			DeliveredTo:          []bson.ObjectID{},
			ScreenshotDetected:   false,
			ScreenRecordDetected: false,
		},
	}
	if msg.Attachments == nil {
		msg.Attachments = []Attachment{}
	}

	result, err := s.messages.InsertOne(ctx, msg)
	if err != nil {
		return nil, errors.Wrap(err, "insert message")
	}
	msg.ID = result.InsertedID.(bson.ObjectID)

	// Second write: advance the chat's last-message pointer.
	_, err = s.chats.UpdateByID(ctx, p.ChatID, bson.M{"$set": bson.M{
		"last_message_id": msg.ID,
		"last_message_at": now,
		"updated_at":      now,
	}})
	if err != nil {
		return nil, errors.Wrap(err, "update chat last message")
	}

	return msg, nil
}

// GetForChat returns up to limit recent messages for a chat in
// chronological order. A non-positive limit selects
// DefaultMessagePageSize.
func (s *MessagesStore) GetForChat(ctx context.Context, chatID bson.ObjectID, limit int64) ([]*Message, error) {
	if limit <= 0 {
		limit = DefaultMessagePageSize
	}

	// Scan newest-first so the limit keeps the most recent messages.
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.messages.Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "get messages")
	}
	defer cursor.Close(ctx)

	var messages []*Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}

	// Reverse in place: clients expect oldest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// GetByID finds a message by ObjectID.
func (s *MessagesStore) GetByID(ctx context.Context, id bson.ObjectID) (*Message, error) {
	var msg Message
	err := s.messages.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get message")
	}
	return &msg, nil
}

// Edit replaces the message content, marks it edited, and stamps
// editedAt. Sender identity is the caller's responsibility; no
// authorization is enforced here.
func (s *MessagesStore) Edit(ctx context.Context, id bson.ObjectID, content string) (*Message, error) {
	result, err := s.messages.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"content":   content,
		"is_edited": true,
		"edited_at": time.Now(),
	}})
	if err != nil {
		return nil, errors.Wrap(err, "edit message")
	}
	if result.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// Delete soft-deletes a message: the isDeleted flag and deletedAt are
// set, the content is left in place. Physical removal only happens via
// chat or user cascade deletes.
func (s *MessagesStore) Delete(ctx context.Context, id bson.ObjectID, reason string) error {
	set := bson.M{
		"is_deleted": true,
		"deleted_at": time.Now(),
	}
	if reason != "" {
		set["delete_reason"] = reason
	}

	result, err := s.messages.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return errors.Wrap(err, "delete message")
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddReaction records a user's reaction, replacing any previous reaction
// by the same user. Reactions are keyed by user id, so the replacement is
// a single field set rather than list surgery.
func (s *MessagesStore) AddReaction(ctx context.Context, id, userID bson.ObjectID, reaction string) error {
	if err := emoji.ValidateReaction(reaction); err != nil {
		return err
	}

	result, err := s.messages.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"reactions." + userID.Hex(): Reaction{Emoji: reaction, Timestamp: time.Now()},
	}})
	if err != nil {
		return errors.Wrap(err, "add reaction")
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveReaction removes the user's reaction only when it matches the
// given emoji exactly; a different current emoji is left untouched.
func (s *MessagesStore) RemoveReaction(ctx context.Context, id, userID bson.ObjectID, reaction string) error {
	key := "reactions." + userID.Hex()

	// Filter on the exact (user, emoji) pair so a mismatched pair is a
	// no-op rather than a removal.
	result, err := s.messages.UpdateOne(ctx,
		bson.M{"_id": id, key + ".emoji": reaction},
		bson.M{"$unset": bson.M{key: ""}},
	)
	if err != nil {
		return errors.Wrap(err, "remove reaction")
	}
	if result.MatchedCount == 0 {
		// Distinguish a missing message from a non-matching pair.
		count, err := s.messages.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return errors.Wrap(err, "remove reaction")
		}
		if count == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// MarkRead appends the user to the message's read receipts. Repeated
// calls are idempotent set-adds.
func (s *MessagesStore) MarkRead(ctx context.Context, id, userID bson.ObjectID) error {
	return s.addReceipt(ctx, id, userID, "metadata.read_by")
}

// MarkDelivered appends the user to the message's delivery receipts,
// idempotently.
func (s *MessagesStore) MarkDelivered(ctx context.Context, id, userID bson.ObjectID) error {
	return s.addReceipt(ctx, id, userID, "metadata.delivered_to")
}

func (s *MessagesStore) addReceipt(ctx context.Context, id, userID bson.ObjectID, field string) error {
	result, err := s.messages.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{field: userID},
	})
	if err != nil {
		return errors.Wrapf(err, "update %s", field)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Search returns up to limit messages in the chat whose content contains
// the query, case-insensitively, newest first. Soft-deleted messages are
// excluded. This scans the chat's messages; content is unindexed.
func (s *MessagesStore) Search(ctx context.Context, chatID bson.ObjectID, query string, limit int64) ([]*Message, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	filter := bson.M{
		"chat_id":    chatID,
		"is_deleted": false,
		"content": bson.M{
			"$regex":   regexp.QuoteMeta(query),
			"$options": "i",
		},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "search messages")
	}
	defer cursor.Close(ctx)

	var messages []*Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}
	return messages, nil
}

// Forward copies a message into another chat under a new sender. The
// original's id is appended to the copy's forwardedFrom list, so the
// ancestry chain grows across repeated forwards. Reactions and receipts
// start fresh. The destination chat's last-message pointer is not
// advanced.
func (s *MessagesStore) Forward(ctx context.Context, messageID, toChatID, senderID bson.ObjectID) (*Message, error) {
	original, err := s.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	chain := make([]string, 0, len(original.ForwardedFrom)+1)
	chain = append(chain, original.ForwardedFrom...)
	chain = append(chain, original.ID.Hex())

	fwd := &Message{
		ChatID:        toChatID,
		SenderID:      senderID,
		Content:       original.Content,
		Type:          original.Type,
		Status:        MessageStatusSent,
		Timestamp:     time.Now(),
		ForwardedFrom: chain,
		Reactions:     map[string]Reaction{},
		Attachments:   original.Attachments,
		IsEdited:      false,
		IsDeleted:     false,
		Metadata: MessageMetadata{
			ReadBy:               []bson.ObjectID{},
			DeliveredTo:          []bson.ObjectID{},
			ScreenshotDetected:   false,
			ScreenRecordDetected: false,
		},
	}
	if fwd.Attachments == nil {
		fwd.Attachments = []Attachment{}
	}

	result, err := s.messages.InsertOne(ctx, fwd)
	if err != nil {
		return nil, errors.Wrap(err, "insert forwarded message")
	}
	fwd.ID = result.InsertedID.(bson.ObjectID)
	return fwd, nil
}
