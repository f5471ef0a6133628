// Package data provides DB models and stores for the chat data layer.
package data

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Chat types.
const (
	ChatTypeDirect = "direct"
	ChatTypeGroup  = "group"
)

// Message types.
const (
	MessageTypeText         = "text"
	MessageTypeImage        = "image"
	MessageTypeVideo        = "video"
	MessageTypeAudio        = "audio"
	MessageTypeDocument     = "document"
	MessageTypeSticker      = "sticker"
	MessageTypeGif          = "gif"
	MessageTypeVoice        = "voice"
	MessageTypeLocation     = "location"
	MessageTypeContact      = "contact"
	MessageTypePoll         = "poll"
	MessageTypeReaction     = "reaction"
	MessageTypeSystem       = "system"
	MessageTypeEncrypted    = "encrypted"
	MessageTypeSelfDestruct = "selfDestruct"
	MessageTypeStreak       = "streak"
)

// Message statuses.
const (
	MessageStatusSending   = "sending"
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
	MessageStatusFailed    = "failed"
	MessageStatusDeleted   = "deleted"
)

// Streak types.
const (
	StreakTypePhoto = "photo"
	StreakTypeVideo = "video"
	StreakTypeText  = "text"
	StreakTypeAudio = "audio"
)

// Notification types.
const (
	NotificationTypeMessage    = "message"
	NotificationTypeStreak     = "streak"
	NotificationTypeConnection = "connection"
	NotificationTypeSystem     = "system"
)

// UserPrivacySettings controls what other users may see about a profile.
type UserPrivacySettings struct {
	ShowOnlineStatus  bool `bson:"show_online_status"`
	ShowLastSeen      bool `bson:"show_last_seen"`
	AllowReadReceipts bool `bson:"allow_read_receipts"`
}

// UserSettings holds per-user preferences.
type UserSettings struct {
	NotificationsEnabled bool                `bson:"notifications_enabled"`
	Theme                string              `bson:"theme"`
	Language             string              `bson:"language"`
	Privacy              UserPrivacySettings `bson:"privacy"`
}

// DefaultUserSettings are applied on user creation.
func DefaultUserSettings() UserSettings {
	return UserSettings{
		NotificationsEnabled: true,
		Theme:                "light",
		Language:             "en",
		Privacy: UserPrivacySettings{
			ShowOnlineStatus:  true,
			ShowLastSeen:      true,
			AllowReadReceipts: true,
		},
	}
}

// User maps to the users collection.
type User struct {
	ID             bson.ObjectID `bson:"_id,omitempty"`
	Email          string        `bson:"email"`
	Username       string        `bson:"username"`
	ProfilePicture string        `bson:"profile_picture,omitempty"`
	Bio            string        `bson:"bio,omitempty"`
	IsOnline       bool          `bson:"is_online"`
	LastSeen       time.Time     `bson:"last_seen,omitempty"`
	CreatedAt      time.Time     `bson:"created_at"`
	UpdatedAt      time.Time     `bson:"updated_at"`
	Settings       UserSettings  `bson:"settings"`
}

// ChatSettings holds per-chat feature toggles.
type ChatSettings struct {
	AllowInvites      bool `bson:"allow_invites"`
	AllowMedia        bool `bson:"allow_media"`
	AllowPolls        bool `bson:"allow_polls"`
	EncryptionEnabled bool `bson:"encryption_enabled"`
}

// DefaultChatSettings are applied on chat creation.
func DefaultChatSettings() ChatSettings {
	return ChatSettings{
		AllowInvites:      true,
		AllowMedia:        true,
		AllowPolls:        true,
		EncryptionEnabled: false,
	}
}

// Chat maps to the chats collection. LastMessageAt stays at its zero value
// until the first message, so a descending sort places never-messaged
// chats last.
type Chat struct {
	ID            bson.ObjectID   `bson:"_id,omitempty"`
	Name          string          `bson:"name"`
	Description   string          `bson:"description,omitempty"`
	Type          string          `bson:"type"`
	Avatar        string          `bson:"avatar,omitempty"`
	Participants  []bson.ObjectID `bson:"participants"`
	LastMessageID bson.ObjectID   `bson:"last_message_id,omitempty"`
	LastMessageAt time.Time       `bson:"last_message_at"`
	UnreadCount   int             `bson:"unread_count"`
	IsArchived    bool            `bson:"is_archived"`
	IsPinned      bool            `bson:"is_pinned"`
	CreatedAt     time.Time       `bson:"created_at"`
	UpdatedAt     time.Time       `bson:"updated_at"`
	Settings      ChatSettings    `bson:"settings"`
}

// HasParticipant reports whether id is in the chat's participant set.
func (c *Chat) HasParticipant(id bson.ObjectID) bool {
	for _, p := range c.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// Reaction is a single user's reaction. Reactions are stored as a map
// keyed by user-id hex, so "at most one reaction per user, replace on
// conflict" holds structurally rather than by list maintenance.
type Reaction struct {
	Emoji     string    `bson:"emoji"`
	Timestamp time.Time `bson:"timestamp"`
}

// UserReaction is the read-boundary form of a reaction entry.
type UserReaction struct {
	UserID    bson.ObjectID
	Emoji     string
	Timestamp time.Time
}

// reactionList converts a reaction map to a slice ordered by reaction time.
func reactionList(reactions map[string]Reaction) []UserReaction {
	out := make([]UserReaction, 0, len(reactions))
	for hex, r := range reactions {
		id, err := bson.ObjectIDFromHex(hex)
		if err != nil {
			continue
		}
		out = append(out, UserReaction{UserID: id, Emoji: r.Emoji, Timestamp: r.Timestamp})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// Attachment describes a media attachment on a message.
type Attachment struct {
	Type      string `bson:"type"`
	URL       string `bson:"url"`
	Filename  string `bson:"filename"`
	Size      int64  `bson:"size"`
	Thumbnail string `bson:"thumbnail,omitempty"`
}

// Encryption carries the envelope parameters of an encrypted message.
// No encryption is performed by this layer; the fields are stored as given.
type Encryption struct {
	Algorithm string `bson:"algorithm"`
	KeyID     string `bson:"key_id"`
	IV        string `bson:"iv"`
}

// MessageMetadata tracks delivery/read receipts and capture detection.
type MessageMetadata struct {
	ReadBy               []bson.ObjectID `bson:"read_by"`
	DeliveredTo          []bson.ObjectID `bson:"delivered_to"`
	ScreenshotDetected   bool            `bson:"screenshot_detected"`
	ScreenRecordDetected bool            `bson:"screen_record_detected"`
}

// Message maps to the messages collection. Deletion is a soft flag; the
// record is only physically removed by a chat or user cascade.
type Message struct {
	ID               bson.ObjectID       `bson:"_id,omitempty"`
	ChatID           bson.ObjectID       `bson:"chat_id"`
	SenderID         bson.ObjectID       `bson:"sender_id"`
	Content          string              `bson:"content"`
	Type             string              `bson:"type"`
	Status           string              `bson:"status"`
	Timestamp        time.Time           `bson:"timestamp"`
	EditedAt         time.Time           `bson:"edited_at,omitempty"`
	ReplyToMessageID bson.ObjectID       `bson:"reply_to_message_id,omitempty"`
	ForwardedFrom    []string            `bson:"forwarded_from"`
	Reactions        map[string]Reaction `bson:"reactions"`
	Attachments      []Attachment        `bson:"attachments"`
	IsEdited         bool                `bson:"is_edited"`
	IsDeleted        bool                `bson:"is_deleted"`
	DeletedAt        time.Time           `bson:"deleted_at,omitempty"`
	DeleteReason     string              `bson:"delete_reason,omitempty"`
	Encryption       *Encryption         `bson:"encryption,omitempty"`
	Metadata         MessageMetadata     `bson:"metadata"`
}

// ReactionList returns the message's reactions ordered by reaction time.
func (m *Message) ReactionList() []UserReaction {
	return reactionList(m.Reactions)
}

// ReadBy reports whether the user appears in the read receipts.
func (m *Message) ReadBy(id bson.ObjectID) bool {
	for _, r := range m.Metadata.ReadBy {
		if r == id {
			return true
		}
	}
	return false
}

// StreakSettings control how a streak may be consumed. Password holds a
// bcrypt hash at rest, never the plaintext.
type StreakSettings struct {
	AllowSave       bool   `bson:"allow_save"`
	AllowView       bool   `bson:"allow_view"`
	AllowScreenshot bool   `bson:"allow_screenshot"`
	TimeoutMinutes  int    `bson:"timeout_minutes"`
	IsEncrypted     bool   `bson:"is_encrypted"`
	RequirePassword bool   `bson:"require_password"`
	Password        string `bson:"password,omitempty"`
}

// StreakView records a single user's view. Views are keyed by user-id hex;
// a repeat view updates the entry in place.
type StreakView struct {
	Timestamp time.Time `bson:"timestamp"`
	Duration  *int      `bson:"duration,omitempty"`
}

// StreakSave records a single user's save; one entry per user.
type StreakSave struct {
	Timestamp time.Time `bson:"timestamp"`
	Encrypted bool      `bson:"encrypted"`
}

// Streak maps to the streaks collection. A streak is never hard-deleted:
// deletion and expiry both end at IsActive=false, with the content kept
// for history views.
type Streak struct {
	ID        bson.ObjectID         `bson:"_id,omitempty"`
	ChatID    bson.ObjectID         `bson:"chat_id"`
	CreatorID bson.ObjectID         `bson:"creator_id"`
	Content   string                `bson:"content"`
	Type      string                `bson:"type"`
	MediaURL  string                `bson:"media_url,omitempty"`
	Settings  StreakSettings        `bson:"settings"`
	Views     map[string]StreakView `bson:"views"`
	Saves     map[string]StreakSave `bson:"saves"`
	Reactions map[string]Reaction   `bson:"reactions"`
	ExpiresAt time.Time             `bson:"expires_at"`
	CreatedAt time.Time             `bson:"created_at"`
	UpdatedAt time.Time             `bson:"updated_at"`
	IsActive  bool                  `bson:"is_active"`
}

// Expired reports whether the streak is past its window or inactive as of
// the given instant. Note that IsActive lags expiry until a sweep runs;
// read paths use this check instead of trusting the flag.
func (s *Streak) Expired(at time.Time) bool {
	return at.After(s.ExpiresAt) || !s.IsActive
}

// ReactionList returns the streak's reactions ordered by reaction time.
func (s *Streak) ReactionList() []UserReaction {
	return reactionList(s.Reactions)
}

// Notification maps to the notifications collection. Notifications are
// passive records: inserted by other flows, read/unread toggled, nothing
// more.
type Notification struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    bson.ObjectID `bson:"user_id"`
	Type      string        `bson:"type"`
	Title     string        `bson:"title"`
	Body      string        `bson:"body"`
	Data      bson.M        `bson:"data,omitempty"`
	IsRead    bool          `bson:"is_read"`
	CreatedAt time.Time     `bson:"created_at"`
}
