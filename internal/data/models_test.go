package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestChatHasParticipant(t *testing.T) {
	a := bson.NewObjectID()
	b := bson.NewObjectID()
	chat := &Chat{Participants: []bson.ObjectID{a}}

	assert.True(t, chat.HasParticipant(a))
	assert.False(t, chat.HasParticipant(b))
}

func TestStreakExpired(t *testing.T) {
	now := time.Now()
	streak := &Streak{ExpiresAt: now.Add(time.Minute), IsActive: true}

	assert.False(t, streak.Expired(now))
	// Past the window, even with the flag still set pre-sweep.
	assert.True(t, streak.Expired(now.Add(2*time.Minute)))

	// Deleted streaks are expired regardless of the window.
	streak.IsActive = false
	assert.True(t, streak.Expired(now))
}

func TestReactionListOrdering(t *testing.T) {
	a := bson.NewObjectID()
	b := bson.NewObjectID()
	base := time.Now()

	msg := &Message{Reactions: map[string]Reaction{
		b.Hex(): {Emoji: "🔥", Timestamp: base.Add(time.Second)},
		a.Hex(): {Emoji: "👍", Timestamp: base},
	}}

	list := msg.ReactionList()
	require.Len(t, list, 2)
	assert.Equal(t, a, list[0].UserID)
	assert.Equal(t, "👍", list[0].Emoji)
	assert.Equal(t, b, list[1].UserID)
}

func TestMessageReadBy(t *testing.T) {
	a := bson.NewObjectID()
	msg := &Message{Metadata: MessageMetadata{ReadBy: []bson.ObjectID{a}}}

	assert.True(t, msg.ReadBy(a))
	assert.False(t, msg.ReadBy(bson.NewObjectID()))
}
