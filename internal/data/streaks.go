package data

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"golang.org/x/time/rate"

	"github.com/vybechat/backend/internal/emoji"
	"github.com/vybechat/backend/internal/secret"
)

// StreaksStore manages ephemeral, time-boxed media posts scoped to a
// chat. A streak moves Active -> Inactive either by explicit deletion or
// by the expiry sweep; the isActive flag lags logical expiry until a
// sweep runs, so read paths filter on expiresAt as well.
type StreaksStore struct {
	coll *mongo.Collection
}

// NewStreaksStore returns a StreaksStore using the provided collection.
func NewStreaksStore(coll *mongo.Collection) *StreaksStore {
	return &StreaksStore{coll: coll}
}

// CreateStreakParams carries the fields accepted when posting a streak.
// MediaURL is optional. Settings.Password, when required, is the
// plaintext; it is hashed before storage.
type CreateStreakParams struct {
	ChatID    bson.ObjectID
	CreatorID bson.ObjectID
	Content   string
	Type      string
	MediaURL  string
	Settings  StreakSettings
}

// Create inserts an active streak expiring timeoutMinutes from now, with
// empty views/saves/reactions. Settings are stored as given except the
// password, which is bcrypt-hashed at rest. Enforcement of allowView and
// allowScreenshot is left to callers; only saving is gated here.
func (s *StreaksStore) Create(ctx context.Context, p CreateStreakParams) (*Streak, error) {
	settings := p.Settings
	if settings.RequirePassword && settings.Password != "" {
		hashed, err := secret.Hash(settings.Password)
		if err != nil {
			return nil, errors.Wrap(err, "hash streak password")
		}
		settings.Password = hashed
	}

	now := time.Now()
	streak := &Streak{
		ChatID:    p.ChatID,
		CreatorID: p.CreatorID,
		Content:   p.Content,
		Type:      p.Type,
		MediaURL:  p.MediaURL,
		Settings:  settings,
		Views:     map[string]StreakView{},
		Saves:     map[string]StreakSave{},
		Reactions: map[string]Reaction{},
		ExpiresAt: now.Add(time.Duration(settings.TimeoutMinutes) * time.Minute),
		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  true,
	}

	result, err := s.coll.InsertOne(ctx, streak)
	if err != nil {
		return nil, errors.Wrap(err, "insert streak")
	}

	streak.ID = result.InsertedID.(bson.ObjectID)
	return streak, nil
}

// GetByID finds a streak by ObjectID regardless of its state.
func (s *StreaksStore) GetByID(ctx context.Context, id bson.ObjectID) (*Streak, error) {
	var streak Streak
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&streak)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get streak")
	}
	return &streak, nil
}

// GetForChat returns the chat's live streaks, newest first. The filter
// requires both isActive and expiresAt > now, so logically expired
// streaks never surface here even before a sweep flips their flag.
func (s *StreaksStore) GetForChat(ctx context.Context, chatID bson.ObjectID) ([]*Streak, error) {
	filter := bson.M{
		"chat_id":    chatID,
		"is_active":  true,
		"expires_at": bson.M{"$gt": time.Now()},
	}
	return s.findSorted(ctx, filter)
}

// GetHistory returns all of the chat's streaks, newest first, including
// expired and deleted ones. Used for audit/history views.
func (s *StreaksStore) GetHistory(ctx context.Context, chatID bson.ObjectID) ([]*Streak, error) {
	return s.findSorted(ctx, bson.M{"chat_id": chatID})
}

func (s *StreaksStore) findSorted(ctx context.Context, filter bson.M) ([]*Streak, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find streaks")
	}
	defer cursor.Close(ctx)

	var streaks []*Streak
	if err = cursor.All(ctx, &streaks); err != nil {
		return nil, errors.Wrap(err, "decode streaks")
	}
	return streaks, nil
}

// View records that a user viewed the streak. Each user has at most one
// view record: a repeat view updates the duration in place when a new
// duration is supplied and is a no-op otherwise. Returns ErrExpired when
// the streak's window has passed or it was deleted.
func (s *StreaksStore) View(ctx context.Context, id, userID bson.ObjectID, duration *int) error {
	streak, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if streak.Expired(time.Now()) {
		return ErrExpired
	}

	key := "views." + userID.Hex()
	now := time.Now()

	if _, ok := streak.Views[userID.Hex()]; ok {
		if duration == nil {
			return nil
		}
		_, err = s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{
			key + ".duration": *duration,
			"updated_at":      now,
		}})
		return errors.Wrap(err, "update view duration")
	}

	_, err = s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		key:          StreakView{Timestamp: now, Duration: duration},
		"updated_at": now,
	}})
	return errors.Wrap(err, "record view")
}

// Save records that a user saved the streak. Returns ErrSaveNotAllowed
// when the streak's settings forbid saving. A repeat save by the same
// user is a silent no-op.
func (s *StreaksStore) Save(ctx context.Context, id, userID bson.ObjectID, encrypted bool) error {
	streak, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !streak.Settings.AllowSave {
		return ErrSaveNotAllowed
	}
	if _, ok := streak.Saves[userID.Hex()]; ok {
		return nil
	}

	now := time.Now()
	_, err = s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"saves." + userID.Hex(): StreakSave{Timestamp: now, Encrypted: encrypted},
		"updated_at":            now,
	}})
	return errors.Wrap(err, "record save")
}

// React records a user's reaction, replacing any previous reaction by the
// same user, exactly as message reactions behave.
func (s *StreaksStore) React(ctx context.Context, id, userID bson.ObjectID, reaction string) error {
	if err := emoji.ValidateReaction(reaction); err != nil {
		return err
	}

	now := time.Now()
	result, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"reactions." + userID.Hex(): Reaction{Emoji: reaction, Timestamp: now},
		"updated_at":                now,
	}})
	if err != nil {
		return errors.Wrap(err, "react to streak")
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSettings replaces the streak's settings object wholesale and
// stamps updatedAt. Creator-only authorization is the caller's
// responsibility. A non-empty password on a password-required streak is
// hashed before storage.
func (s *StreaksStore) UpdateSettings(ctx context.Context, id bson.ObjectID, settings StreakSettings) error {
	if settings.RequirePassword && settings.Password != "" {
		hashed, err := secret.Hash(settings.Password)
		if err != nil {
			return errors.Wrap(err, "hash streak password")
		}
		settings.Password = hashed
	}

	result, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"settings":   settings,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return errors.Wrap(err, "update streak settings")
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// VerifyPassword checks a plaintext password against the streak's stored
// hash. Streaks that do not require a password always verify.
func (s *StreaksStore) VerifyPassword(ctx context.Context, id bson.ObjectID, password string) (bool, error) {
	streak, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !streak.Settings.RequirePassword {
		return true, nil
	}
	return secret.Check(streak.Settings.Password, password) == nil, nil
}

// Delete soft-deletes a streak: the Inactive state is terminal but the
// record and its content remain for history views.
func (s *StreaksStore) Delete(ctx context.Context, id bson.ObjectID) error {
	result, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"is_active":  false,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return errors.Wrap(err, "delete streak")
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SweepExpired scans every streak past its expiry, regardless of the
// current flag, and deactivates the ones still marked active. It returns
// the number of streaks it flipped, so a second consecutive sweep reports
// zero. The sweep is idempotent and safe to run concurrently with itself;
// overlapping sweeps may double-report counts. When pace is non-nil, each
// deactivation waits on the limiter so a large backlog doesn't hammer the
// store.
func (s *StreaksStore) SweepExpired(ctx context.Context, pace *rate.Limiter) (int, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"expires_at": bson.M{"$lt": time.Now()}})
	if err != nil {
		return 0, errors.Wrap(err, "scan expired streaks")
	}
	defer cursor.Close(ctx)

	swept := 0
	for cursor.Next(ctx) {
		var streak Streak
		if err := cursor.Decode(&streak); err != nil {
			return swept, errors.Wrap(err, "decode streak")
		}
		if !streak.IsActive {
			// Already terminal; nothing to flip.
			continue
		}

		if pace != nil {
			if err := pace.Wait(ctx); err != nil {
				return swept, errors.Wrap(err, "sweep pacing")
			}
		}

		_, err := s.coll.UpdateByID(ctx, streak.ID, bson.M{"$set": bson.M{
			"is_active":  false,
			"updated_at": time.Now(),
		}})
		if err != nil {
			return swept, errors.Wrap(err, "deactivate streak")
		}
		swept++
	}
	if err := cursor.Err(); err != nil {
		return swept, errors.Wrap(err, "scan expired streaks")
	}
	return swept, nil
}
