package data

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vybechat/backend/internal/normalize"
)

// UsersStore performs user directory operations. It also holds the chats
// and messages collections because deleting a user cascades into both.
type UsersStore struct {
	users    *mongo.Collection
	chats    *mongo.Collection
	messages *mongo.Collection
}

// NewUsersStore returns a UsersStore over the provided collections.
func NewUsersStore(users, chats, messages *mongo.Collection) *UsersStore {
	return &UsersStore{users: users, chats: chats, messages: messages}
}

// CreateUserParams carries the fields accepted at sign-up. ProfilePicture
// and Bio are optional; empty strings are stored as absent.
type CreateUserParams struct {
	Email          string
	Username       string
	ProfilePicture string
	Bio            string
}

// Create inserts a new user with default settings. Returns
// ErrDuplicateKey when the email or username is already taken (unique
// index violation).
func (s *UsersStore) Create(ctx context.Context, p CreateUserParams) (*User, error) {
	now := time.Now()
	user := &User{
		// Store email and username in normalized (lowercase + trimmed)
		// form so point lookups and uniqueness are case-insensitive.
		Email:          normalize.Email(p.Email),
		Username:       normalize.Username(p.Username),
		ProfilePicture: p.ProfilePicture,
		Bio:            p.Bio,
		IsOnline:       false,
		CreatedAt:      now,
		UpdatedAt:      now,
		Settings:       DefaultUserSettings(),
	}

	result, err := s.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, errors.Wrap(err, "insert user")
	}

	user.ID = result.InsertedID.(bson.ObjectID)
	return user, nil
}

// GetByID finds a user by ObjectID.
func (s *UsersStore) GetByID(ctx context.Context, id bson.ObjectID) (*User, error) {
	var user User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get user")
	}
	return &user, nil
}

// GetByEmail finds a user by email, a point lookup via the unique index.
func (s *UsersStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.users.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get user by email")
	}
	return &user, nil
}

// List returns every user in the directory. No pagination.
func (s *UsersStore) List(ctx context.Context) ([]*User, error) {
	cursor, err := s.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	defer cursor.Close(ctx)

	var users []*User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	return users, nil
}

// SearchByUsername returns users whose username contains the query,
// case-insensitively. This is a full-collection scan with no pagination.
func (s *UsersStore) SearchByUsername(ctx context.Context, query string) ([]*User, error) {
	filter := bson.M{"username": bson.M{
		// QuoteMeta so the query is a plain substring, not a pattern
		"$regex":   regexp.QuoteMeta(query),
		"$options": "i",
	}}

	cursor, err := s.users.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "search users")
	}
	defer cursor.Close(ctx)

	var users []*User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	return users, nil
}

// UserUpdate lists the profile fields that may be patched. Nil fields are
// left untouched.
type UserUpdate struct {
	Username       *string
	ProfilePicture *string
	Bio            *string
	Settings       *UserSettings
}

// Update patches the provided fields and stamps updatedAt, returning the
// updated record.
func (s *UsersStore) Update(ctx context.Context, id bson.ObjectID, u UserUpdate) (*User, error) {
	set := bson.M{"updated_at": time.Now()}
	if u.Username != nil {
		set["username"] = normalize.Username(*u.Username)
	}
	if u.ProfilePicture != nil {
		set["profile_picture"] = *u.ProfilePicture
	}
	if u.Bio != nil {
		set["bio"] = *u.Bio
	}
	if u.Settings != nil {
		set["settings"] = *u.Settings
	}

	result, err := s.users.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, errors.Wrap(err, "update user")
	}
	if result.MatchedCount == 0 {
		return nil, ErrNotFound
	}

	return s.GetByID(ctx, id)
}

// SetOnlineStatus flips the online flag. lastSeen is stamped to now on
// both transitions, going online and going offline alike.
func (s *UsersStore) SetOnlineStatus(ctx context.Context, id bson.ObjectID, online bool) error {
	now := time.Now()
	result, err := s.users.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"is_online":  online,
		"last_seen":  now,
		"updated_at": now,
	}})
	if err != nil {
		return errors.Wrap(err, "set online status")
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user and cascades: first every message they sent, then
// every chat they participate in, then the user record itself. The three
// steps are independent store calls with no transaction; a crash
// mid-sequence leaves orphaned records behind.
func (s *UsersStore) Delete(ctx context.Context, id bson.ObjectID) error {
	if _, err := s.messages.DeleteMany(ctx, bson.M{"sender_id": id}); err != nil {
		return errors.Wrap(err, "delete user messages")
	}

	if _, err := s.chats.DeleteMany(ctx, bson.M{"participants": id}); err != nil {
		return errors.Wrap(err, "delete user chats")
	}

	result, err := s.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "delete user")
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
