package data

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NotificationsStore stores notification records. Notifications are
// passive: other flows insert them, users read them and toggle the read
// flag. Nothing else happens here.
type NotificationsStore struct {
	coll *mongo.Collection
}

// NewNotificationsStore returns a NotificationsStore using the provided
// collection.
func NewNotificationsStore(coll *mongo.Collection) *NotificationsStore {
	return &NotificationsStore{coll: coll}
}

// CreateNotificationParams carries the fields of a new notification.
type CreateNotificationParams struct {
	UserID bson.ObjectID
	Type   string
	Title  string
	Body   string
	Data   bson.M
}

// Create inserts an unread notification for a user.
func (s *NotificationsStore) Create(ctx context.Context, p CreateNotificationParams) (*Notification, error) {
	n := &Notification{
		UserID:    p.UserID,
		Type:      p.Type,
		Title:     p.Title,
		Body:      p.Body,
		Data:      p.Data,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	result, err := s.coll.InsertOne(ctx, n)
	if err != nil {
		return nil, errors.Wrap(err, "insert notification")
	}

	n.ID = result.InsertedID.(bson.ObjectID)
	return n, nil
}

// GetForUser returns the user's notifications, newest first, optionally
// restricted to unread ones.
func (s *NotificationsStore) GetForUser(ctx context.Context, userID bson.ObjectID, unreadOnly bool) ([]*Notification, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["is_read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "get notifications")
	}
	defer cursor.Close(ctx)

	var notifications []*Notification
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, errors.Wrap(err, "decode notifications")
	}
	return notifications, nil
}

// SetRead sets the read flag to the given value.
func (s *NotificationsStore) SetRead(ctx context.Context, id bson.ObjectID, read bool) error {
	result, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"is_read": read}})
	if err != nil {
		return errors.Wrap(err, "set notification read")
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
