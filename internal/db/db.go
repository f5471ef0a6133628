// Package db manages MongoDB connections and collections.
package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// DefaultDatabase is used when no database name is configured.
const DefaultDatabase = "vybechat"

// Client wraps mongo.Client and exposes the application's collections.
type Client struct {
	// client is the underlying MongoDB connection (thread-safe, can be reused)
	client *mongo.Client

	// db holds the users/chats/messages/streaks/notifications collections
	db *mongo.Database
}

// New connects to MongoDB and returns a Client. An empty dbName selects
// DefaultDatabase.
func New(ctx context.Context, mongoURI, dbName string) (*Client, error) {
	// SetConnectTimeout: fail fast if MongoDB is unreachable
	opts := options.Client().
		ApplyURI(mongoURI).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to MongoDB")
	}

	// Ping MongoDB to verify the connection actually works
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, errors.Wrap(err, "failed to ping MongoDB")
	}

	if dbName == "" {
		dbName = DefaultDatabase
	}

	return &Client{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// Users returns the users collection.
func (c *Client) Users() *mongo.Collection {
	return c.db.Collection("users")
}

// Chats returns the chats collection.
func (c *Client) Chats() *mongo.Collection {
	return c.db.Collection("chats")
}

// Messages returns the messages collection.
func (c *Client) Messages() *mongo.Collection {
	return c.db.Collection("messages")
}

// Streaks returns the streaks collection.
func (c *Client) Streaks() *mongo.Collection {
	return c.db.Collection("streaks")
}

// Notifications returns the notifications collection.
func (c *Client) Notifications() *mongo.Collection {
	return c.db.Collection("notifications")
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// CreateIndexes creates the secondary indexes the stores rely on.
// Safe to call repeatedly; MongoDB treats re-creation as a no-op.
func (c *Client) CreateIndexes(ctx context.Context) error {
	// Users: email and username each carry a unique constraint. Duplicate
	// registration surfaces as a duplicate-key error on insert.
	usersIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := c.Users().Indexes().CreateMany(ctx, usersIndexes); err != nil {
		return errors.Wrap(err, "failed to create users indexes")
	}

	// Chats: participant membership scans and type filters.
	chatsIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "participants", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
	}
	if _, err := c.Chats().Indexes().CreateMany(ctx, chatsIndexes); err != nil {
		return errors.Wrap(err, "failed to create chats indexes")
	}

	// Messages: per-chat history (newest first), sender cascade lookups,
	// and a plain timestamp index.
	messagesIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "sender_id", Value: 1}}},
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
	}
	if _, err := c.Messages().Indexes().CreateMany(ctx, messagesIndexes); err != nil {
		return errors.Wrap(err, "failed to create messages indexes")
	}

	// Streaks: per-chat scans (newest first), creator lookups, and the
	// expiry range scan used by the sweep.
	streaksIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "creator_id", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
	}
	if _, err := c.Streaks().Indexes().CreateMany(ctx, streaksIndexes); err != nil {
		return errors.Wrap(err, "failed to create streaks indexes")
	}

	// Notifications: per-user listing and unread filtering.
	notificationsIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "is_read", Value: 1}}},
	}
	if _, err := c.Notifications().Indexes().CreateMany(ctx, notificationsIndexes); err != nil {
		return errors.Wrap(err, "failed to create notifications indexes")
	}

	return nil
}
