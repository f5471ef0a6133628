package db

import (
	"context"
	"os"
	"testing"
)

// These tests are integration tests and require a running MongoDB
// instance. Set MONGODB_URI in the environment before running them.

func TestNewAndCreateIndexes(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}

	ctx := context.Background()
	c, err := New(ctx, uri, "vybechat_test")
	if err != nil {
		t.Fatalf("failed to connect to DB: %v", err)
	}
	defer func() {
		// drop the testing collections and close connection
		_ = c.Users().Drop(context.Background())
		_ = c.Chats().Drop(context.Background())
		_ = c.Messages().Drop(context.Background())
		_ = c.Streaks().Drop(context.Background())
		_ = c.Notifications().Drop(context.Background())
		_ = c.Close(context.Background())
	}()

	// should be able to create indexes without error, repeatedly
	if err := c.CreateIndexes(ctx); err != nil {
		t.Fatalf("CreateIndexes failed: %v", err)
	}
	if err := c.CreateIndexes(ctx); err != nil {
		t.Fatalf("CreateIndexes second run failed: %v", err)
	}
}
