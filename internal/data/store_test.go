package data

import (
	"context"
	"os"
	"testing"

	"github.com/vybechat/backend/internal/db"
)

// The store tests are integration tests and require a running MongoDB
// instance. Set MONGODB_URI in the environment before running them; they
// skip otherwise.

func setupDB(t *testing.T) *db.Client {
	t.Helper()

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}

	ctx := context.Background()
	c, err := db.New(ctx, uri, "vybechat_test")
	if err != nil {
		t.Fatalf("db.New failed: %v", err)
	}

	// ensure clean collections in case previous runs left data
	_ = c.Users().Drop(ctx)
	_ = c.Chats().Drop(ctx)
	_ = c.Messages().Drop(ctx)
	_ = c.Streaks().Drop(ctx)
	_ = c.Notifications().Drop(ctx)

	if err := c.CreateIndexes(ctx); err != nil {
		t.Fatalf("CreateIndexes failed: %v", err)
	}

	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}
