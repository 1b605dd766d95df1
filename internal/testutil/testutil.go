package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/bookery/bookery/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 781031

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

var migrationFiles = []string{
	"001_create_users.sql",
	"002_create_books.sql",
	"003_create_pages.sql",
}

// ResetSchema drops all application tables and re-applies the migrations.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS pages, books, users CASCADE"); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}

	for _, name := range migrationFiles {
		path := filepath.Join(root, "migrations", name)
		sql, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a user with sensible defaults. ID is left zero so the
// store can assign it.
func NewTestUser(t testing.TB, email string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	return &model.User{
		Email:        email,
		PasswordHash: fmt.Sprintf("hash-%d", now.UnixNano()),
		Name:         "Test User",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestBook creates a book owned by the given author.
func NewTestBook(t testing.TB, authorID int64, title string) *model.Book {
	t.Helper()
	now := time.Now().UTC()
	return &model.Book{
		AuthorID:    authorID,
		Title:       title,
		Description: "about " + title,
		Price:       9.99,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewTestPage creates a page for the given book.
func NewTestPage(t testing.TB, bookID int64, number int) *model.Page {
	t.Helper()
	now := time.Now().UTC()
	return &model.Page{
		BookID:     bookID,
		PageNumber: number,
		Content:    fmt.Sprintf("content of page %d", number),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}
