package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/bookery/bookery/internal/model"
)

const (
	// identityCachePrefix is the Redis key prefix for resolved identities.
	identityCachePrefix = "identity:"
	// identityCacheTTL bounds how long a deleted or changed user can keep
	// authenticating from cache.
	identityCacheTTL = 5 * time.Minute
)

// cachedIdentity is the identity record stored in Redis. The password hash
// is deliberately not cached.
type cachedIdentity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func identityKey(userID int64) string {
	return identityCachePrefix + strconv.FormatInt(userID, 10)
}

// GetIdentity retrieves a cached identity by user ID.
// Returns nil on a cache miss; misses and corrupted entries are not errors.
func (c *Cache) GetIdentity(ctx context.Context, userID int64) (*model.User, error) {
	data, err := c.client.Get(ctx, identityKey(userID)).Bytes()
	if err != nil {
		return nil, nil //nolint:nilerr
	}

	var cached cachedIdentity
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, nil //nolint:nilerr
	}

	return &model.User{
		ID:    cached.ID,
		Email: cached.Email,
		Name:  cached.Name,
	}, nil
}

// SetIdentity caches a resolved identity.
func (c *Cache) SetIdentity(ctx context.Context, user *model.User) error {
	cached := cachedIdentity{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	return c.client.Set(ctx, identityKey(user.ID), data, identityCacheTTL).Err()
}

// DeleteIdentity removes a cached identity. Called when an account changes.
func (c *Cache) DeleteIdentity(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, identityKey(userID)).Err()
}
