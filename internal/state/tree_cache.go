package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"storefront/catnav/internal/domain"

	"github.com/redis/go-redis/v9"
)

// TreeCache keeps fetched category trees so hovers and new sessions never
// wait on the catalog service.
type TreeCache interface {
	// GetTree returns nil, nil on a miss.
	GetTree(ctx context.Context, rootID domain.CategoryID) (*domain.Category, error)
	SetTree(ctx context.Context, rootID domain.CategoryID, tree *domain.Category, ttl time.Duration) error
}

type redisTreeCache struct {
	redisClient *redis.Client
	keyPrefix   string
}

func NewRedisTreeCache(redisClient *redis.Client) TreeCache {
	return &redisTreeCache{
		redisClient: redisClient,
		keyPrefix:   "catnav:tree:",
	}
}

func (c *redisTreeCache) key(rootID domain.CategoryID) string {
	return c.keyPrefix + strconv.FormatInt(int64(rootID), 10)
}

func (c *redisTreeCache) GetTree(ctx context.Context, rootID domain.CategoryID) (*domain.Category, error) {
	val, err := c.redisClient.Get(ctx, c.key(rootID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Not cached yet
		}
		return nil, fmt.Errorf("failed to get cached tree %d: %w", rootID, err)
	}

	var tree domain.Category
	if err := json.Unmarshal(val, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode cached tree %d: %w", rootID, err)
	}

	return &tree, nil
}

func (c *redisTreeCache) SetTree(ctx context.Context, rootID domain.CategoryID, tree *domain.Category, ttl time.Duration) error {
	val, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to encode tree %d: %w", rootID, err)
	}

	if err := c.redisClient.Set(ctx, c.key(rootID), val, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache tree %d: %w", rootID, err)
	}
	return nil
}
