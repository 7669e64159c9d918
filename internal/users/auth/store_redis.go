// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/marketplace/internal/platform/constants"
)

// # Volatile Data Access

// OAuthStateRepository defines the contract for single-use OAuth state values.
type OAuthStateRepository interface {

	/*
		Save stores a state value for a limited duration.

		Parameters:
		  - context: context.Context
		  - state: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Save(context context.Context, state string, ttl time.Duration) error

	/*
		Consume deletes the state and reports whether it existed.

		Parameters:
		  - context: context.Context
		  - state: string

		Returns:
		  - bool: true exactly once per saved, unexpired state
		  - error: Retrieval failures
	*/
	Consume(context context.Context, state string) (bool, error)
}

// RedisOAuthStateRepository implements OAuthStateRepository using Redis.
type RedisOAuthStateRepository struct {
	client redis.Cmdable
}

// NewOAuthStateRepository creates a new Redis-backed OAuthStateRepository.
func NewOAuthStateRepository(client redis.Cmdable) *RedisOAuthStateRepository {
	return &RedisOAuthStateRepository{client: client}
}

/*
Save stores the state with its TTL.

Description: Uses SET NX so a colliding state is reported rather than
silently overwritten.

Parameters:
  - context: context.Context
  - state: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisOAuthStateRepository) Save(context context.Context, state string, ttl time.Duration) error {
	key := constants.RedisPrefixOAuthState + state

	stored, err := repository.client.SetNX(context, key, "1", ttl).Result()
	if err != nil {
		return fmt.Errorf("redis_oauth_state_save_failed: %w", err)
	}
	if !stored {
		return fmt.Errorf("redis_oauth_state_save_failed: state already exists")
	}

	return nil
}

/*
Consume atomically fetches and deletes the state.

Description: GETDEL guarantees that two callbacks racing with the same
state cannot both succeed.

Parameters:
  - context: context.Context
  - state: string

Returns:
  - bool: Whether the state was live
  - error: Connectivity errors
*/
func (repository *RedisOAuthStateRepository) Consume(context context.Context, state string) (bool, error) {
	key := constants.RedisPrefixOAuthState + state

	if err := repository.client.GetDel(context, key).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis_oauth_state_consume_failed: %w", err)
	}

	return true, nil
}
