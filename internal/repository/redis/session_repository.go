package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"freightchat/pkg/shipping"

	"github.com/redis/go-redis/v9"
)

// SessionRepository stores the cached identity under the fixed token and user
// keys. Both keys carry the same TTL so they expire together.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{client: client, ttl: ttl}
}

func (r *SessionRepository) Save(ctx context.Context, s shipping.StoredSession) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, shipping.StorageTokenKey, s.Token, r.ttl)
		pipe.Set(ctx, shipping.StorageUserKey, s.User, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Load(ctx context.Context) (*shipping.StoredSession, error) {
	vals, err := r.client.MGet(ctx, shipping.StorageTokenKey, shipping.StorageUserKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	token, ok := vals[0].(string)
	if !ok {
		return nil, nil
	}
	user, ok := vals[1].(string)
	if !ok {
		return nil, nil
	}
	return &shipping.StoredSession{Token: token, User: []byte(user)}, nil
}

func (r *SessionRepository) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, shipping.StorageTokenKey, shipping.StorageUserKey).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
