package memory

import (
	"context"
	"time"

	"freightchat/pkg/shipping"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps the cached identity in process memory. It is the
// fallback when Redis is not reachable, so a restart loses the session.
type SessionRepository struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

func (r *SessionRepository) Save(ctx context.Context, s shipping.StoredSession) error {
	r.cache.Set(shipping.StorageTokenKey, s.Token, r.ttl)
	r.cache.Set(shipping.StorageUserKey, append([]byte(nil), s.User...), r.ttl)
	return nil
}

func (r *SessionRepository) Load(ctx context.Context) (*shipping.StoredSession, error) {
	token, found := r.cache.Get(shipping.StorageTokenKey)
	if !found {
		return nil, nil
	}
	user, found := r.cache.Get(shipping.StorageUserKey)
	if !found {
		return nil, nil
	}
	return &shipping.StoredSession{Token: token.(string), User: user.([]byte)}, nil
}

func (r *SessionRepository) Clear(ctx context.Context) error {
	r.cache.Delete(shipping.StorageTokenKey)
	r.cache.Delete(shipping.StorageUserKey)
	return nil
}
