package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"freightchat/pkg/shipping"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient connects to REDIS_TEST_URL and skips when no server is reachable.
func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	t.Cleanup(func() {
		client.Del(context.Background(), shipping.StorageTokenKey, shipping.StorageUserKey)
		client.Close()
	})
	return client
}

func TestSessionRepositoryRoundTrip(t *testing.T) {
	client := newTestClient(t)
	repo := NewSessionRepository(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Clear(ctx))
	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.Save(ctx, shipping.StoredSession{Token: "tok", User: []byte(`{"userId":"alice"}`)}))

	got, err = repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tok", got.Token)
	assert.JSONEq(t, `{"userId":"alice"}`, string(got.User))

	ttl, err := client.TTL(ctx, shipping.StorageTokenKey).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute)

	require.NoError(t, repo.Clear(ctx))
	got, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionRepositoryPartialEntry(t *testing.T) {
	client := newTestClient(t)
	repo := NewSessionRepository(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, shipping.StorageTokenKey, "tok", time.Minute).Err())
	require.NoError(t, client.Del(ctx, shipping.StorageUserKey).Err())

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}
