package oauth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestStateStore_RoundTrip(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	store := NewStateStore(rdb)
	ctx := context.Background()

	state, err := store.GenerateState(ctx, "/groups/3")
	require.NoError(t, err)
	assert.Len(t, state, 64)
	assert.True(t, mr.Exists(stateKeyPrefix+state))

	returnTo, err := store.ValidateState(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, "/groups/3", returnTo)

	// state 只能使用一次
	_, err = store.ValidateState(ctx, state)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestStateStore_Expired(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	store := NewStateStore(rdb)
	ctx := context.Background()

	state, err := store.GenerateState(ctx, "/")
	require.NoError(t, err)

	mr.FastForward(stateTTL + time.Second)
	_, err = store.ValidateState(ctx, state)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestStateStore_EmptyAndUnknown(t *testing.T) {
	rdb, _ := setupTestRedis(t)
	store := NewStateStore(rdb)

	_, err := store.ValidateState(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = store.ValidateState(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSafeReturnPath(t *testing.T) {
	tests := map[string]string{
		"":                         "/dashboard",
		"/jp":                      "/jp",
		"https://evil.example.com": "/dashboard",
		"//evil.example.com":       "/dashboard",
		"/\\evil":                  "/dashboard",
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeReturnPath(in), in)
	}
}
