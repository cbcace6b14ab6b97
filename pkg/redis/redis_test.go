package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client), mr
}

func TestStore_Blacklist(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	revoked, err := store.IsTokenBlacklisted(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.BlacklistToken(ctx, "tok", time.Minute))
	revoked, err = store.IsTokenBlacklisted(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsTokenBlacklisted(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestStore_BlacklistSkipsExpiredTokens(t *testing.T) {
	store, mr := setupStore(t)

	require.NoError(t, store.BlacklistToken(context.Background(), "tok", 0))
	assert.Empty(t, mr.Keys())
}

func TestStore_JSONRoundTrip(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	type entry struct {
		Name string `json:"name"`
	}

	var got []entry
	hit, err := store.GetJSON(ctx, "categories:all", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, store.SetJSON(ctx, "categories:all", []entry{{Name: "Bakery"}}, time.Minute))
	hit, err = store.GetJSON(ctx, "categories:all", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []entry{{Name: "Bakery"}}, got)

	require.NoError(t, store.Delete(ctx, "categories:all"))
	hit, err = store.GetJSON(ctx, "categories:all", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}
