package drafts

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	t.Parallel()

	server := miniredis.RunT(t)

	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: server.Addr()}), "test:")
	store.now = clock()

	exerciseStore(t, store)

	assert.True(t, server.Exists("test:drafts"))
	assert.True(t, server.Exists("test:draft:draft-2"))
	assert.False(t, server.Exists("test:draft:wf-1"))

	require.NoError(t, store.Close())
}

func TestOpenRedis(t *testing.T) {
	t.Parallel()

	server := miniredis.RunT(t)

	store, err := Open(context.Background(), nil, "redis://"+server.Addr())
	require.NoError(t, err)

	defer func() {
		_ = store.Close()
	}()

	_, err = store.Save(context.Background(), "wf-1", sampleWorkflow("First"))
	require.NoError(t, err)
	assert.True(t, server.Exists(DefaultRedisPrefix+"draft:wf-1"))
}

func TestRedisStore_ListSkipsDanglingIndexEntries(t *testing.T) {
	t.Parallel()

	server := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: server.Addr()}), "")

	_, err := store.Save(context.Background(), "wf-1", sampleWorkflow("First"))
	require.NoError(t, err)

	server.Del(DefaultRedisPrefix + "draft:wf-1")

	drafts, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drafts)
}
