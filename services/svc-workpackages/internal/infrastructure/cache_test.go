package infrastructure_test

import (
	"testing"
	"time"

	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/infrastructure"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*infrastructure.KeydbClient, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := infrastructure.NewKeyDBClientFrom(redis.NewClient(&redis.Options{Addr: mr.Addr()}), logger.NewTestLogger())
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestKeydbClient_GetSet(t *testing.T) {
	t.Parallel()

	client, _ := newClient(t)

	require.NoError(t, client.Ping(t.Context()))

	_, err := client.Get(t.Context(), "missing")
	require.ErrorIs(t, err, redis.Nil)

	require.NoError(t, client.Set(t.Context(), "key", []byte("value"), time.Minute))

	value, err := client.Get(t.Context(), "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)
	assert.Equal(t, time.Minute, client.TTL(t.Context(), "key"))

	require.NoError(t, client.Delete(t.Context(), "key"))

	_, err = client.Get(t.Context(), "key")
	require.ErrorIs(t, err, redis.Nil)
}

func TestKeydbClient_CompareAndSwapInt64(t *testing.T) {
	t.Parallel()

	client, mr := newClient(t)

	swapped, err := client.CompareAndSwapInt64(t.Context(), "counter", 1, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, swapped)

	require.NoError(t, mr.Set("counter", "1"))

	swapped, err = client.CompareAndSwapInt64(t.Context(), "counter", 1, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, swapped)

	value, _, err := client.GetInt64(t.Context(), "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), value)
	assert.Equal(t, time.Minute, mr.TTL("counter"))
}
