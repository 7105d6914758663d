package repos_test

import (
	"testing"
	"time"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/adapters/repos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitStore(t *testing.T) {
	t.Parallel()

	client, mr := newKeyDBClient(t)
	store := repos.NewRateLimitStore(client)

	value, _, err := store.GetWithTime(t.Context(), "viewer:42")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), value)

	set, err := store.SetIfNotExistsWithTTL(t.Context(), "viewer:42", 10, time.Minute)
	require.NoError(t, err)
	assert.True(t, set)

	set, err = store.SetIfNotExistsWithTTL(t.Context(), "viewer:42", 20, time.Minute)
	require.NoError(t, err)
	assert.False(t, set)

	assert.True(t, mr.Exists("ratelimit:viewer:42"))

	swapped, err := store.CompareAndSwapWithTTL(t.Context(), "viewer:42", 99, 30, time.Minute)
	require.NoError(t, err)
	assert.False(t, swapped)

	swapped, err = store.CompareAndSwapWithTTL(t.Context(), "viewer:42", 10, 30, time.Minute)
	require.NoError(t, err)
	assert.True(t, swapped)

	value, _, err = store.GetWithTime(t.Context(), "viewer:42")
	require.NoError(t, err)
	assert.Equal(t, int64(30), value)
}
