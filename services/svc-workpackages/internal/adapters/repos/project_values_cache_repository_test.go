package repos_test

import (
	"testing"
	"time"

	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/adapters/repos"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/infrastructure"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/usecases/queries"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeyDBClient(t *testing.T) (*infrastructure.KeydbClient, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return infrastructure.NewKeyDBClientFrom(client, logger.NewTestLogger()), mr
}

func TestProjectValuesCacheRepository_RoundTrip(t *testing.T) {
	t.Parallel()

	client, mr := newKeyDBClient(t)
	repo := repos.NewProjectValuesCacheRepository(client, logger.NewTestLogger())

	container := int64(1)
	query := queries.ProjectFilterValuesQuery{
		Viewer:    model.Viewer{ID: 42},
		Container: &container,
		Selected:  []string{"2", "1"},
	}

	_, found, err := repo.Get(t.Context(), query)
	require.NoError(t, err)
	assert.False(t, found)

	result := &queries.ProjectFilterValuesResult{
		Available: true,
		AllowedValues: []model.AllowedValue{
			{Label: "Seed", ID: 1},
			{Label: "-- Child", ID: 2},
		},
		Selected: []model.Project{
			{ID: 2, Name: "Child", Identifier: "child", ParentID: &container, Active: true},
		},
	}

	require.NoError(t, repo.Set(t.Context(), query, result, time.Minute))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "project_values:v1:")
	assert.Equal(t, time.Minute, mr.TTL(keys[0]))

	reordered := query
	reordered.Selected = []string{"1", "2"}

	cached, found, err := repo.Get(t.Context(), reordered)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, result, cached)

}

func TestProjectValuesCacheRepository_DropsUnreadableEntries(t *testing.T) {
	t.Parallel()

	client, mr := newKeyDBClient(t)
	repo := repos.NewProjectValuesCacheRepository(client, logger.NewTestLogger())

	query := queries.ProjectFilterValuesQuery{Viewer: model.Viewer{ID: 42}}
	require.NoError(t, repo.Set(t.Context(), query, &queries.ProjectFilterValuesResult{Available: true}, time.Minute))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	require.NoError(t, mr.Set(keys[0], "{not json"))

	_, found, err := repo.Get(t.Context(), query)
	require.Error(t, err)
	assert.False(t, found)
	assert.False(t, mr.Exists(keys[0]))

	_, found, err = repo.Get(t.Context(), query)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestProjectValuesCacheRepository_KeysAreViewerScoped(t *testing.T) {
	t.Parallel()

	client, mr := newKeyDBClient(t)
	repo := repos.NewProjectValuesCacheRepository(client, logger.NewTestLogger())

	result := &queries.ProjectFilterValuesResult{AllowedValues: []model.AllowedValue{}, Selected: []model.Project{}}

	require.NoError(t, repo.Set(t.Context(), queries.ProjectFilterValuesQuery{Viewer: model.Viewer{ID: 1}}, result, time.Minute))
	require.NoError(t, repo.Set(t.Context(), queries.ProjectFilterValuesQuery{Viewer: model.Viewer{ID: 2}}, result, time.Minute))
	require.NoError(t, repo.Set(t.Context(), queries.ProjectFilterValuesQuery{Viewer: model.Viewer{ID: 1, Admin: true}}, result, time.Minute))

	assert.Len(t, mr.Keys(), 3)

	_, found, err := repo.Get(t.Context(), queries.ProjectFilterValuesQuery{Viewer: model.Viewer{ID: 3}})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestProjectValuesCacheRepository_CorruptEntry(t *testing.T) {
	t.Parallel()

	client, mr := newKeyDBClient(t)
	repo := repos.NewProjectValuesCacheRepository(client, logger.NewTestLogger())

	query := queries.ProjectFilterValuesQuery{Viewer: model.Viewer{ID: 1}}
	require.NoError(t, repo.Set(t.Context(), query, &queries.ProjectFilterValuesResult{}, time.Minute))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	require.NoError(t, mr.Set(keys[0], "{not json"))

	_, found, err := repo.Get(t.Context(), query)
	require.Error(t, err)
	assert.False(t, found)
}
