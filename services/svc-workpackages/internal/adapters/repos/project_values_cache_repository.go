package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/architeacher/workpackages/pkg/decorator"
	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/infrastructure"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/usecases/queries"
	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

const projectValuesPrefix = "project_values:v1:"

var _ decorator.Cache[queries.ProjectFilterValuesQuery, *queries.ProjectFilterValuesResult] = (*ProjectValuesCacheRepository)(nil)

type (
	cachedAllowedValue struct {
		Label string `json:"label"`
		ID    int64  `json:"id"`
	}

	cachedProject struct {
		ID         int64  `json:"id"`
		Name       string `json:"name"`
		Identifier string `json:"identifier"`
		ParentID   *int64 `json:"parent_id,omitempty"`
		Active     bool   `json:"active"`
		Public     bool   `json:"public"`
	}

	cachedProjectValues struct {
		Available     bool                 `json:"available"`
		AllowedValues []cachedAllowedValue `json:"allowed_values"`
		Selected      []cachedProject      `json:"selected"`
		CachedAt      time.Time            `json:"cached_at"`
	}

	// ProjectValuesCacheRepository caches project filter values per viewer in
	// KeyDB.
	ProjectValuesCacheRepository struct {
		client *infrastructure.KeydbClient
		logger logger.Logger
	}
)

func NewProjectValuesCacheRepository(client *infrastructure.KeydbClient, log logger.Logger) *ProjectValuesCacheRepository {
	return &ProjectValuesCacheRepository{client: client, logger: log}
}

func (r *ProjectValuesCacheRepository) Get(ctx context.Context, query queries.ProjectFilterValuesQuery) (*queries.ProjectFilterValuesResult, bool, error) {
	key := r.key(query)

	data, err := r.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("getting cached project values: %w", err)
	}

	var cached cachedProjectValues
	if err := json.Unmarshal(data, &cached); err != nil {
		// An unreadable entry would fail every lookup until it expires.
		if dropErr := r.drop(ctx, key); dropErr != nil {
			r.logger.Warn().Err(dropErr).Str("key", key).Msg("dropping unreadable project values")
		}

		return nil, false, fmt.Errorf("unmarshalling cached project values: %w", err)
	}

	result := &queries.ProjectFilterValuesResult{
		Available:     cached.Available,
		AllowedValues: make([]model.AllowedValue, 0, len(cached.AllowedValues)),
		Selected:      make([]model.Project, 0, len(cached.Selected)),
	}

	for _, v := range cached.AllowedValues {
		result.AllowedValues = append(result.AllowedValues, model.AllowedValue(v))
	}

	for _, p := range cached.Selected {
		result.Selected = append(result.Selected, model.Project(p))
	}

	return result, true, nil
}

func (r *ProjectValuesCacheRepository) Set(ctx context.Context, query queries.ProjectFilterValuesQuery, result *queries.ProjectFilterValuesResult, ttl time.Duration) error {
	if result == nil {
		return nil
	}

	cached := cachedProjectValues{
		Available:     result.Available,
		AllowedValues: make([]cachedAllowedValue, 0, len(result.AllowedValues)),
		Selected:      make([]cachedProject, 0, len(result.Selected)),
		CachedAt:      time.Now().UTC(),
	}

	for _, v := range result.AllowedValues {
		cached.AllowedValues = append(cached.AllowedValues, cachedAllowedValue(v))
	}

	for _, p := range result.Selected {
		cached.Selected = append(cached.Selected, cachedProject(p))
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshalling project values: %w", err)
	}

	if err := r.client.Set(ctx, r.key(query), data, ttl); err != nil {
		return fmt.Errorf("setting cached project values: %w", err)
	}

	return nil
}

func (r *ProjectValuesCacheRepository) drop(ctx context.Context, key string) error {
	if err := r.client.Delete(ctx, key); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("invalidating cached project values: %w", err)
	}

	return nil
}

func (r *ProjectValuesCacheRepository) key(query queries.ProjectFilterValuesQuery) string {
	container := "-"
	if query.Container != nil {
		container = strconv.FormatInt(*query.Container, 10)
	}

	selected := slices.Clone(query.Selected)
	slices.Sort(selected)

	raw := fmt.Sprintf(
		"viewer=%d&admin=%t&container=%s&selected=%s",
		query.Viewer.ID,
		query.Viewer.Admin,
		container,
		strings.Join(selected, ","),
	)

	return projectValuesPrefix + strconv.FormatUint(xxhash.Sum64String(raw), 16)
}
