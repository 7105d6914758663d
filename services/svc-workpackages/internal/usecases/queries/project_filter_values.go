package queries

import (
	"context"

	"github.com/architeacher/workpackages/pkg/decorator"
	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/architeacher/workpackages/pkg/metrics"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/ports"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	// ProjectFilterValuesQuery asks for the selectable values of the project
	// filter. Selected are filter values to resolve into projects.
	ProjectFilterValuesQuery struct {
		Viewer    model.Viewer
		Container *int64
		Selected  []string
	}

	ProjectFilterValuesResult struct {
		Available     bool                 `json:"available"`
		AllowedValues []model.AllowedValue `json:"allowed_values"`
		Selected      []model.Project      `json:"selected"`
	}

	ProjectFilterValuesQueryHandler = decorator.QueryHandler[ProjectFilterValuesQuery, *ProjectFilterValuesResult]

	projectFilterValuesQueryHandler struct {
		filters ports.ProjectFilterService
	}
)

// NewProjectFilterValuesQueryHandler serves values through cache when one is
// given and caching is enabled.
func NewProjectFilterValuesQueryHandler(
	filters ports.ProjectFilterService,
	cache decorator.Cache[ProjectFilterValuesQuery, *ProjectFilterValuesResult],
	cacheConfig decorator.CacheConfig,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) ProjectFilterValuesQueryHandler {
	return decorator.ApplyQueryDecorators[ProjectFilterValuesQuery, *ProjectFilterValuesResult](
		decorator.NewQueryCachingDecorator[ProjectFilterValuesQuery, *ProjectFilterValuesResult](
			projectFilterValuesQueryHandler{filters: filters},
			cache,
			cacheConfig,
		),
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h projectFilterValuesQueryHandler) Execute(ctx context.Context, query ProjectFilterValuesQuery) (*ProjectFilterValuesResult, error) {
	values, err := h.filters.AllowedValues(ctx, query.Viewer, query.Container)
	if err != nil {
		return nil, err
	}

	available, err := h.filters.Available(ctx, query.Viewer)
	if err != nil {
		return nil, err
	}

	result := &ProjectFilterValuesResult{
		Available:     available,
		AllowedValues: values,
		Selected:      make([]model.Project, 0),
	}

	if len(query.Selected) > 0 {
		result.Selected, err = h.filters.ValueObjects(ctx, query.Viewer, query.Selected)
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}
