package usecases

import (
	"github.com/architeacher/workpackages/pkg/decorator"
	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/architeacher/workpackages/pkg/metrics"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/ports"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/usecases/queries"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	Queries struct {
		ListWorkPackages    queries.ListWorkPackagesQueryHandler
		ProjectFilterValues queries.ProjectFilterValuesQueryHandler
		FetchLiveness       queries.FetchLivenessQueryHandler
		FetchReadiness      queries.FetchReadinessQueryHandler
		FetchHealthReport   queries.FetchHealthReportQueryHandler
	}

	Application struct {
		Queries Queries
	}

	// ProjectValuesCache stores project filter values per viewer.
	ProjectValuesCache = decorator.Cache[queries.ProjectFilterValuesQuery, *queries.ProjectFilterValuesResult]
)

func NewApplication(
	executor ports.QueryExecutor,
	projectFilters ports.ProjectFilterService,
	projectValuesCache ProjectValuesCache,
	projectValuesCacheConfig decorator.CacheConfig,
	healthChecker ports.HealthChecker,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) *Application {
	return &Application{
		Queries: Queries{
			ListWorkPackages: queries.NewListWorkPackagesQueryHandler(executor, log, metricsClient, tracerProvider),
			ProjectFilterValues: queries.NewProjectFilterValuesQueryHandler(
				projectFilters, projectValuesCache, projectValuesCacheConfig, log, metricsClient, tracerProvider,
			),
			FetchLiveness:     queries.NewFetchLivenessQueryHandler(healthChecker, log, metricsClient, tracerProvider),
			FetchReadiness:    queries.NewFetchReadinessQueryHandler(healthChecker, log, metricsClient, tracerProvider),
			FetchHealthReport: queries.NewFetchHealthReportQueryHandler(healthChecker, log, metricsClient, tracerProvider),
		},
	}
}
