package runtime

import (
	"context"
	"fmt"
	"net/http"

	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/architeacher/workpackages/pkg/metrics"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/config"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/infrastructure"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/ports"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/usecases"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/throttled/throttled/v2"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	infrastructureDep struct {
		httpServer     *http.Server
		dbPool         *pgxpool.Pool
		cacheClient    *infrastructure.KeydbClient
		logger         logger.Logger
		metricsClient  metrics.Client
		tracerProvider otelTrace.TracerProvider
	}

	repositories struct {
		secretsRepo        ports.SecretsRepository
		workPackages       ports.WorkPackageRepository
		access             ports.AccessRepository
		viewers            ports.ViewerRepository
		projectValuesCache usecases.ProjectValuesCache
		rateLimitStore     throttled.GCRAStoreCtx
	}

	servicesDep struct {
		executor       ports.QueryExecutor
		projectFilters ports.ProjectFilterService
		healthChecker  ports.HealthChecker
	}

	dependencies struct {
		config *config.ServiceConfig

		infra infrastructureDep

		repos repositories

		services servicesDep

		app *usecases.Application

		cleanupFuncs map[string]func(ctx context.Context) error
	}

	DependencyOption func(*dependencies) error
)

func initializeDependencies(ctx context.Context, opts ...DependencyOption) (*dependencies, error) {
	return applyOptions(append(defaultOptions(ctx), opts...)...)
}

func applyOptions(opts ...DependencyOption) (*dependencies, error) {
	deps := &dependencies{
		cleanupFuncs: make(map[string]func(ctx context.Context) error),
	}

	for _, opt := range opts {
		if err := opt(deps); err != nil {
			deps.releasePartial()

			return nil, fmt.Errorf("failed to apply dependency option: %w", err)
		}
	}

	return deps, nil
}

// releasePartial closes what was opened before a later option failed.
func (d *dependencies) releasePartial() {
	for _, cleanupFn := range d.cleanupFuncs {
		_ = cleanupFn(context.Background())
	}
}
