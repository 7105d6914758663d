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
	// ListWorkPackagesQuery runs Spec over Scope on behalf of Viewer.
	ListWorkPackagesQuery struct {
		Scope  model.Scope
		Spec   model.QuerySpec
		Viewer model.Viewer
	}

	ListWorkPackagesQueryHandler = decorator.QueryHandler[ListWorkPackagesQuery, *model.ResultSet]

	listWorkPackagesQueryHandler struct {
		executor ports.QueryExecutor
	}
)

func NewListWorkPackagesQueryHandler(
	executor ports.QueryExecutor,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) ListWorkPackagesQueryHandler {
	return decorator.ApplyQueryDecorators[ListWorkPackagesQuery, *model.ResultSet](
		listWorkPackagesQueryHandler{executor: executor},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h listWorkPackagesQueryHandler) Execute(ctx context.Context, query ListWorkPackagesQuery) (*model.ResultSet, error) {
	return h.executor.Execute(ctx, query.Scope, query.Spec, query.Viewer)
}
