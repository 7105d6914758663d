package ports

import (
	"context"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
)

type (
	HealthChecker interface {
		Liveness(ctx context.Context) (*model.LivenessReport, error)
		Readiness(ctx context.Context) (*model.ReadinessReport, error)
		Health(ctx context.Context) (*model.HealthReport, error)
	}

	// DependencyPinger is a backing service checked for readiness.
	DependencyPinger interface {
		Ping(ctx context.Context) error
	}
)
