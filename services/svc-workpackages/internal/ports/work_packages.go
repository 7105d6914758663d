package ports

import (
	"context"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
)

type (
	// WorkPackageFinder reads work packages matching criteria.
	WorkPackageFinder interface {
		// Find returns the requested page and the size of the whole filtered
		// set. Unpaged criteria return every match.
		Find(ctx context.Context, criteria model.Criteria) (*model.WorkPackagePage, error)
	}

	WorkPackageRepository interface {
		WorkPackageFinder
		Ping(ctx context.Context) error
	}

	// QueryExecutor runs validated queries within a viewer's visibility.
	QueryExecutor interface {
		Execute(ctx context.Context, base model.Scope, spec model.QuerySpec, viewer model.Viewer) (*model.ResultSet, error)
	}
)
