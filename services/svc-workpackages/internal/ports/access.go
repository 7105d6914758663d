package ports

import (
	"context"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
)

type (
	// AccessRepository exposes the raw facts visibility is derived from.
	AccessRepository interface {
		// ActiveProjects returns every project that is not archived.
		ActiveProjects(ctx context.Context) ([]model.Project, error)
		// Memberships returns the viewer's memberships in active projects.
		Memberships(ctx context.Context, viewerID int64) ([]model.Membership, error)
	}

	// ViewerRepository resolves credentials to viewers.
	ViewerRepository interface {
		// FindViewerByToken returns model.ErrUnauthenticated for unknown or
		// locked users.
		FindViewerByToken(ctx context.Context, token string) (model.Viewer, error)
		FindViewerByID(ctx context.Context, id int64) (model.Viewer, error)
	}

	// VisibilityPolicy decides which projects and work packages a viewer may see.
	VisibilityPolicy interface {
		// Scope narrows base to the projects whose work packages the viewer
		// may see. For a container scope it fails with model.ErrNotFound when
		// the container is invisible and model.ErrForbidden when it is
		// visible but its work packages are not.
		Scope(ctx context.Context, viewer model.Viewer, base model.Scope) (model.Scope, error)
		// VisibleProjects returns the active projects the viewer can see.
		VisibleProjects(ctx context.Context, viewer model.Viewer) ([]model.Project, error)
	}

	// ProjectFilterService serves the selectable values of the project filter.
	ProjectFilterService interface {
		Available(ctx context.Context, viewer model.Viewer) (bool, error)
		AllowedValues(ctx context.Context, viewer model.Viewer, container *int64) ([]model.AllowedValue, error)
		ValueObjects(ctx context.Context, viewer model.Viewer, values []string) ([]model.Project, error)
	}
)
