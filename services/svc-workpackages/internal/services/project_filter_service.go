package services

import (
	"context"
	"fmt"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/ports"
)

var _ ports.ProjectFilterService = (*ProjectFilterService)(nil)

// ProjectFilterService serves the project filter from the projects visible to
// a viewer, arranged as a tree.
type ProjectFilterService struct {
	policy ports.VisibilityPolicy
}

func NewProjectFilterService(policy ports.VisibilityPolicy) *ProjectFilterService {
	return &ProjectFilterService{policy: policy}
}

// Available reports whether the viewer can see any active project, inside a
// project as well as outside.
func (s *ProjectFilterService) Available(ctx context.Context, viewer model.Viewer) (bool, error) {
	tree, err := s.tree(ctx, viewer)
	if err != nil {
		return false, err
	}

	return !tree.IsEmpty(), nil
}

// AllowedValues lists every visible project. A container, when given, has to
// be visible itself but does not restrict the values.
func (s *ProjectFilterService) AllowedValues(ctx context.Context, viewer model.Viewer, container *int64) ([]model.AllowedValue, error) {
	projects, err := s.policy.VisibleProjects(ctx, viewer)
	if err != nil {
		return nil, err
	}

	if container != nil && !containsProject(projects, *container) {
		return nil, fmt.Errorf("project %d: %w", *container, model.ErrNotFound)
	}

	return model.ProjectAllowedValues(model.NewProjectTree(projects)), nil
}

func (s *ProjectFilterService) ValueObjects(ctx context.Context, viewer model.Viewer, values []string) ([]model.Project, error) {
	tree, err := s.tree(ctx, viewer)
	if err != nil {
		return nil, err
	}

	return model.ProjectValueObjects(tree, values), nil
}

func (s *ProjectFilterService) tree(ctx context.Context, viewer model.Viewer) (model.ProjectTree, error) {
	projects, err := s.policy.VisibleProjects(ctx, viewer)
	if err != nil {
		return model.ProjectTree{}, err
	}

	return model.NewProjectTree(projects), nil
}

func containsProject(projects []model.Project, id int64) bool {
	for _, p := range projects {
		if p.ID == id {
			return true
		}
	}

	return false
}
