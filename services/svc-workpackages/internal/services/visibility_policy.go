package services

import (
	"context"
	"fmt"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/config"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/ports"
)

var _ ports.VisibilityPolicy = (*MembershipVisibilityPolicy)(nil)

// MembershipVisibilityPolicy derives visibility from project memberships.
// Admins hold every permission in active projects. Members hold the
// permissions of their roles. Public projects grant the configured
// non-member, or anonymous, permissions to everyone else. Being a member
// always grants view_project.
type MembershipVisibilityPolicy struct {
	access             ports.AccessRepository
	nonMember          model.PermissionSet
	anonymous          model.PermissionSet
	includeSubprojects bool
}

func NewMembershipVisibilityPolicy(
	access ports.AccessRepository,
	permissions config.Permissions,
	includeSubprojects bool,
) *MembershipVisibilityPolicy {
	return &MembershipVisibilityPolicy{
		access:             access,
		nonMember:          toPermissionSet(permissions.NonMember),
		anonymous:          toPermissionSet(permissions.Anonymous),
		includeSubprojects: includeSubprojects,
	}
}

func (p *MembershipVisibilityPolicy) Scope(ctx context.Context, viewer model.Viewer, base model.Scope) (model.Scope, error) {
	accessible, projects, err := p.accessible(ctx, viewer)
	if err != nil {
		return model.Scope{}, err
	}

	containerID, bound := base.Container()
	if !bound {
		ids := make([]int64, 0, len(accessible))

		for _, project := range projects {
			if a, ok := accessible[project.ID]; ok && a.Permissions.Has(model.PermissionViewWorkPackages) {
				ids = append(ids, project.ID)
			}
		}

		return base.Narrow(ids), nil
	}

	container, ok := accessible[containerID]
	if !ok || !container.Permissions.Has(model.PermissionViewProject) {
		return model.Scope{}, fmt.Errorf("project %d: %w", containerID, model.ErrNotFound)
	}

	if !container.Permissions.Has(model.PermissionViewWorkPackages) {
		return model.Scope{}, fmt.Errorf("work packages of project %d: %w", containerID, model.ErrForbidden)
	}

	ids := []int64{containerID}

	if p.includeSubprojects {
		for _, id := range model.NewProjectTree(projects).Descendants(containerID) {
			if id == containerID {
				continue
			}

			if a, ok := accessible[id]; ok && a.Permissions.Has(model.PermissionViewWorkPackages) {
				ids = append(ids, id)
			}
		}
	}

	return base.Narrow(ids), nil
}

func (p *MembershipVisibilityPolicy) VisibleProjects(ctx context.Context, viewer model.Viewer) ([]model.Project, error) {
	accessible, projects, err := p.accessible(ctx, viewer)
	if err != nil {
		return nil, err
	}

	visible := make([]model.Project, 0, len(accessible))

	for _, project := range projects {
		if a, ok := accessible[project.ID]; ok && a.Permissions.Has(model.PermissionViewProject) {
			visible = append(visible, project)
		}
	}

	return visible, nil
}

// accessible returns the viewer's permissions per active project together
// with every active project, in repository order.
func (p *MembershipVisibilityPolicy) accessible(ctx context.Context, viewer model.Viewer) (map[int64]model.ProjectAccess, []model.Project, error) {
	all, err := p.access.ActiveProjects(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading active projects: %w", err)
	}

	projects := make([]model.Project, 0, len(all))
	for _, project := range all {
		if project.Active {
			projects = append(projects, project)
		}
	}

	memberships := make(map[int64]model.PermissionSet)

	if !viewer.IsAnonymous() && !viewer.Admin {
		list, err := p.access.Memberships(ctx, viewer.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("loading memberships of user %d: %w", viewer.ID, err)
		}

		// Membership alone makes the project visible; roles add the rest.
		for _, m := range list {
			set, ok := memberships[m.ProjectID]
			if !ok {
				set = model.NewPermissionSet(model.PermissionViewProject)
				memberships[m.ProjectID] = set
			}

			for _, permission := range m.Permissions {
				set[permission] = struct{}{}
			}
		}
	}

	fallback := p.nonMember
	if viewer.IsAnonymous() {
		fallback = p.anonymous
	}

	accessible := make(map[int64]model.ProjectAccess, len(projects))

	for _, project := range projects {
		var permissions model.PermissionSet

		switch member, isMember := memberships[project.ID]; {
		case viewer.Admin:
			permissions = allPermissions
		case isMember:
			permissions = member
		case project.Public:
			permissions = fallback
		default:
			continue
		}

		if len(permissions) == 0 {
			continue
		}

		accessible[project.ID] = model.ProjectAccess{Project: project, Permissions: permissions}
	}

	return accessible, projects, nil
}

var allPermissions = model.NewPermissionSet(model.PermissionViewProject, model.PermissionViewWorkPackages)

func toPermissionSet(names []string) model.PermissionSet {
	permissions := make([]model.Permission, 0, len(names))
	for _, name := range names {
		permissions = append(permissions, model.Permission(name))
	}

	return model.NewPermissionSet(permissions...)
}
