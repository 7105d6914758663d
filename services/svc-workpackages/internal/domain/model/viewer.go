package model

type Permission string

const (
	PermissionViewProject      Permission = "view_project"
	PermissionViewWorkPackages Permission = "view_work_packages"
)

type PermissionSet map[Permission]struct{}

func NewPermissionSet(permissions ...Permission) PermissionSet {
	set := make(PermissionSet, len(permissions))
	for _, p := range permissions {
		set[p] = struct{}{}
	}

	return set
}

func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]

	return ok
}

// Viewer is the user on whose behalf a query runs. The zero value is the
// anonymous user.
type Viewer struct {
	ID    int64
	Name  string
	Admin bool
}

func (v Viewer) IsAnonymous() bool { return v.ID == 0 }

// Membership grants a viewer permissions within one project.
type Membership struct {
	ProjectID   int64
	Permissions []Permission
}

// ProjectAccess is a project the viewer can see, with what they may do there.
type ProjectAccess struct {
	Project     Project
	Permissions PermissionSet
}
