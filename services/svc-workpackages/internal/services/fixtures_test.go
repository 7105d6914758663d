package services_test

import (
	"time"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/adapters/repos"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/config"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
)

const memberID int64 = 42

var (
	member    = model.Viewer{ID: memberID, Name: "Ada"}
	admin     = model.Viewer{ID: 1, Name: "Admin", Admin: true}
	anonymous = model.Viewer{}

	today = time.Date(2024, 5, 15, 14, 30, 0, 0, time.UTC)

	viewOnly = []model.Permission{model.PermissionViewProject}
	viewAll  = []model.Permission{model.PermissionViewProject, model.PermissionViewWorkPackages}
)

func parentOf(id int64) *int64 { return &id }

func hours(h float64) *float64 { return &h }

// newAccessFixture builds the project tree
//
//	Seed(1) > Child(2) > Grandchild(5), Public(3), Other(6), Archived(4)
//
// where the member sees work packages of 1 and 5, only the project of 2 and
// nothing of 6.
func newAccessFixture() *repos.InMemoryRepository {
	return repos.NewInMemoryRepository().
		AddProjects(
			model.Project{ID: 1, Name: "Seed", Identifier: "seed", Active: true},
			model.Project{ID: 2, Name: "Child", Identifier: "child", ParentID: parentOf(1), Active: true},
			model.Project{ID: 3, Name: "Public", Identifier: "public", Active: true, Public: true},
			model.Project{ID: 4, Name: "Archived", Identifier: "archived"},
			model.Project{ID: 5, Name: "Grandchild", Identifier: "grandchild", ParentID: parentOf(2), Active: true},
			model.Project{ID: 6, Name: "Other", Identifier: "other", Active: true},
		).
		AddMembership(memberID, model.Membership{ProjectID: 1, Permissions: viewAll}).
		AddMembership(memberID, model.Membership{ProjectID: 2, Permissions: viewOnly}).
		AddMembership(memberID, model.Membership{ProjectID: 4, Permissions: viewAll}).
		AddMembership(memberID, model.Membership{ProjectID: 5, Permissions: viewAll})
}

func defaultPermissions() config.Permissions {
	return config.Permissions{
		NonMember: []string{"view_project", "view_work_packages"},
		Anonymous: []string{"view_project"},
	}
}

var (
	normal = model.PriorityRef{ID: 8, Name: "Normal", Position: 2}
	high   = model.PriorityRef{ID: 9, Name: "High", Position: 3}

	statusNew    = model.StatusRef{ID: 1, Name: "New", Position: 1}
	statusClosed = model.StatusRef{ID: 3, Name: "Closed", Position: 3, IsClosed: true}
)

func sampleWorkPackages() []*model.WorkPackage {
	yesterday := today.AddDate(0, 0, -1)

	return []*model.WorkPackage{
		{
			ID: 1, Subject: "Alpha", Project: model.ProjectRef{ID: 1, Name: "Seed"},
			Status: statusNew, Priority: normal, Assignee: &model.UserRef{ID: memberID, Name: "Ada"},
			EstimatedHours: hours(2), LaborCosts: 10, CreatedAt: today,
		},
		{
			ID: 2, Subject: "Beta", Project: model.ProjectRef{ID: 1, Name: "Seed"},
			Status: statusClosed, Priority: high,
			EstimatedHours: hours(3), LaborCosts: 5, CreatedAt: yesterday,
		},
		{
			ID: 3, Subject: "Gamma", Project: model.ProjectRef{ID: 5, Name: "Grandchild"},
			Status: statusNew, Priority: high, Assignee: &model.UserRef{ID: 7, Name: "Bob"},
			MaterialCosts: 2.5, CreatedAt: yesterday,
		},
		{
			ID: 4, Subject: "Hidden", Project: model.ProjectRef{ID: 6, Name: "Other"},
			Status: statusNew, Priority: normal, CreatedAt: today,
		},
		{
			ID: 5, Subject: "Delta", Project: model.ProjectRef{ID: 3, Name: "Public"},
			Status: statusNew, Priority: normal,
			EstimatedHours: hours(1), CreatedAt: yesterday,
		},
	}
}

func idsOf(elements []*model.WorkPackage) []int64 {
	ids := make([]int64, 0, len(elements))
	for _, w := range elements {
		ids = append(ids, w.ID)
	}

	return ids
}
