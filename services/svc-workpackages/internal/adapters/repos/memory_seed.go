package repos

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
)

type (
	seedViewer struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Admin bool   `json:"admin"`
		Token string `json:"token"`
	}

	seedMembership struct {
		ViewerID    int64              `json:"viewerId"`
		ProjectID   int64              `json:"projectId"`
		Permissions []model.Permission `json:"permissions"`
	}

	// inMemorySeed is the document read by LoadInMemoryRepository. Projects
	// and work packages use the model's field names.
	inMemorySeed struct {
		Projects     []model.Project      `json:"projects"`
		Viewers      []seedViewer         `json:"viewers"`
		Memberships  []seedMembership     `json:"memberships"`
		WorkPackages []*model.WorkPackage `json:"workPackages"`
	}
)

// LoadInMemoryRepository builds a store from a JSON seed document.
func LoadInMemoryRepository(r io.Reader) (*InMemoryRepository, error) {
	var seed inMemorySeed

	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&seed); err != nil {
		return nil, fmt.Errorf("decoding seed: %w", err)
	}

	repo := NewInMemoryRepository().
		AddProjects(seed.Projects...).
		AddWorkPackages(seed.WorkPackages...)

	for _, v := range seed.Viewers {
		repo.AddViewer(model.Viewer{ID: v.ID, Name: v.Name, Admin: v.Admin}, v.Token)
	}

	for _, m := range seed.Memberships {
		repo.AddMembership(m.ViewerID, model.Membership{ProjectID: m.ProjectID, Permissions: m.Permissions})
	}

	return repo, nil
}
