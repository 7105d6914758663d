package repos

import (
	"context"
	"slices"
	"sync"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/ports"
)

var (
	_ ports.WorkPackageRepository = (*InMemoryRepository)(nil)
	_ ports.AccessRepository      = (*InMemoryRepository)(nil)
	_ ports.ViewerRepository      = (*InMemoryRepository)(nil)
)

// InMemoryRepository keeps work packages, projects and users in memory and
// evaluates criteria with Matches. It backs the memory storage driver.
type InMemoryRepository struct {
	mu           sync.RWMutex
	workPackages []*model.WorkPackage
	projects     []model.Project
	memberships  map[int64][]model.Membership
	viewers      map[int64]model.Viewer
	tokens       map[string]int64
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		memberships: make(map[int64][]model.Membership),
		viewers:     make(map[int64]model.Viewer),
		tokens:      make(map[string]int64),
	}
}

func (r *InMemoryRepository) AddWorkPackages(workPackages ...*model.WorkPackage) *InMemoryRepository {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.workPackages = append(r.workPackages, workPackages...)

	return r
}

func (r *InMemoryRepository) AddProjects(projects ...model.Project) *InMemoryRepository {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.projects = append(r.projects, projects...)

	return r
}

func (r *InMemoryRepository) AddMembership(viewerID int64, membership model.Membership) *InMemoryRepository {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.memberships[viewerID] = append(r.memberships[viewerID], membership)

	return r
}

// AddViewer registers a user, reachable by token when token is not empty.
func (r *InMemoryRepository) AddViewer(viewer model.Viewer, token string) *InMemoryRepository {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.viewers[viewer.ID] = viewer
	if token != "" {
		r.tokens[TokenDigest(token)] = viewer.ID
	}

	return r
}

func (r *InMemoryRepository) Find(_ context.Context, criteria model.Criteria) (*model.WorkPackagePage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*model.WorkPackage, 0)

	for _, w := range r.workPackages {
		ok, err := Matches(criteria.Spec(), w)
		if err != nil {
			return nil, err
		}

		if ok {
			matched = append(matched, w)
		}
	}

	sorting := criteria.Sorting()
	if len(sorting) == 0 {
		sorting = model.DefaultSortBy
	}

	model.SortWorkPackages(matched, sorting)

	page := &model.WorkPackagePage{Total: len(matched), Elements: matched}

	if criteria.HasPagination() {
		start := min(int(criteria.Offset()), len(matched))
		end := min(start+int(criteria.Size()), len(matched))
		page.Elements = slices.Clip(matched[start:end])
	}

	return page, nil
}

func (r *InMemoryRepository) Ping(context.Context) error {
	return nil
}

func (r *InMemoryRepository) ActiveProjects(context.Context) ([]model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	projects := make([]model.Project, 0, len(r.projects))

	for _, p := range r.projects {
		if p.Active {
			projects = append(projects, p)
		}
	}

	return projects, nil
}

func (r *InMemoryRepository) Memberships(_ context.Context, viewerID int64) ([]model.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.memberships[viewerID]), nil
}

func (r *InMemoryRepository) FindViewerByToken(ctx context.Context, token string) (model.Viewer, error) {
	r.mu.RLock()
	id, ok := r.tokens[TokenDigest(token)]
	r.mu.RUnlock()

	if !ok {
		return model.Viewer{}, model.ErrUnauthenticated
	}

	return r.FindViewerByID(ctx, id)
}

func (r *InMemoryRepository) FindViewerByID(_ context.Context, id int64) (model.Viewer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	viewer, ok := r.viewers[id]
	if !ok {
		return model.Viewer{}, model.ErrUnauthenticated
	}

	return viewer, nil
}
