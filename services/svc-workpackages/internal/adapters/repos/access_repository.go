package repos

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/ports"
)

var (
	_ ports.AccessRepository = (*AccessRepository)(nil)
	_ ports.ViewerRepository = (*AccessRepository)(nil)
)

type (
	// AccessRepository reads projects, memberships and users.
	AccessRepository struct {
		pool    PoolOps
		scanner Scanner
		logger  logger.Logger
	}

	projectRow struct {
		ID         int64  `db:"id"`
		Name       string `db:"name"`
		Identifier string `db:"identifier"`
		ParentID   *int64 `db:"parent_id"`
		Active     bool   `db:"active"`
		Public     bool   `db:"public"`
	}

	membershipRow struct {
		ProjectID   int64    `db:"project_id"`
		Permissions []string `db:"permissions"`
	}

	userRow struct {
		ID    int64  `db:"id"`
		Name  string `db:"name"`
		Admin bool   `db:"admin"`
	}
)

func NewAccessRepository(pool PoolOps, scanner Scanner, log logger.Logger) *AccessRepository {
	return &AccessRepository{pool: pool, scanner: scanner, logger: log}
}

func (r *AccessRepository) ActiveProjects(ctx context.Context) ([]model.Project, error) {
	var rows []projectRow

	err := r.selectAll(ctx, &rows, psql.
		Select("id", "name", "identifier", "parent_id", "active", "public").
		From("projects").
		Where(sq.Eq{"active": true}).
		OrderBy("id ASC"))
	if err != nil {
		return nil, err
	}

	projects := make([]model.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, model.Project(row))
	}

	return projects, nil
}

// Memberships merges the permissions of every role the user holds per project.
func (r *AccessRepository) Memberships(ctx context.Context, viewerID int64) ([]model.Membership, error) {
	var rows []membershipRow

	err := r.selectAll(ctx, &rows, psql.
		Select("m.project_id", "r.permissions").
		From("members m").
		Join("roles r ON r.id = m.role_id").
		Join("projects p ON p.id = m.project_id").
		Where(sq.Eq{"m.user_id": viewerID, "p.active": true}).
		OrderBy("m.project_id ASC"))
	if err != nil {
		return nil, err
	}

	memberships := make([]model.Membership, 0, len(rows))
	index := make(map[int64]int, len(rows))

	for _, row := range rows {
		i, ok := index[row.ProjectID]
		if !ok {
			i = len(memberships)
			index[row.ProjectID] = i
			memberships = append(memberships, model.Membership{ProjectID: row.ProjectID})
		}

		for _, p := range row.Permissions {
			memberships[i].Permissions = append(memberships[i].Permissions, model.Permission(p))
		}
	}

	return memberships, nil
}

// FindViewerByToken looks the token up by its SHA-256 digest. Locked users
// are unknown.
func (r *AccessRepository) FindViewerByToken(ctx context.Context, token string) (model.Viewer, error) {
	return r.findViewer(ctx, sq.Eq{"api_token_digest": TokenDigest(token)})
}

func (r *AccessRepository) FindViewerByID(ctx context.Context, id int64) (model.Viewer, error) {
	return r.findViewer(ctx, sq.Eq{"id": id})
}

func (r *AccessRepository) findViewer(ctx context.Context, where sq.Sqlizer) (model.Viewer, error) {
	query, args, err := psql.
		Select("id", "name", "admin").
		From("users").
		Where(where).
		Where(sq.Eq{"locked": false}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Viewer{}, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return model.Viewer{}, storageError(err)
	}
	defer rows.Close()

	var row userRow
	if err := r.scanner.ScanOne(&row, rows); err != nil {
		if r.scanner.IsNotFound(err) {
			return model.Viewer{}, model.ErrUnauthenticated
		}

		return model.Viewer{}, storageError(err)
	}

	return model.Viewer{ID: row.ID, Name: row.Name, Admin: row.Admin}, nil
}

func (r *AccessRepository) selectAll(ctx context.Context, dst any, builder sq.SelectBuilder) error {
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return storageError(err)
	}
	defer rows.Close()

	if err := r.scanner.ScanAll(dst, rows); err != nil {
		return storageError(err)
	}

	return nil
}

// TokenDigest is the stored form of an API token.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}
