package repos

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var _ ports.WorkPackageRepository = (*WorkPackagesRepository)(nil)

var workPackageColumns = []string{
	"wp.id", "wp.subject", "wp.description", "wp.parent_id",
	"wp.start_date", "wp.due_date",
	"wp.estimated_hours", "wp.remaining_hours", "wp.story_points",
	"wp.labor_costs", "wp.material_costs",
	"wp.created_at", "wp.updated_at",
	"p.id AS project_id", "p.name AS project_name", "p.identifier AS project_identifier",
	"s.id AS status_id", "s.name AS status_name", "s.position AS status_position", "s.is_closed AS status_is_closed",
	"t.id AS type_id", "t.name AS type_name", "t.position AS type_position", "t.is_milestone AS type_is_milestone",
	"pr.id AS priority_id", "pr.name AS priority_name", "pr.position AS priority_position",
	"u.id AS assignee_id", "u.name AS assignee_name",
}

type (
	// PoolOps is the subset of pgxpool.Pool the repositories use.
	PoolOps interface {
		QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
		Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
		Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
		Ping(ctx context.Context) error
	}

	// WorkPackagesRepository reads work packages joined with their project,
	// status, type, priority and assignee.
	WorkPackagesRepository struct {
		pool       PoolOps
		scanner    Scanner
		logger     logger.Logger
		translator *CriteriaTranslator
	}

	workPackageRow struct {
		ID             int64      `db:"id"`
		Subject        string     `db:"subject"`
		Description    string     `db:"description"`
		ParentID       *int64     `db:"parent_id"`
		StartDate      *time.Time `db:"start_date"`
		DueDate        *time.Time `db:"due_date"`
		EstimatedHours *float64   `db:"estimated_hours"`
		RemainingHours *float64   `db:"remaining_hours"`
		StoryPoints    *int64     `db:"story_points"`
		LaborCosts     float64    `db:"labor_costs"`
		MaterialCosts  float64    `db:"material_costs"`
		CreatedAt      time.Time  `db:"created_at"`
		UpdatedAt      time.Time  `db:"updated_at"`

		ProjectID         int64  `db:"project_id"`
		ProjectName       string `db:"project_name"`
		ProjectIdentifier string `db:"project_identifier"`

		StatusID       int64  `db:"status_id"`
		StatusName     string `db:"status_name"`
		StatusPosition int    `db:"status_position"`
		StatusIsClosed bool   `db:"status_is_closed"`

		TypeID          int64  `db:"type_id"`
		TypeName        string `db:"type_name"`
		TypePosition    int    `db:"type_position"`
		TypeIsMilestone bool   `db:"type_is_milestone"`

		PriorityID       int64  `db:"priority_id"`
		PriorityName     string `db:"priority_name"`
		PriorityPosition int    `db:"priority_position"`

		AssigneeID   *int64  `db:"assignee_id"`
		AssigneeName *string `db:"assignee_name"`
	}

	workPackageRowWithCount struct {
		workPackageRow
		TotalCount int `db:"total_count"`
	}
)

func NewWorkPackagesRepository(
	pool PoolOps,
	scanner Scanner,
	translator *CriteriaTranslator,
	log logger.Logger,
) *WorkPackagesRepository {
	return &WorkPackagesRepository{
		pool:       pool,
		scanner:    scanner,
		translator: translator,
		logger:     log,
	}
}

func (r *WorkPackagesRepository) Find(ctx context.Context, criteria model.Criteria) (*model.WorkPackagePage, error) {
	columns := append(append([]string{}, workPackageColumns...), "COUNT(*) OVER() AS total_count")

	builder, err := r.translator.ApplyToSelect(r.joined(psql.Select(columns...)), criteria)
	if err != nil {
		return nil, err
	}

	elements, total, err := r.queryWithCount(ctx, builder)
	if err != nil {
		return nil, err
	}

	// A page past the end returns no rows to carry the window count.
	if len(elements) == 0 && criteria.HasPagination() && criteria.Offset() > 0 {
		total, err = r.count(ctx, criteria)
		if err != nil {
			return nil, err
		}
	}

	return &model.WorkPackagePage{Elements: elements, Total: total}, nil
}

func (r *WorkPackagesRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *WorkPackagesRepository) joined(builder sq.SelectBuilder) sq.SelectBuilder {
	return builder.
		From("work_packages wp").
		Join("projects p ON p.id = wp.project_id").
		Join("statuses s ON s.id = wp.status_id").
		Join("types t ON t.id = wp.type_id").
		Join("priorities pr ON pr.id = wp.priority_id").
		LeftJoin("users u ON u.id = wp.assigned_to_id")
}

func (r *WorkPackagesRepository) count(ctx context.Context, criteria model.Criteria) (int, error) {
	builder, err := r.translator.ApplyConditionsOnly(r.joined(psql.Select("COUNT(*)")), criteria)
	if err != nil {
		return 0, err
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, storageError(err)
	}

	return total, nil
}

func (r *WorkPackagesRepository) queryWithCount(ctx context.Context, builder sq.SelectBuilder) ([]*model.WorkPackage, int, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, storageError(err)
	}
	defer rows.Close()

	var resultRows []workPackageRowWithCount
	if err := r.scanner.ScanAll(&resultRows, rows); err != nil {
		return nil, 0, storageError(err)
	}

	if len(resultRows) == 0 {
		return []*model.WorkPackage{}, 0, nil
	}

	elements := make([]*model.WorkPackage, 0, len(resultRows))
	for index := range resultRows {
		elements = append(elements, resultRows[index].toWorkPackage())
	}

	r.logger.Debug().
		Int("rows", len(elements)).
		Int("total", resultRows[0].TotalCount).
		Msg("work packages loaded")

	return elements, resultRows[0].TotalCount, nil
}

func (row workPackageRow) toWorkPackage() *model.WorkPackage {
	w := &model.WorkPackage{
		ID:          row.ID,
		Subject:     row.Subject,
		Description: row.Description,
		Project: model.ProjectRef{
			ID:         row.ProjectID,
			Name:       row.ProjectName,
			Identifier: row.ProjectIdentifier,
		},
		Type: model.TypeRef{
			ID:          row.TypeID,
			Name:        row.TypeName,
			Position:    row.TypePosition,
			IsMilestone: row.TypeIsMilestone,
		},
		Status: model.StatusRef{
			ID:       row.StatusID,
			Name:     row.StatusName,
			Position: row.StatusPosition,
			IsClosed: row.StatusIsClosed,
		},
		Priority: model.PriorityRef{
			ID:       row.PriorityID,
			Name:     row.PriorityName,
			Position: row.PriorityPosition,
		},
		ParentID:       row.ParentID,
		StartDate:      row.StartDate,
		DueDate:        row.DueDate,
		EstimatedHours: row.EstimatedHours,
		RemainingHours: row.RemainingHours,
		StoryPoints:    row.StoryPoints,
		LaborCosts:     row.LaborCosts,
		MaterialCosts:  row.MaterialCosts,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}

	if row.AssigneeID != nil {
		w.Assignee = &model.UserRef{ID: *row.AssigneeID}
		if row.AssigneeName != nil {
			w.Assignee.Name = *row.AssigneeName
		}
	}

	return w
}
