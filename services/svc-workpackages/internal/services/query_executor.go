package services

import (
	"context"
	"fmt"
	"time"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/ports"
)

var _ ports.QueryExecutor = (*WorkPackageQueryExecutor)(nil)

type (
	WorkPackageQueryExecutor struct {
		policy ports.VisibilityPolicy
		finder ports.WorkPackageFinder
		clock  func() time.Time
	}

	ExecutorOption func(*WorkPackageQueryExecutor)
)

// WithClock sets the source of "today" for relative date filters.
func WithClock(clock func() time.Time) ExecutorOption {
	return func(e *WorkPackageQueryExecutor) {
		e.clock = clock
	}
}

func NewWorkPackageQueryExecutor(policy ports.VisibilityPolicy, finder ports.WorkPackageFinder, opts ...ExecutorOption) *WorkPackageQueryExecutor {
	e := &WorkPackageQueryExecutor{
		policy: policy,
		finder: finder,
		clock:  time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute runs spec within what viewer may see of base. The returned page is
// ordered by the group attribute first when grouping, then by the requested
// sort keys, then by id.
func (e *WorkPackageQueryExecutor) Execute(ctx context.Context, base model.Scope, spec model.QuerySpec, viewer model.Viewer) (*model.ResultSet, error) {
	scope, err := e.policy.Scope(ctx, viewer, base)
	if err != nil {
		return nil, err
	}

	var groupBy *model.Attribute

	if spec.IsGrouped() {
		attr, ok := model.LookupAttribute(spec.GroupBy)
		if !ok || !attr.Groupable {
			return nil, &model.InvalidFilterError{Field: "groupBy", Reason: "cannot group by " + spec.GroupBy}
		}

		groupBy = &attr
	}

	builder := model.NewCriteria().WhereSpec(scope.Specification())

	if err := spec.Filters.Apply(builder, e.clock().UTC()); err != nil {
		return nil, err
	}

	groupOrder := model.SortAsc

	if groupBy != nil {
		groupOrder = groupDirection(spec.SortBy, groupBy.Name)
		builder.OrderBy(groupBy.Name, groupOrder)
	}

	for _, s := range spec.SortBy {
		builder.OrderBy(s.Field, s.Direction)
	}

	criteria := builder.
		OrderBy(model.FieldID, model.SortAsc).
		Paginate(spec.Offset, spec.PageSize).
		Build()

	page, err := e.finder.Find(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("finding work packages: %w", err)
	}

	result := &model.ResultSet{
		Spec:     spec,
		Elements: page.Elements,
		Count:    len(page.Elements),
		Total:    page.Total,
		GroupBy:  groupBy,
	}

	if groupBy == nil && !spec.ShowSums {
		return result, nil
	}

	all, err := e.finder.Find(ctx, criteria.Unpaged())
	if err != nil {
		return nil, fmt.Errorf("finding work packages for aggregation: %w", err)
	}

	if groupBy != nil {
		result.Groups, err = model.GroupWorkPackages(all.Elements, groupBy.Name, groupOrder, spec.ShowSums)
		if err != nil {
			return nil, err
		}
	}

	if spec.ShowSums {
		sums := model.SumWorkPackages(all.Elements)
		result.TotalSums = &sums
	}

	return result, nil
}

// groupDirection keeps an explicit direction for the group attribute.
func groupDirection(sortBy []model.SortField, field string) model.SortDirection {
	for _, s := range sortBy {
		if s.Field == field {
			return s.Direction
		}
	}

	return model.SortAsc
}
