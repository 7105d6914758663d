package repos

import (
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
)

// ErrUnsupportedSpec is returned for specifications that have no translation.
var ErrUnsupportedSpec = errors.New("unsupported specification")

// whereColumns maps filter fields to the expressions they constrain.
var whereColumns = map[string]string{
	model.FieldID:            "wp.id",
	model.FieldProject:       "wp.project_id",
	model.FieldStatus:        "wp.status_id",
	model.FieldStatusClosed:  "s.is_closed",
	model.FieldType:          "wp.type_id",
	model.FieldMilestone:     "t.is_milestone",
	model.FieldPriority:      "wp.priority_id",
	model.FieldAssignee:      "wp.assigned_to_id",
	model.FieldParent:        "wp.parent_id",
	model.FieldSubject:       "wp.subject",
	model.FieldDescription:   "wp.description",
	model.FieldStartDate:     "wp.start_date",
	model.FieldDueDate:       "wp.due_date",
	model.FieldCreatedAt:     "wp.created_at",
	model.FieldUpdatedAt:     "wp.updated_at",
	model.FieldEstimatedTime: "wp.estimated_hours",
	model.FieldRemainingTime: "wp.remaining_hours",
	model.FieldStoryPoints:   "wp.story_points",
	model.FieldLaborCosts:    "wp.labor_costs",
	model.FieldMaterialCosts: "wp.material_costs",
	model.FieldOverallCosts:  "(wp.labor_costs + wp.material_costs)",
}

// sortColumns follow each attribute's natural order. Postgres puts NULLs
// last ascending and first descending, as the in-memory ordering does.
var sortColumns = map[string][]string{
	model.FieldID:            {"wp.id"},
	model.FieldSubject:       {"LOWER(wp.subject)"},
	model.FieldProject:       {"LOWER(p.name)", "p.id"},
	model.FieldStatus:        {"s.position", "s.id"},
	model.FieldType:          {"t.position", "t.id"},
	model.FieldPriority:      {"pr.position", "pr.id"},
	model.FieldAssignee:      {"LOWER(u.name)", "u.id"},
	model.FieldStartDate:     {"wp.start_date"},
	model.FieldDueDate:       {"wp.due_date"},
	model.FieldCreatedAt:     {"wp.created_at"},
	model.FieldUpdatedAt:     {"wp.updated_at"},
	model.FieldEstimatedTime: {"wp.estimated_hours"},
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type CriteriaTranslator struct {
	logger *logger.Logger
}

func NewCriteriaTranslator(log *logger.Logger) *CriteriaTranslator {
	return &CriteriaTranslator{logger: log}
}

func (t *CriteriaTranslator) ApplyToSelect(builder sq.SelectBuilder, criteria model.Criteria) (sq.SelectBuilder, error) {
	builder, err := t.ApplyConditionsOnly(builder, criteria)
	if err != nil {
		return builder, err
	}

	builder = t.applySorting(builder, criteria)
	builder = t.applyPagination(builder, criteria)

	return builder, nil
}

func (t *CriteriaTranslator) ApplyConditionsOnly(builder sq.SelectBuilder, criteria model.Criteria) (sq.SelectBuilder, error) {
	if !criteria.HasSpec() {
		return builder, nil
	}

	where, err := t.translateSpec(criteria.Spec())
	if err != nil {
		return builder, err
	}

	return builder.Where(where), nil
}

func (t *CriteriaTranslator) translateSpec(spec model.Specification) (sq.Sqlizer, error) {
	switch spec.Operator() {
	case model.SpecOpMust, model.SpecOpShould:
		parts := make([]sq.Sqlizer, 0, len(spec.Children()))

		for _, child := range spec.Children() {
			part, err := t.translateSpec(child)
			if err != nil {
				return nil, err
			}

			parts = append(parts, part)
		}

		if spec.Operator() == model.SpecOpMust {
			return sq.And(parts), nil
		}

		return sq.Or(parts), nil

	case model.SpecOpMustNot:
		children := spec.Children()
		if len(children) != 1 {
			return nil, fmt.Errorf("%w: must_not expects one child", ErrUnsupportedSpec)
		}

		inner, err := t.translateSpec(children[0])
		if err != nil {
			return nil, err
		}

		return sq.Expr("NOT (?)", inner), nil

	case model.SpecOpRelated:
		match, ok := spec.Value().(model.RelationMatch)
		if !ok {
			return nil, fmt.Errorf("%w: related value %T", ErrUnsupportedSpec, spec.Value())
		}

		return translateRelation(match), nil
	}

	col, ok := whereColumns[spec.Field()]
	if !ok {
		return nil, fmt.Errorf("%w: unknown field %q", ErrUnsupportedSpec, spec.Field())
	}

	switch spec.Operator() {
	case model.SpecOpEq:
		return sq.Eq{col: spec.Value()}, nil
	case model.SpecOpNotEq:
		return sq.NotEq{col: spec.Value()}, nil
	case model.SpecOpIsNull:
		return sq.Eq{col: nil}, nil
	case model.SpecOpNotNull:
		return sq.NotEq{col: nil}, nil
	case model.SpecOpGte:
		return sq.GtOrEq{col: spec.Value()}, nil
	case model.SpecOpLt:
		return sq.Lt{col: spec.Value()}, nil
	case model.SpecOpLte:
		return sq.LtOrEq{col: spec.Value()}, nil
	case model.SpecOpILike:
		needle, ok := spec.Value().(string)
		if !ok {
			return nil, fmt.Errorf("%w: ilike value %T", ErrUnsupportedSpec, spec.Value())
		}

		return sq.ILike{col: "%" + likeEscaper.Replace(needle) + "%"}, nil
	case model.SpecOpIn, model.SpecOpNotIn:
		values, ok := spec.Value().([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s value %T", ErrUnsupportedSpec, spec.Operator(), spec.Value())
		}

		if spec.Operator() == model.SpecOpIn {
			if len(values) == 0 {
				return sq.Expr("1=0"), nil
			}

			return sq.Eq{col: values}, nil
		}

		if len(values) == 0 {
			return sq.NotEq{col: nil}, nil
		}

		return sq.NotEq{col: values}, nil
	}

	return nil, fmt.Errorf("%w: operator %s", ErrUnsupportedSpec, spec.Operator())
}

func translateRelation(match model.RelationMatch) sq.Sqlizer {
	if len(match.IDs) == 0 {
		return sq.Expr("1=0")
	}

	const (
		outgoing = "EXISTS (SELECT 1 FROM relations r WHERE r.relation_type = ? AND r.from_id = wp.id AND r.to_id = ANY(?))"
		incoming = "EXISTS (SELECT 1 FROM relations r WHERE r.relation_type = ? AND r.to_id = wp.id AND r.from_id = ANY(?))"
	)

	switch match.Direction {
	case model.RelationOutgoing:
		return sq.Expr(outgoing, match.Type, match.IDs)
	case model.RelationIncoming:
		return sq.Expr(incoming, match.Type, match.IDs)
	default:
		return sq.Or{sq.Expr(outgoing, match.Type, match.IDs), sq.Expr(incoming, match.Type, match.IDs)}
	}
}

func (t *CriteriaTranslator) applySorting(builder sq.SelectBuilder, c model.Criteria) sq.SelectBuilder {
	if !c.HasSorting() {
		return builder.OrderBy("wp.id ASC")
	}

	for _, s := range c.Sorting() {
		columns, ok := sortColumns[s.Field]
		if !ok {
			if t.logger != nil {
				t.logger.Warn().
					Str("field", s.Field).
					Msg("unknown sort field requested, skipping")
			}

			continue
		}

		for _, col := range columns {
			builder = builder.OrderBy(fmt.Sprintf("%s %s", col, s.Direction))
		}
	}

	return builder
}

func (t *CriteriaTranslator) applyPagination(builder sq.SelectBuilder, c model.Criteria) sq.SelectBuilder {
	if !c.HasPagination() {
		return builder
	}

	return builder.Limit(uint64(c.Size())).Offset(uint64(c.Offset()))
}
