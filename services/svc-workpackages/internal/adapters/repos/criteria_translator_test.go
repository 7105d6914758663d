package repos_test

import (
	"bytes"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/adapters/repos"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func TestCriteriaTranslator_Conditions(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name         string
		spec         model.Specification
		expectedSQL  string
		expectedArgs []any
	}{
		{
			name:         "equality",
			spec:         model.Eq(model.FieldStatusClosed, false),
			expectedSQL:  "WHERE s.is_closed = $1",
			expectedArgs: []any{false},
		},
		{
			name:         "in list",
			spec:         model.In(model.FieldPriority, int64(1), int64(2)),
			expectedSQL:  "WHERE wp.priority_id IN ($1,$2)",
			expectedArgs: []any{int64(1), int64(2)},
		},
		{
			name:         "empty in list matches nothing",
			spec:         model.In(model.FieldProject),
			expectedSQL:  "WHERE 1=0",
			expectedArgs: nil,
		},
		{
			name:         "not in list",
			spec:         model.NotIn(model.FieldType, int64(3)),
			expectedSQL:  "WHERE wp.type_id NOT IN ($1)",
			expectedArgs: []any{int64(3)},
		},
		{
			name:         "is null",
			spec:         model.IsNull(model.FieldAssignee),
			expectedSQL:  "WHERE wp.assigned_to_id IS NULL",
			expectedArgs: nil,
		},
		{
			name:         "not null",
			spec:         model.NotNull(model.FieldDueDate),
			expectedSQL:  "WHERE wp.due_date IS NOT NULL",
			expectedArgs: nil,
		},
		{
			name:         "contains escapes wildcards",
			spec:         model.ILike(model.FieldSubject, "50%_off"),
			expectedSQL:  "WHERE wp.subject ILIKE $1",
			expectedArgs: []any{`%50\%\_off%`},
		},
		{
			name:         "day range",
			spec:         model.Must(model.Gte(model.FieldStartDate, day), model.Lt(model.FieldStartDate, day.AddDate(0, 0, 1))),
			expectedSQL:  "WHERE (wp.start_date >= $1 AND wp.start_date < $2)",
			expectedArgs: []any{day, day.AddDate(0, 0, 1)},
		},
		{
			name:         "less or equal",
			spec:         model.Lte(model.FieldEstimatedTime, 8.0),
			expectedSQL:  "WHERE wp.estimated_hours <= $1",
			expectedArgs: []any{8.0},
		},
		{
			name:         "nullable exclusion",
			spec:         model.Should(model.IsNull(model.FieldAssignee), model.NotIn(model.FieldAssignee, int64(7))),
			expectedSQL:  "WHERE (wp.assigned_to_id IS NULL OR wp.assigned_to_id NOT IN ($1))",
			expectedArgs: []any{int64(7)},
		},
		{
			name:         "negation",
			spec:         model.MustNot(model.ILike(model.FieldSubject, "draft")),
			expectedSQL:  "WHERE NOT (wp.subject ILIKE $1)",
			expectedArgs: []any{"%draft%"},
		},
		{
			name: "outgoing relation",
			spec: model.Related(model.RelationMatch{Type: "blocks", Direction: model.RelationOutgoing, IDs: []int64{5}}),
			expectedSQL: "WHERE EXISTS (SELECT 1 FROM relations r WHERE r.relation_type = $1 " +
				"AND r.from_id = wp.id AND r.to_id = ANY($2))",
			expectedArgs: []any{"blocks", []int64{5}},
		},
		{
			name: "incoming relation",
			spec: model.Related(model.RelationMatch{Type: "blocks", Direction: model.RelationIncoming, IDs: []int64{5}}),
			expectedSQL: "WHERE EXISTS (SELECT 1 FROM relations r WHERE r.relation_type = $1 " +
				"AND r.to_id = wp.id AND r.from_id = ANY($2))",
			expectedArgs: []any{"blocks", []int64{5}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			translator := repos.NewCriteriaTranslator(nil)
			criteria := model.NewCriteria().WhereSpec(tc.spec).Build()

			builder, err := translator.ApplyConditionsOnly(psql.Select("wp.id").From("work_packages wp"), criteria)
			require.NoError(t, err)

			sql, args, err := builder.ToSql()
			require.NoError(t, err)

			assert.Contains(t, sql, tc.expectedSQL)
			assert.Equal(t, tc.expectedArgs, nilIfEmpty(args))
		})
	}
}

func TestCriteriaTranslator_UnknownFieldFails(t *testing.T) {
	t.Parallel()

	translator := repos.NewCriteriaTranslator(nil)
	criteria := model.NewCriteria().WhereSpec(model.Eq("colour", "red")).Build()

	_, err := translator.ApplyConditionsOnly(psql.Select("wp.id").From("work_packages wp"), criteria)
	require.ErrorIs(t, err, repos.ErrUnsupportedSpec)
}

func TestCriteriaTranslator_SortingAndPagination(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer

	log := logger.NewBufferedTestLogger(&logs)
	translator := repos.NewCriteriaTranslator(&log)

	criteria := model.NewCriteria().
		OrderBy(model.FieldPriority, model.SortDesc).
		OrderBy("colour", model.SortAsc).
		OrderBy(model.FieldID, model.SortAsc).
		Paginate(3, 10).
		Build()

	builder, err := translator.ApplyToSelect(psql.Select("wp.id").From("work_packages wp"), criteria)
	require.NoError(t, err)

	sql, _, err := builder.ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "ORDER BY pr.position DESC, pr.id DESC, wp.id ASC LIMIT 10 OFFSET 20")
	assert.Contains(t, logs.String(), "unknown sort field requested")
}

func TestCriteriaTranslator_UnpagedHasNoLimit(t *testing.T) {
	t.Parallel()

	translator := repos.NewCriteriaTranslator(nil)
	criteria := model.NewCriteria().Paginate(2, 5).Build().Unpaged()

	builder, err := translator.ApplyToSelect(psql.Select("wp.id").From("work_packages wp"), criteria)
	require.NoError(t, err)

	sql, _, err := builder.ToSql()
	require.NoError(t, err)

	assert.NotContains(t, sql, "LIMIT")
	assert.Contains(t, sql, "ORDER BY wp.id ASC")
}

func nilIfEmpty(args []any) []any {
	if len(args) == 0 {
		return nil
	}

	return args
}
