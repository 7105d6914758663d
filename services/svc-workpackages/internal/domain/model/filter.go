package model

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

type FilterKind string

const (
	ListFilter     FilterKind = "list"
	DateFilter     FilterKind = "date"
	StringFilter   FilterKind = "string"
	BooleanFilter  FilterKind = "boolean"
	NumberFilter   FilterKind = "number"
	RelationFilter FilterKind = "relation"

	dateLayout = "2006-01-02"
)

type (
	// Filter is a single named predicate as it travels on the wire.
	Filter struct {
		Name     string
		Operator Operator
		Values   []string
	}

	// FilterDefinition declares how a named filter behaves.
	FilterDefinition struct {
		Name      string
		Kind      FilterKind
		Field     string
		Nullable  bool
		Operators []Operator
		// SearchFields are matched by the search operator.
		SearchFields []string
		// Relation selects the relation type and direction of relation filters.
		Relation RelationMatch
	}

	// filterKind is the behavior shared by all filters of one kind.
	filterKind interface {
		operators() []Operator
		parse(def FilterDefinition, op Operator, values []string) ([]any, error)
		specification(def FilterDefinition, op Operator, values []any, today time.Time) Specification
	}
)

var filterKinds = map[FilterKind]filterKind{
	ListFilter:     listKind{},
	DateFilter:     dateKind{},
	StringFilter:   stringKind{},
	BooleanFilter:  booleanKind{},
	NumberFilter:   numberKind{},
	RelationFilter: relationKind{},
}

var filterDefinitions = map[string]FilterDefinition{
	"id":       {Name: "id", Kind: ListFilter, Field: FieldID, Operators: []Operator{OpEquals, OpNotEquals}},
	"project":  {Name: "project", Kind: ListFilter, Field: FieldProject, Operators: []Operator{OpEquals, OpNotEquals}},
	"status":   {Name: "status", Kind: ListFilter, Field: FieldStatus, Operators: []Operator{OpOpen, OpClosed, OpEquals, OpNotEquals, OpAny}},
	"type":     {Name: "type", Kind: ListFilter, Field: FieldType, Operators: []Operator{OpEquals, OpNotEquals}},
	"priority": {Name: "priority", Kind: ListFilter, Field: FieldPriority, Operators: []Operator{OpEquals, OpNotEquals}},
	"assignee": {Name: "assignee", Kind: ListFilter, Field: FieldAssignee, Nullable: true},
	"parent":   {Name: "parent", Kind: ListFilter, Field: FieldParent, Nullable: true},

	"subject": {Name: "subject", Kind: StringFilter, Field: FieldSubject, Operators: []Operator{OpContains, OpNotContains, OpEquals, OpNotEquals}},
	"search": {
		Name:         "search",
		Kind:         StringFilter,
		Operators:    []Operator{OpSearch},
		SearchFields: []string{FieldSubject, FieldDescription},
	},

	"startDate": {Name: "startDate", Kind: DateFilter, Field: FieldStartDate, Nullable: true},
	"dueDate":   {Name: "dueDate", Kind: DateFilter, Field: FieldDueDate, Nullable: true},
	"createdAt": {Name: "createdAt", Kind: DateFilter, Field: FieldCreatedAt},
	"updatedAt": {Name: "updatedAt", Kind: DateFilter, Field: FieldUpdatedAt},

	"estimatedTime": {Name: "estimatedTime", Kind: NumberFilter, Field: FieldEstimatedTime, Nullable: true},
	"milestone":     {Name: "milestone", Kind: BooleanFilter, Field: FieldMilestone},

	"blocks":    {Name: "blocks", Kind: RelationFilter, Relation: RelationMatch{Type: "blocks", Direction: RelationOutgoing}},
	"blockedBy": {Name: "blockedBy", Kind: RelationFilter, Relation: RelationMatch{Type: "blocks", Direction: RelationIncoming}},
	"relatesTo": {Name: "relatesTo", Kind: RelationFilter, Relation: RelationMatch{Type: "relates", Direction: RelationAny}},
}

// LookupFilterDefinition returns the definition registered under name.
func LookupFilterDefinition(name string) (FilterDefinition, bool) {
	def, ok := filterDefinitions[name]

	return def, ok
}

// FilterDefinitions returns every registered definition ordered by name.
func FilterDefinitions() []FilterDefinition {
	defs := make([]FilterDefinition, 0, len(filterDefinitions))
	for _, def := range filterDefinitions {
		defs = append(defs, def)
	}

	slices.SortFunc(defs, func(a, b FilterDefinition) int { return strings.Compare(a.Name, b.Name) })

	return defs
}

// AllowedOperators lists the operators the filter accepts.
func (d FilterDefinition) AllowedOperators() []Operator {
	if len(d.Operators) > 0 {
		return d.Operators
	}

	ops := filterKinds[d.Kind].operators()
	if d.Nullable {
		return ops
	}

	return slices.DeleteFunc(slices.Clone(ops), func(op Operator) bool {
		return op == OpAny || op == OpNone
	})
}

func (d FilterDefinition) allows(op Operator) bool {
	return slices.Contains(d.AllowedOperators(), op)
}

// Validate checks that the filter is known, that its operator suits the
// filter's kind and that its values parse.
func (f Filter) Validate() error {
	_, _, err := f.resolve()

	return err
}

// Specification translates the filter into a predicate. Relative date
// operators are resolved against today.
func (f Filter) Specification(today time.Time) (Specification, error) {
	def, values, err := f.resolve()
	if err != nil {
		return nil, err
	}

	return filterKinds[def.Kind].specification(def, f.Operator, values, startOfDay(today)), nil
}

// Apply narrows the criteria being built by this filter.
func (f Filter) Apply(builder *CriteriaBuilder, today time.Time) error {
	spec, err := f.Specification(today)
	if err != nil {
		return err
	}

	builder.WhereSpec(spec)

	return nil
}

func (f Filter) resolve() (FilterDefinition, []any, error) {
	def, ok := LookupFilterDefinition(f.Name)
	if !ok {
		return FilterDefinition{}, nil, invalidFilter(f.Name, "name", "unknown filter")
	}

	if !f.Operator.IsKnown() || !def.allows(f.Operator) {
		return def, nil, invalidFilter(f.Name, "operator", "operator %q is not valid for %s filters", f.Operator, def.Kind)
	}

	if !f.Operator.acceptsValueCount(len(f.Values)) {
		return def, nil, invalidFilter(f.Name, "values", "operator %q does not accept %d values", f.Operator, len(f.Values))
	}

	if f.Operator.IsUnary() {
		return def, nil, nil
	}

	values, err := filterKinds[def.Kind].parse(def, f.Operator, f.Values)
	if err != nil {
		return def, nil, err
	}

	return def, values, nil
}

type listKind struct{}

func (listKind) operators() []Operator {
	return []Operator{OpEquals, OpNotEquals, OpAny, OpNone}
}

func (listKind) parse(def FilterDefinition, _ Operator, values []string) ([]any, error) {
	return parseIDs(def.Name, values)
}

func (listKind) specification(def FilterDefinition, op Operator, values []any, _ time.Time) Specification {
	switch op {
	case OpOpen:
		return Eq(FieldStatusClosed, false)
	case OpClosed:
		return Eq(FieldStatusClosed, true)
	case OpAny:
		return NotNull(def.Field)
	case OpNone:
		return IsNull(def.Field)
	case OpNotEquals:
		return notIn(def, values)
	default:
		return In(def.Field, values...)
	}
}

type dateKind struct{}

func (dateKind) operators() []Operator {
	return []Operator{
		OpOnDate, OpBetweenDates, OpToday, OpThisWeek,
		OpLessDaysAgo, OpMoreDaysAgo, OpDaysAgo,
		OpInLessDays, OpInMoreDays, OpInDays,
		OpAny, OpNone,
	}
}

func (dateKind) parse(def FilterDefinition, op Operator, values []string) ([]any, error) {
	switch op {
	case OpOnDate:
		day, err := parseDate(def.Name, values[0])
		if err != nil {
			return nil, err
		}

		return []any{day}, nil
	case OpBetweenDates:
		if values[0] == "" && values[1] == "" {
			return nil, invalidFilter(def.Name, "values", "at least one bound is required")
		}

		bounds := make([]any, 2)

		for i, v := range values {
			if v == "" {
				continue
			}

			day, err := parseDate(def.Name, v)
			if err != nil {
				return nil, err
			}

			bounds[i] = day
		}

		if from, ok := bounds[0].(time.Time); ok {
			if to, ok := bounds[1].(time.Time); ok && to.Before(from) {
				return nil, invalidFilter(def.Name, "values", "end date is before start date")
			}
		}

		return bounds, nil
	default:
		days, err := strconv.Atoi(strings.TrimSpace(values[0]))
		if err != nil || days < 0 {
			return nil, invalidFilter(def.Name, "values", "%q is not a number of days", values[0])
		}

		return []any{days}, nil
	}
}

func (dateKind) specification(def FilterDefinition, op Operator, values []any, today time.Time) Specification {
	day := func(offset int) time.Time { return today.AddDate(0, 0, offset) }
	days := func() int { return values[0].(int) }

	switch op {
	case OpAny:
		return NotNull(def.Field)
	case OpNone:
		return IsNull(def.Field)
	case OpOnDate:
		on := values[0].(time.Time)

		return dayRange(def.Field, &on, ptr(on.AddDate(0, 0, 1)))
	case OpBetweenDates:
		var from, to *time.Time

		if v, ok := values[0].(time.Time); ok {
			from = &v
		}

		if v, ok := values[1].(time.Time); ok {
			to = ptr(v.AddDate(0, 0, 1))
		}

		return dayRange(def.Field, from, to)
	case OpToday:
		return dayRange(def.Field, ptr(today), ptr(day(1)))
	case OpThisWeek:
		monday := day(-((int(today.Weekday()) + 6) % 7))

		return dayRange(def.Field, &monday, ptr(monday.AddDate(0, 0, 7)))
	case OpLessDaysAgo:
		return dayRange(def.Field, ptr(day(-days())), ptr(day(1)))
	case OpMoreDaysAgo:
		return dayRange(def.Field, nil, ptr(day(-days()+1)))
	case OpDaysAgo:
		return dayRange(def.Field, ptr(day(-days())), ptr(day(-days()+1)))
	case OpInLessDays:
		return dayRange(def.Field, ptr(today), ptr(day(days()+1)))
	case OpInMoreDays:
		return dayRange(def.Field, ptr(day(days())), nil)
	default:
		return dayRange(def.Field, ptr(day(days())), ptr(day(days()+1)))
	}
}

// dayRange matches from inclusive to before exclusive. Either bound may be nil.
func dayRange(field string, from, before *time.Time) Specification {
	switch {
	case from != nil && before != nil:
		return Must(Gte(field, *from), Lt(field, *before))
	case from != nil:
		return Gte(field, *from)
	default:
		return Lt(field, *before)
	}
}

type stringKind struct{}

func (stringKind) operators() []Operator {
	return []Operator{OpContains, OpNotContains, OpEquals, OpNotEquals, OpAny, OpNone}
}

func (stringKind) parse(def FilterDefinition, _ Operator, values []string) ([]any, error) {
	parsed := make([]any, 0, len(values))

	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return nil, invalidFilter(def.Name, "values", "value must not be blank")
		}

		parsed = append(parsed, v)
	}

	return parsed, nil
}

func (stringKind) specification(def FilterDefinition, op Operator, values []any, _ time.Time) Specification {
	switch op {
	case OpSearch:
		needle := values[0].(string)
		specs := make([]Specification, 0, len(def.SearchFields))

		for _, field := range def.SearchFields {
			specs = append(specs, ILike(field, needle))
		}

		return Should(specs...)
	case OpContains:
		return ILike(def.Field, values[0].(string))
	case OpNotContains:
		return MustNot(ILike(def.Field, values[0].(string)))
	case OpAny:
		return NotNull(def.Field)
	case OpNone:
		return IsNull(def.Field)
	case OpNotEquals:
		return notIn(def, values)
	default:
		return In(def.Field, values...)
	}
}

type booleanKind struct{}

func (booleanKind) operators() []Operator {
	return []Operator{OpEquals, OpNotEquals}
}

func (booleanKind) parse(def FilterDefinition, _ Operator, values []string) ([]any, error) {
	if len(values) != 1 {
		return nil, invalidFilter(def.Name, "values", "exactly one value is required")
	}

	switch values[0] {
	case "t":
		return []any{true}, nil
	case "f":
		return []any{false}, nil
	default:
		return nil, invalidFilter(def.Name, "values", "%q is not one of t, f", values[0])
	}
}

func (booleanKind) specification(def FilterDefinition, op Operator, values []any, _ time.Time) Specification {
	if op == OpNotEquals {
		return NotEq(def.Field, values[0])
	}

	return Eq(def.Field, values[0])
}

type numberKind struct{}

func (numberKind) operators() []Operator {
	return []Operator{OpEquals, OpNotEquals, OpGreaterOrEqual, OpLessOrEqual, OpAny, OpNone}
}

func (numberKind) parse(def FilterDefinition, _ Operator, values []string) ([]any, error) {
	parsed := make([]any, 0, len(values))

	for _, v := range values {
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, invalidFilter(def.Name, "values", "%q is not a number", v)
		}

		parsed = append(parsed, n)
	}

	return parsed, nil
}

func (numberKind) specification(def FilterDefinition, op Operator, values []any, _ time.Time) Specification {
	switch op {
	case OpGreaterOrEqual:
		return Gte(def.Field, values[0])
	case OpLessOrEqual:
		return Lte(def.Field, values[0])
	case OpAny:
		return NotNull(def.Field)
	case OpNone:
		return IsNull(def.Field)
	case OpNotEquals:
		return notIn(def, values)
	default:
		return In(def.Field, values...)
	}
}

type relationKind struct{}

func (relationKind) operators() []Operator {
	return []Operator{OpEquals}
}

func (relationKind) parse(def FilterDefinition, _ Operator, values []string) ([]any, error) {
	return parseIDs(def.Name, values)
}

func (relationKind) specification(def FilterDefinition, _ Operator, values []any, _ time.Time) Specification {
	match := def.Relation
	match.IDs = make([]int64, 0, len(values))

	for _, v := range values {
		match.IDs = append(match.IDs, v.(int64))
	}

	return Related(match)
}

// notIn excludes values. Unset fields of nullable filters are kept, since
// they do not equal any of them.
func notIn(def FilterDefinition, values []any) Specification {
	if def.Nullable {
		return Should(IsNull(def.Field), NotIn(def.Field, values...))
	}

	return NotIn(def.Field, values...)
}

func parseIDs(filter string, values []string) ([]any, error) {
	ids := make([]any, 0, len(values))

	for _, v := range values {
		id, err := parseID(v)
		if err != nil {
			return nil, invalidFilter(filter, "values", "%q is not a valid id", v)
		}

		ids = append(ids, id)
	}

	return ids, nil
}

func parseID(v string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, err
	}

	if id <= 0 {
		return 0, strconv.ErrRange
	}

	return id, nil
}

func parseDate(filter, v string) (time.Time, error) {
	day, err := time.Parse(dateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, invalidFilter(filter, "values", "%q is not a date in YYYY-MM-DD format", v)
	}

	return day, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }
