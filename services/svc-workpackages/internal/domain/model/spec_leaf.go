package model

type baseSpec struct {
	self Specification
}

func (b *baseSpec) setSelf(s Specification) { b.self = s }

func (b *baseSpec) Must(other Specification) Specification {
	return &mustSpec{specs: []Specification{b.self, other}}
}
func (b *baseSpec) Should(other Specification) Specification {
	return &shouldSpec{specs: []Specification{b.self, other}}
}
func (b *baseSpec) MustNot() Specification    { return &mustNotSpec{spec: b.self} }
func (b *baseSpec) IsComposite() bool         { return false }
func (b *baseSpec) Children() []Specification { return nil }

// fieldSpec is a comparison of one field against a value.
type fieldSpec struct {
	baseSpec
	op    SpecOperator
	field string
	value any
}

func newFieldSpec(op SpecOperator, field string, value any) Specification {
	s := &fieldSpec{op: op, field: field, value: value}
	s.setSelf(s)

	return s
}

func (s *fieldSpec) Operator() SpecOperator { return s.op }
func (s *fieldSpec) Field() string          { return s.field }
func (s *fieldSpec) Value() any             { return s.value }

func Eq(field string, value any) Specification    { return newFieldSpec(SpecOpEq, field, value) }
func NotEq(field string, value any) Specification { return newFieldSpec(SpecOpNotEq, field, value) }
func Gte(field string, value any) Specification   { return newFieldSpec(SpecOpGte, field, value) }
func Lt(field string, value any) Specification    { return newFieldSpec(SpecOpLt, field, value) }
func Lte(field string, value any) Specification   { return newFieldSpec(SpecOpLte, field, value) }
func IsNull(field string) Specification           { return newFieldSpec(SpecOpIsNull, field, nil) }
func NotNull(field string) Specification          { return newFieldSpec(SpecOpNotNull, field, nil) }

// In matches when the field equals any of values. An empty value list
// matches nothing.
func In(field string, values ...any) Specification {
	return newFieldSpec(SpecOpIn, field, values)
}

func NotIn(field string, values ...any) Specification {
	return newFieldSpec(SpecOpNotIn, field, values)
}

// ILike is a case-insensitive substring match. The pattern is the raw
// needle, without wildcards.
func ILike(field, needle string) Specification {
	return newFieldSpec(SpecOpILike, field, needle)
}

type RelationDirection string

const (
	// RelationOutgoing matches records whose relation points at one of the ids.
	RelationOutgoing RelationDirection = "outgoing"
	// RelationIncoming matches records targeted by a relation from one of the ids.
	RelationIncoming RelationDirection = "incoming"
	RelationAny      RelationDirection = "any"
)

type RelationMatch struct {
	Type      string
	Direction RelationDirection
	IDs       []int64
}

type relatedSpec struct {
	baseSpec
	match RelationMatch
}

// Related matches records connected to any of match.IDs by a relation of
// match.Type in the given direction.
func Related(match RelationMatch) Specification {
	s := &relatedSpec{match: match}
	s.setSelf(s)

	return s
}

func (s *relatedSpec) Operator() SpecOperator { return SpecOpRelated }
func (s *relatedSpec) Field() string          { return "relations" }
func (s *relatedSpec) Value() any             { return s.match }
