package model

type SpecOperator string

const (
	SpecOpEq      SpecOperator = "eq"
	SpecOpNotEq   SpecOperator = "neq"
	SpecOpIn      SpecOperator = "in"
	SpecOpNotIn   SpecOperator = "not_in"
	SpecOpILike   SpecOperator = "ilike"
	SpecOpGte     SpecOperator = "gte"
	SpecOpLt      SpecOperator = "lt"
	SpecOpLte     SpecOperator = "lte"
	SpecOpIsNull  SpecOperator = "is_null"
	SpecOpNotNull SpecOperator = "not_null"
	SpecOpRelated SpecOperator = "related"
	SpecOpMust    SpecOperator = "must"
	SpecOpShould  SpecOperator = "should"
	SpecOpMustNot SpecOperator = "must_not"
)

// Specification is a predicate over work package attributes. Leaves name a
// field and carry a value; composites combine children.
type Specification interface {
	Must(other Specification) Specification
	Should(other Specification) Specification
	MustNot() Specification
	IsComposite() bool
	Children() []Specification
	Operator() SpecOperator
	Field() string
	Value() any
}
