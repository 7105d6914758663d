package repos

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
)

// Matches evaluates spec against a single work package the way the SQL
// translation does: comparisons against an unset field are false, an empty
// In matches nothing and an empty NotIn everything that is set.
func Matches(spec model.Specification, w *model.WorkPackage) (bool, error) {
	if spec == nil {
		return true, nil
	}

	switch spec.Operator() {
	case model.SpecOpMust:
		for _, child := range spec.Children() {
			ok, err := Matches(child, w)
			if err != nil || !ok {
				return false, err
			}
		}

		return true, nil
	case model.SpecOpShould:
		for _, child := range spec.Children() {
			ok, err := Matches(child, w)
			if err != nil {
				return false, err
			}

			if ok {
				return true, nil
			}
		}

		return false, nil
	case model.SpecOpMustNot:
		children := spec.Children()
		if len(children) != 1 {
			return false, fmt.Errorf("%w: must_not expects one child", ErrUnsupportedSpec)
		}

		ok, err := Matches(children[0], w)

		return !ok, err
	case model.SpecOpRelated:
		match, ok := spec.Value().(model.RelationMatch)
		if !ok {
			return false, fmt.Errorf("%w: related value %T", ErrUnsupportedSpec, spec.Value())
		}

		return matchesRelation(match, w.Relations), nil
	}

	return matchesField(spec, w.FieldValue(spec.Field()))
}

func matchesField(spec model.Specification, actual any) (bool, error) {
	switch spec.Operator() {
	case model.SpecOpIsNull:
		return actual == nil, nil
	case model.SpecOpNotNull:
		return actual != nil, nil
	}

	if actual == nil {
		return false, nil
	}

	switch spec.Operator() {
	case model.SpecOpEq:
		return compareEqual(actual, spec.Value()), nil
	case model.SpecOpNotEq:
		return !compareEqual(actual, spec.Value()), nil
	case model.SpecOpIn, model.SpecOpNotIn:
		values, ok := spec.Value().([]any)
		if !ok {
			return false, fmt.Errorf("%w: %s value %T", ErrUnsupportedSpec, spec.Operator(), spec.Value())
		}

		found := slices.ContainsFunc(values, func(v any) bool { return compareEqual(actual, v) })

		return found == (spec.Operator() == model.SpecOpIn), nil
	case model.SpecOpILike:
		haystack, ok := actual.(string)
		needle, isString := spec.Value().(string)

		if !ok || !isString {
			return false, fmt.Errorf("%w: ilike on %s", ErrUnsupportedSpec, spec.Field())
		}

		return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle)), nil
	case model.SpecOpGte, model.SpecOpLt, model.SpecOpLte:
		c, ok := compareOrdered(actual, spec.Value())
		if !ok {
			return false, fmt.Errorf("%w: cannot compare %T with %T", ErrUnsupportedSpec, actual, spec.Value())
		}

		switch spec.Operator() {
		case model.SpecOpGte:
			return c >= 0, nil
		case model.SpecOpLt:
			return c < 0, nil
		default:
			return c <= 0, nil
		}
	}

	return false, fmt.Errorf("%w: operator %s", ErrUnsupportedSpec, spec.Operator())
}

func matchesRelation(match model.RelationMatch, relations []model.Relation) bool {
	for _, r := range relations {
		if r.Type != match.Type || !slices.Contains(match.IDs, r.OtherID) {
			continue
		}

		switch match.Direction {
		case model.RelationOutgoing:
			if r.Outgoing {
				return true
			}
		case model.RelationIncoming:
			if !r.Outgoing {
				return true
			}
		default:
			return true
		}
	}

	return false
}

func compareEqual(a, b any) bool {
	c, ok := compareOrdered(a, b)

	return ok && c == 0
}

func compareOrdered(a, b any) (int, bool) {
	if x, ok := asFloat(a); ok {
		y, ok := asFloat(b)

		return cmp.Compare(x, y), ok
	}

	switch x := a.(type) {
	case string:
		y, ok := b.(string)

		return strings.Compare(x, y), ok
	case time.Time:
		y, ok := b.(time.Time)

		return x.Compare(y), ok
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}

		switch {
		case x == y:
			return 0, true
		case y:
			return -1, true
		default:
			return 1, true
		}
	}

	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
