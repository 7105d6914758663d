package model

import "slices"

// Group is one partition of a grouped result. Value is nil for the partition
// of work packages without a value. Sums is set only when requested.
type Group struct {
	Value *GroupValue
	Count int
	Sums  *Sums
}

type partition struct {
	value    *GroupValue
	elements []*WorkPackage
}

// GroupWorkPackages partitions elements by the named attribute. Groups follow
// the attribute's natural order, such as priority position, with the unset
// partition last. Descending reverses that order, unset partition included,
// so groups line up with a page sorted the same way.
func GroupWorkPackages(elements []*WorkPackage, attribute string, direction SortDirection, withSums bool) ([]Group, error) {
	attr, ok := LookupAttribute(attribute)
	if !ok || !attr.Groupable {
		return nil, &InvalidFilterError{Field: "groupBy", Reason: "cannot group by " + attribute}
	}

	var (
		partitions []*partition
		byID       = make(map[int64]*partition)
		unset      *partition
	)

	for _, w := range elements {
		value := attr.GroupValueOf(w)

		var p *partition

		switch {
		case value == nil && unset == nil:
			unset = &partition{}
			p = unset
			partitions = append(partitions, p)
		case value == nil:
			p = unset
		case byID[value.ID] == nil:
			p = &partition{value: value}
			byID[value.ID] = p
			partitions = append(partitions, p)
		default:
			p = byID[value.ID]
		}

		p.elements = append(p.elements, w)
	}

	slices.SortStableFunc(partitions, func(a, b *partition) int {
		if direction == SortDesc {
			return attr.Compare(b.elements[0], a.elements[0])
		}

		return attr.Compare(a.elements[0], b.elements[0])
	})

	groups := make([]Group, 0, len(partitions))

	for _, p := range partitions {
		group := Group{Value: p.value, Count: len(p.elements)}

		if withSums {
			sums := SumWorkPackages(p.elements)
			group.Sums = &sums
		}

		groups = append(groups, group)
	}

	return groups, nil
}
