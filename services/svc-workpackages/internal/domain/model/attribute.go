package model

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

type (
	// Attribute is a work package property a query can sort or group by.
	Attribute struct {
		Name      string
		Title     string
		Groupable bool
		// Resource names the API collection of grouped values.
		Resource string

		compare  func(a, b *WorkPackage) int
		groupKey func(w *WorkPackage) *GroupValue
	}

	// GroupValue identifies one partition of a grouped result.
	GroupValue struct {
		Resource string
		ID       int64
		Name     string
	}
)

var attributes = map[string]Attribute{
	FieldID: {
		Name:    FieldID,
		Title:   "ID",
		compare: func(a, b *WorkPackage) int { return cmp.Compare(a.ID, b.ID) },
	},
	FieldSubject: {
		Name:    FieldSubject,
		Title:   "Subject",
		compare: func(a, b *WorkPackage) int { return compareFold(a.Subject, b.Subject) },
	},
	FieldProject: {
		Name:      FieldProject,
		Title:     "Project",
		Groupable: true,
		Resource:  "projects",
		compare: func(a, b *WorkPackage) int {
			return cmp.Or(compareFold(a.Project.Name, b.Project.Name), cmp.Compare(a.Project.ID, b.Project.ID))
		},
		groupKey: func(w *WorkPackage) *GroupValue {
			return &GroupValue{Resource: "projects", ID: w.Project.ID, Name: w.Project.Name}
		},
	},
	FieldStatus: {
		Name:      FieldStatus,
		Title:     "Status",
		Groupable: true,
		Resource:  "statuses",
		compare: func(a, b *WorkPackage) int {
			return cmp.Or(cmp.Compare(a.Status.Position, b.Status.Position), cmp.Compare(a.Status.ID, b.Status.ID))
		},
		groupKey: func(w *WorkPackage) *GroupValue {
			return &GroupValue{Resource: "statuses", ID: w.Status.ID, Name: w.Status.Name}
		},
	},
	FieldType: {
		Name:      FieldType,
		Title:     "Type",
		Groupable: true,
		Resource:  "types",
		compare: func(a, b *WorkPackage) int {
			return cmp.Or(cmp.Compare(a.Type.Position, b.Type.Position), cmp.Compare(a.Type.ID, b.Type.ID))
		},
		groupKey: func(w *WorkPackage) *GroupValue {
			return &GroupValue{Resource: "types", ID: w.Type.ID, Name: w.Type.Name}
		},
	},
	FieldPriority: {
		Name:      FieldPriority,
		Title:     "Priority",
		Groupable: true,
		Resource:  "priorities",
		compare: func(a, b *WorkPackage) int {
			return cmp.Or(cmp.Compare(a.Priority.Position, b.Priority.Position), cmp.Compare(a.Priority.ID, b.Priority.ID))
		},
		groupKey: func(w *WorkPackage) *GroupValue {
			return &GroupValue{Resource: "priorities", ID: w.Priority.ID, Name: w.Priority.Name}
		},
	},
	FieldAssignee: {
		Name:      FieldAssignee,
		Title:     "Assignee",
		Groupable: true,
		Resource:  "users",
		compare: func(a, b *WorkPackage) int {
			return compareNullable(a.Assignee, b.Assignee, func(x, y *UserRef) int {
				return cmp.Or(compareFold(x.Name, y.Name), cmp.Compare(x.ID, y.ID))
			})
		},
		groupKey: func(w *WorkPackage) *GroupValue {
			if w.Assignee == nil {
				return nil
			}

			return &GroupValue{Resource: "users", ID: w.Assignee.ID, Name: w.Assignee.Name}
		},
	},
	FieldStartDate: {
		Name:  FieldStartDate,
		Title: "Start date",
		compare: func(a, b *WorkPackage) int {
			return compareNullable(a.StartDate, b.StartDate, compareTime)
		},
	},
	FieldDueDate: {
		Name:  FieldDueDate,
		Title: "Finish date",
		compare: func(a, b *WorkPackage) int {
			return compareNullable(a.DueDate, b.DueDate, compareTime)
		},
	},
	FieldCreatedAt: {
		Name:    FieldCreatedAt,
		Title:   "Created on",
		compare: func(a, b *WorkPackage) int { return a.CreatedAt.Compare(b.CreatedAt) },
	},
	FieldUpdatedAt: {
		Name:    FieldUpdatedAt,
		Title:   "Updated on",
		compare: func(a, b *WorkPackage) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
	},
	FieldEstimatedTime: {
		Name:  FieldEstimatedTime,
		Title: "Estimated time",
		compare: func(a, b *WorkPackage) int {
			return compareNullable(a.EstimatedHours, b.EstimatedHours, func(x, y *float64) int { return cmp.Compare(*x, *y) })
		},
	},
}

// LookupAttribute returns the sortable attribute registered under name.
func LookupAttribute(name string) (Attribute, bool) {
	attr, ok := attributes[name]

	return attr, ok
}

// GroupableAttributes returns the attributes a query can group by, ordered by name.
func GroupableAttributes() []Attribute {
	out := make([]Attribute, 0)

	for _, attr := range attributes {
		if attr.Groupable {
			out = append(out, attr)
		}
	}

	slices.SortFunc(out, func(a, b Attribute) int { return strings.Compare(a.Name, b.Name) })

	return out
}

// Compare orders two work packages by the attribute ascending, unset values last.
func (a Attribute) Compare(x, y *WorkPackage) int {
	return a.compare(x, y)
}

// GroupValueOf returns the partition w falls into, nil for the unset partition.
func (a Attribute) GroupValueOf(w *WorkPackage) *GroupValue {
	if a.groupKey == nil {
		return nil
	}

	return a.groupKey(w)
}

// SortWorkPackages orders elements stably by the given keys.
func SortWorkPackages(elements []*WorkPackage, sorting []SortField) {
	slices.SortStableFunc(elements, func(x, y *WorkPackage) int {
		for _, s := range sorting {
			attr, ok := LookupAttribute(s.Field)
			if !ok {
				continue
			}

			c := attr.Compare(x, y)
			if s.Direction == SortDesc {
				c = -c
			}

			if c != 0 {
				return c
			}
		}

		return 0
	})
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareTime(a, b *time.Time) int {
	return a.Compare(*b)
}

// compareNullable places nil after every value.
func compareNullable[T any](a, b *T, compare func(x, y *T) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return compare(a, b)
	}
}
