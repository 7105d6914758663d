package model

import "strings"

type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"

	defaultPage uint = 1
	defaultSize uint = 20
)

type (
	SortField struct {
		Field     string
		Direction SortDirection
	}

	Criteria struct {
		spec    Specification
		sorting []SortField
		page    uint
		size    uint
	}
)

// ParseSortDirection accepts asc and desc in any case.
func ParseSortDirection(raw string) (SortDirection, bool) {
	switch strings.ToLower(raw) {
	case "asc":
		return SortAsc, true
	case "desc":
		return SortDesc, true
	default:
		return "", false
	}
}

// Wire is the lower case form used in sortBy parameters.
func (d SortDirection) Wire() string { return strings.ToLower(string(d)) }

func (c Criteria) Spec() Specification  { return c.spec }
func (c Criteria) Sorting() []SortField { return c.sorting }
func (c Criteria) Page() uint           { return c.page }
func (c Criteria) Size() uint           { return c.size }
func (c Criteria) Offset() uint         { return (c.page - 1) * c.size }
func (c Criteria) HasSpec() bool        { return c.spec != nil }
func (c Criteria) HasSorting() bool     { return len(c.sorting) > 0 }
func (c Criteria) HasPagination() bool  { return c.page > 0 && c.size > 0 }

// Unpaged returns the same query over the whole filtered set.
func (c Criteria) Unpaged() Criteria {
	c.page = 0
	c.size = 0

	return c
}
