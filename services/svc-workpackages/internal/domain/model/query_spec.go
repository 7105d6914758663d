package model

import (
	"encoding/json"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

type (
	// QueryParams are the raw query parameters of a work package request.
	QueryParams struct {
		Filters  string
		SortBy   string
		GroupBy  string
		ShowSums bool
		Offset   uint
		PageSize uint
	}

	// QuerySpec is a validated work package query.
	QuerySpec struct {
		Filters  FilterChain
		SortBy   []SortField
		GroupBy  string
		ShowSums bool
		// Offset is the 1-based page number.
		Offset   uint
		PageSize uint
	}

	PageLimits struct {
		Default uint
		Max     uint
	}
)

var DefaultSortBy = []SortField{{Field: FieldID, Direction: SortAsc}}

// maxRowOffset is the largest row offset storage accepts.
const maxRowOffset uint64 = math.MaxInt64

// ParseQuerySpec validates raw parameters. Offset defaults to the first page
// and page size to limits.Default, capped at limits.Max.
func ParseQuerySpec(params QueryParams, limits PageLimits) (QuerySpec, error) {
	filters, err := ParseFilters(params.Filters)
	if err != nil {
		return QuerySpec{}, err
	}

	sortBy, err := ParseSortBy(params.SortBy)
	if err != nil {
		return QuerySpec{}, err
	}

	groupBy := strings.TrimSpace(params.GroupBy)
	if groupBy != "" {
		if attr, ok := LookupAttribute(groupBy); !ok || !attr.Groupable {
			return QuerySpec{}, &InvalidFilterError{Field: "groupBy", Reason: "cannot group by " + groupBy}
		}
	}

	spec := QuerySpec{
		Filters:  filters,
		SortBy:   sortBy,
		GroupBy:  groupBy,
		ShowSums: params.ShowSums,
		Offset:   max(params.Offset, defaultPage),
		PageSize: params.PageSize,
	}

	if spec.PageSize == 0 {
		spec.PageSize = max(limits.Default, 1)
	}

	if limits.Max > 0 && spec.PageSize > limits.Max {
		spec.PageSize = limits.Max
	}

	if uint64(spec.Offset-1) > maxRowOffset/uint64(spec.PageSize) {
		return QuerySpec{}, &InvalidFilterError{Field: "offset", Reason: "is beyond the last addressable page"}
	}

	return spec, nil
}

// ParseSortBy reads [["attribute","asc|desc"], ...]. Empty input yields the
// default sort by id.
func ParseSortBy(raw string) ([]SortField, error) {
	if strings.TrimSpace(raw) == "" {
		return slices.Clone(DefaultSortBy), nil
	}

	var pairs [][]string
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		return nil, &InvalidFilterError{Field: "sortBy", Reason: "expected a list of [attribute, direction] pairs"}
	}

	fields := make([]SortField, 0, len(pairs))

	for _, pair := range pairs {
		if len(pair) != 2 {
			return nil, &InvalidFilterError{Field: "sortBy", Reason: "expected a list of [attribute, direction] pairs"}
		}

		if _, ok := LookupAttribute(pair[0]); !ok {
			return nil, &InvalidFilterError{Field: "sortBy", Reason: "cannot sort by " + pair[0]}
		}

		direction, ok := ParseSortDirection(pair[1])
		if !ok {
			return nil, &InvalidFilterError{Field: "sortBy", Reason: "direction must be asc or desc"}
		}

		fields = append(fields, SortField{Field: pair[0], Direction: direction})
	}

	if len(fields) == 0 {
		return slices.Clone(DefaultSortBy), nil
	}

	return fields, nil
}

func (q QuerySpec) IsGrouped() bool { return q.GroupBy != "" }

func (q QuerySpec) SortByWire() string {
	pairs := make([][]string, len(q.SortBy))
	for i, s := range q.SortBy {
		pairs[i] = []string{s.Field, s.Direction.Wire()}
	}

	data, _ := json.Marshal(pairs)

	return string(data)
}

// Values encodes the query back into request parameters.
func (q QuerySpec) Values() url.Values {
	values := url.Values{}

	values.Set("filters", q.Filters.String())
	values.Set("sortBy", q.SortByWire())
	values.Set("offset", strconv.FormatUint(uint64(q.Offset), 10))
	values.Set("pageSize", strconv.FormatUint(uint64(q.PageSize), 10))

	if q.IsGrouped() {
		values.Set("groupBy", q.GroupBy)
	}

	if q.ShowSums {
		values.Set("showSums", "true")
	}

	return values
}
