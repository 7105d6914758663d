package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// FilterChain is an ordered set of filters, unique by name, combined with
// logical AND. Every operation returns a new chain and leaves the receiver
// untouched.
type FilterChain struct {
	filters []Filter
}

type filterBody struct {
	Operator Operator `json:"operator"`
	Values   []string `json:"values"`
}

func NewFilterChain(filters ...Filter) FilterChain {
	var chain FilterChain
	for _, f := range filters {
		chain = chain.Add(f.Name, f.Operator, f.Values...)
	}

	return chain
}

func (c FilterChain) Len() int { return len(c.filters) }

// Filters returns a copy of the chain's filters in order.
func (c FilterChain) Filters() []Filter {
	out := make([]Filter, len(c.filters))
	for i, f := range c.filters {
		out[i] = cloneFilter(f)
	}

	return out
}

func (c FilterChain) Names() []string {
	names := make([]string, len(c.filters))
	for i, f := range c.filters {
		names[i] = f.Name
	}

	return names
}

// Add appends a filter, or replaces the one of the same name in place.
func (c FilterChain) Add(name string, op Operator, values ...string) FilterChain {
	return c.set(Filter{Name: name, Operator: op, Values: values})
}

func (c FilterChain) Remove(name string) FilterChain {
	idx := c.index(name)
	if idx < 0 {
		return c
	}

	filters := slices.Delete(c.clone(), idx, idx+1)
	if len(filters) == 0 {
		return FilterChain{}
	}

	return FilterChain{filters: filters}
}

func (c FilterChain) Find(name string) (Filter, bool) {
	idx := c.index(name)
	if idx < 0 {
		return Filter{}, false
	}

	return cloneFilter(c.filters[idx]), true
}

// Replace transforms the named filter, starting from an empty filter of that
// name when the chain has none. The result keeps the name.
func (c FilterChain) Replace(name string, transform func(Filter) Filter) FilterChain {
	current, ok := c.Find(name)
	if !ok {
		current = Filter{Name: name}
	}

	next := transform(current)
	next.Name = name

	return c.set(next)
}

// Modify transforms an existing filter. It fails with FilterNotFoundError when
// the chain has no filter of that name.
func (c FilterChain) Modify(name string, transform func(Filter) Filter) (FilterChain, error) {
	if c.index(name) < 0 {
		return c, &FilterNotFoundError{Name: name}
	}

	return c.Replace(name, transform), nil
}

// WithValues returns chain with the values of the named filter replaced.
func WithValues(chain FilterChain, name string, values ...string) (FilterChain, error) {
	return chain.Modify(name, func(f Filter) Filter {
		f.Values = values

		return f
	})
}

// Equal reports whether both chains hold the same filters in the same order.
func (c FilterChain) Equal(other FilterChain) bool {
	return slices.EqualFunc(c.filters, other.filters, func(a, b Filter) bool {
		return a.Name == b.Name && a.Operator == b.Operator && slices.Equal(a.Values, b.Values)
	})
}

// Validate checks every filter of the chain.
func (c FilterChain) Validate() error {
	for _, f := range c.filters {
		if err := f.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Apply narrows the criteria being built by every filter in chain order.
func (c FilterChain) Apply(builder *CriteriaBuilder, today time.Time) error {
	for _, f := range c.filters {
		if err := f.Apply(builder, today); err != nil {
			return err
		}
	}

	return nil
}

func (c FilterChain) MarshalJSON() ([]byte, error) {
	entries := make([]map[string]filterBody, len(c.filters))

	for i, f := range c.filters {
		entries[i] = map[string]filterBody{
			f.Name: {Operator: f.Operator, Values: nonNil(f.Values)},
		}
	}

	return json.Marshal(entries)
}

func (c *FilterChain) UnmarshalJSON(data []byte) error {
	parsed, err := decodeFilters(data)
	if err != nil {
		return err
	}

	*c = parsed

	return nil
}

// String is the wire form of the chain.
func (c FilterChain) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return "[]"
	}

	return string(data)
}

// ParseFilters reads the wire form of a chain and validates every filter.
// An empty input is the empty chain.
func ParseFilters(raw string) (FilterChain, error) {
	if len(bytes.TrimSpace([]byte(raw))) == 0 {
		return FilterChain{}, nil
	}

	chain, err := decodeFilters([]byte(raw))
	if err != nil {
		return FilterChain{}, err
	}

	if err := chain.Validate(); err != nil {
		return FilterChain{}, err
	}

	return chain, nil
}

func decodeFilters(data []byte) (FilterChain, error) {
	var entries []map[string]filterBody

	if err := json.Unmarshal(data, &entries); err != nil {
		return FilterChain{}, &InvalidFilterError{Field: "filters", Reason: fmt.Sprintf("malformed filter list: %v", err)}
	}

	var chain FilterChain

	for _, entry := range entries {
		if len(entry) != 1 {
			return FilterChain{}, &InvalidFilterError{Field: "filters", Reason: "each entry must name exactly one filter"}
		}

		for name, body := range entry {
			if chain.index(name) >= 0 {
				return FilterChain{}, invalidFilter(name, "name", "filter is given more than once")
			}

			chain.filters = append(chain.filters, Filter{
				Name:     name,
				Operator: body.Operator,
				Values:   nonNil(body.Values),
			})
		}
	}

	return chain, nil
}

func (c FilterChain) set(f Filter) FilterChain {
	f = cloneFilter(f)
	filters := c.clone()

	if idx := c.index(f.Name); idx >= 0 {
		filters[idx] = f
	} else {
		filters = append(filters, f)
	}

	return FilterChain{filters: filters}
}

func (c FilterChain) index(name string) int {
	return slices.IndexFunc(c.filters, func(f Filter) bool { return f.Name == name })
}

func (c FilterChain) clone() []Filter {
	return slices.Clone(c.filters)
}

func cloneFilter(f Filter) Filter {
	f.Values = nonNil(slices.Clone(f.Values))

	return f
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}

	return values
}
