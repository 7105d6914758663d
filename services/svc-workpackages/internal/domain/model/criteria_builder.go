package model

type CriteriaBuilder struct {
	specs   []Specification
	sorting []SortField
	page    uint
	size    uint
}

func NewCriteria() *CriteriaBuilder {
	return &CriteriaBuilder{
		specs: make([]Specification, 0),
		page:  defaultPage,
		size:  defaultSize,
	}
}

func (b *CriteriaBuilder) WhereSpec(spec Specification) *CriteriaBuilder {
	if spec != nil {
		b.specs = append(b.specs, spec)
	}

	return b
}

// OrderBy appends a sort key. Keys already present are ignored, so the first
// direction given for a field wins.
func (b *CriteriaBuilder) OrderBy(field string, direction SortDirection) *CriteriaBuilder {
	if b.hasSortKey(field) {
		return b
	}

	b.sorting = append(b.sorting, SortField{Field: field, Direction: direction})

	return b
}

func (b *CriteriaBuilder) hasSortKey(field string) bool {
	for _, s := range b.sorting {
		if s.Field == field {
			return true
		}
	}

	return false
}

func (b *CriteriaBuilder) Paginate(page, size uint) *CriteriaBuilder {
	if page > 0 {
		b.page = page
	}

	if size > 0 {
		b.size = size
	}

	return b
}

func (b *CriteriaBuilder) Build() Criteria {
	var rootSpec Specification

	if len(b.specs) == 1 {
		rootSpec = b.specs[0]
	} else if len(b.specs) > 1 {
		rootSpec = Must(b.specs...)
	}

	return Criteria{
		spec:    rootSpec,
		sorting: b.sorting,
		page:    b.page,
		size:    b.size,
	}
}
