package model

// Scope is the set of work packages a query starts from. A container scope
// is bound to one project. After visibility narrowing it also carries the
// projects whose work packages may be returned.
type Scope struct {
	containerID *int64
	projectIDs  []int64
	narrowed    bool
}

// GlobalScope spans every project.
func GlobalScope() Scope {
	return Scope{}
}

func ProjectScope(projectID int64) Scope {
	return Scope{containerID: &projectID}
}

func (s Scope) Container() (int64, bool) {
	if s.containerID == nil {
		return 0, false
	}

	return *s.containerID, true
}

// Narrow restricts the scope to work packages of the given projects.
func (s Scope) Narrow(projectIDs []int64) Scope {
	ids := make([]int64, len(projectIDs))
	copy(ids, projectIDs)

	s.projectIDs = ids
	s.narrowed = true

	return s
}

func (s Scope) ProjectIDs() []int64 { return s.projectIDs }
func (s Scope) IsNarrowed() bool    { return s.narrowed }

// Specification restricts work packages to the scope. A scope that was never
// narrowed matches nothing, so an unscoped query cannot leak records.
func (s Scope) Specification() Specification {
	values := make([]any, len(s.projectIDs))
	for i, id := range s.projectIDs {
		values[i] = id
	}

	return In(FieldProject, values...)
}
