package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the viewer cannot see the container, so
	// its existence is not disclosed.
	ErrNotFound = errors.New("the requested resource could not be found")
	// ErrForbidden is returned when the container is visible but the viewer
	// may not view its work packages.
	ErrForbidden = errors.New("you are not authorized to access this resource")

	ErrUnauthenticated    = errors.New("unknown or missing credentials")
	ErrDatabaseConnection = errors.New("database connection error")
	ErrDatabaseQuery      = errors.New("database query error")
)

// InvalidFilterError reports a filter, sort or group parameter that cannot be
// applied. Field names the offending part: name, operator, values, sortBy,
// groupBy, offset or pageSize.
type InvalidFilterError struct {
	Filter string
	Field  string
	Reason string
}

func (e *InvalidFilterError) Error() string {
	if e.Filter == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}

	return fmt.Sprintf("invalid filter %q: %s: %s", e.Filter, e.Field, e.Reason)
}

func invalidFilter(filter, field, format string, args ...any) *InvalidFilterError {
	return &InvalidFilterError{
		Filter: filter,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

// FilterNotFoundError is returned by FilterChain.Modify for an absent name.
type FilterNotFoundError struct {
	Name string
}

func (e *FilterNotFoundError) Error() string {
	return fmt.Sprintf("filter %q not found in chain", e.Name)
}
