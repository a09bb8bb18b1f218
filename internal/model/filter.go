package model

import (
	"fmt"
	"strings"
)

const (
	SortByName      = "name"
	SortByCreatedAt = "created_at"

	SortAsc  = "asc"
	SortDesc = "desc"

	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListFilter describes a listing query. After Normalize it is comparable and
// canonical: two logically equal filters are equal structs.
type ListFilter struct {
	Type      string
	Name      string
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Normalize applies defaults, lowercases the text predicates (whitespace is
// part of the predicate) and validates
// ranges. Zero Page/Limit mean "not provided".
func (f ListFilter) Normalize() (ListFilter, error) {
	f.Type = strings.ToLower(f.Type)
	f.Name = strings.ToLower(f.Name)

	switch {
	case f.Page == 0:
		f.Page = DefaultPage
	case f.Page < 1:
		return f, NewValidationError("page", "must be >= 1")
	}

	switch {
	case f.Limit == 0:
		f.Limit = DefaultLimit
	case f.Limit < 1 || f.Limit > MaxLimit:
		return f, NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", MaxLimit))
	}

	f.SortBy = strings.ToLower(strings.TrimSpace(f.SortBy))
	switch f.SortBy {
	case "":
		f.SortBy = SortByName
	case SortByName, SortByCreatedAt:
	default:
		return f, NewValidationError("sortBy", "must be one of name, created_at")
	}

	f.SortOrder = strings.ToLower(strings.TrimSpace(f.SortOrder))
	switch f.SortOrder {
	case "":
		f.SortOrder = SortAsc
	case SortAsc, SortDesc:
	default:
		return f, NewValidationError("sortOrder", "must be one of asc, desc")
	}
	return f, nil
}

// Offset is the number of rows skipped before this page.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// String renders the filter in a fixed field order; used in logs and as the
// singleflight key.
func (f ListFilter) String() string {
	return fmt.Sprintf("type=%q name=%q page=%d limit=%d sort=%s:%s",
		f.Type, f.Name, f.Page, f.Limit, f.SortBy, f.SortOrder)
}
