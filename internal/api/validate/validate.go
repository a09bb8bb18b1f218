package validate

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rochacaio/pokemon-backend/internal/model"
)

// MaxTextLen bounds name and type inputs.
const MaxTextLen = 100

// ID parses a path id. It must be a positive base-10 integer.
func ID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, model.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}

func NonEmpty(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return model.NewValidationError(field, "is required")
	}
	return nil
}

func MaxLen(field string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	if len(*v) > limit {
		return model.NewValidationError(field, fmt.Sprintf("exceeds %d characters", limit))
	}
	return nil
}

// CreatePokemon checks a create body before it reaches the service.
func CreatePokemon(in model.CreatePokemon) error {
	if err := NonEmpty("name", in.Name); err != nil {
		return err
	}
	if err := NonEmpty("type", in.Type); err != nil {
		return err
	}
	if err := MaxLen("name", &in.Name, MaxTextLen); err != nil {
		return err
	}
	return MaxLen("type", &in.Type, MaxTextLen)
}

// UpdatePokemon checks a patch body. At least one field must be present and
// present fields must not be blank.
func UpdatePokemon(in model.UpdatePokemon) error {
	if in.Empty() {
		return model.NewValidationError("body", "at least one of name, type is required")
	}
	if in.Name != nil {
		if err := NonEmpty("name", *in.Name); err != nil {
			return err
		}
	}
	if in.Type != nil {
		if err := NonEmpty("type", *in.Type); err != nil {
			return err
		}
	}
	if err := MaxLen("name", in.Name, MaxTextLen); err != nil {
		return err
	}
	return MaxLen("type", in.Type, MaxTextLen)
}

// ListFilter reads listing parameters from a query string. Absent values are
// left zero for model.ListFilter.Normalize to default; provided values must be
// integers in range.
func ListFilter(q url.Values) (model.ListFilter, error) {
	f := model.ListFilter{
		Type:      q.Get("type"),
		Name:      q.Get("name"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return f, model.NewValidationError("page", "must be an integer >= 1")
		}
		f.Page = n
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > model.MaxLimit {
			return f, model.NewValidationError("limit", fmt.Sprintf("must be an integer between 1 and %d", model.MaxLimit))
		}
		f.Limit = n
	}
	return f.Normalize()
}
