package model

import "time"

// Pokemon is the single record type managed by the service.
// Name and Type are always stored lowercase.
type Pokemon struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreatePokemon is the input for creating a record.
type CreatePokemon struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// UpdatePokemon carries the fields to change; nil fields are left untouched.
type UpdatePokemon struct {
	Name *string `json:"name,omitempty"`
	Type *string `json:"type,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (u UpdatePokemon) Empty() bool {
	return u.Name == nil && u.Type == nil
}

// ExternalPokemon is what the external catalog reports for an id.
// Types keeps the catalog's order; the first entry is the primary type.
type ExternalPokemon struct {
	ID    int
	Name  string
	Types []string
}

// PageMeta describes a listing page.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Page is one page of a filtered listing.
type Page struct {
	Data []*Pokemon `json:"data"`
	Meta PageMeta   `json:"meta"`
}

// NewPage assembles a page for an already normalized filter. Data is never nil
// so it renders as an empty JSON array.
func NewPage(items []*Pokemon, total int, f ListFilter) *Page {
	if items == nil {
		items = []*Pokemon{}
	}
	return &Page{
		Data: items,
		Meta: PageMeta{
			Total:      total,
			Page:       f.Page,
			Limit:      f.Limit,
			TotalPages: TotalPages(total, f.Limit),
		},
	}
}

// TotalPages returns ceil(total/limit), or 0 when there is nothing to page.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
