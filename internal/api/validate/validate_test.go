package validate

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rochacaio/pokemon-backend/internal/model"
)

func strPtr(s string) *string { return &s }

func TestID(t *testing.T) {
	id, err := ID("25")
	require.NoError(t, err)
	assert.Equal(t, 25, id)

	for _, raw := range []string{"", "0", "-3", "abc", "1.5", "9999999999999999999999"} {
		_, err := ID(raw)
		assert.True(t, model.IsValidationError(err), "raw=%q", raw)
	}
}

func TestListFilter_Defaults(t *testing.T) {
	f, err := ListFilter(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, model.ListFilter{
		Page:      model.DefaultPage,
		Limit:     model.DefaultLimit,
		SortBy:    model.SortByName,
		SortOrder: model.SortAsc,
	}, f)
}

func TestListFilter_ParsesAndNormalizes(t *testing.T) {
	q := url.Values{
		"type":      {"Fire"},
		"name":      {"CHAR"},
		"page":      {"2"},
		"limit":     {"5"},
		"sortBy":    {"created_at"},
		"sortOrder": {"DESC"},
	}
	f, err := ListFilter(q)
	require.NoError(t, err)
	assert.Equal(t, "fire", f.Type)
	assert.Equal(t, "char", f.Name)
	assert.Equal(t, 2, f.Page)
	assert.Equal(t, 5, f.Limit)
	assert.Equal(t, model.SortByCreatedAt, f.SortBy)
	assert.Equal(t, model.SortDesc, f.SortOrder)
}

func TestListFilter_Rejects(t *testing.T) {
	cases := []url.Values{
		{"page": {"0"}},
		{"page": {"x"}},
		{"limit": {"0"}},
		{"limit": {"101"}},
		{"limit": {"ten"}},
		{"sortBy": {"weight"}},
		{"sortOrder": {"up"}},
	}
	for _, q := range cases {
		_, err := ListFilter(q)
		assert.True(t, model.IsValidationError(err), "query=%v", q)
	}
}

func TestCreatePokemon(t *testing.T) {
	assert.NoError(t, CreatePokemon(model.CreatePokemon{Name: "pikachu", Type: "electric"}))
	assert.Error(t, CreatePokemon(model.CreatePokemon{Name: " ", Type: "electric"}))
	assert.Error(t, CreatePokemon(model.CreatePokemon{Name: "pikachu"}))
	assert.Error(t, CreatePokemon(model.CreatePokemon{Name: strings.Repeat("a", MaxTextLen+1), Type: "x"}))
}

func TestUpdatePokemon(t *testing.T) {
	assert.NoError(t, UpdatePokemon(model.UpdatePokemon{Type: strPtr("water")}))
	assert.Error(t, UpdatePokemon(model.UpdatePokemon{}))
	assert.Error(t, UpdatePokemon(model.UpdatePokemon{Name: strPtr("")}))
	assert.Error(t, UpdatePokemon(model.UpdatePokemon{Name: strPtr(strings.Repeat("b", MaxTextLen+1))}))
}
