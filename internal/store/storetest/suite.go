package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/rochacaio/pokemon-backend/internal/model"
	"github.com/rochacaio/pokemon-backend/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// makeStore must return a clean, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("CRUD", func(t *testing.T) { testCRUD(t, makeStore(t)) })
	t.Run("Upsert", func(t *testing.T) { testUpsert(t, makeStore(t)) })
	t.Run("UpsertKeepsIDsMonotonic", func(t *testing.T) { testUpsertKeepsIDsMonotonic(t, makeStore(t)) })
	t.Run("List", func(t *testing.T) { testList(t, makeStore(t)) })
}

func strPtr(s string) *string { return &s }

func testCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := s.Pokemons()

	created, err := p.Create(ctx, &model.Pokemon{Name: "pikachu", Type: "electric"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID <= 0 || created.CreatedAt.IsZero() {
		t.Fatalf("Create: expected assigned id and timestamps, got %+v", created)
	}

	got, err := p.GetByID(ctx, created.ID)
	if err != nil || got.Name != "pikachu" || got.Type != "electric" {
		t.Fatalf("GetByID: got=%+v err=%v", got, err)
	}

	if _, err := p.Create(ctx, &model.Pokemon{Name: "pikachu", Type: "electric"}); !model.IsConflictError(err) {
		t.Fatalf("duplicate Create: expected conflict, got %v", err)
	}

	updated, err := p.Update(ctx, created.ID, model.UpdatePokemon{Type: strPtr("steel")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "pikachu" || updated.Type != "steel" {
		t.Fatalf("Update: partial patch not applied, got %+v", updated)
	}
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Fatalf("Update: updatedAt went backwards")
	}

	if _, err := p.Update(ctx, 999999, model.UpdatePokemon{Name: strPtr("ghost")}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Update missing: expected ErrNotFound, got %v", err)
	}

	if err := p.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := p.GetByID(ctx, created.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetByID after delete: expected ErrNotFound, got %v", err)
	}
	if err := p.Delete(ctx, created.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Delete missing: expected ErrNotFound, got %v", err)
	}
}

func testUpsert(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := s.Pokemons()

	first, err := p.Upsert(ctx, &model.Pokemon{ID: 1, Name: "bulbasaur", Type: "grass"})
	if err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}
	if first.ID != 1 || first.Name != "bulbasaur" {
		t.Fatalf("Upsert insert: got %+v", first)
	}

	again, err := p.Upsert(ctx, &model.Pokemon{ID: 1, Name: "bulbasaur", Type: "poison"})
	if err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	if again.Type != "poison" || !again.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("Upsert update: expected same row with new type, got %+v", again)
	}

	if _, err := p.Upsert(ctx, &model.Pokemon{ID: 25, Name: "pikachu", Type: "electric"}); err != nil {
		t.Fatalf("Upsert 25: %v", err)
	}
	// Store-assigned ids must not collide with imported ones.
	for _, name := range []string{"a", "b", "c"} {
		c, err := p.Create(ctx, &model.Pokemon{Name: name, Type: "normal"})
		if err != nil {
			t.Fatalf("Create after upsert: %v", err)
		}
		if c.ID == 1 || c.ID == 25 {
			t.Fatalf("Create reused imported id %d", c.ID)
		}
	}
}

// testUpsertKeepsIDsMonotonic: importing a low id must not hand out an id
// that was already drawn, even when the row holding it is gone.
func testUpsertKeepsIDsMonotonic(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := s.Pokemons()

	var last *model.Pokemon
	for _, name := range []string{"a", "b", "c"} {
		c, err := p.Create(ctx, &model.Pokemon{Name: name, Type: "normal"})
		if err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		last = c
	}
	if err := p.Delete(ctx, last.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := p.Upsert(ctx, &model.Pokemon{ID: 1, Name: "bulbasaur", Type: "grass"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	next, err := p.Create(ctx, &model.Pokemon{Name: "d", Type: "normal"})
	if err != nil {
		t.Fatalf("Create after upsert: %v", err)
	}
	if next.ID <= last.ID {
		t.Fatalf("Create after upsert got id %d, want > %d", next.ID, last.ID)
	}
}

func testList(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := s.Pokemons()

	seed := []model.Pokemon{
		{Name: "charmander", Type: "fire"},
		{Name: "charmeleon", Type: "fire"},
		{Name: "charizard", Type: "fire"},
		{Name: "squirtle", Type: "water"},
		{Name: "mr_mime", Type: "psychic"},
	}
	for i := range seed {
		if _, err := p.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("seed %s: %v", seed[i].Name, err)
		}
	}

	list := func(f model.ListFilter) ([]*model.Pokemon, int) {
		t.Helper()
		n, err := f.Normalize()
		if err != nil {
			t.Fatalf("normalize: %v", err)
		}
		items, total, err := p.List(ctx, n)
		if err != nil {
			t.Fatalf("List(%s): %v", n, err)
		}
		return items, total
	}
	names := func(items []*model.Pokemon) []string {
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = it.Name
		}
		return out
	}

	items, total := list(model.ListFilter{})
	if total != 5 || len(items) != 5 || items[0].Name != "charizard" {
		t.Fatalf("List all: total=%d names=%v", total, names(items))
	}

	items, total = list(model.ListFilter{Type: "fire", Limit: 2, Page: 2})
	if total != 3 || len(items) != 1 || items[0].Name != "charmeleon" {
		t.Fatalf("List fire page 2: total=%d names=%v", total, names(items))
	}

	items, total = list(model.ListFilter{Name: "char", SortOrder: "desc"})
	if total != 3 || names(items)[0] != "charmeleon" {
		t.Fatalf("List name desc: total=%d names=%v", total, names(items))
	}

	items, total = list(model.ListFilter{Name: "_"})
	if total != 1 || items[0].Name != "mr_mime" {
		t.Fatalf("List literal underscore: total=%d names=%v", total, names(items))
	}

	items, total = list(model.ListFilter{SortBy: "created_at", Limit: 1})
	if total != 5 || len(items) != 1 || items[0].Name != "charmander" {
		t.Fatalf("List by created_at: total=%d names=%v", total, names(items))
	}

	items, total = list(model.ListFilter{Type: "dragon"})
	if total != 0 || len(items) != 0 {
		t.Fatalf("List no match: total=%d names=%v", total, names(items))
	}

	items, total = list(model.ListFilter{Page: 10})
	if total != 5 || len(items) != 0 {
		t.Fatalf("List past end: total=%d n=%d", total, len(items))
	}
}
