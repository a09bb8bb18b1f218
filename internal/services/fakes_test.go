package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rochacaio/pokemon-backend/internal/model"
	"github.com/rochacaio/pokemon-backend/internal/store"
)

// --- Fakes ---

type fakeStore struct {
	mu     sync.Mutex
	rows   map[int]*model.Pokemon
	nextID int
	calls  map[string]int
	failOn map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[int]*model.Pokemon{}, nextID: 1, calls: map[string]int{}, failOn: map[string]error{}}
}

func (f *fakeStore) Pokemons() store.Pokemons { return f }

func (f *fakeStore) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeStore) enter(op string) error {
	f.calls[op]++
	return f.failOn[op]
}

func (f *fakeStore) mutations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls["create"] + f.calls["update"] + f.calls["delete"] + f.calls["upsert"]
}

func clone(p *model.Pokemon) *model.Pokemon {
	c := *p
	return &c
}

func (f *fakeStore) Create(_ context.Context, p *model.Pokemon) (*model.Pokemon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("create"); err != nil {
		return nil, err
	}
	for _, r := range f.rows {
		if r.Name == p.Name {
			return nil, model.NewConflictError("name", "exists")
		}
	}
	now := time.Now()
	row := &model.Pokemon{ID: f.nextID, Name: p.Name, Type: p.Type, CreatedAt: now, UpdatedAt: now}
	f.rows[row.ID] = row
	f.nextID++
	return clone(row), nil
}

func (f *fakeStore) GetByID(_ context.Context, id int) (*model.Pokemon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("get"); err != nil {
		return nil, err
	}
	r, ok := f.rows[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return clone(r), nil
}

func (f *fakeStore) Update(_ context.Context, id int, patch model.UpdatePokemon) (*model.Pokemon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("update"); err != nil {
		return nil, err
	}
	r, ok := f.rows[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	if patch.Name != nil {
		r.Name = *patch.Name
	}
	if patch.Type != nil {
		r.Type = *patch.Type
	}
	r.UpdatedAt = time.Now()
	return clone(r), nil
}

func (f *fakeStore) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("delete"); err != nil {
		return err
	}
	if _, ok := f.rows[id]; !ok {
		return model.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeStore) Upsert(_ context.Context, p *model.Pokemon) (*model.Pokemon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("upsert"); err != nil {
		return nil, err
	}
	now := time.Now()
	r, ok := f.rows[p.ID]
	if !ok {
		r = &model.Pokemon{ID: p.ID, CreatedAt: now}
		f.rows[p.ID] = r
	}
	r.Name, r.Type, r.UpdatedAt = p.Name, p.Type, now
	if p.ID >= f.nextID {
		f.nextID = p.ID + 1
	}
	return clone(r), nil
}

func (f *fakeStore) List(_ context.Context, flt model.ListFilter) ([]*model.Pokemon, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("list"); err != nil {
		return nil, 0, err
	}
	var matched []*model.Pokemon
	for _, r := range f.rows {
		if flt.Type != "" && r.Type != flt.Type {
			continue
		}
		if flt.Name != "" && !strings.Contains(r.Name, flt.Name) {
			continue
		}
		matched = append(matched, clone(r))
	}
	sort.Slice(matched, func(i, j int) bool {
		less := matched[i].Name < matched[j].Name
		if flt.SortBy == model.SortByCreatedAt {
			less = matched[i].ID < matched[j].ID
		}
		if flt.SortOrder == model.SortDesc {
			return !less
		}
		return less
	})
	total := len(matched)
	start := flt.Offset()
	if start > total {
		start = total
	}
	end := start + flt.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

type fakeFetcher struct {
	calls int
	resp  map[int]*model.ExternalPokemon
	err   error
}

func (f *fakeFetcher) FetchPokemon(_ context.Context, id int) (*model.ExternalPokemon, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.resp[id]; ok {
		return p, nil
	}
	return nil, model.NewNotFoundError("pokeapi pokemon", id)
}
