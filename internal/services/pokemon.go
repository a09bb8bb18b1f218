package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rochacaio/pokemon-backend/internal/listcache"
	"github.com/rochacaio/pokemon-backend/internal/model"
	"github.com/rochacaio/pokemon-backend/internal/store"
)

const resourcePokemon = "pokemon"

// Fetcher looks Pokemon up in an external catalog by id.
type Fetcher interface {
	FetchPokemon(ctx context.Context, id int) (*model.ExternalPokemon, error)
}

// PokemonService owns the listing cache. Every mutation writes to the store
// first and invalidates the cache after the write succeeded.
type PokemonService struct {
	store   store.Store
	cache   *listcache.Cache
	fetcher Fetcher
	log     zerolog.Logger
}

func NewPokemonService(s store.Store, cache *listcache.Cache, fetcher Fetcher, log zerolog.Logger) *PokemonService {
	return &PokemonService{store: s, cache: cache, fetcher: fetcher, log: log}
}

// normalize lowercases s. Surrounding whitespace is kept as sent.
func normalize(s string) string {
	return strings.ToLower(s)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func validateID(id int) error {
	if id <= 0 {
		return model.NewValidationError("id", "must be a positive integer")
	}
	return nil
}

func (s *PokemonService) Create(ctx context.Context, in model.CreatePokemon) (*model.Pokemon, error) {
	p := &model.Pokemon{Name: normalize(in.Name), Type: normalize(in.Type)}
	if blank(p.Name) {
		return nil, model.NewValidationError("name", "must not be empty")
	}
	if blank(p.Type) {
		return nil, model.NewValidationError("type", "must not be empty")
	}

	created, err := s.store.Pokemons().Create(ctx, p)
	if err != nil {
		return nil, s.storeError("create", 0, err)
	}
	s.cache.InvalidateAll()
	return created, nil
}

// FindMany serves a listing page, from the cache when possible.
func (s *PokemonService) FindMany(ctx context.Context, filter model.ListFilter) (*model.Page, error) {
	f, err := filter.Normalize()
	if err != nil {
		return nil, err
	}
	return s.cache.GetOrLoad(ctx, f, func(ctx context.Context) (*model.Page, error) {
		items, total, err := s.store.Pokemons().List(ctx, f)
		if err != nil {
			return nil, s.storeError("list", 0, err)
		}
		return model.NewPage(items, total, f), nil
	})
}

func (s *PokemonService) FindOne(ctx context.Context, id int) (*model.Pokemon, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	p, err := s.store.Pokemons().GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError("get", id, err)
	}
	return p, nil
}

func (s *PokemonService) Update(ctx context.Context, id int, in model.UpdatePokemon) (*model.Pokemon, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if in.Empty() {
		return nil, model.NewValidationError("body", "at least one of name, type is required")
	}
	var patch model.UpdatePokemon
	if in.Name != nil {
		name := normalize(*in.Name)
		if blank(name) {
			return nil, model.NewValidationError("name", "must not be empty")
		}
		patch.Name = &name
	}
	if in.Type != nil {
		typ := normalize(*in.Type)
		if blank(typ) {
			return nil, model.NewValidationError("type", "must not be empty")
		}
		patch.Type = &typ
	}

	if _, err := s.store.Pokemons().GetByID(ctx, id); err != nil {
		return nil, s.storeError("get", id, err)
	}
	updated, err := s.store.Pokemons().Update(ctx, id, patch)
	if err != nil {
		return nil, s.storeError("update", id, err)
	}
	s.cache.InvalidateAll()
	return updated, nil
}

func (s *PokemonService) Delete(ctx context.Context, id int) error {
	if err := validateID(id); err != nil {
		return err
	}
	if _, err := s.store.Pokemons().GetByID(ctx, id); err != nil {
		return s.storeError("get", id, err)
	}
	if err := s.store.Pokemons().Delete(ctx, id); err != nil {
		return s.storeError("delete", id, err)
	}
	s.cache.InvalidateAll()
	return nil
}

// storeError classifies a store failure. Missing rows and unique violations
// keep their kind; anything else becomes a logged StoreError.
func (s *PokemonService) storeError(op string, id int, err error) error {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return model.NewNotFoundError(resourcePokemon, id)
	case model.IsConflictError(err):
		return err
	}
	se := model.NewStoreError(op, err)
	s.log.Error().Stack().Err(se.Err).
		Str("op", op).
		Int("id", id).
		Msg("store operation failed")
	return se
}
