package services

import (
	"context"

	"github.com/rochacaio/pokemon-backend/internal/model"
)

// ImportByID copies catalog entry id into the store under the same id,
// creating or overwriting the record. Nothing is written unless the catalog
// answered with a name and at least one type.
func (s *PokemonService) ImportByID(ctx context.Context, id int) (*model.Pokemon, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	ext, err := s.fetcher.FetchPokemon(ctx, id)
	if err != nil {
		if model.IsNotFoundError(err) || model.IsValidationError(err) || model.IsUpstreamError(err) {
			return nil, err
		}
		return nil, model.UpstreamError{Service: "pokeapi", Err: err}
	}

	name := normalize(ext.Name)
	if blank(name) {
		return nil, model.NewValidationError("name", "catalog entry has no name")
	}
	if len(ext.Types) == 0 || blank(ext.Types[0]) {
		return nil, model.NewValidationError("type", "catalog entry has no type")
	}

	p, err := s.store.Pokemons().Upsert(ctx, &model.Pokemon{ID: id, Name: name, Type: normalize(ext.Types[0])})
	if err != nil {
		return nil, s.storeError("upsert", id, err)
	}
	s.cache.InvalidateAll()

	s.log.Info().Int("id", p.ID).Str("name", p.Name).Str("type", p.Type).Msg("pokemon imported")
	return p, nil
}
