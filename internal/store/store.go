package store

import (
	"context"

	"github.com/rochacaio/pokemon-backend/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Pokemons() Pokemons
}

// Pokemons persists Pokemon records. Missing rows are reported as
// model.ErrNotFound and unique violations as model.ConflictError.
type Pokemons interface {
	// Create inserts p with a store-assigned id.
	Create(ctx context.Context, p *model.Pokemon) (*model.Pokemon, error)
	GetByID(ctx context.Context, id int) (*model.Pokemon, error)
	// Update applies the non-nil fields of patch.
	Update(ctx context.Context, id int, patch model.UpdatePokemon) (*model.Pokemon, error)
	Delete(ctx context.Context, id int) error
	// Upsert writes p under p.ID, creating the row if it does not exist.
	Upsert(ctx context.Context, p *model.Pokemon) (*model.Pokemon, error)
	// List returns one page of rows matching f together with the total number
	// of matching rows, both read from the same snapshot.
	List(ctx context.Context, f model.ListFilter) ([]*model.Pokemon, int, error)
}

// Backend is a Store with a connection lifecycle.
type Backend interface {
	Store
	HealthPing(ctx context.Context) error
	Close() error
}
