// Package sqlite is the local-build store backed by a SQLite file.
// Timestamps are stored as unix milliseconds.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/rochacaio/pokemon-backend/internal/model"
	"github.com/rochacaio/pokemon-backend/internal/store"
)

const pokemonColumns = "id, name, type, created_at, updated_at"

// NewWithDB constructs a SQLite store over an opened database.
func NewWithDB(db *sql.DB) store.Backend { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Pokemons() store.Pokemons { return &pokemons{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying database.
func (s *sqliteStore) Close() error { return s.db.Close() }

type pokemons struct{ db *sql.DB }

type rowScanner interface{ Scan(dest ...any) error }

func scanPokemon(r rowScanner) (*model.Pokemon, error) {
	var (
		p                  model.Pokemon
		created, updatedAt int64
	)
	if err := r.Scan(&p.ID, &p.Name, &p.Type, &created, &updatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = time.UnixMilli(created).UTC()
	p.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &p, nil
}

func nowMillis() int64 { return time.Now().UTC().UnixMilli() }

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func (s *pokemons) Create(ctx context.Context, p *model.Pokemon) (*model.Pokemon, error) {
	now := nowMillis()
	row := s.db.QueryRowContext(ctx, `
        INSERT INTO pokemons (name, type, created_at, updated_at)
        VALUES (?, ?, ?, ?)
        RETURNING `+pokemonColumns, p.Name, p.Type, now, now)
	out, err := scanPokemon(row)
	if err != nil {
		return nil, mapError("create", err)
	}
	return out, nil
}

func (s *pokemons) GetByID(ctx context.Context, id int) (*model.Pokemon, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pokemonColumns+` FROM pokemons WHERE id = ?`, id)
	out, err := scanPokemon(row)
	if err != nil {
		return nil, mapError("get", err)
	}
	return out, nil
}

func (s *pokemons) Update(ctx context.Context, id int, patch model.UpdatePokemon) (*model.Pokemon, error) {
	row := s.db.QueryRowContext(ctx, `
        UPDATE pokemons
        SET name = COALESCE(?, name), type = COALESCE(?, type), updated_at = ?
        WHERE id = ?
        RETURNING `+pokemonColumns, nullable(patch.Name), nullable(patch.Type), nowMillis(), id)
	out, err := scanPokemon(row)
	if err != nil {
		return nil, mapError("update", err)
	}
	return out, nil
}

func (s *pokemons) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pokemons WHERE id = ?`, id)
	if err != nil {
		return mapError("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError("delete", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *pokemons) Upsert(ctx context.Context, p *model.Pokemon) (*model.Pokemon, error) {
	now := nowMillis()
	row := s.db.QueryRowContext(ctx, `
        INSERT INTO pokemons (id, name, type, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            type = excluded.type,
            updated_at = excluded.updated_at
        RETURNING `+pokemonColumns, p.ID, p.Name, p.Type, now, now)
	out, err := scanPokemon(row)
	if err != nil {
		return nil, mapError("upsert", err)
	}
	return out, nil
}

// List reads the count and the page inside one transaction so both see the
// same snapshot.
func (s *pokemons) List(ctx context.Context, f model.ListFilter) ([]*model.Pokemon, int, error) {
	where, args, orderBy := store.ListClauses(f, store.Question)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("list begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM pokemons`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("list count: %w", err)
	}

	pageArgs := append(append([]any{}, args...), f.Limit, f.Offset())
	rows, err := tx.QueryContext(ctx, `SELECT `+pokemonColumns+` FROM pokemons`+where+orderBy+` LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list page: %w", err)
	}
	defer func() { _ = rows.Close() }()

	res := make([]*model.Pokemon, 0, f.Limit)
	for rows.Next() {
		p, err := scanPokemon(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list scan: %w", err)
		}
		res = append(res, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list rows: %w", err)
	}
	return res, total, tx.Commit()
}

func mapError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	if isUniqueViolation(err) {
		field := "id"
		if strings.Contains(err.Error(), "pokemons.name") {
			field = "name"
		}
		return model.NewConflictError(field, "a pokemon with this "+field+" already exists")
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}
