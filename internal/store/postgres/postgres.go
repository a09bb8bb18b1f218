package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/rochacaio/pokemon-backend/internal/model"
	"github.com/rochacaio/pokemon-backend/internal/store"
)

const pokemonColumns = "id, name, type, created_at, updated_at"

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Bootstrap verifies connectivity and applies schema migrations.
func Bootstrap(ctx context.Context, dsn string) error {
	db, err := Open(ctx, dsn)
	if err != nil {
		return err
	}
	_ = db.Close()
	return Migrate(dsn)
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Backend { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Pokemons() store.Pokemons { return &pokemons{db: s.db} }

// HealthPing implements health.HealthPinger for Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *pgStore) Close() error { return s.db.Close() }

type pokemons struct{ db *sql.DB }

type rowScanner interface{ Scan(dest ...any) error }

func scanPokemon(r rowScanner) (*model.Pokemon, error) {
	var p model.Pokemon
	if err := r.Scan(&p.ID, &p.Name, &p.Type, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func (s *pokemons) Create(ctx context.Context, p *model.Pokemon) (*model.Pokemon, error) {
	row := s.db.QueryRowContext(ctx, `
        INSERT INTO pokemons (name, type)
        VALUES ($1, $2)
        RETURNING `+pokemonColumns, p.Name, p.Type)
	out, err := scanPokemon(row)
	if err != nil {
		return nil, mapError("create", err)
	}
	return out, nil
}

func (s *pokemons) GetByID(ctx context.Context, id int) (*model.Pokemon, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pokemonColumns+` FROM pokemons WHERE id = $1`, id)
	out, err := scanPokemon(row)
	if err != nil {
		return nil, mapError("get", err)
	}
	return out, nil
}

func (s *pokemons) Update(ctx context.Context, id int, patch model.UpdatePokemon) (*model.Pokemon, error) {
	row := s.db.QueryRowContext(ctx, `
        UPDATE pokemons
        SET name = COALESCE($1::text, name), type = COALESCE($2::text, type), updated_at = now()
        WHERE id = $3
        RETURNING `+pokemonColumns, nullable(patch.Name), nullable(patch.Type), id)
	out, err := scanPokemon(row)
	if err != nil {
		return nil, mapError("update", err)
	}
	return out, nil
}

func (s *pokemons) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pokemons WHERE id = $1`, id)
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

// Upsert writes an explicitly identified row and advances the identity
// sequence past it so later store-assigned ids cannot collide. The table lock
// waits out in-flight creates, whose drawn ids must be visible to MAX(id),
// and keeps new ones from drawing ids until the sequence is moved. The
// sequence only ever moves forward.
func (s *pokemons) Upsert(ctx context.Context, p *model.Pokemon) (*model.Pokemon, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("upsert begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE pokemons IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, fmt.Errorf("upsert lock: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
        INSERT INTO pokemons (id, name, type)
        VALUES ($1, $2, $3)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            type = EXCLUDED.type,
            updated_at = now()
        RETURNING `+pokemonColumns, p.ID, p.Name, p.Type)
	out, err := scanPokemon(row)
	if err != nil {
		return nil, mapError("upsert", err)
	}

	if _, err := tx.ExecContext(ctx, `
        SELECT setval(seq, GREATEST(
                   COALESCE((SELECT MAX(id) FROM pokemons), 0),
                   COALESCE(pg_sequence_last_value(seq), 0),
                   1))
        FROM (SELECT pg_get_serial_sequence('pokemons', 'id')::regclass AS seq) s`); err != nil {
		return nil, fmt.Errorf("upsert resync sequence: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, mapError("upsert", err)
	}
	return out, nil
}

// List reads the count and the page in one read-only repeatable-read
// transaction so both see the same snapshot.
func (s *pokemons) List(ctx context.Context, f model.ListFilter) ([]*model.Pokemon, int, error) {
	where, args, orderBy := store.ListClauses(f, store.Dollar)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("list begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM pokemons`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("list count: %w", err)
	}

	n := len(args)
	pageArgs := append(append([]any{}, args...), f.Limit, f.Offset())
	q := `SELECT ` + pokemonColumns + ` FROM pokemons` + where + orderBy +
		` LIMIT ` + store.Dollar(n+1) + ` OFFSET ` + store.Dollar(n+2)
	rows, err := tx.QueryContext(ctx, q, pageArgs...)
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
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		field := "id"
		if pgErr.ConstraintName == "pokemons_name_key" {
			field = "name"
		}
		return model.NewConflictError(field, "a pokemon with this "+field+" already exists")
	}
	return fmt.Errorf("%s: %w", op, err)
}
