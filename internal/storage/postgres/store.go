// Package postgres keeps drawings and accounts in PostgreSQL tables.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inamate/sketchboard/internal/auth"
	"github.com/inamate/sketchboard/internal/drawing"
)

const schema = `
CREATE TABLE IF NOT EXISTS drawings (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	name TEXT NOT NULL,
	data JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS drawings_owner ON drawings (owner_id);
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);`

type Store struct {
	pool *pgxpool.Pool
}

// NewPool connects to databaseURL and verifies the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewStore connects and ensures the drawings table exists.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := NewPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Create(ctx context.Context, d *drawing.Drawing) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO drawings (id, owner_id, name, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, d.OwnerID, d.Name, []byte(d.Data), d.CreatedAt, d.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("drawing %s already exists", d.ID)
		}
		return fmt.Errorf("insert drawing: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*drawing.Drawing, error) {
	d := drawing.Drawing{ID: id}
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT owner_id, name, data, created_at, updated_at FROM drawings WHERE id = $1`, id).
		Scan(&d.OwnerID, &d.Name, &data, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", id, drawing.ErrNotFound)
		}
		return nil, fmt.Errorf("get drawing: %w", err)
	}
	d.Data = data
	return &d, nil
}

func (s *Store) List(ctx context.Context, ownerID string) ([]drawing.Drawing, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, name, created_at, updated_at FROM drawings WHERE owner_id = $1`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list drawings: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (drawing.Drawing, error) {
		var d drawing.Drawing
		err := row.Scan(&d.ID, &d.OwnerID, &d.Name, &d.CreatedAt, &d.UpdatedAt)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("list drawings: %w", err)
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, d *drawing.Drawing) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE drawings SET owner_id = $2, name = $3, data = $4, updated_at = $5 WHERE id = $1`,
		d.ID, d.OwnerID, d.Name, []byte(d.Data), d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update drawing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", d.ID, drawing.ErrNotFound)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM drawings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete drawing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", id, drawing.ErrNotFound)
	}
	return nil
}

func (s *Store) CreateAccount(ctx context.Context, a *auth.Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (id, email, display_name, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Email, a.DisplayName, a.PasswordHash, a.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", a.Email, auth.ErrEmailTaken)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (*auth.Account, error) {
	a := auth.Account{Email: email}
	err := s.pool.QueryRow(ctx,
		`SELECT id, display_name, password_hash, created_at FROM accounts WHERE email = $1`, email).
		Scan(&a.ID, &a.DisplayName, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", email, auth.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
