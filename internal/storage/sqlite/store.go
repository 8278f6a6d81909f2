// Package sqlite keeps drawings and accounts in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/inamate/sketchboard/internal/auth"
	"github.com/inamate/sketchboard/internal/drawing"
)

const schema = `
CREATE TABLE IF NOT EXISTS drawings (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	name TEXT NOT NULL,
	data BLOB,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS drawings_owner ON drawings (owner_id);
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at INTEGER NOT NULL
);`

type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the database at dataSourceName.
func NewStore(ctx context.Context, dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers and keeps :memory: databases
	// shared.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Create(ctx context.Context, d *drawing.Drawing) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO drawings (id, owner_id, name, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		d.ID, d.OwnerID, d.Name, []byte(d.Data), d.CreatedAt.UnixNano(), d.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert drawing: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*drawing.Drawing, error) {
	d := drawing.Drawing{ID: id}
	var created, updated int64
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT owner_id, name, data, created_at, updated_at FROM drawings WHERE id = ?", id).
		Scan(&d.OwnerID, &d.Name, &data, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", id, drawing.ErrNotFound)
		}
		return nil, fmt.Errorf("get drawing: %w", err)
	}
	d.Data = data
	d.CreatedAt = fromNanos(created)
	d.UpdatedAt = fromNanos(updated)
	return &d, nil
}

func (s *Store) List(ctx context.Context, ownerID string) ([]drawing.Drawing, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at, updated_at FROM drawings WHERE owner_id = ?", ownerID)
	if err != nil {
		return nil, fmt.Errorf("list drawings: %w", err)
	}
	defer rows.Close()

	var out []drawing.Drawing
	for rows.Next() {
		d := drawing.Drawing{OwnerID: ownerID}
		var created, updated int64
		if err := rows.Scan(&d.ID, &d.Name, &created, &updated); err != nil {
			return nil, err
		}
		d.CreatedAt = fromNanos(created)
		d.UpdatedAt = fromNanos(updated)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, d *drawing.Drawing) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE drawings SET owner_id = ?, name = ?, data = ?, updated_at = ? WHERE id = ?",
		d.OwnerID, d.Name, []byte(d.Data), d.UpdatedAt.UnixNano(), d.ID)
	if err != nil {
		return fmt.Errorf("update drawing: %w", err)
	}
	return expectOne(res, d.ID)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM drawings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete drawing: %w", err)
	}
	return expectOne(res, id)
}

// CreateAccount reports a taken email as an insert that touched no row.
func (s *Store) CreateAccount(ctx context.Context, a *auth.Account) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO accounts (id, email, display_name, password_hash, created_at) VALUES (?, ?, ?, ?, ?) ON CONFLICT (email) DO NOTHING",
		a.ID, a.Email, a.DisplayName, a.PasswordHash, a.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", a.Email, auth.ErrEmailTaken)
	}
	return nil
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (*auth.Account, error) {
	a := auth.Account{Email: email}
	var created int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, display_name, password_hash, created_at FROM accounts WHERE email = ?", email).
		Scan(&a.ID, &a.DisplayName, &a.PasswordHash, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", email, auth.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	a.CreatedAt = fromNanos(created)
	return &a, nil
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, drawing.ErrNotFound)
	}
	return nil
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
