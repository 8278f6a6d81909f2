// Package memory keeps drawings and accounts in process memory.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/inamate/sketchboard/internal/auth"
	"github.com/inamate/sketchboard/internal/drawing"
)

type Store struct {
	mu       sync.RWMutex
	drawings map[string]drawing.Drawing
	accounts map[string]auth.Account // by email
}

func NewStore() *Store {
	return &Store{
		drawings: make(map[string]drawing.Drawing),
		accounts: make(map[string]auth.Account),
	}
}

func clone(d drawing.Drawing) drawing.Drawing {
	d.Data = slices.Clone(d.Data)
	return d
}

func (s *Store) Create(ctx context.Context, d *drawing.Drawing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drawings[d.ID]; ok {
		return fmt.Errorf("drawing %s already exists", d.ID)
	}
	s.drawings[d.ID] = clone(*d)
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*drawing.Drawing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drawings[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, drawing.ErrNotFound)
	}
	d = clone(d)
	return &d, nil
}

func (s *Store) List(ctx context.Context, ownerID string) ([]drawing.Drawing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []drawing.Drawing
	for _, d := range s.drawings {
		if d.OwnerID == ownerID {
			d.Data = nil
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, d *drawing.Drawing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.drawings[d.ID]
	if !ok {
		return fmt.Errorf("%s: %w", d.ID, drawing.ErrNotFound)
	}
	next := clone(*d)
	next.CreatedAt = prev.CreatedAt
	s.drawings[d.ID] = next
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drawings[id]; !ok {
		return fmt.Errorf("%s: %w", id, drawing.ErrNotFound)
	}
	delete(s.drawings, id)
	return nil
}

func (s *Store) CreateAccount(ctx context.Context, a *auth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.Email]; ok {
		return fmt.Errorf("%s: %w", a.Email, auth.ErrEmailTaken)
	}
	s.accounts[a.Email] = *a
	return nil
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[email]
	if !ok {
		return nil, fmt.Errorf("%s: %w", email, auth.ErrAccountNotFound)
	}
	return &a, nil
}

func (s *Store) Close() error { return nil }
