// Package drawing manages saved drawings: named documents owned by a user.
package drawing

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("drawing not found")
	ErrForbidden = errors.New("forbidden")
	ErrInvalid   = errors.New("invalid drawing document")
)

type Drawing struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"ownerId"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Store persists drawings by id. Implementations return ErrNotFound
// (wrapped or bare) for unknown ids. List may leave Data empty.
type Store interface {
	Create(ctx context.Context, d *Drawing) error
	Get(ctx context.Context, id string) (*Drawing, error)
	List(ctx context.Context, ownerID string) ([]Drawing, error)
	Update(ctx context.Context, d *Drawing) error
	Delete(ctx context.Context, id string) error
}
