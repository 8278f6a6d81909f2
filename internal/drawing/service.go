package drawing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/scene"
	"github.com/inamate/sketchboard/internal/typeid"
)

type Service struct {
	store    Store
	registry *document.Registry
	now      func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store:    store,
		registry: document.DefaultRegistry(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, name, ownerID string) (*Drawing, error) {
	// Seed an empty one-layer document
	blank, err := document.Save(scene.New())
	if err != nil {
		return nil, fmt.Errorf("encode blank document: %w", err)
	}

	now := s.now()
	d := &Drawing{
		ID:        typeid.NewDrawingID(),
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(name),
		Data:      blank,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create drawing: %w", err)
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id, userID string) (*Drawing, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.OwnerID != userID {
		return nil, ErrForbidden
	}
	return d, nil
}

// List returns the user's drawings without document data, most recently
// updated first.
func (s *Service) List(ctx context.Context, userID string) ([]Drawing, error) {
	drawings, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list drawings: %w", err)
	}
	for i := range drawings {
		drawings[i].Data = nil
	}
	sort.SliceStable(drawings, func(i, j int) bool {
		return drawings[i].UpdatedAt.After(drawings[j].UpdatedAt)
	})
	return drawings, nil
}

func (s *Service) Rename(ctx context.Context, id, userID, name string) (*Drawing, error) {
	d, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	d.Name = strings.TrimSpace(name)
	d.UpdatedAt = s.now()
	if err := s.store.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("rename drawing: %w", err)
	}
	return d, nil
}

// Save replaces the document of a drawing the user owns.
func (s *Service) Save(ctx context.Context, id, userID string, data []byte) (*Drawing, error) {
	d, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := s.write(ctx, d, data); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// ReadDocument returns a drawing's document without an ownership check.
// Callers are expected to have authorized access already.
func (s *Service) ReadDocument(ctx context.Context, id string) ([]byte, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return d.Data, nil
}

// WriteDocument stores a document without an ownership check.
func (s *Service) WriteDocument(ctx context.Context, id string, data []byte) error {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.write(ctx, d, data)
}

// write normalizes data through the loader so that only records that
// decode are persisted.
func (s *Service) write(ctx context.Context, d *Drawing, data []byte) error {
	res, err := document.Load(data, document.Options{Registry: s.registry})
	if err != nil {
		if errors.Is(err, document.ErrMalformed) {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return err
	}
	if len(res.Warnings) > 0 {
		slog.Warn("saving drawing with skipped shapes", "drawing", d.ID, "skipped", len(res.Warnings))
	}
	normalized, err := document.Encode(res.Layers)
	if err != nil {
		return err
	}

	d.Data = normalized
	d.UpdatedAt = s.now()
	if err := s.store.Update(ctx, d); err != nil {
		return fmt.Errorf("save drawing: %w", err)
	}
	return nil
}
