// Package filesystem keeps each drawing as a JSON file in one directory.
package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/inamate/sketchboard/internal/drawing"
	"github.com/inamate/sketchboard/internal/typeid"
)

type Store struct {
	basePath string
}

func NewStore(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

// path maps an id to its file. Only well-formed drawing ids are accepted,
// so an id can never name a path outside basePath.
func (s *Store) path(id string) (string, error) {
	if err := typeid.Validate(id, typeid.PrefixDrawing); err != nil {
		return "", fmt.Errorf("%w: %v", drawing.ErrNotFound, err)
	}
	return filepath.Join(s.basePath, id+".json"), nil
}

func (s *Store) read(p string) (*drawing.Drawing, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), drawing.ErrNotFound)
		}
		return nil, err
	}
	var d drawing.Drawing
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(p), err)
	}
	return &d, nil
}

// write replaces the file atomically.
func (s *Store) write(p string, d *drawing.Drawing) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode drawing: %w", err)
	}
	tmp, err := os.CreateTemp(s.basePath, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p)
}

func (s *Store) Create(ctx context.Context, d *drawing.Drawing) error {
	p, err := s.path(d.ID)
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err == nil {
		return fmt.Errorf("drawing %s already exists", d.ID)
	}
	return s.write(p, d)
}

func (s *Store) Get(ctx context.Context, id string) (*drawing.Drawing, error) {
	p, err := s.path(id)
	if err != nil {
		return nil, err
	}
	return s.read(p)
}

func (s *Store) List(ctx context.Context, ownerID string) ([]drawing.Drawing, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, err
	}
	var out []drawing.Drawing
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		d, err := s.read(filepath.Join(s.basePath, e.Name()))
		if err != nil {
			slog.Warn("skipping unreadable drawing", "file", e.Name(), "error", err)
			continue
		}
		if d.OwnerID == ownerID {
			d.Data = nil
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, d *drawing.Drawing) error {
	p, err := s.path(d.ID)
	if err != nil {
		return err
	}
	prev, err := s.read(p)
	if err != nil {
		return err
	}
	next := *d
	next.CreatedAt = prev.CreatedAt
	return s.write(p, &next)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", id, drawing.ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *Store) Close() error { return nil }
