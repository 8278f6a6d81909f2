package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inamate/sketchboard/internal/storage/storetest"
)

func TestStore(t *testing.T) {
	s, err := NewStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	storetest.Run(t, s)
}

func TestAccounts(t *testing.T) {
	s, err := NewStore(context.Background(), filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	storetest.RunAccounts(t, s)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := NewStore(ctx, path)
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO drawings (id, owner_id, name, data, created_at, updated_at) VALUES ('drw_a', 'o', 'n', '[]', 0, 0)")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewStore(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	d, err := s.Get(ctx, "drw_a")
	require.NoError(t, err)
	require.Equal(t, "[]", string(d.Data))
}
