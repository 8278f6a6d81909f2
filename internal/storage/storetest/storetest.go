// Package storetest checks that a drawing.Store or auth.Accounts behaves
// like the others.
package storetest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/sketchboard/internal/auth"
	"github.com/inamate/sketchboard/internal/drawing"
	"github.com/inamate/sketchboard/internal/typeid"
)

func newDrawing(owner, name string, at time.Time) *drawing.Drawing {
	return &drawing.Drawing{
		ID:        typeid.NewDrawingID(),
		OwnerID:   owner,
		Name:      name,
		Data:      json.RawMessage(`[{"id":"layer_1","name":"Layer 1","visible":true,"opacity":1,"shapes":[]}]`),
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// Run exercises the full Store contract against s, which must start empty.
func Run(t *testing.T, s drawing.Store) {
	t.Helper()
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("CreateGet", func(t *testing.T) {
		d := newDrawing("alice", "Sketch", at)
		require.NoError(t, s.Create(ctx, d))

		got, err := s.Get(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, d.ID, got.ID)
		assert.Equal(t, "alice", got.OwnerID)
		assert.Equal(t, "Sketch", got.Name)
		assert.JSONEq(t, string(d.Data), string(got.Data))
		assert.True(t, at.Equal(got.CreatedAt), "created %v", got.CreatedAt)
		assert.True(t, at.Equal(got.UpdatedAt), "updated %v", got.UpdatedAt)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.Get(ctx, typeid.NewDrawingID())
		assert.ErrorIs(t, err, drawing.ErrNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		d := newDrawing("alice", "Before", at)
		require.NoError(t, s.Create(ctx, d))

		d.Name = "After"
		d.Data = json.RawMessage(`[]`)
		d.UpdatedAt = at.Add(time.Hour)
		require.NoError(t, s.Update(ctx, d))

		got, err := s.Get(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, "After", got.Name)
		assert.JSONEq(t, `[]`, string(got.Data))
		assert.True(t, at.Equal(got.CreatedAt))
		assert.True(t, at.Add(time.Hour).Equal(got.UpdatedAt))

		missing := newDrawing("alice", "Ghost", at)
		assert.ErrorIs(t, s.Update(ctx, missing), drawing.ErrNotFound)
	})

	t.Run("ListByOwner", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.NoError(t, s.Create(ctx, newDrawing("bob", "Bob's", at)))
		}
		require.NoError(t, s.Create(ctx, newDrawing("carol", "Carol's", at)))

		bobs, err := s.List(ctx, "bob")
		require.NoError(t, err)
		assert.Len(t, bobs, 3)
		for _, d := range bobs {
			assert.Equal(t, "bob", d.OwnerID)
		}

		none, err := s.List(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("Delete", func(t *testing.T) {
		d := newDrawing("dave", "Doomed", at)
		require.NoError(t, s.Create(ctx, d))
		require.NoError(t, s.Delete(ctx, d.ID))

		_, err := s.Get(ctx, d.ID)
		assert.ErrorIs(t, err, drawing.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, d.ID), drawing.ErrNotFound)
	})
}

// RunAccounts exercises the auth.Accounts contract against a, which must
// start empty.
func RunAccounts(t *testing.T, a auth.Accounts) {
	t.Helper()
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	acct := &auth.Account{
		ID:           typeid.NewUserID(),
		Email:        "ada@example.com",
		DisplayName:  "Ada",
		PasswordHash: "$2a$04$hash",
		CreatedAt:    at,
	}
	require.NoError(t, a.CreateAccount(ctx, acct))

	got, err := a.AccountByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, got.ID)
	assert.Equal(t, "Ada", got.DisplayName)
	assert.Equal(t, acct.PasswordHash, got.PasswordHash)
	assert.True(t, at.Equal(got.CreatedAt), "created %v", got.CreatedAt)

	dup := *acct
	dup.ID = typeid.NewUserID()
	assert.ErrorIs(t, a.CreateAccount(ctx, &dup), auth.ErrEmailTaken)

	_, err = a.AccountByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, auth.ErrAccountNotFound)
}
