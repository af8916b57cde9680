package identity

import (
	"context"
	"errors"
	"testing"

	"smartpen/pkg/apperr"
	"smartpen/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type owned struct {
	ID    string `json:"id"`
	Owner string `json:"user_id"`
	Body  string `json:"body"`
}

func TestAllocateIsUniqueAndParseable(t *testing.T) {
	seen := make(map[ID]bool)
	for i := 0; i < 1000; i++ {
		id := Allocate()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true

		parsed, err := ParseID(string(id))
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	}
}

func TestParseIDRejectsGarbageAsNotFound(t *testing.T) {
	for _, s := range []string{"", "1", "64b7f0c2e13e4a5f9a0b1c2d", "not-a-uuid"} {
		_, err := ParseID(s)
		assert.ErrorIs(t, err, apperr.ErrNotFound, s)
	}
}

func TestScope(t *testing.T) {
	assert.Equal(t, store.Filter{"id": "n1", "user_id": "alice"}, Scope("n1", "alice"))
	assert.Equal(t, store.Filter{"user_id": "alice"}, OwnedBy("alice"))
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()
	c := store.NewMemory[owned]()
	id := Allocate()
	_, err := c.Insert(ctx, owned{ID: string(id), Owner: "alice", Body: "x"})
	require.NoError(t, err)

	got, err := Authorize[owned](ctx, c, id, "alice")
	require.NoError(t, err)
	assert.Equal(t, "x", got.Body)

	_, err = Authorize[owned](ctx, c, id, "bob")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = Authorize[owned](ctx, c, Allocate(), "alice")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = Authorize[owned](ctx, c, id, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestTranslate(t *testing.T) {
	assert.ErrorIs(t, Translate(store.ErrNotFound), apperr.ErrNotFound)
	assert.ErrorIs(t, Translate(store.ErrDuplicate), apperr.ErrConflict)

	other := errors.New("boom")
	assert.Equal(t, other, Translate(other))
}
