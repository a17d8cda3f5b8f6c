// Package storetest keeps the test suite shared by every store.Store.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estimation/store"
)

// TestStore checks the Get/Put contract of s. The store must be empty.
func TestStore(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, "absent")
	assert.True(t, errors.Is(err, store.ErrNotFound), "Get(absent) error = %v", err)

	require.NoError(t, s.Put(ctx, "villa", []byte(`{"id":"v1"}`)))
	got, err := s.Get(ctx, "villa")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"v1"}`, string(got))

	require.NoError(t, s.Put(ctx, "villa", []byte(`{"id":"v2"}`)))
	got, err = s.Get(ctx, "villa")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"v2"}`, string(got), "last write wins")

	require.NoError(t, s.Put(ctx, "atelier", []byte(`{"id":"a1"}`)))
	got, err = s.Get(ctx, "villa")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"v2"}`, string(got), "keys are independent")

	if l, ok := s.(store.Lister); ok {
		keys, err := l.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"atelier", "villa"}, keys)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, s.Put(cancelled, "villa", []byte(`{}`)), "Put with a cancelled context")
	got, err = s.Get(ctx, "villa")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"v2"}`, string(got))
}
