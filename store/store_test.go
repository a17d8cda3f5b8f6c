package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estimation/store"
	"estimation/store/storetest"
	"estimation/testhelpers"
)

func TestMemory(t *testing.T) {
	storetest.TestStore(t, store.NewMemory())
}

func TestBolt(t *testing.T) {
	s, err := store.OpenBolt(filepath.Join(t.TempDir(), "estimation.db"))
	require.NoError(t, err)
	defer s.Close()

	storetest.TestStore(t, s)
}

func TestBolt_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estimation.db")
	s, err := store.OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), "villa", []byte(`{"id":"v1"}`)))
	require.NoError(t, s.Close())

	s, err = store.OpenBolt(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(context.Background(), "villa")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"v1"}`, string(got))
}

func TestRecords(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	storetest.TestStore(t, store.NewRecords(app))
}

func TestRecords_HooksPublishChanges(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	s := store.NewRecords(app)
	broker := store.NewBroker()
	s.BindHooks(broker, nil)

	var (
		mu      sync.Mutex
		changes []store.Change
	)
	cancel := broker.Subscribe("villa", func(c store.Change) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, c)
	})
	defer cancel()

	require.NoError(t, s.Put(context.Background(), "villa", []byte(`{"id":"v1"}`)))
	require.NoError(t, s.Put(context.Background(), "villa", []byte(`{"id":"v2"}`)))
	require.NoError(t, s.Put(context.Background(), "atelier", []byte(`{"id":"a1"}`)))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 2)
	assert.Equal(t, "villa", changes[1].Key)
	assert.Empty(t, changes[1].Origin)
	assert.JSONEq(t, `{"id":"v2"}`, string(changes[1].Snapshot))
}

func TestMemory_FailPuts(t *testing.T) {
	m := store.NewMemory()
	boom := errors.New("disk full")
	m.FailPuts(boom)

	err := m.Put(context.Background(), "k", []byte("{}"))
	assert.ErrorIs(t, err, boom)
	_, err = m.Get(context.Background(), "k")
	assert.ErrorIs(t, err, store.ErrNotFound)

	m.FailPuts(nil)
	require.NoError(t, m.Put(context.Background(), "k", []byte("{}")))
	assert.Equal(t, 2, m.Puts())
}

func TestBroker(t *testing.T) {
	b := store.NewBroker()
	var got []string

	cancelA := b.Subscribe("villa", func(c store.Change) { got = append(got, "a:"+c.Origin) })
	cancelB := b.Subscribe("villa", func(c store.Change) { got = append(got, "b:"+c.Origin) })
	b.Subscribe("atelier", func(c store.Change) { got = append(got, "other") })

	b.Publish(store.Change{Key: "villa", Origin: "s1"})
	assert.Equal(t, []string{"a:s1", "b:s1"}, got)
	assert.Equal(t, 2, b.Subscribers("villa"))

	cancelA()
	cancelA()
	got = nil
	b.Publish(store.Change{Key: "villa", Origin: "s2"})
	assert.Equal(t, []string{"b:s2"}, got)

	cancelB()
	assert.Equal(t, 0, b.Subscribers("villa"))
	got = nil
	b.Publish(store.Change{Key: "villa"})
	assert.Empty(t, got)
}
