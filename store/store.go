// Package store persists project snapshots under string keys and carries the
// change notifications that keep views of the same project in sync.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned by Get when there is no snapshot for the key.
var ErrNotFound = errors.New("snapshot not found")

// Store is a durable key-value store of whole project snapshots.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context) ([]string, error)
}

// Change announces that the snapshot stored under Key was replaced. Origin
// identifies the writer; it is empty for writes made outside this process.
type Change struct {
	Key      string
	Origin   string
	Snapshot []byte
}

// Broker fans changes out to the subscribers of a key.
type Broker struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]func(Change)
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[int]func(Change))}
}

// Subscribe registers fn for the changes of key. The returned function
// removes the subscription; calling it more than once is harmless.
func (b *Broker) Subscribe(key string, fn func(Change)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	if b.subs[key] == nil {
		b.subs[key] = make(map[int]func(Change))
	}
	b.subs[key][id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[key], id)
		if len(b.subs[key]) == 0 {
			delete(b.subs, key)
		}
	}
}

// Publish delivers c to every subscriber of c.Key, in subscription order,
// on the calling goroutine. Subscribers filter out their own changes.
func (b *Broker) Publish(c Change) {
	b.mu.Lock()
	ids := make([]int, 0, len(b.subs[c.Key]))
	for id := range b.subs[c.Key] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Change), len(ids))
	for i, id := range ids {
		fns[i] = b.subs[c.Key][id]
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// Subscribers returns the number of subscriptions for key.
func (b *Broker) Subscribers(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[key])
}
