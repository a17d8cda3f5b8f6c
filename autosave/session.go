// Package autosave keeps an in-memory project in sync with its stored
// snapshot. Edits are applied synchronously and written back after a quiet
// period; successful writes are broadcast to the other sessions bound to the
// same key.
package autosave

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"estimation/devis"
	"estimation/interchange"
	"estimation/notify"
	"estimation/project"
	"estimation/recap"
	"estimation/store"
	"estimation/takeoff"
)

// DefaultDebounce is the quiet period between the last edit and the write.
const DefaultDebounce = time.Second

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session closed")

// State is the persistence state of a session.
type State int

const (
	Clean State = iota
	Dirty
	Persisting
)

func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case Persisting:
		return "persisting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// PersistenceWriteError is reported when a snapshot could not be written.
// The session stays dirty and retries.
type PersistenceWriteError struct {
	Key string
	Err error
}

func (e *PersistenceWriteError) Error() string {
	return fmt.Sprintf("persist %q: %v", e.Key, e.Err)
}

func (e *PersistenceWriteError) Unwrap() error { return e.Err }

// Session is one view of a stored project. It is safe for concurrent use.
type Session struct {
	id     string
	key    string
	store  store.Store
	broker *store.Broker
	opts   Options
	logger *slog.Logger

	takeoff *takeoff.Engine
	devis   *devis.Engine

	// writeMu serializes writes so at most one Put is in flight.
	writeMu sync.Mutex

	mu      sync.Mutex
	project *project.Project
	state   State
	// version counts edits; saved is the version known to be stored.
	version uint64
	saved   uint64
	timer   *time.Timer
	// inflight and stored are the bytes of the pending and the last
	// stored snapshot, used to recognise echoes of our own writes.
	inflight []byte
	stored   []byte
	// received holds a snapshot from another writer that arrived while a
	// write was in flight.
	received *received
	lastErr  error
	closed   bool
	cancel   func()
	release  func()
}

func newSession(key string, p *project.Project, stored []byte, st store.Store, broker *store.Broker, opts Options) *Session {
	s := &Session{
		id:      project.NewID(),
		key:     key,
		store:   st,
		broker:  broker,
		opts:    opts,
		logger:  opts.logger().With(slog.String("key", key)),
		takeoff: takeoff.NewEngine(opts.logger()),
		devis:   devis.NewEngine(opts.Interchange.Decimals),
		project: p,
		stored:  stored,
	}
	if broker != nil {
		s.cancel = broker.Subscribe(key, s.receive)
	}
	return s
}

// Key returns the storage key of the session.
func (s *Session) Key() string { return s.key }

// State returns the current persistence state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the last write failure, or nil after a successful write.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Snapshot returns a copy of the current project.
func (s *Session) Snapshot() *project.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.Clone()
}

// Mutate applies fn to a copy of the project. When fn succeeds the copy
// replaces the project, its summary is recomputed and a write is scheduled.
// When fn fails the project is left untouched.
func (s *Session) Mutate(fn func(p *project.Project) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	next := s.project.Clone()
	if err := fn(next); err != nil {
		return err
	}
	next.UpdatedAt = time.Now().UTC()
	recap.Apply(next, s.opts.Interchange.Recap)
	s.project = next
	s.markDirtyLocked()
	return nil
}

// replace swaps the project wholesale and schedules a write.
func (s *Session) replace(p *project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.project = p
	s.markDirtyLocked()
	return nil
}

func (s *Session) markDirtyLocked() {
	s.version++
	if s.state == Clean {
		s.state = Dirty
	}
	s.armLocked()
}

func (s *Session) armLocked() {
	if s.timer == nil {
		s.timer = time.AfterFunc(s.opts.debounce(), s.tick)
		return
	}
	s.timer.Reset(s.opts.debounce())
}

func (s *Session) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (s *Session) tick() {
	if err := s.persist(context.Background()); err != nil {
		s.logger.Warn("autosave failed", slog.String("error", err.Error()))
	}
}

// Flush writes the project now if it has unsaved edits.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
	return s.persist(ctx)
}

// Close flushes pending edits and detaches the session from change
// notifications. The session cannot be used afterwards.
func (s *Session) Close(ctx context.Context) error {
	err := s.Flush(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.stopLocked()
	if s.cancel != nil {
		s.cancel()
	}
	if s.release != nil {
		s.release()
	}
	return err
}

type received struct {
	project  *project.Project
	snapshot []byte
}

// persist writes the project if it has unsaved edits. A snapshot received
// during the write is adopted afterwards and written again, since the store
// may hold either one.
func (s *Session) persist(ctx context.Context) error {
	for {
		again, err := s.persistOnce(ctx)
		if err != nil || !again {
			return err
		}
	}
}

func (s *Session) persistOnce(ctx context.Context) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.version == s.saved {
		s.mu.Unlock()
		return false, nil
	}
	data, err := interchange.ExportJSON(s.project)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	written := s.version
	s.state = Persisting
	s.inflight = data
	s.mu.Unlock()

	err = s.store.Put(ctx, s.key, data)

	s.mu.Lock()
	s.inflight = nil
	if err != nil {
		werr := &PersistenceWriteError{Key: s.key, Err: err}
		s.lastErr = werr
		s.state = Dirty
		if r := s.received; r != nil {
			// the store holds the received snapshot
			s.received = nil
			s.adoptLocked(r.project, r.snapshot)
		} else if !s.closed {
			s.armLocked()
		}
		s.mu.Unlock()
		s.opts.notifier().Notify(notify.Error, "Échec de l'enregistrement", werr.Error())
		return false, werr
	}
	s.lastErr = nil
	s.stored = data
	if written > s.saved {
		s.saved = written
	}
	if s.version > s.saved {
		s.state = Dirty
	} else {
		s.state = Clean
	}
	again := false
	if r := s.received; r != nil {
		s.received = nil
		s.project = r.project
		s.version++
		s.state = Dirty
		again = true
	}
	s.mu.Unlock()

	s.logger.Debug("snapshot saved", slog.Int("bytes", len(data)))
	if s.broker != nil && !again {
		s.broker.Publish(store.Change{Key: s.key, Origin: s.id, Snapshot: data})
	}
	return again, nil
}

// receive applies a snapshot stored by another writer. The project is
// replaced wholesale and the session becomes clean.
func (s *Session) receive(c store.Change) {
	if c.Origin == s.id {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || sameSnapshot(c.Snapshot, s.inflight) || sameSnapshot(c.Snapshot, s.stored) {
		return
	}
	p, err := interchange.ImportJSON(c.Snapshot)
	if err != nil {
		s.logger.Warn("ignoring unreadable snapshot", slog.String("origin", c.Origin), slog.String("error", err.Error()))
		return
	}
	if s.state == Persisting {
		s.received = &received{project: p, snapshot: c.Snapshot}
		return
	}
	s.adoptLocked(p, c.Snapshot)
}

func (s *Session) adoptLocked(p *project.Project, snapshot []byte) {
	s.project = p
	s.stored = snapshot
	s.version++
	s.saved = s.version
	if s.state == Dirty {
		s.state = Clean
		s.stopLocked()
	}
}

// sameSnapshot compares two snapshot documents ignoring insignificant
// whitespace, since stores may not keep the indentation.
func sameSnapshot(a, b []byte) bool {
	if a == nil || b == nil {
		return false
	}
	if bytes.Equal(a, b) {
		return true
	}
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return false
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
