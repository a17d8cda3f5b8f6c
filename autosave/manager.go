package autosave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"estimation/interchange"
	"estimation/notify"
	"estimation/project"
	"estimation/store"
)

// Options configures the sessions of a Manager.
type Options struct {
	// Debounce is the quiet period before a write; zero selects
	// DefaultDebounce.
	Debounce    time.Duration
	Interchange interchange.Config
	Notifier    notify.Notifier
	Logger      *slog.Logger
}

func (o Options) debounce() time.Duration {
	if o.Debounce <= 0 {
		return DefaultDebounce
	}
	return o.Debounce
}

func (o Options) notifier() notify.Notifier {
	if o.Notifier == nil {
		return notify.Log{Logger: o.logger()}
	}
	return o.Notifier
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Manager opens sessions on a store and links the sessions of a key through
// a broker.
type Manager struct {
	store  store.Store
	broker *store.Broker
	opts   Options

	mu       sync.Mutex
	sessions map[*Session]struct{}
}

// NewManager returns a Manager. A nil broker gets a private one.
func NewManager(st store.Store, broker *store.Broker, opts Options) *Manager {
	if broker == nil {
		broker = store.NewBroker()
	}
	return &Manager{
		store:    st,
		broker:   broker,
		opts:     opts,
		sessions: make(map[*Session]struct{}),
	}
}

// Open loads the snapshot stored under key, or starts an empty project when
// there is none, and returns a clean session on it.
func (m *Manager) Open(ctx context.Context, key string) (*Session, error) {
	return m.OpenWith(ctx, key, nil)
}

// OpenWith is Open with an extra notifier for this session only, such as the
// toast channel of one HTTP request.
func (m *Manager) OpenWith(ctx context.Context, key string, n notify.Notifier) (*Session, error) {
	data, err := m.store.Get(ctx, key)
	var p *project.Project
	switch {
	case errors.Is(err, store.ErrNotFound):
		p = project.New(project.Info{})
		data = nil
	case err != nil:
		return nil, fmt.Errorf("open %q: %w", key, err)
	default:
		p, err = interchange.ImportJSON(data)
		if err != nil {
			return nil, fmt.Errorf("open %q: %w", key, err)
		}
	}

	opts := m.opts
	if n != nil {
		opts.Notifier = notify.Multi(m.opts.notifier(), n)
	}
	s := newSession(key, p, data, m.store, m.broker, opts)
	s.release = func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.sessions, s)
	}
	m.mu.Lock()
	m.sessions[s] = struct{}{}
	m.mu.Unlock()
	return s, nil
}

// Close closes every session opened by m and returns the first error.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[*Session]struct{})
	m.mu.Unlock()

	var first error
	for _, s := range sessions {
		if err := s.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Sessions returns the number of open sessions.
func (m *Manager) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Broker returns the broker linking the sessions.
func (m *Manager) Broker() *store.Broker { return m.broker }
