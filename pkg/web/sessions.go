package web

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/dukex/flowcanvas/pkg/editor"
)

// SessionFactory builds a fresh editor session.
type SessionFactory func() (*editor.Session, error)

// Sessions holds the open editor sessions by id.
type Sessions struct {
	factory SessionFactory
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*editor.Session
}

func NewSessions(factory SessionFactory, logger *slog.Logger) *Sessions {
	return &Sessions{
		factory:  factory,
		logger:   logger.With("module", "sessions"),
		sessions: make(map[string]*editor.Session),
	}
}

func (r *Sessions) Create() (*editor.Session, error) {
	s, err := r.factory()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	r.logger.Info("editor session opened", "session_id", s.ID())

	return s, nil
}

func (r *Sessions) Get(id string) (*editor.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return s, nil
}

func (r *Sessions) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

// Close closes and forgets one session.
func (r *Sessions) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	s.Close()
	r.logger.Info("editor session closed", "session_id", id)

	return nil
}

// CloseAll closes every session. Used on shutdown.
func (r *Sessions) CloseAll() {
	r.mu.Lock()
	open := r.sessions
	r.sessions = make(map[string]*editor.Session)
	r.mu.Unlock()

	for _, s := range open {
		s.Close()
	}
}
