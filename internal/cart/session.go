package cart

import (
	"sync"

	pkgerrors "github.com/posfin/pos-engine/pkg/errors"
)

// Session pairs a cart with the synchronization its workspace needs. The
// mutex serializes in-memory mutations; busy marks a lifecycle transition
// whose backend call is still in flight, so a second transition on the same
// workspace fails fast instead of racing the first.
type Session struct {
	mu   sync.Mutex
	busy bool
	cart *Cart
}

// WithCart runs fn with the session locked. Mutations inside fn are atomic
// with respect to other callers on the same workspace.
func (s *Session) WithCart(fn func(c *Cart) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.cart)
}

// BeginTransition marks the session busy for a backend-coupled transition.
// fn runs under the lock to take a snapshot and decide the transition;
// the returned release func must be called once the backend call settled.
func (s *Session) BeginTransition(fn func(c *Cart) error) (release func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "another transition is already in progress for this workspace")
	}
	if err := fn(s.cart); err != nil {
		return nil, err
	}
	s.busy = true
	return func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}, nil
}

// SessionStore hands out one session per workspace.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Get returns the workspace's session, creating it on first use.
func (st *SessionStore) Get(workspaceID string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	session, ok := st.sessions[workspaceID]
	if !ok {
		session = &Session{cart: New(workspaceID)}
		st.sessions[workspaceID] = session
	}
	return session
}

// Drop forgets the workspace's session. The next Get starts a fresh cart.
func (st *SessionStore) Drop(workspaceID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, workspaceID)
}
