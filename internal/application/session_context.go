package application

import (
	"context"
	"fmt"
	"sync"
)

// SessionContext binds the current session of each SessionFactory for one
// logical call context. It travels inside a context.Context; code that runs in
// a different logical context (a new request, a detached goroutine started from
// context.Background) gets its own SessionContext and never sees these bindings.
type SessionContext struct {
	mu       sync.Mutex
	sessions map[SessionFactory]Session
}

type sessionContextKey struct{}

// NewSessionContext returns an empty binding registry.
func NewSessionContext() *SessionContext {
	return &SessionContext{sessions: map[SessionFactory]Session{}}
}

// WithSessionContext starts a fresh logical context on top of ctx.
func WithSessionContext(ctx context.Context) (context.Context, *SessionContext) {
	sc := NewSessionContext()
	return context.WithValue(ctx, sessionContextKey{}, sc), sc
}

// SessionContextFrom returns the registry carried by ctx, or nil.
func SessionContextFrom(ctx context.Context) *SessionContext {
	if v := ctx.Value(sessionContextKey{}); v != nil {
		if sc, ok := v.(*SessionContext); ok {
			return sc
		}
	}
	return nil
}

// HasBinding reports whether a session is bound for factory in ctx.
func HasBinding(ctx context.Context, factory SessionFactory) bool {
	sc := SessionContextFrom(ctx)
	return sc != nil && sc.HasBinding(factory)
}

// CurrentSession returns the session bound for factory in ctx.
func CurrentSession(ctx context.Context, factory SessionFactory) (Session, error) {
	sc := SessionContextFrom(ctx)
	if sc == nil {
		return nil, ErrNoSession
	}
	return sc.Current(factory)
}

func (c *SessionContext) HasBinding(factory SessionFactory) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.sessions[factory]
	return ok
}

// Bind associates s with factory. Binding over an existing session is an
// ordering bug in the caller and is refused.
func (c *SessionContext) Bind(factory SessionFactory, s Session) error {
	if factory == nil || s == nil {
		return fmt.Errorf("bind: %w: nil factory or session", ErrInvalidArgument)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.sessions[factory]; ok {
		return fmt.Errorf("bind session %s: %w: session %s already bound", s.ID(), ErrScopeMisuse, cur.ID())
	}
	c.sessions[factory] = s
	return nil
}

// Unbind removes and returns the session bound for factory.
func (c *SessionContext) Unbind(factory SessionFactory) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[factory]
	if !ok {
		return nil, fmt.Errorf("unbind: %w: no session bound", ErrScopeMisuse)
	}
	delete(c.sessions, factory)
	return s, nil
}

func (c *SessionContext) Current(factory SessionFactory) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[factory]
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}
