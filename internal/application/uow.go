package application

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Transactor provides a minimal transaction boundary using context propagation.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopTransactor executes the function without starting a transaction.
type NoopTransactor struct{}

func (NoopTransactor) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// UnitOfWork hands out scopes over the sessions of one SessionFactory. The
// first Start in a logical context gets a root scope that owns the session and
// transaction; every Start made while that session is bound gets a dependent
// scope joining it.
type UnitOfWork struct {
	factory  SessionFactory
	implicit bool
	log      *zap.Logger

	rootScope      ScopeConstructor
	dependentScope ScopeConstructor
}

type Option func(*UnitOfWork)

// WithImplicitTransactions makes Commit and Rollback begin a new transaction on
// the same scope so it can be reused without being closed and started again.
func WithImplicitTransactions(enabled bool) Option {
	return func(u *UnitOfWork) { u.implicit = enabled }
}

func WithLogger(l *zap.Logger) Option { return func(u *UnitOfWork) { u.log = l } }

func WithRootScope(c ScopeConstructor) Option { return func(u *UnitOfWork) { u.rootScope = c } }

func WithDependentScope(c ScopeConstructor) Option {
	return func(u *UnitOfWork) { u.dependentScope = c }
}

func NewUnitOfWork(factory SessionFactory, opts ...Option) (*UnitOfWork, error) {
	if factory == nil {
		return nil, fmt.Errorf("new unit of work: %w: session factory is required", ErrInvalidArgument)
	}
	u := &UnitOfWork{factory: factory}
	for _, opt := range opts {
		opt(u)
	}
	if u.log == nil {
		u.log = zap.NewNop()
	}
	if u.rootScope == nil {
		u.rootScope = func(cfg ScopeConfig) UnitOfWorkScope { return NewRootScope(cfg) }
	}
	if u.dependentScope == nil {
		u.dependentScope = func(cfg ScopeConfig) UnitOfWorkScope { return NewDependentScope(cfg) }
	}
	return u, nil
}

func (u *UnitOfWork) Factory() SessionFactory { return u.factory }

func (u *UnitOfWork) IsImplicitTransactionsEnabled() bool { return u.implicit }

// Start returns an active scope and the context the caller must keep using
// inside it: repositories and nested Start calls find the bound session there.
// If ctx carries no SessionContext a new logical context is started on top of it.
//
// A cancelled ctx fails fast with ErrCancelled and leaves nothing behind; so
// does a session that cannot be opened, with ErrResourceUnavailable.
func (u *UnitOfWork) Start(ctx context.Context) (context.Context, UnitOfWorkScope, error) {
	if err := checkCancelled(ctx); err != nil {
		return ctx, nil, err
	}
	sc := SessionContextFrom(ctx)
	if sc == nil {
		ctx, sc = WithSessionContext(ctx)
	}
	cfg := ScopeConfig{
		Factory:              u.factory,
		Sessions:             sc,
		ImplicitTransactions: u.implicit,
		Logger:               u.log,
	}

	var scope UnitOfWorkScope
	if sc.HasBinding(u.factory) {
		scope = u.dependentScope(cfg)
	} else {
		scope = u.rootScope(cfg)
	}
	if err := scope.Begin(ctx); err != nil {
		return ctx, nil, errors.Join(err, scope.Close())
	}
	return ctx, scope, nil
}

// Do runs fn inside a scope: commit when fn returns nil, Close on every path.
// Called inside another scope it joins that scope's transaction.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	ctx, scope, err := u.Start(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, scope.Close())
	}()
	if err := fn(ctx); err != nil {
		return err
	}
	return scope.Commit(ctx)
}
