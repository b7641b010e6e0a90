package application

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Lifecycle tells a Scope whether it owns the session it works on.
type Lifecycle int

const (
	// LifecycleJoins scopes use the session already bound in the context.
	LifecycleJoins Lifecycle = iota
	// LifecycleOwns scopes open a session, bind it, and unbind and close it on Close.
	LifecycleOwns
)

func (l Lifecycle) String() string {
	if l == LifecycleOwns {
		return "owns"
	}
	return "joins"
}

type ScopeState int

const (
	StateIdle ScopeState = iota
	StateActive
	StateCompleted
	StateDisposed
)

func (s ScopeState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateDisposed:
		return "disposed"
	default:
		return "idle"
	}
}

// UnitOfWorkScope is what UnitOfWork.Start hands out. Close must be called on
// every path, typically with defer.
type UnitOfWorkScope interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Close() error
	IsTransactionActive() bool
}

// ScopeConfig carries what a scope constructor receives from UnitOfWork.
type ScopeConfig struct {
	Factory              SessionFactory
	Sessions             *SessionContext
	ImplicitTransactions bool
	Logger               *zap.Logger
}

// ScopeConstructor builds root or dependent scopes for UnitOfWork.
type ScopeConstructor func(cfg ScopeConfig) UnitOfWorkScope

// Scope is one segment of a unit of work.
//
// Only the scope that physically began the transaction commits or rolls it
// back. Commit and Rollback on any other scope just mark that scope completed:
// rolling back a nested scope does NOT undo the writes made under it. Their
// fate is decided by the scope owning the transaction, normally the outermost.
type Scope struct {
	cfg       ScopeConfig
	lifecycle Lifecycle
	log       *zap.Logger

	// ctx is the context of the last Begin; Close runs on it without its cancellation.
	ctx     context.Context
	session Session
	state   ScopeState

	isTransactionCreated bool
	isScopeCompleted     bool
}

var _ UnitOfWorkScope = (*Scope)(nil)

// NewRootScope returns a scope that opens, binds and finally closes its own session.
func NewRootScope(cfg ScopeConfig) *Scope { return newScope(cfg, LifecycleOwns) }

// NewDependentScope returns a scope that joins the session bound in the context.
func NewDependentScope(cfg ScopeConfig) *Scope { return newScope(cfg, LifecycleJoins) }

func newScope(cfg ScopeConfig, l Lifecycle) *Scope {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Scope{
		cfg:       cfg,
		lifecycle: l,
		log:       log.With(zap.Stringer("lifecycle", l)),
	}
}

func (s *Scope) Lifecycle() Lifecycle { return s.lifecycle }
func (s *Scope) State() ScopeState    { return s.state }
func (s *Scope) Session() Session     { return s.session }

// IsTransactionCreated reports whether this scope physically began the transaction.
func (s *Scope) IsTransactionCreated() bool { return s.isTransactionCreated }

func (s *Scope) IsCompleted() bool { return s.isScopeCompleted }

func (s *Scope) IsImplicitTransactionsEnabled() bool { return s.cfg.ImplicitTransactions }

func (s *Scope) IsTransactionActive() bool {
	return s.session != nil && s.session.Transaction().IsActive()
}

// Begin begins a transaction, or joins the one already active on the session.
// It is idempotent. An owning scope opens and binds its session on first use.
func (s *Scope) Begin(ctx context.Context) error {
	if err := checkCancelled(ctx); err != nil {
		return err
	}
	if s.state == StateDisposed {
		return fmt.Errorf("begin: %w: scope disposed", ErrScopeMisuse)
	}
	if s.session == nil {
		if err := s.attach(ctx); err != nil {
			return err
		}
	}
	s.ctx = ctx
	return s.beginTransaction(ctx)
}

func (s *Scope) attach(ctx context.Context) error {
	if s.cfg.Factory == nil || s.cfg.Sessions == nil {
		return fmt.Errorf("begin: %w: scope has no session factory or session context", ErrInvalidArgument)
	}
	if s.lifecycle == LifecycleJoins {
		sess, err := s.cfg.Sessions.Current(s.cfg.Factory)
		if err != nil {
			return fmt.Errorf("join session: %w", err)
		}
		s.session = sess
		return nil
	}
	sess, err := s.cfg.Factory.OpenSession(ctx)
	if err != nil {
		return fmt.Errorf("open session: %w: %w", ErrResourceUnavailable, err)
	}
	if err := s.cfg.Sessions.Bind(s.cfg.Factory, sess); err != nil {
		return errors.Join(err, sess.Close(ctx))
	}
	s.session = sess
	s.log.Debug("session opened", zap.String("session_id", sess.ID()))
	return nil
}

func (s *Scope) beginTransaction(ctx context.Context) error {
	if s.session.Transaction().IsActive() {
		s.state = StateActive
		return nil
	}
	if err := s.session.BeginTransaction(ctx); err != nil {
		return fmt.Errorf("begin transaction: %w: %w", ErrResourceUnavailable, err)
	}
	s.isTransactionCreated = true
	s.isScopeCompleted = false
	s.state = StateActive
	s.log.Debug("transaction begun", zap.String("session_id", s.session.ID()))
	return nil
}

// Commit completes the scope. The transaction is committed only if this scope
// created it; with implicit transactions a new one is begun right after.
func (s *Scope) Commit(ctx context.Context) error {
	return s.complete(ctx, "commit", Transaction.Commit, true)
}

// Rollback completes the scope. The transaction is rolled back only if this
// scope created it. On a nested scope this is a no-op beyond the completion
// flag: the writes survive unless the owning scope rolls back too.
func (s *Scope) Rollback(ctx context.Context) error {
	return s.complete(ctx, "rollback", Transaction.Rollback, true)
}

func (s *Scope) complete(ctx context.Context, op string, finish func(Transaction, context.Context) error, reopen bool) error {
	if err := checkCancelled(ctx); err != nil {
		return err
	}
	switch {
	case s.state == StateDisposed:
		return fmt.Errorf("%s: %w: scope disposed", op, ErrScopeMisuse)
	case s.session == nil:
		return fmt.Errorf("%s: %w: scope never began", op, ErrScopeMisuse)
	}
	if err := s.checkJoined(op); err != nil {
		return err
	}

	s.isScopeCompleted = true
	s.state = StateCompleted
	if !s.isTransactionCreated {
		s.log.Debug(op+" on non-owning scope leaves transaction untouched", zap.String("session_id", s.session.ID()))
		return nil
	}
	if err := finish(s.session.Transaction(), ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("transaction "+op+" done", zap.String("session_id", s.session.ID()))
	if reopen && s.cfg.ImplicitTransactions {
		return s.beginTransaction(ctx)
	}
	return nil
}

// checkJoined catches a dependent scope outliving the root scope that owned its session.
func (s *Scope) checkJoined(op string) error {
	if s.lifecycle == LifecycleOwns {
		return nil
	}
	cur, err := s.cfg.Sessions.Current(s.cfg.Factory)
	if err != nil || cur != s.session {
		return fmt.Errorf("%s: %w: enclosing root scope already closed", op, ErrScopeMisuse)
	}
	return nil
}

// Close disposes the scope. An uncompleted scope whose transaction is still
// active is rolled back first, so an abandoned unit of work never commits. An
// owning scope then unbinds and closes its session whatever happened before;
// every error met on the way is returned.
func (s *Scope) Close() error {
	if s.state == StateDisposed {
		return fmt.Errorf("close: %w: scope already disposed", ErrScopeMisuse)
	}
	if s.session == nil {
		s.state = StateDisposed
		return nil
	}
	ctx := context.Background()
	if s.ctx != nil {
		ctx = context.WithoutCancel(s.ctx)
	}

	var errs []error
	if err := s.checkJoined("close"); err != nil {
		s.state = StateDisposed
		return err
	}
	if !s.isScopeCompleted && s.session.Transaction().IsActive() {
		errs = append(errs, s.complete(ctx, "rollback", Transaction.Rollback, false))
	}
	if s.isTransactionCreated {
		if err := s.session.Transaction().Release(); err != nil {
			errs = append(errs, fmt.Errorf("release transaction: %w", err))
		}
	}
	s.state = StateDisposed
	if s.lifecycle == LifecycleOwns {
		errs = append(errs, s.closeSession(ctx))
	}
	return errors.Join(errs...)
}

func (s *Scope) closeSession(ctx context.Context) error {
	var errs []error
	bound, err := s.cfg.Sessions.Unbind(s.cfg.Factory)
	switch {
	case err != nil:
		errs = append(errs, err)
	case bound != s.session:
		errs = append(errs, fmt.Errorf("unbind: %w: session %s bound in place of %s", ErrScopeMisuse, bound.ID(), s.session.ID()))
		_ = s.cfg.Sessions.Bind(s.cfg.Factory, bound)
	}
	if err := s.session.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close session: %w", err))
	}
	s.log.Debug("session closed", zap.String("session_id", s.session.ID()))
	return errors.Join(errs...)
}

func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}
