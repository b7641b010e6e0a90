package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScope_StateTransitions(t *testing.T) {
	t.Parallel()
	f := newFakeFactory()
	ctx, sc := WithSessionContext(context.Background())
	s := NewRootScope(ScopeConfig{Factory: f, Sessions: sc})
	require.Equal(t, StateIdle, s.State())
	require.False(t, s.IsTransactionActive())

	require.NoError(t, s.Begin(ctx))
	require.Equal(t, StateActive, s.State())
	require.NoError(t, s.Commit(ctx))
	require.Equal(t, StateCompleted, s.State())
	require.True(t, s.IsCompleted())
	require.NoError(t, s.Close())
	require.Equal(t, StateDisposed, s.State())
}

func TestScope_BeginIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newFakeFactory()
	ctx, sc := WithSessionContext(context.Background())
	s := NewRootScope(ScopeConfig{Factory: f, Sessions: sc})

	require.NoError(t, s.Begin(ctx))
	require.NoError(t, s.Begin(ctx))
	require.Equal(t, 1, f.opens)
	require.Equal(t, 1, f.begins)
	require.NoError(t, s.Close())
}

func TestScope_CompleteBeforeBeginIsMisuse(t *testing.T) {
	t.Parallel()
	ctx, sc := WithSessionContext(context.Background())
	s := NewRootScope(ScopeConfig{Factory: newFakeFactory(), Sessions: sc})
	require.ErrorIs(t, s.Commit(ctx), ErrScopeMisuse)
	require.ErrorIs(t, s.Rollback(ctx), ErrScopeMisuse)
	require.NoError(t, s.Close())
}

func TestScope_BeginAfterCloseIsMisuse(t *testing.T) {
	t.Parallel()
	ctx, sc := WithSessionContext(context.Background())
	s := NewRootScope(ScopeConfig{Factory: newFakeFactory(), Sessions: sc})
	require.NoError(t, s.Close())
	require.ErrorIs(t, s.Begin(ctx), ErrScopeMisuse)
	require.ErrorIs(t, s.Commit(ctx), ErrScopeMisuse)
}

func TestScope_DependentWithoutBindingFails(t *testing.T) {
	t.Parallel()
	ctx, sc := WithSessionContext(context.Background())
	s := NewDependentScope(ScopeConfig{Factory: newFakeFactory(), Sessions: sc})
	require.ErrorIs(t, s.Begin(ctx), ErrNoSession)
}

func TestScope_MissingFactoryIsInvalid(t *testing.T) {
	t.Parallel()
	s := NewRootScope(ScopeConfig{})
	require.ErrorIs(t, s.Begin(context.Background()), ErrInvalidArgument)
}

func TestScope_CommitCancelledMutatesNothing(t *testing.T) {
	t.Parallel()
	f := newFakeFactory()
	u := newUoW(t, f)
	ctx, scope, err := u.Start(context.Background())
	require.NoError(t, err)
	require.NoError(t, put(ctx, f, "A"))

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	require.ErrorIs(t, scope.Commit(cctx), ErrCancelled)
	require.ErrorIs(t, scope.Rollback(cctx), ErrCancelled)
	require.ErrorIs(t, scope.(*Scope).Begin(cctx), ErrCancelled)

	s := scope.(*Scope)
	require.False(t, s.IsCompleted())
	require.Equal(t, StateActive, s.State())
	require.Equal(t, 0, f.commits)
	require.Equal(t, 0, f.rollbacks)

	require.NoError(t, scope.Close())
	require.Equal(t, 1, f.rollbacks)
	require.Empty(t, f.keys())
}

func TestScope_CommitErrorPropagatesAndCloseReleases(t *testing.T) {
	t.Parallel()
	f := newFakeFactory()
	f.commitErr = errCommit
	u := newUoW(t, f)
	ctx, scope, err := u.Start(context.Background())
	require.NoError(t, err)

	require.ErrorIs(t, scope.Commit(ctx), errCommit)
	require.NoError(t, scope.Close())
	require.Equal(t, 1, f.releases)
	require.Equal(t, 1, f.closes)
	require.False(t, HasBinding(ctx, f))
}

func TestScope_CloseRollbackErrorStillReleasesSession(t *testing.T) {
	t.Parallel()
	f := newFakeFactory()
	f.rollbackErr = errRollback
	u := newUoW(t, f)
	ctx, scope, err := u.Start(context.Background())
	require.NoError(t, err)

	require.ErrorIs(t, scope.Close(), errRollback)
	require.Equal(t, 1, f.releases)
	require.Equal(t, 1, f.closes)
	require.False(t, HasBinding(ctx, f))
}

func TestScope_DependentClosedAfterRootIsMisuse(t *testing.T) {
	t.Parallel()
	f := newFakeFactory()
	u := newUoW(t, f)
	ctx, root, err := u.Start(context.Background())
	require.NoError(t, err)
	_, nested, err := u.Start(ctx)
	require.NoError(t, err)

	require.NoError(t, root.Close())
	require.ErrorIs(t, nested.Commit(ctx), ErrScopeMisuse)
	require.ErrorIs(t, nested.Close(), ErrScopeMisuse)
}

// After a root scope commits without implicit transactions its session stays
// bound with no active transaction; the next nested scope begins one and owns it.
func TestScope_DependentOwnsTransactionItBegan(t *testing.T) {
	t.Parallel()
	f := newFakeFactory()
	u := newUoW(t, f)
	ctx, root, err := u.Start(context.Background())
	require.NoError(t, err)
	require.NoError(t, root.Commit(ctx))
	require.False(t, root.IsTransactionActive())

	_, nested, err := u.Start(ctx)
	require.NoError(t, err)
	d := nested.(*Scope)
	require.Equal(t, LifecycleJoins, d.Lifecycle())
	require.True(t, d.IsTransactionCreated())
	require.NoError(t, put(ctx, f, "B"))
	require.NoError(t, nested.Commit(ctx))
	require.NoError(t, nested.Close())
	require.NoError(t, root.Close())

	require.Equal(t, []string{"B"}, f.keys())
	require.Equal(t, 2, f.begins)
	require.Equal(t, 2, f.commits)
}

func TestLifecycleAndStateStrings(t *testing.T) {
	t.Parallel()
	require.Equal(t, "owns", LifecycleOwns.String())
	require.Equal(t, "joins", LifecycleJoins.String())
	require.Equal(t, "idle", StateIdle.String())
	require.Equal(t, "active", StateActive.String())
	require.Equal(t, "completed", StateCompleted.String())
	require.Equal(t, "disposed", StateDisposed.String())
}
