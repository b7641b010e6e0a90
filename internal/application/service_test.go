package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, opts ...ServiceOption) (*TagService, *fakeFactory, *fakeTagRepo) {
	t.Helper()
	f := newFakeFactory()
	repo := newFakeTagRepo(f)
	return NewTagService(newUoW(t, f), repo, opts...), f, repo
}

func Test_CreateTag(t *testing.T) {
	t.Parallel()
	svc, f, _ := newService(t)

	tag, err := svc.CreateTag(context.Background(), "Unit Of Work", "", nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), tag.ID)
	require.Equal(t, "unit-of-work", tag.Slug)
	require.True(t, f.has("tag-1"))
	require.Equal(t, 1, f.commits)
}

func Test_CreateTag_BlankName(t *testing.T) {
	t.Parallel()
	svc, f, _ := newService(t)

	_, err := svc.CreateTag(context.Background(), " ", "", nil)
	require.ErrorIs(t, err, ErrBadRequest)
	require.Equal(t, 0, f.opens)
}

func Test_CreateTag_DuplicateIdempotencyKey(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t, WithIdempotency(&fakeIdem{}))
	key := "k1"

	_, err := svc.CreateTag(context.Background(), "go", "", &key)
	require.NoError(t, err)
	_, err = svc.CreateTag(context.Background(), "go", "", &key)
	require.ErrorIs(t, err, ErrConflict)
}

func Test_CreateTag_IdempotencyStoreError(t *testing.T) {
	t.Parallel()
	boom := errors.New("redis down")
	svc, f, _ := newService(t, WithIdempotency(&fakeIdem{err: boom}))
	key := "k1"

	_, err := svc.CreateTag(context.Background(), "go", "", &key)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, f.opens)
}

func Test_CreateTagWithBase_SharesOneTransaction(t *testing.T) {
	t.Parallel()
	svc, f, _ := newService(t)

	base, tag, err := svc.CreateTagWithBase(context.Background(), "go", "generics")
	require.NoError(t, err)
	require.NotNil(t, tag.BaseTagID)
	require.Equal(t, base.ID, *tag.BaseTagID)
	require.Equal(t, []string{"tag-1", "tag-2"}, f.keys())
	require.Equal(t, 1, f.opens)
	require.Equal(t, 1, f.begins)
	require.Equal(t, 1, f.commits)
}

func Test_CreateTagWithBase_InvalidChildDiscardsBase(t *testing.T) {
	t.Parallel()
	svc, f, _ := newService(t)

	_, _, err := svc.CreateTagWithBase(context.Background(), "go", "  ")
	require.ErrorIs(t, err, ErrBadRequest)
	require.Empty(t, f.keys(), "the nested commit of the base tag must not survive the outer rollback")
}

func Test_GetTag_NotFound(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)

	_, err := svc.GetTag(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func Test_AddChildAndList(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)
	ctx := context.Background()

	base, err := svc.CreateTag(ctx, "go", "", nil)
	require.NoError(t, err)
	child, err := svc.AddChild(ctx, base.ID, "generics")
	require.NoError(t, err)
	require.Equal(t, base.ID, *child.BaseTagID)

	got, err := svc.GetTag(ctx, child.ID)
	require.NoError(t, err)
	require.Equal(t, "generics", got.Name)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
}

func Test_AddChild_UnknownBase(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)
	_, err := svc.AddChild(context.Background(), 9, "x")
	require.ErrorIs(t, err, ErrNotFound)
}

func Test_DeleteTag(t *testing.T) {
	t.Parallel()
	svc, f, _ := newService(t)
	ctx := context.Background()

	tag, err := svc.CreateTag(ctx, "go", "", nil)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteTag(ctx, tag.ID))
	require.False(t, f.has("tag-1"))
	require.ErrorIs(t, svc.DeleteTag(ctx, tag.ID), ErrNotFound)
}

func Test_CreateTag_FailureReleasesIdempotencyKey(t *testing.T) {
	t.Parallel()
	idem := &fakeIdem{}
	svc, f, _ := newService(t, WithIdempotency(idem))
	f.openErr = errConnRefused
	key := "k1"

	_, err := svc.CreateTag(context.Background(), "go", "", &key)
	require.ErrorIs(t, err, ErrResourceUnavailable)
	require.Equal(t, []string{"tags:create:k1"}, idem.released)

	f.openErr = nil
	_, err = svc.CreateTag(context.Background(), "go", "", &key)
	require.NoError(t, err)
}
