package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"txscope/internal/domain"
)

var (
	errConnRefused = errors.New("connection refused")
	errCommit      = errors.New("commit failed")
	errRollback    = errors.New("rollback failed")
)

// fakeFactory is an in-memory session provider that counts physical calls.
type fakeFactory struct {
	mu        sync.Mutex
	committed map[string]string

	opens, begins, commits, rollbacks, releases, closes int

	openErr, beginErr, commitErr, rollbackErr error
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{committed: map[string]string{}}
}

func (f *fakeFactory) OpenSession(context.Context) (Session, error) {
	f.opens++
	if f.openErr != nil {
		return nil, f.openErr
	}
	s := &fakeSession{f: f, id: fmt.Sprintf("session-%d", f.opens)}
	s.tx = &fakeTx{s: s}
	return s, nil
}

func (f *fakeFactory) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.committed[key]
	return ok
}

func (f *fakeFactory) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.committed))
	for k := range f.committed {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type fakeSession struct {
	f      *fakeFactory
	id     string
	tx     *fakeTx
	closed bool
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) BeginTransaction(context.Context) error {
	s.f.begins++
	if s.f.beginErr != nil {
		return s.f.beginErr
	}
	s.tx = &fakeTx{s: s, active: true, pending: map[string]string{}}
	return nil
}

func (s *fakeSession) Transaction() Transaction { return s.tx }

func (s *fakeSession) Close(context.Context) error {
	s.f.closes++
	s.closed = true
	return nil
}

// put writes through the transaction when one is active, else autocommits.
func (s *fakeSession) put(key, val string) {
	if s.tx.active {
		s.tx.pending[key] = val
		return
	}
	s.f.mu.Lock()
	s.f.committed[key] = val
	s.f.mu.Unlock()
}

type fakeTx struct {
	s       *fakeSession
	active  bool
	pending map[string]string
}

func (t *fakeTx) IsActive() bool { return t.active }

func (t *fakeTx) Commit(context.Context) error {
	t.s.f.commits++
	if t.s.f.commitErr != nil {
		t.active = false
		return t.s.f.commitErr
	}
	t.s.f.mu.Lock()
	for k, v := range t.pending {
		t.s.f.committed[k] = v
	}
	t.s.f.mu.Unlock()
	t.pending, t.active = nil, false
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.s.f.rollbacks++
	t.pending, t.active = nil, false
	return t.s.f.rollbackErr
}

func (t *fakeTx) Release() error {
	t.s.f.releases++
	if t.active {
		t.pending, t.active = nil, false
	}
	return nil
}

// put stores key through the session bound for f in ctx.
func put(ctx context.Context, f *fakeFactory, key string) error {
	s, err := CurrentSession(ctx, f)
	if err != nil {
		return err
	}
	s.(*fakeSession).put(key, key)
	return nil
}

// fakeTagRepo keeps tags in the session's transaction like a real repository would.
type fakeTagRepo struct {
	f    *fakeFactory
	next int64
	tags map[int64]domain.Tag
}

func newFakeTagRepo(f *fakeFactory) *fakeTagRepo {
	return &fakeTagRepo{f: f, tags: map[int64]domain.Tag{}}
}

func (r *fakeTagRepo) GetAll(ctx context.Context) ([]domain.Tag, error) {
	if _, err := CurrentSession(ctx, r.f); err != nil {
		return nil, err
	}
	var out []domain.Tag
	for _, k := range r.f.keys() {
		var id int64
		if _, err := fmt.Sscanf(k, "tag-%d", &id); err == nil {
			out = append(out, r.tags[id])
		}
	}
	return out, nil
}

func (r *fakeTagRepo) GetByID(ctx context.Context, id int64) (domain.Tag, error) {
	if _, err := CurrentSession(ctx, r.f); err != nil {
		return domain.Tag{}, err
	}
	if !r.f.has(fmt.Sprintf("tag-%d", id)) {
		return domain.Tag{}, ErrNotFound
	}
	return r.tags[id], nil
}

func (r *fakeTagRepo) SaveOrUpdate(ctx context.Context, t *domain.Tag) error {
	if t.ID == 0 {
		r.next++
		t.ID = r.next
	}
	r.tags[t.ID] = *t
	return put(ctx, r.f, fmt.Sprintf("tag-%d", t.ID))
}

func (r *fakeTagRepo) Delete(ctx context.Context, id int64) error {
	if _, err := CurrentSession(ctx, r.f); err != nil {
		return err
	}
	r.f.mu.Lock()
	delete(r.f.committed, fmt.Sprintf("tag-%d", id))
	r.f.mu.Unlock()
	return nil
}

type fakeIdem struct {
	seen     map[string]bool
	released []string
	err      error
}

func (f *fakeIdem) Release(_ context.Context, key string) error {
	delete(f.seen, key)
	f.released = append(f.released, key)
	return nil
}

func (f *fakeIdem) TryReserve(_ context.Context, key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}
