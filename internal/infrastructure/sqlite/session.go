package sqlite

import (
	"context"
	"errors"
	"fmt"

	"txscope/internal/application"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errTxDone = errors.New("transaction already committed or rolled back")

// SessionFactory opens gorm sessions over one database handle.
type SessionFactory struct {
	db *gorm.DB
}

var _ application.SessionFactory = (*SessionFactory)(nil)

func NewSessionFactory(db *gorm.DB) *SessionFactory { return &SessionFactory{db: db} }

func (f *SessionFactory) OpenSession(ctx context.Context) (application.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Session{
		id: uuid.NewString(),
		db: f.db.Session(&gorm.Session{NewDB: true}),
		tx: &Transaction{},
	}, nil
}

// Current returns the session bound for f in ctx.
func (f *SessionFactory) Current(ctx context.Context) (*Session, error) {
	s, err := application.CurrentSession(ctx, f)
	if err != nil {
		return nil, err
	}
	gs, ok := s.(*Session)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected session type %T", application.ErrScopeMisuse, s)
	}
	return gs, nil
}

type Session struct {
	id     string
	db     *gorm.DB
	tx     *Transaction
	closed bool
}

func (s *Session) ID() string { return s.id }

func (s *Session) BeginTransaction(ctx context.Context) error {
	if s.closed {
		return errors.New("session closed")
	}
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	s.tx = &Transaction{db: tx}
	return nil
}

func (s *Session) Transaction() application.Transaction { return s.tx }

// DB returns the handle statements should use: the active transaction, else autocommit.
func (s *Session) DB(ctx context.Context) *gorm.DB {
	if s.tx.IsActive() {
		return s.tx.db.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

func (s *Session) Close(context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.tx.Release()
}

type Transaction struct {
	db   *gorm.DB
	done bool
}

func (t *Transaction) IsActive() bool { return t.db != nil && !t.done }

func (t *Transaction) Commit(ctx context.Context) error {
	if !t.IsActive() {
		return errTxDone
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.done = true
	return t.db.Commit().Error
}

func (t *Transaction) Rollback(context.Context) error {
	if !t.IsActive() {
		return errTxDone
	}
	t.done = true
	return t.db.Rollback().Error
}

func (t *Transaction) Release() error {
	if !t.IsActive() {
		return nil
	}
	t.done = true
	return t.db.Rollback().Error
}
