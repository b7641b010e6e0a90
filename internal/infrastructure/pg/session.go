package pg

import (
	"context"
	"errors"
	"fmt"

	"txscope/internal/application"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both a pooled connection and a pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SessionFactory opens sessions backed by connections acquired from the pool.
type SessionFactory struct {
	db *DB
}

var _ application.SessionFactory = (*SessionFactory)(nil)

func NewSessionFactory(db *DB) *SessionFactory { return &SessionFactory{db: db} }

func (f *SessionFactory) OpenSession(ctx context.Context) (application.Session, error) {
	conn, err := f.db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &Session{id: uuid.NewString(), conn: conn, tx: &Transaction{}}, nil
}

// Current returns the session bound for f in ctx.
func (f *SessionFactory) Current(ctx context.Context) (*Session, error) {
	s, err := application.CurrentSession(ctx, f)
	if err != nil {
		return nil, err
	}
	ps, ok := s.(*Session)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected session type %T", application.ErrScopeMisuse, s)
	}
	return ps, nil
}

// Session pins one pooled connection until Close.
type Session struct {
	id   string
	conn *pgxpool.Conn
	tx   *Transaction
}

func (s *Session) ID() string { return s.id }

func (s *Session) BeginTransaction(ctx context.Context) error {
	if s.conn == nil {
		return errors.New("session closed")
	}
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	s.tx = &Transaction{tx: tx}
	return nil
}

func (s *Session) Transaction() application.Transaction { return s.tx }

// q routes statements through the active transaction, or autocommit on the connection.
func (s *Session) q() querier {
	if s.tx.IsActive() {
		return s.tx.tx
	}
	return s.conn
}

func (s *Session) Close(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	var err error
	if s.tx.IsActive() {
		err = s.tx.Rollback(ctx)
	}
	s.conn.Release()
	s.conn = nil
	return err
}

type Transaction struct {
	tx   pgx.Tx
	done bool
}

func (t *Transaction) IsActive() bool { return t.tx != nil && !t.done }

func (t *Transaction) Commit(ctx context.Context) error {
	if !t.IsActive() {
		return pgx.ErrTxClosed
	}
	t.done = true
	return t.tx.Commit(ctx)
}

func (t *Transaction) Rollback(ctx context.Context) error {
	if !t.IsActive() {
		return pgx.ErrTxClosed
	}
	t.done = true
	return t.tx.Rollback(ctx)
}

func (t *Transaction) Release() error {
	if !t.IsActive() {
		return nil
	}
	return t.Rollback(context.Background())
}
