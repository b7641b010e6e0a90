package application

import (
	"context"

	"txscope/internal/domain"
)

// SessionFactory opens physical database sessions. Implementations are used as
// map keys by SessionContext, so they must be comparable (pointer types).
type SessionFactory interface {
	OpenSession(ctx context.Context) (Session, error)
}

// Session is one database connection/transaction context.
type Session interface {
	ID() string
	BeginTransaction(ctx context.Context) error
	// Transaction returns the current transaction. It is never nil; when no
	// transaction was begun the returned value reports IsActive() == false.
	Transaction() Transaction
	Close(ctx context.Context) error
}

// Transaction belongs to its Session. Scopes observe and drive it but never own it.
type Transaction interface {
	IsActive() bool
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	// Release frees the transaction handle, rolling back if it is still active.
	Release() error
}

type TagRepo interface {
	GetAll(ctx context.Context) ([]domain.Tag, error)
	GetByID(ctx context.Context, id int64) (domain.Tag, error)
	SaveOrUpdate(ctx context.Context, t *domain.Tag) error
	Delete(ctx context.Context, id int64) error
}
