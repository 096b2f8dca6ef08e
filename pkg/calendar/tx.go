package calendar

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// queryer is the subset of pgx shared by the pool and a transaction.
type queryer interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

// Repositories bundles the two calendar stores bound to one transaction.
type Repositories struct {
	Events     EventRepository
	Exceptions ExceptionRepository
}

// TxManager runs a function with event and exception repositories sharing a
// single database transaction: all writes commit together or none do. It is
// also used to give windowed reads a consistent snapshot, so a base event is
// never observed without its just-written exception.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(repos Repositories) error) error
}

type TxManagerImpl struct {
	db *pgxpool.Pool
}

func NewTxManager(db *pgxpool.Pool) *TxManagerImpl {
	return &TxManagerImpl{db: db}
}

func (m *TxManagerImpl) WithTransaction(ctx context.Context, fn func(repos Repositories) error) error {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// The Rollback will be a no-op if the transaction was already committed
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	repos := Repositories{
		Events:     &EventRepositoryImpl{db: m.db, tx: tx},
		Exceptions: &ExceptionRepositoryImpl{db: m.db, tx: tx},
	}

	if err := fn(repos); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
