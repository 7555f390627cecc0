package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager defines methods for transaction management
type TransactionManager interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Commit(ctx context.Context, tx pgx.Tx) error
	Rollback(ctx context.Context, tx pgx.Tx) error
}

// RateRepositoryWithTx is implemented by warehouses backed by a pgx pool.
type RateRepositoryWithTx interface {
	RateRepositoryFacade
	TransactionManager
}
