package pgsql

import (
	"time"

	portsrepo "github.com/SscSPs/fx_rates_pipeline/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the PostgreSQL warehouse. The object store is
// chosen independently by the caller.
func NewRepositoryProvider(dbPool *pgxpool.Pool, loc *time.Location, store portsrepo.ObjectStore) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		RateRepo:    NewPgxRateRepository(dbPool, loc),
		ObjectStore: store,
	}
}
