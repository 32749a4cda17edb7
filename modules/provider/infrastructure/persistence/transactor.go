package persistence

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jacksonlee411/provider-portal/pkg/composables"
)

// PgTransactor scopes repository calls to a pool transaction and its
// savepoints. Lane workers start from a bare context, so the pool is attached
// here rather than relying on request middleware.
type PgTransactor struct {
	pool *pgxpool.Pool
}

func NewPgTransactor(pool *pgxpool.Pool) *PgTransactor {
	return &PgTransactor{pool: pool}
}

func (t *PgTransactor) InTx(ctx context.Context, fn func(context.Context) error) error {
	if t.pool == nil {
		return composables.ErrNoPool
	}
	return composables.InTx(composables.WithPool(ctx, t.pool), fn)
}

func (t *PgTransactor) InSavepoint(ctx context.Context, fn func(context.Context) error) error {
	return composables.InSavepoint(ctx, fn)
}
