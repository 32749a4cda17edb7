package services

import (
	"context"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/snapshot"
)

// SnapshotSource returns every office-level row the registry currently holds.
type SnapshotSource interface {
	Fetch(ctx context.Context) ([]snapshot.Row, error)
}

type SnapshotSourceFunc func(ctx context.Context) ([]snapshot.Row, error)

func (f SnapshotSourceFunc) Fetch(ctx context.Context) ([]snapshot.Row, error) {
	return f(ctx)
}

// Transactor scopes repository calls. InTx wraps a whole run; InSavepoint
// wraps a single entity so its failure can be undone without losing the run.
type Transactor interface {
	InTx(ctx context.Context, fn func(context.Context) error) error
	InSavepoint(ctx context.Context, fn func(context.Context) error) error
}
