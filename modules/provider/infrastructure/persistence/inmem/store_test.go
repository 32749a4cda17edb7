package inmem

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/firm"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/office"
)

func TestTransactor_SavepointRollsBackOnlyItsScope(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	firms := NewFirmRepository(store)
	tx := NewTransactor(store)

	err := tx.InTx(ctx, func(ctx context.Context) error {
		_, err := firms.Create(ctx, firm.New("F1", "One", firm.TypeLegalServicesProvider, ""))
		require.NoError(t, err)

		spErr := tx.InSavepoint(ctx, func(ctx context.Context) error {
			_, err := firms.Create(ctx, firm.New("F2", "Two", firm.TypeLegalServicesProvider, ""))
			require.NoError(t, err)
			return errors.New("boom")
		})
		require.Error(t, spErr)
		return nil
	})
	require.NoError(t, err)

	all, err := firms.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "F1", all[0].Code())
}

func TestTransactor_FailedTxRestoresEverything(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	firms := NewFirmRepository(store)

	err := NewTransactor(store).InTx(ctx, func(ctx context.Context) error {
		_, err := firms.Create(ctx, firm.New("F1", "One", firm.TypeChambers, ""))
		require.NoError(t, err)
		return errors.New("commit refused")
	})
	require.Error(t, err)
	require.Equal(t, 0, store.firms.Len())
}

func TestFirmRepository_Constraints(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	firms := NewFirmRepository(store)

	created, err := firms.Create(ctx, firm.New("F1", "One", firm.TypeChambers, ""))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID())
	require.False(t, created.CreatedAt().IsZero())

	_, err = firms.Create(ctx, firm.New("F1", "Other", firm.TypeChambers, ""))
	require.ErrorIs(t, err, firm.ErrCodeTaken)

	_, err = firms.Create(ctx, firm.New("F2", "One", firm.TypeChambers, ""))
	require.ErrorIs(t, err, firm.ErrNameTaken)

	_, err = firms.Create(ctx, firm.New("F3", "Three", firm.TypeChambers, "NOPE"))
	require.ErrorContains(t, err, "parent firm NOPE does not exist")

	require.ErrorIs(t, firms.Update(ctx, firm.New("F9", "Nine", firm.TypeChambers, "")), firm.ErrNotFound)

	_, err = firms.GetByCode(ctx, "F9")
	require.ErrorIs(t, err, firm.ErrNotFound)
}

func TestFirmRepository_DetachChildren(t *testing.T) {
	ctx := context.Background()
	firms := NewFirmRepository(NewStore())

	_, err := firms.Create(ctx, firm.New("P1", "Parent", firm.TypeChambers, ""))
	require.NoError(t, err)
	_, err = firms.Create(ctx, firm.New("C1", "Child one", firm.TypeChambers, "P1"))
	require.NoError(t, err)
	_, err = firms.Create(ctx, firm.New("C2", "Child two", firm.TypeChambers, "P1"))
	require.NoError(t, err)

	n, err := firms.DetachChildren(ctx, "P1")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	c1, err := firms.GetByCode(ctx, "C1")
	require.NoError(t, err)
	require.Empty(t, c1.ParentCode())
}

func TestOfficeRepository_RequiresOwner(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	firms := NewFirmRepository(store)
	offices := NewOfficeRepository(store)

	owner, err := firms.Create(ctx, firm.New("F1", "One", firm.TypeChambers, ""))
	require.NoError(t, err)

	addr := office.NewAddress("1 High St", "", "", "Leeds", "LS1 1AA")
	_, err = offices.Create(ctx, office.New("O1", owner.ID(), "F1", addr))
	require.NoError(t, err)

	_, err = offices.Create(ctx, office.New("O1", owner.ID(), "F1", addr))
	require.ErrorIs(t, err, office.ErrCodeTaken)

	_, err = offices.Create(ctx, office.New("O2", owner.ID(), "F2", addr))
	require.ErrorContains(t, err, "owning firm F2 does not exist")

	all, err := offices.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}
