package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/firm"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/snapshot"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/syncresult"
	"github.com/jacksonlee411/provider-portal/modules/provider/infrastructure/persistence/inmem"
)

func firmRecord(code, name, typ, parent string) snapshot.FirmRecord {
	return snapshot.FirmRecord{Code: code, Name: name, Type: typ, ParentCode: parent}
}

func TestResolveParent(t *testing.T) {
	dir := NewFirmDirectory(map[string]snapshot.FirmRecord{
		"P1": firmRecord("P1", "Parent", "Chambers", ""),
		"A1": firmRecord("A1", "Advocate", "Advocate", ""),
		"M1": firmRecord("M1", "Middle", "Chambers", "P1"),
		"P2": firmRecord("P2", "Orphaned Parent", "Chambers", "ZZ"),
		"X1": firmRecord("X1", "Loop One", "Chambers", "X2"),
		"X2": firmRecord("X2", "Loop Two", "Chambers", "X1"),
	}, []firm.Firm{
		firm.New("L1", "Local Only", firm.TypeChambers, ""),
		firm.New("L2", "Local Child", firm.TypeChambers, "L1"),
	})

	cases := []struct {
		name    string
		parent  string
		want    string
		warning string
	}{
		{name: "none", parent: "", want: ""},
		{name: "valid", parent: "P1", want: "P1"},
		{name: "self", parent: "C1", want: "", warning: "Firm C1 lists itself as parent - ignoring parent"},
		{name: "unknown", parent: "ZZ", want: "", warning: "Parent firm ZZ not found for firm C1"},
		{name: "advocate", parent: "A1", want: "", warning: "Parent firm A1 is ADVOCATE type for firm C1 - ADVOCATE firms cannot be parents"},
		{name: "multi-level", parent: "M1", want: "", warning: "Parent firm M1 of firm C1 has its own parent P1 - multi-level hierarchy is not supported"},
		{name: "parent whose own parent is dropped", parent: "P2", want: "P2"},
		{name: "local parent", parent: "L1", want: "L1"},
		{name: "local multi-level", parent: "L2", want: "", warning: "Parent firm L2 of firm C1 has its own parent L1 - multi-level hierarchy is not supported"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := syncresult.New()
			got := dir.ResolveParent(firmRecord("C1", "Child", "Chambers", tc.parent), res)
			require.Equal(t, tc.want, got)
			if tc.warning == "" {
				require.Empty(t, res.Warnings)
				return
			}
			require.Equal(t, []string{tc.warning}, res.Warnings)
		})
	}
}

func TestResolveParent_Cycle(t *testing.T) {
	records := map[string]snapshot.FirmRecord{
		"X1": firmRecord("X1", "Loop One", "Chambers", "X2"),
		"X2": firmRecord("X2", "Loop Two", "Chambers", "X1"),
	}
	dir := NewFirmDirectory(records, nil)

	res := syncresult.New()
	require.Empty(t, dir.ResolveParent(records["X1"], res))
	require.Empty(t, dir.ResolveParent(records["X2"], res))
	require.Equal(t, []string{
		"Firm X1 is part of a parent cycle - ignoring parent",
		"Firm X2 is part of a parent cycle - ignoring parent",
	}, res.Warnings)
}

func TestFirmDirectory_ParentsFirst(t *testing.T) {
	records := map[string]snapshot.FirmRecord{
		"C1": firmRecord("C1", "Child", "Chambers", "P1"),
		"P1": firmRecord("P1", "Parent", "Chambers", "X9"),
		"R1": firmRecord("R1", "Root", "Chambers", ""),
	}
	dir := NewFirmDirectory(records, nil)

	ordered := dir.ParentsFirst([]snapshot.FirmRecord{records["C1"], records["P1"], records["R1"]})
	codes := make([]string, 0, len(ordered))
	for _, rec := range ordered {
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []string{"P1", "R1", "C1"}, codes)
}

func TestCreateFirm(t *testing.T) {
	ctx := context.Background()
	repo := inmem.NewFirmRepository(inmem.NewStore())
	records := map[string]snapshot.FirmRecord{"F1": firmRecord("F1", "Acme", "Sole Practitioner", "")}
	dir := NewFirmDirectory(records, nil)
	res := syncresult.New()

	require.NoError(t, CreateFirm(ctx, repo, dir, records["F1"], res))
	require.Equal(t, 1, res.FirmsCreated)

	created, err := repo.GetByCode(ctx, "F1")
	require.NoError(t, err)
	require.Equal(t, firm.TypeSolePractitioner, created.Type())
	require.True(t, created.Enabled())

	err = CreateFirm(ctx, repo, dir, firmRecord("F2", "Acme", "Chambers", ""), res)
	require.ErrorIs(t, err, firm.ErrNameTaken)

	err = CreateFirm(ctx, repo, dir, firmRecord("F3", "Blank", "", ""), res)
	require.ErrorIs(t, err, firm.ErrEmptyType)
	require.Equal(t, 1, res.FirmsCreated)
}

func TestUpdateFirm_TypeChangeRejected(t *testing.T) {
	ctx := context.Background()
	repo := inmem.NewFirmRepository(inmem.NewStore())
	local, err := repo.Create(ctx, firm.New("F1", "Acme", firm.TypeChambers, ""))
	require.NoError(t, err)

	rec := firmRecord("F1", "Renamed", "Partnership", "")
	dir := NewFirmDirectory(map[string]snapshot.FirmRecord{"F1": rec}, []firm.Firm{local})
	res := syncresult.New()

	require.NoError(t, UpdateFirm(ctx, repo, dir, local, rec, res))
	require.Equal(t, []string{"CRITICAL: Firm F1 type change rejected: CHAMBERS -> PARTNERSHIP"}, res.Warnings)
	require.Zero(t, res.FirmsUpdated)

	stored, err := repo.GetByCode(ctx, "F1")
	require.NoError(t, err)
	require.Equal(t, "Acme", stored.Name())
}

func TestUpdateFirm_NameConflictKeepsOtherChanges(t *testing.T) {
	ctx := context.Background()
	repo := inmem.NewFirmRepository(inmem.NewStore())
	parent, err := repo.Create(ctx, firm.New("P1", "Parent", firm.TypeChambers, ""))
	require.NoError(t, err)
	other, err := repo.Create(ctx, firm.New("F2", "Taken", firm.TypeChambers, ""))
	require.NoError(t, err)
	local, err := repo.Create(ctx, firm.New("F1", "Acme", firm.TypeChambers, ""))
	require.NoError(t, err)

	rec := firmRecord("F1", "Taken", "Chambers", "P1")
	records := map[string]snapshot.FirmRecord{
		"P1": firmRecord("P1", "Parent", "Chambers", ""),
		"F1": rec,
	}
	dir := NewFirmDirectory(records, []firm.Firm{parent, other, local})
	res := syncresult.New()

	require.NoError(t, UpdateFirm(ctx, repo, dir, local, rec, res))
	require.Equal(t, []string{"Firm F1 name change to 'Taken' skipped: name already used by firm F2"}, res.Warnings)
	require.Equal(t, 1, res.FirmsUpdated)

	stored, err := repo.GetByCode(ctx, "F1")
	require.NoError(t, err)
	require.Equal(t, "Acme", stored.Name())
	require.Equal(t, "P1", stored.ParentCode())
}

func TestUpdateFirm_UnchangedIsNotCounted(t *testing.T) {
	ctx := context.Background()
	repo := inmem.NewFirmRepository(inmem.NewStore())
	local, err := repo.Create(ctx, firm.New("F1", "Acme", firm.TypeChambers, ""))
	require.NoError(t, err)

	rec := firmRecord("F1", "Acme", "CHAMBERS", "null")
	res := syncresult.New()
	require.NoError(t, UpdateFirm(ctx, repo, NewFirmDirectory(nil, []firm.Firm{local}), local, rec, res))
	require.Zero(t, res.Total())
}

func TestDeactivateFirm_DetachesChildren(t *testing.T) {
	ctx := context.Background()
	repo := inmem.NewFirmRepository(inmem.NewStore())
	parent, err := repo.Create(ctx, firm.New("P1", "Parent", firm.TypeChambers, ""))
	require.NoError(t, err)
	_, err = repo.Create(ctx, firm.New("C1", "Child", firm.TypeChambers, "P1"))
	require.NoError(t, err)

	res := syncresult.New()
	require.NoError(t, DeactivateFirm(ctx, repo, parent, res))
	require.Equal(t, 1, res.FirmsDeactivated)

	child, err := repo.GetByCode(ctx, "C1")
	require.NoError(t, err)
	require.Empty(t, child.ParentCode())

	stored, err := repo.GetByCode(ctx, "P1")
	require.NoError(t, err)
	require.False(t, stored.Enabled())

	require.NoError(t, DeactivateFirm(ctx, repo, stored, res))
	require.Equal(t, 1, res.FirmsDeactivated)
}

func TestOfficeCommands(t *testing.T) {
	ctx := context.Background()
	store := inmem.NewStore()
	firms := inmem.NewFirmRepository(store)
	offices := inmem.NewOfficeRepository(store)

	owner, err := firms.Create(ctx, firm.New("F1", "Acme", firm.TypeChambers, ""))
	require.NoError(t, err)
	mover, err := firms.Create(ctx, firm.New("F2", "Bravo", firm.TypeChambers, ""))
	require.NoError(t, err)

	rec := snapshot.OfficeRecord{Code: "O1", FirmCode: "F1", AddressLine1: "1 High St", AddressLine2: "  ", City: "Leeds", Postcode: "LS1 1AA"}
	res := syncresult.New()
	require.NoError(t, CreateOffice(ctx, offices, owner, rec, res))
	require.Equal(t, 1, res.OfficesCreated)

	all, err := offices.GetAll(ctx)
	require.NoError(t, err)
	local := all[0]
	require.Empty(t, local.Address().Line2)

	require.NoError(t, UpdateOffice(ctx, offices, local, owner, rec, res))
	require.Zero(t, res.OfficesUpdated)

	rec.FirmCode = "F2"
	rec.City = "York"
	require.NoError(t, UpdateOffice(ctx, offices, local, mover, rec, res))
	require.Equal(t, 1, res.OfficesUpdated)

	all, err = offices.GetAll(ctx)
	require.NoError(t, err)
	require.Equal(t, "F2", all[0].FirmCode())
	require.Equal(t, "York", all[0].Address().City)

	bad := snapshot.OfficeRecord{Code: "O2", FirmCode: "F1", AddressLine1: "2 High St", City: "Leeds", Postcode: "X"}
	require.Error(t, CreateOffice(ctx, offices, owner, bad, res))

	require.NoError(t, DeactivateOffice(ctx, offices, all[0], res))
	require.Equal(t, 1, res.OfficesDeactivated)
	all, err = offices.GetAll(ctx)
	require.NoError(t, err)
	require.NoError(t, DeactivateOffice(ctx, offices, all[0], res))
	require.Equal(t, 1, res.OfficesDeactivated)
}
