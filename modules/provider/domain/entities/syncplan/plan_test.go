package syncplan

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/firm"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/office"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/snapshot"
)

func localFirm(code string) firm.Firm {
	return firm.Hydrate(uuid.New(), code, "Firm "+code, firm.TypeChambers, "", true, time.Now(), time.Now())
}

func TestPlanFirms_NewVersusExisting(t *testing.T) {
	records := map[string]snapshot.FirmRecord{
		"F1": {Code: "F1", Name: "One"},
		"F2": {Code: "F2", Name: "Two"},
	}
	p := PlanFirms(records, []firm.Firm{localFirm("F1"), localFirm("F0")})

	require.Len(t, p.Create, 1)
	require.Equal(t, "F2", p.Create[0].Code)
	require.Len(t, p.Update, 1)
	require.Equal(t, "F1", p.Update[0].Local.Code())
	require.Equal(t, "One", p.Update[0].Record.Name)
	require.Len(t, p.Absent, 1)
	require.Equal(t, "F0", p.Absent[0].Code())
}

func TestPlanFirms_DeterministicOrder(t *testing.T) {
	records := map[string]snapshot.FirmRecord{
		"C": {Code: "C"}, "A": {Code: "A"}, "B": {Code: "B"},
	}
	p := PlanFirms(records, nil)
	require.Equal(t, []string{"A", "B", "C"}, []string{p.Create[0].Code, p.Create[1].Code, p.Create[2].Code})
}

func TestBuild_Summary(t *testing.T) {
	f1 := localFirm("F1")
	existing := office.New("O1", f1.ID(), "F1", office.Address{})
	stale := office.New("O7", f1.ID(), "F1", office.Address{})
	s := &snapshot.Snapshot{
		Firms: map[string]snapshot.FirmRecord{"F1": {Code: "F1"}, "F2": {Code: "F2"}},
		Offices: map[string]snapshot.OfficeRecord{
			"O1": {Code: "O1", FirmCode: "F1"},
			"O2": {Code: "O2", FirmCode: "F2"},
		},
	}

	got := Build(s, []firm.Firm{f1}, []office.Office{existing, stale}).Summary()

	require.Equal(t, Summary{
		FirmsToCreate:   1,
		FirmsToUpdate:   1,
		OfficesToCreate: 1,
		OfficesToUpdate: 1,
		OfficesAbsent:   1,
	}, got)
}
