// Package syncplan matches registry records to local entities by business code.
package syncplan

import (
	"sort"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/firm"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/office"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/snapshot"
)

type FirmUpdate struct {
	Local  firm.Firm
	Record snapshot.FirmRecord
}

type OfficeUpdate struct {
	Local  office.Office
	Record snapshot.OfficeRecord
}

// FirmPlan splits the checked firm map into creates and updates, and lists
// local firms the registry no longer reports.
type FirmPlan struct {
	Create []snapshot.FirmRecord
	Update []FirmUpdate
	Absent []firm.Firm
}

type OfficePlan struct {
	Create []snapshot.OfficeRecord
	Update []OfficeUpdate
	Absent []office.Office
}

type Plan struct {
	Firms   FirmPlan
	Offices OfficePlan
}

type Summary struct {
	FirmsToCreate   int `json:"firmsToCreate"`
	FirmsToUpdate   int `json:"firmsToUpdate"`
	FirmsAbsent     int `json:"firmsAbsent"`
	OfficesToCreate int `json:"officesToCreate"`
	OfficesToUpdate int `json:"officesToUpdate"`
	OfficesAbsent   int `json:"officesAbsent"`
}

func PlanFirms(records map[string]snapshot.FirmRecord, local []firm.Firm) FirmPlan {
	byCode := firm.IndexByCode(local)
	var p FirmPlan
	for _, code := range sortedKeys(records) {
		rec := records[code]
		if existing, ok := byCode[code]; ok {
			p.Update = append(p.Update, FirmUpdate{Local: existing, Record: rec})
			continue
		}
		p.Create = append(p.Create, rec)
	}
	for _, f := range local {
		if _, ok := records[f.Code()]; !ok {
			p.Absent = append(p.Absent, f)
		}
	}
	sort.Slice(p.Absent, func(i, j int) bool { return p.Absent[i].Code() < p.Absent[j].Code() })
	return p
}

func PlanOffices(records map[string]snapshot.OfficeRecord, local []office.Office) OfficePlan {
	byCode := office.IndexByCode(local)
	var p OfficePlan
	for _, code := range sortedKeys(records) {
		rec := records[code]
		if existing, ok := byCode[code]; ok {
			p.Update = append(p.Update, OfficeUpdate{Local: existing, Record: rec})
			continue
		}
		p.Create = append(p.Create, rec)
	}
	for _, o := range local {
		if _, ok := records[o.Code()]; !ok {
			p.Absent = append(p.Absent, o)
		}
	}
	sort.Slice(p.Absent, func(i, j int) bool { return p.Absent[i].Code() < p.Absent[j].Code() })
	return p
}

// Build plans both collections against the same local state. The orchestrator
// plans offices separately after firms are reloaded; Build serves previews.
func Build(s *snapshot.Snapshot, firms []firm.Firm, offices []office.Office) Plan {
	return Plan{
		Firms:   PlanFirms(s.Firms, firms),
		Offices: PlanOffices(s.Offices, offices),
	}
}

func (p Plan) Summary() Summary {
	return Summary{
		FirmsToCreate:   len(p.Firms.Create),
		FirmsToUpdate:   len(p.Firms.Update),
		FirmsAbsent:     len(p.Firms.Absent),
		OfficesToCreate: len(p.Offices.Create),
		OfficesToUpdate: len(p.Offices.Update),
		OfficesAbsent:   len(p.Offices.Absent),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
