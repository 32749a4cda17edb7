package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/firm"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/office"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/snapshot"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/syncresult"
)

// FirmDirectory answers the lookups firm commands need while a firm pass is
// running: parent validation against the checked snapshot and the local
// store, and name ownership across local firms.
type FirmDirectory struct {
	records   map[string]snapshot.FirmRecord
	local     map[string]firm.Firm
	names     map[string]string
	effective map[string]string
}

func NewFirmDirectory(records map[string]snapshot.FirmRecord, local []firm.Firm) *FirmDirectory {
	names := make(map[string]string, len(local))
	for _, f := range local {
		names[f.Name()] = f.Code()
	}
	return &FirmDirectory{
		records:   records,
		local:     firm.IndexByCode(local),
		names:     names,
		effective: make(map[string]string, len(records)),
	}
}

// ResolveParent returns the parent code the firm should carry, or "" when the
// registry parent is unusable. Each rejection adds a warning.
func (d *FirmDirectory) ResolveParent(rec snapshot.FirmRecord, res *syncresult.Result) string {
	return d.resolve(rec, res)
}

// ParentsFirst orders records so that every firm whose parent survives
// resolution comes after the firms that end up without one.
func (d *FirmDirectory) ParentsFirst(records []snapshot.FirmRecord) []snapshot.FirmRecord {
	out := make([]snapshot.FirmRecord, 0, len(records))
	var children []snapshot.FirmRecord
	for _, rec := range records {
		if d.parentOf(rec.Code) == "" {
			out = append(out, rec)
		} else {
			children = append(children, rec)
		}
	}
	return append(out, children...)
}

// resolve applies the parent rules; a nil res resolves silently.
func (d *FirmDirectory) resolve(rec snapshot.FirmRecord, res *syncresult.Result) string {
	warn := func(format string, args ...any) {
		if res != nil {
			res.AddWarning(format, args...)
		}
	}
	code := strings.TrimSpace(rec.ParentCode)
	if code == "" || strings.EqualFold(code, "null") {
		return ""
	}
	if code == rec.Code {
		warn("Firm %s lists itself as parent - ignoring parent", rec.Code)
		return ""
	}
	if d.inCycle(rec.Code) {
		warn("Firm %s is part of a parent cycle - ignoring parent", rec.Code)
		return ""
	}

	var parentType firm.Type
	if parent, ok := d.records[code]; ok {
		t, err := firm.ParseType(parent.Type)
		if err != nil {
			// the parent itself fails to sync, so the link would dangle
			warn("Parent firm %s not found for firm %s", code, rec.Code)
			return ""
		}
		parentType = t
	} else if parent, ok := d.local[code]; ok {
		parentType = parent.Type()
	} else {
		warn("Parent firm %s not found for firm %s", code, rec.Code)
		return ""
	}
	if !parentType.CanBeParent() {
		warn("Parent firm %s is ADVOCATE type for firm %s - ADVOCATE firms cannot be parents", code, rec.Code)
		return ""
	}
	if grand := d.parentOf(code); grand != "" {
		warn("Parent firm %s of firm %s has its own parent %s - multi-level hierarchy is not supported", code, rec.Code, grand)
		return ""
	}
	return code
}

// parentOf is the parent a firm ends up with after this pass: the resolved
// registry parent when the registry reports it, the stored one otherwise.
func (d *FirmDirectory) parentOf(code string) string {
	if p, ok := d.effective[code]; ok {
		return p
	}
	var p string
	if rec, ok := d.records[code]; ok {
		p = d.resolve(rec, nil)
	} else if f, ok := d.local[code]; ok {
		p = f.ParentCode()
	}
	d.effective[code] = p
	return p
}

// inCycle follows registry parent links from code and reports whether they
// lead back to it.
func (d *FirmDirectory) inCycle(code string) bool {
	next := code
	for range len(d.records) {
		rec, ok := d.records[next]
		if !ok || rec.ParentCode == "" {
			return false
		}
		next = rec.ParentCode
		if next == code {
			return true
		}
	}
	return false
}

func (d *FirmDirectory) nameOwner(name string) (string, bool) {
	code, ok := d.names[name]
	return code, ok
}

func (d *FirmDirectory) claim(code, name string) {
	d.names[name] = code
}

func (d *FirmDirectory) rename(code, from, to string) {
	if owner, ok := d.names[from]; ok && owner == code {
		delete(d.names, from)
	}
	d.claim(code, to)
}

// CreateFirm persists a new enabled firm for a registry record.
func CreateFirm(ctx context.Context, repo firm.Repository, dir *FirmDirectory, rec snapshot.FirmRecord, res *syncresult.Result) error {
	t, err := firm.ParseType(rec.Type)
	if err != nil {
		return err
	}
	if owner, taken := dir.nameOwner(rec.Name); taken && owner != rec.Code {
		return fmt.Errorf("%w: %q is used by firm %s", firm.ErrNameTaken, rec.Name, owner)
	}

	f := firm.New(rec.Code, rec.Name, t, dir.ResolveParent(rec, res))
	if err := f.Validate(); err != nil {
		return err
	}
	if _, err := repo.Create(ctx, f); err != nil {
		return err
	}
	dir.claim(rec.Code, rec.Name)
	res.FirmsCreated++
	return nil
}

// UpdateFirm brings an existing firm in line with its registry record. A
// disabled firm that reappears is re-enabled and counted as reactivated
// rather than updated. Type changes are refused.
func UpdateFirm(ctx context.Context, repo firm.Repository, dir *FirmDirectory, local firm.Firm, rec snapshot.FirmRecord, res *syncresult.Result) error {
	t, err := firm.ParseType(rec.Type)
	if err != nil {
		return err
	}
	if t != local.Type() {
		res.AddWarning("CRITICAL: Firm %s type change rejected: %s -> %s", local.Code(), local.Type(), t)
		return nil
	}

	next := local
	reactivated := false
	if !local.Enabled() {
		next = next.WithEnabled(true)
		reactivated = true
	}

	if rec.Name != local.Name() {
		if owner, taken := dir.nameOwner(rec.Name); taken && owner != local.Code() {
			res.AddWarning("Firm %s name change to '%s' skipped: name already used by firm %s", local.Code(), rec.Name, owner)
		} else {
			next = next.WithName(rec.Name)
		}
	}

	if parent := dir.ResolveParent(rec, res); parent != local.ParentCode() {
		next = next.WithParentCode(parent)
	}

	if next == local {
		return nil
	}
	if err := next.Validate(); err != nil {
		return err
	}
	if err := repo.Update(ctx, next); err != nil {
		return err
	}
	if next.Name() != local.Name() {
		dir.rename(local.Code(), local.Name(), next.Name())
	}
	if reactivated {
		res.FirmsReactivated++
	} else {
		res.FirmsUpdated++
	}
	return nil
}

// DeactivateFirm soft-disables a firm the registry no longer reports and
// detaches it from any hierarchy. Offices and history are kept so the firm can
// be re-enabled if it returns.
func DeactivateFirm(ctx context.Context, repo firm.Repository, local firm.Firm, res *syncresult.Result) error {
	if !local.Enabled() {
		return nil
	}
	if _, err := repo.DetachChildren(ctx, local.Code()); err != nil {
		return fmt.Errorf("detach child firms: %w", err)
	}
	if err := repo.Update(ctx, local.WithEnabled(false).WithParentCode("")); err != nil {
		return err
	}
	res.FirmsDeactivated++
	return nil
}

func addressOf(rec snapshot.OfficeRecord) office.Address {
	return office.NewAddress(rec.AddressLine1, rec.AddressLine2, rec.AddressLine3, rec.City, rec.Postcode)
}

// CreateOffice persists a new office under owner.
func CreateOffice(ctx context.Context, repo office.Repository, owner firm.Firm, rec snapshot.OfficeRecord, res *syncresult.Result) error {
	o := office.New(rec.Code, owner.ID(), owner.Code(), addressOf(rec))
	if err := o.Validate(); err != nil {
		return err
	}
	if _, err := repo.Create(ctx, o); err != nil {
		return err
	}
	res.OfficesCreated++
	return nil
}

// UpdateOffice moves an office to owner when the registry says so and applies
// address changes field by field.
func UpdateOffice(ctx context.Context, repo office.Repository, local office.Office, owner firm.Firm, rec snapshot.OfficeRecord, res *syncresult.Result) error {
	next := local
	reactivated := false
	if !local.Enabled() {
		next = next.WithEnabled(true)
		reactivated = true
	}
	if local.FirmID() != owner.ID() {
		next = next.WithFirm(owner.ID(), owner.Code())
	}
	if addr := addressOf(rec); addr != local.Address() {
		next = next.WithAddress(addr)
	}

	if next == local {
		return nil
	}
	if err := next.Validate(); err != nil {
		return err
	}
	if err := repo.Update(ctx, next); err != nil {
		return err
	}
	if reactivated {
		res.OfficesReactivated++
	} else {
		res.OfficesUpdated++
	}
	return nil
}

// DeactivateOffice soft-disables an office the registry no longer reports.
func DeactivateOffice(ctx context.Context, repo office.Repository, local office.Office, res *syncresult.Result) error {
	if !local.Enabled() {
		return nil
	}
	if err := repo.Update(ctx, local.WithEnabled(false)); err != nil {
		return err
	}
	res.OfficesDeactivated++
	return nil
}
