package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/firm"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/office"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/snapshot"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/syncplan"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/syncresult"
	"github.com/jacksonlee411/provider-portal/pkg/logging"
)

var (
	ErrFetchFailed = errors.New("registry snapshot fetch failed")
	ErrStoreFailed = errors.New("local store reconciliation failed")
)

const abortedWarning = "Sync aborted - application is shutting down"

var tracer = otel.Tracer("provider-portal/provider-sync")

type ReconcilerOptions struct {
	// ApplyDeactivations soft-disables firms and offices the registry no longer
	// reports. When false absent entities are only counted.
	ApplyDeactivations bool
	Logger             *logrus.Entry
}

// Reconciler brings the local firm and office collections in line with one
// registry snapshot.
type Reconciler struct {
	source  SnapshotSource
	firms   firm.Repository
	offices office.Repository
	tx      Transactor
	opts    ReconcilerOptions
	log     *logrus.Entry
}

func NewReconciler(
	source SnapshotSource,
	firms firm.Repository,
	offices office.Repository,
	tx Transactor,
	opts ReconcilerOptions,
) *Reconciler {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Reconciler{
		source:  source,
		firms:   firms,
		offices: offices,
		tx:      tx,
		opts:    opts,
		log:     log.WithField("component", "provider.sync"),
	}
}

// Check fetches and normalizes a snapshot and runs the integrity rules on it.
// Nothing is written.
func (r *Reconciler) Check(ctx context.Context) (*snapshot.Snapshot, []string, error) {
	rows, err := r.fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	s, warnings := r.normalize(ctx, rows)
	return s, warnings, nil
}

// Run performs one full reconciliation. A fatal fetch or store failure yields
// a result carrying a single error together with a wrapped sentinel; entity
// level failures only land in the result.
func (r *Reconciler) Run(ctx context.Context) (*syncresult.Result, error) {
	ctx, span := tracer.Start(ctx, "provider.sync.run")
	defer span.End()
	started := time.Now()

	rows, err := r.fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		r.log.WithError(err).Error("provider sync: registry fetch failed")
		return syncresult.Failed("Failed to fetch registry snapshot: " + err.Error()),
			fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	res := syncresult.New()
	s, warnings := r.normalize(ctx, rows)
	res.Warnings = append(res.Warnings, warnings...)

	// Entity work must not be torn down half way by a cancelled caller, so the
	// transaction runs detached and the caller's ctx is only polled between
	// entities.
	stop := ctx.Done()
	err = r.tx.InTx(context.WithoutCancel(ctx), func(txCtx context.Context) error {
		return r.reconcile(txCtx, s, res, stop)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store failed")
		r.log.WithError(err).Error("provider sync: local store failed")
		return syncresult.Failed("Failed to reconcile local store: " + err.Error()),
			fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}

	r.summarize(span, res, time.Since(started))
	return res, nil
}

func (r *Reconciler) fetch(ctx context.Context) ([]snapshot.Row, error) {
	ctx, span := tracer.Start(ctx, "provider.sync.fetch")
	defer span.End()

	rows, err := r.source.Fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("provider.sync.rows", len(rows)))
	r.log.WithField("rows", len(rows)).Info("provider sync: fetched registry snapshot")
	return rows, nil
}

func (r *Reconciler) normalize(ctx context.Context, rows []snapshot.Row) (*snapshot.Snapshot, []string) {
	_, span := tracer.Start(ctx, "provider.sync.normalize")
	s := snapshot.Normalize(rows)
	span.End()

	_, span = tracer.Start(ctx, "provider.sync.integrity_check")
	defer span.End()
	warnings := s.CheckIntegrity()
	span.SetAttributes(
		attribute.Int("provider.sync.firms", len(s.Firms)),
		attribute.Int("provider.sync.offices", len(s.Offices)),
		attribute.Int("provider.sync.warnings", len(warnings)),
	)
	r.log.WithFields(logrus.Fields{
		"firms":    len(s.Firms),
		"offices":  len(s.Offices),
		"warnings": len(warnings),
	}).Info("provider sync: snapshot checked")
	return s, warnings
}

func (r *Reconciler) reconcile(ctx context.Context, s *snapshot.Snapshot, res *syncresult.Result, stop <-chan struct{}) error {
	local, err := r.firms.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load firms: %w", err)
	}
	if !r.firmPass(ctx, s, local, res, stop) {
		res.AddWarning(abortedWarning)
		return nil
	}

	reloaded, err := r.reloadFirms(ctx)
	if err != nil {
		res.AddError("Failed to reload firms: %v", err)
		return nil
	}

	var localOffices []office.Office
	if err := r.tx.InSavepoint(ctx, func(ctx context.Context) error {
		var err error
		localOffices, err = r.offices.GetAll(ctx)
		return err
	}); err != nil {
		res.AddError("Failed to load offices: %v", err)
		return nil
	}
	if !r.officePass(ctx, s, firm.IndexByCode(reloaded), localOffices, res, stop) {
		res.AddWarning(abortedWarning)
		return nil
	}
	if r.opts.ApplyDeactivations {
		r.retireEmptyFirms(ctx, res)
	}
	return nil
}

// firmPass reports false when it stopped early because stop was closed.
func (r *Reconciler) firmPass(ctx context.Context, s *snapshot.Snapshot, local []firm.Firm, res *syncresult.Result, stop <-chan struct{}) bool {
	ctx, span := tracer.Start(ctx, "provider.sync.firm_pass")
	defer span.End()

	plan := syncplan.PlanFirms(s.Firms, local)
	dir := NewFirmDirectory(s.Firms, local)

	for _, rec := range dir.ParentsFirst(plan.Create) {
		if stopped(stop) {
			return false
		}
		r.apply(ctx, res, "create firm", rec.Code, func(ctx context.Context) error {
			return CreateFirm(ctx, r.firms, dir, rec, res)
		})
	}
	for _, u := range plan.Update {
		if stopped(stop) {
			return false
		}
		r.apply(ctx, res, "update firm", u.Record.Code, func(ctx context.Context) error {
			return UpdateFirm(ctx, r.firms, dir, u.Local, u.Record, res)
		})
	}
	for _, f := range plan.Absent {
		if stopped(stop) {
			return false
		}
		if !r.opts.ApplyDeactivations {
			res.FirmsDeactivated++
			continue
		}
		r.apply(ctx, res, "deactivate firm", f.Code(), func(ctx context.Context) error {
			return DeactivateFirm(ctx, r.firms, f, res)
		})
	}

	span.SetAttributes(
		attribute.Int("provider.sync.firms.created", res.FirmsCreated),
		attribute.Int("provider.sync.firms.updated", res.FirmsUpdated),
	)
	r.log.WithFields(logrus.Fields{
		"created":     res.FirmsCreated,
		"updated":     res.FirmsUpdated,
		"reactivated": res.FirmsReactivated,
		"deactivated": res.FirmsDeactivated,
	}).Info("provider sync: firm pass done")
	return true
}

func (r *Reconciler) reloadFirms(ctx context.Context) ([]firm.Firm, error) {
	ctx, span := tracer.Start(ctx, "provider.sync.reload_firms")
	defer span.End()

	var firms []firm.Firm
	err := r.tx.InSavepoint(ctx, func(ctx context.Context) error {
		var err error
		firms, err = r.firms.GetAll(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		r.log.WithError(err).Error("provider sync: reloading firms failed")
		return nil, err
	}
	r.log.WithField("firms", len(firms)).Debug("provider sync: firms reloaded")
	return firms, nil
}

func (r *Reconciler) officePass(
	ctx context.Context,
	s *snapshot.Snapshot,
	firms map[string]firm.Firm,
	local []office.Office,
	res *syncresult.Result,
	stop <-chan struct{},
) bool {
	ctx, span := tracer.Start(ctx, "provider.sync.office_pass")
	defer span.End()

	plan := syncplan.PlanOffices(s.Offices, local)

	for _, rec := range plan.Create {
		if stopped(stop) {
			return false
		}
		owner, ok := firms[rec.FirmCode]
		if !ok {
			res.AddError("Parent firm %s not found for office %s", rec.FirmCode, rec.Code)
			continue
		}
		r.apply(ctx, res, "create office", rec.Code, func(ctx context.Context) error {
			return CreateOffice(ctx, r.offices, owner, rec, res)
		})
	}
	for _, u := range plan.Update {
		if stopped(stop) {
			return false
		}
		owner, ok := firms[u.Record.FirmCode]
		if !ok {
			res.AddError("Parent firm %s not found for office %s", u.Record.FirmCode, u.Record.Code)
			continue
		}
		r.apply(ctx, res, "update office", u.Record.Code, func(ctx context.Context) error {
			return UpdateOffice(ctx, r.offices, u.Local, owner, u.Record, res)
		})
	}
	for _, o := range plan.Absent {
		if stopped(stop) {
			return false
		}
		if !r.opts.ApplyDeactivations {
			res.OfficesDeactivated++
			continue
		}
		r.apply(ctx, res, "deactivate office", o.Code(), func(ctx context.Context) error {
			return DeactivateOffice(ctx, r.offices, o, res)
		})
	}

	r.log.WithFields(logrus.Fields{
		"created":     res.OfficesCreated,
		"updated":     res.OfficesUpdated,
		"reactivated": res.OfficesReactivated,
		"deactivated": res.OfficesDeactivated,
	}).Info("provider sync: office pass done")
	return true
}

// retireEmptyFirms deactivates enabled firms left without an enabled office,
// such as a new firm whose only office failed to sync.
func (r *Reconciler) retireEmptyFirms(ctx context.Context, res *syncresult.Result) {
	ctx, span := tracer.Start(ctx, "provider.sync.empty_firms")
	defer span.End()

	var (
		firms   []firm.Firm
		offices []office.Office
	)
	err := r.tx.InSavepoint(ctx, func(ctx context.Context) error {
		var err error
		if firms, err = r.firms.GetAll(ctx); err != nil {
			return err
		}
		offices, err = r.offices.GetAll(ctx)
		return err
	})
	if err != nil {
		res.AddError("Failed to check firms without offices: %v", err)
		return
	}

	staffed := make(map[string]bool, len(offices))
	for _, o := range offices {
		if o.Enabled() {
			staffed[o.FirmCode()] = true
		}
	}
	retired := 0
	for _, f := range firms {
		if !f.Enabled() || staffed[f.Code()] {
			continue
		}
		res.AddWarning("Firm %s has no active offices - deactivating", f.Code())
		r.apply(ctx, res, "deactivate firm", f.Code(), func(ctx context.Context) error {
			return DeactivateFirm(ctx, r.firms, f, res)
		})
		retired++
	}
	span.SetAttributes(attribute.Int("provider.sync.firms.retired", retired))
	if retired > 0 {
		r.log.WithField("firms", retired).Warn("provider sync: deactivated firms without offices")
	}
}

// apply runs one entity command in its own savepoint. A failure is recorded
// against the entity and the pass moves on.
func (r *Reconciler) apply(ctx context.Context, res *syncresult.Result, action, code string, fn func(context.Context) error) {
	if err := r.tx.InSavepoint(ctx, fn); err != nil {
		res.AddError("Failed to %s %s: %v", action, code, err)
		r.log.WithError(err).WithField("code", code).Warnf("provider sync: %s failed", action)
	}
}

func (r *Reconciler) summarize(span trace.Span, res *syncresult.Result, elapsed time.Duration) {
	span.SetAttributes(
		attribute.Int("provider.sync.total", res.Total()),
		attribute.Int("provider.sync.errors", len(res.Errors)),
	)
	entry := r.log.WithFields(logrus.Fields{
		"duration": elapsed,
		"total":    res.Total(),
		"warnings": len(res.Warnings),
		"errors":   len(res.Errors),
	})
	if res.HasErrors() {
		span.SetStatus(codes.Error, "entity errors")
		entry.Warn("provider sync: completed with errors")
		return
	}
	entry.Info("provider sync: completed")
}

func stopped(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}
