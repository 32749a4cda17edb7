package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/firm"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/office"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/snapshot"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/syncplan"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/syncresult"
	"github.com/jacksonlee411/provider-portal/pkg/lane"
	"github.com/jacksonlee411/provider-portal/pkg/logging"
	"github.com/jacksonlee411/provider-portal/pkg/runlock"
)

const (
	lockKey        = "provider-sync"
	skippedWarning = "Sync skipped - another instance holds the sync lock"
)

type Runner interface {
	Run(ctx context.Context) (*syncresult.Result, error)
}

type Checker interface {
	Check(ctx context.Context) (*snapshot.Snapshot, []string, error)
}

// Submitter is the part of lane.Lane the service needs.
type Submitter interface {
	Submit(job lane.Job) (*lane.Future, error)
	Stats() lane.Stats
}

type SyncServiceOptions struct {
	Locker  runlock.Locker
	Metrics *SyncMetrics
	Logger  *logrus.Entry
}

// Preview is the read-only outcome of planning against the current snapshot.
type Preview struct {
	Rows     int              `json:"rows"`
	Firms    int              `json:"firms"`
	Offices  int              `json:"offices"`
	Plan     syncplan.Summary `json:"plan"`
	Warnings []string         `json:"warnings"`
}

// Status reports what the sync lane is doing right now.
type Status struct {
	Lane    string `json:"lane"`
	Running int    `json:"running"`
	Queued  int    `json:"queued"`
}

// SyncService is the single entry point for starting a reconciliation. Every
// run goes through the lane, so at most one executes per process.
type SyncService struct {
	runner  Runner
	checker Checker
	firms   firm.Repository
	offices office.Repository
	tx      Transactor
	jobs    Submitter
	locker  runlock.Locker
	metrics *SyncMetrics
	log     *logrus.Entry
	laneID  string
}

func NewSyncService(
	runner Runner,
	checker Checker,
	firms firm.Repository,
	offices office.Repository,
	tx Transactor,
	jobs Submitter,
	opts SyncServiceOptions,
) *SyncService {
	if opts.Locker == nil {
		opts.Locker = runlock.Noop{}
	}
	if opts.Metrics == nil {
		opts.Metrics = DefaultSyncMetrics()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	laneID := ""
	if named, ok := jobs.(interface{ Name() string }); ok {
		laneID = named.Name()
	}
	return &SyncService{
		runner:  runner,
		checker: checker,
		firms:   firms,
		offices: offices,
		tx:      tx,
		jobs:    jobs,
		locker:  opts.Locker,
		metrics: opts.Metrics,
		log:     opts.Logger.WithField("component", "provider.sync"),
		laneID:  laneID,
	}
}

// Trigger submits a run to the lane and waits for it. It returns
// lane.ErrSaturated without waiting when the lane is full. When ctx ends the
// wait is abandoned but the run carries on, and its outcome is still recorded.
func (s *SyncService) Trigger(ctx context.Context, source string) (*syncresult.Result, error) {
	s.metrics.Requested(source)
	started := time.Now()
	log := s.log.WithField("source", source)

	future, err := s.jobs.Submit(func(jobCtx context.Context) (any, error) {
		res, err := s.runLocked(jobCtx)
		elapsed := time.Since(started)
		s.metrics.Observe(source, res, err, elapsed)
		s.logOutcome(log, res, err, elapsed)
		return res, err
	})
	if err != nil {
		s.metrics.Observe(source, nil, err, time.Since(started))
		log.WithError(err).Warn("provider sync: run rejected")
		return nil, err
	}

	v, err := future.Wait(ctx)
	if err != nil && ctx.Err() != nil {
		log.WithError(err).Warn("provider sync: stopped waiting, run continues in the lane")
	}
	res, _ := v.(*syncresult.Result)
	return res, err
}

func (s *SyncService) logOutcome(log *logrus.Entry, res *syncresult.Result, err error, elapsed time.Duration) {
	switch {
	case err != nil:
		log.WithError(err).WithField("duration", elapsed).Error("provider sync: run failed")
	case res.HasErrors():
		log.WithFields(logrus.Fields{
			"duration": elapsed,
			"errors":   len(res.Errors),
			"warnings": len(res.Warnings),
		}).Warn("provider sync: run finished with errors")
	default:
		log.WithFields(logrus.Fields{
			"duration": elapsed,
			"total":    res.Total(),
			"warnings": len(res.Warnings),
		}).Info("provider sync: run finished")
	}
}

func (s *SyncService) runLocked(ctx context.Context) (*syncresult.Result, error) {
	release, err := s.locker.Acquire(ctx, lockKey)
	if errors.Is(err, runlock.ErrNotAcquired) {
		res := syncresult.New()
		res.AddWarning(skippedWarning)
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.log.WithError(err).Warn("provider sync: releasing sync lock failed")
		}
	}()
	return s.runner.Run(ctx)
}

// Preview plans a run against the current registry snapshot without writing.
// It does not go through the lane.
func (s *SyncService) Preview(ctx context.Context) (*Preview, error) {
	checked, warnings, err := s.checker.Check(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if warnings == nil {
		warnings = []string{}
	}

	var (
		firms   []firm.Firm
		offices []office.Office
	)
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if firms, err = s.firms.GetAll(ctx); err != nil {
			return err
		}
		offices, err = s.offices.GetAll(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load local state: %w", err)
	}

	return &Preview{
		Rows:     checked.Rows(),
		Firms:    len(checked.Firms),
		Offices:  len(checked.Offices),
		Plan:     syncplan.Build(checked, firms, offices).Summary(),
		Warnings: warnings,
	}, nil
}

func (s *SyncService) Status() Status {
	st := s.jobs.Stats()
	return Status{Lane: s.laneID, Running: st.Running, Queued: st.Queued}
}
