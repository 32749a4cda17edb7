package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/syncresult"
	"github.com/jacksonlee411/provider-portal/pkg/logging"
)

const DefaultSchedule = "0 0 7 * * *"

type Triggerer interface {
	Trigger(ctx context.Context, source string) (*syncresult.Result, error)
}

type SchedulerOptions struct {
	// Spec is a six-field cron expression (seconds first).
	Spec         string
	RunOnStartup bool
	Logger       *logrus.Entry
}

func (o *SchedulerOptions) setDefaults() {
	if o.Spec == "" {
		o.Spec = DefaultSchedule
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
}

// Scheduler fires a reconciliation on a cron schedule. A tick that finds the
// previous one still running is skipped; there is no retry beyond the next tick.
type Scheduler struct {
	cron    *cron.Cron
	trigger Triggerer
	opts    SchedulerOptions
	log     *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(trigger Triggerer, opts SchedulerOptions) (*Scheduler, error) {
	opts.setDefaults()
	log := opts.Logger.WithField("component", "scheduler")
	logger := cron.PrintfLogger(log)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		trigger: trigger,
		opts:    opts,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	if _, err := s.cron.AddFunc(opts.Spec, s.tick); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid sync schedule %q: %w", opts.Spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.WithField("schedule", s.opts.Spec).Info("sync scheduler started")
	if s.opts.RunOnStartup {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.tick()
		}()
	}
}

// Stop prevents further ticks and waits for a running one, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronDone := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		s.log.Info("sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		return fmt.Errorf("sync scheduler stop: %w", ctx.Err())
	}
}

// RunNow fires a scheduler-sourced run immediately and waits for it.
func (s *Scheduler) RunNow(ctx context.Context) (*syncresult.Result, error) {
	return s.trigger.Trigger(ctx, SourceScheduler)
}

// Next is the time of the upcoming tick, zero when stopped.
func (s *Scheduler) Next() time.Time {
	for _, e := range s.cron.Entries() {
		if !e.Next.IsZero() {
			return e.Next
		}
	}
	return time.Time{}
}

func (s *Scheduler) tick() {
	s.log.Info("scheduled provider sync starting")
	if _, err := s.trigger.Trigger(s.ctx, SourceScheduler); err != nil {
		s.log.WithError(err).Error("scheduled provider sync failed")
	}
}
