package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const closeSlack = 5 * time.Second

var schedulerStopGrace = 5 * time.Second

type stopper interface {
	Stop(ctx context.Context) error
}

type closer interface {
	Close(ctx context.Context) error
}

// shutdown stops new ticks, then hands the full lane budget to the drain. The
// scheduler only gets a short grace: a tick still waiting on its run gives up
// the wait, and the run itself finishes inside the lane.
func shutdown(sched stopper, rt closer, laneTimeout time.Duration, logger logrus.FieldLogger) {
	if sched != nil {
		ctx, cancel := context.WithTimeout(context.Background(), schedulerStopGrace)
		if err := sched.Stop(ctx); err != nil {
			logger.WithError(err).Warn("scheduler did not stop cleanly")
		}
		cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), laneTimeout+closeSlack)
	defer cancel()
	if err := rt.Close(ctx); err != nil {
		logger.WithError(err).Warn("shutdown finished with errors")
	}
}
