package lane

import (
	"context"
	"fmt"
	"runtime/debug"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"
)

// Job is a unit of work run by a lane worker. ctx is cancelled only when
// Shutdown gives up waiting for the lane to drain.
type Job func(ctx context.Context) (any, error)

// Lane runs jobs on a fixed set of workers behind a bounded queue.
// Submissions beyond workers+queue capacity are rejected, never buffered.
type Lane struct {
	opts Options
	m    *metrics

	mu       sync.Mutex
	closed   bool
	inflight int
	running  int

	queue chan *task
	wg    sync.WaitGroup

	stopCtx context.Context
	stop    context.CancelFunc
}

type task struct {
	job      Job
	future   *Future
	accepted time.Time
}

type Stats struct {
	Running int `json:"running"`
	Queued  int `json:"queued"`
}

func New(opts Options) (*Lane, error) {
	if opts.Workers < 0 {
		return nil, invalidConfig("workers must be positive, got %d", opts.Workers)
	}
	if opts.QueueCapacity < 0 {
		return nil, invalidConfig("queue capacity must be non-negative, got %d", opts.QueueCapacity)
	}
	if opts.ShutdownTimeout < 0 {
		return nil, invalidConfig("shutdown timeout must be non-negative, got %s", opts.ShutdownTimeout)
	}

	opts.setDefaults()
	if opts.Logger == nil {
		opts.Logger = logrusNop()
	}
	opts.Logger = opts.Logger.WithField("lane", opts.Name)

	stopCtx, stop := context.WithCancel(context.Background())
	l := &Lane{
		opts:    opts,
		m:       getMetrics(),
		queue:   make(chan *task, opts.Workers+opts.QueueCapacity),
		stopCtx: stopCtx,
		stop:    stop,
	}
	for i := 1; i <= opts.Workers; i++ {
		l.wg.Add(1)
		go l.worker(l.opts.Name + "-" + strconv.Itoa(i))
	}
	return l, nil
}

func (l *Lane) Name() string {
	return l.opts.Name
}

// Submit hands job to the lane without blocking. It returns ErrSaturated when
// every worker is busy and the queue is full, and ErrClosed after Shutdown.
func (l *Lane) Submit(job Job) (*Future, error) {
	if job == nil {
		return nil, invalidConfig("job is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		l.m.rejectedTotal.WithLabelValues(l.opts.Name, "closed").Inc()
		return nil, ErrClosed
	}
	if l.inflight >= l.opts.Workers+l.opts.QueueCapacity {
		l.m.rejectedTotal.WithLabelValues(l.opts.Name, "saturated").Inc()
		l.opts.Logger.WithField("inflight", l.inflight).Warn("lane: rejected job, lane saturated")
		return nil, ErrSaturated
	}

	t := &task{job: job, future: newFuture(), accepted: time.Now()}
	l.inflight++
	l.queue <- t
	l.m.submittedTotal.WithLabelValues(l.opts.Name).Inc()
	l.m.queueDepth.WithLabelValues(l.opts.Name).Set(float64(l.inflight - l.running))
	return t.future, nil
}

func (l *Lane) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{Running: l.running, Queued: l.inflight - l.running}
}

// Shutdown stops accepting jobs and waits for queued and running jobs to
// finish. When the wait exceeds the shutdown timeout (or ctx ends first) the
// jobs' context is cancelled and ErrShutdownTimeout is returned.
func (l *Lane) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	pending := l.inflight
	l.mu.Unlock()

	l.opts.Logger.WithField("pending", pending).Info("lane: draining")

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(l.opts.ShutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		l.stop()
		l.opts.Logger.Info("lane: drained")
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}
	l.stop()
	l.opts.Logger.Warn("lane: shutdown deadline reached before drain completed")
	return ErrShutdownTimeout
}

func (l *Lane) worker(id string) {
	defer l.wg.Done()
	labels := pprof.Labels("lane", l.opts.Name, "lane.worker", id)
	pprof.Do(l.stopCtx, labels, func(ctx context.Context) {
		log := l.opts.Logger.WithField("worker", id)
		for t := range l.queue {
			l.markRunning(1)
			log.WithField("waited", time.Since(t.accepted)).Debug("lane: job started")
			value, err := l.run(ctx, t.job)
			l.finish()
			t.future.resolve(value, err)
			if err != nil {
				l.m.completedTotal.WithLabelValues(l.opts.Name, "error").Inc()
				log.WithError(err).Warn("lane: job failed")
				continue
			}
			l.m.completedTotal.WithLabelValues(l.opts.Name, "ok").Inc()
		}
	})
}

func (l *Lane) run(ctx context.Context, job Job) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			l.opts.Logger.WithField("stack", string(debug.Stack())).Error("lane: job panicked")
			err = fmt.Errorf("lane %s: job panicked: %v", l.opts.Name, r)
		}
	}()
	return job(ctx)
}

func (l *Lane) markRunning(delta int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running += delta
	l.m.busy.WithLabelValues(l.opts.Name).Set(float64(l.running))
	l.m.queueDepth.WithLabelValues(l.opts.Name).Set(float64(l.inflight - l.running))
}

func (l *Lane) finish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running--
	l.inflight--
	l.m.busy.WithLabelValues(l.opts.Name).Set(float64(l.running))
	l.m.queueDepth.WithLabelValues(l.opts.Name).Set(float64(l.inflight - l.running))
}
