package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anjiri1684/appointment_reminder/utils"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownTask   = errors.New("unknown task")
	ErrRunnerStopped = errors.New("runner stopped")
)

// Observer receives the summary of every completed pass.
type Observer func(PassSummary)

// Runner fires each task on its own cron entry. Entries are wrapped with
// SkipIfStillRunning, so a slow pass delays its own next tick instead of
// stacking a second pass over the same flag.
type Runner struct {
	cron     *cron.Cron
	interval time.Duration
	tasks    map[Kind]*Task
	order    []Kind
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	observers []Observer
	inflight  sync.WaitGroup
	started   bool
	stopped   bool
}

func NewRunner(interval time.Duration, log zerolog.Logger, tasks ...*Task) *Runner {
	cl := utils.NewCronLogger(log)
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		interval: interval,
		tasks:    make(map[Kind]*Task, len(tasks)),
		log:      log.With().Str("component", "runner").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, t := range tasks {
		if _, dup := r.tasks[t.Kind()]; !dup {
			r.order = append(r.order, t.Kind())
		}
		r.tasks[t.Kind()] = t
	}
	return r
}

func (r *Runner) Observe(fn Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

func (r *Runner) Kinds() []Kind {
	return append([]Kind(nil), r.order...)
}

func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.stopped {
		return
	}
	r.started = true

	for _, kind := range r.order {
		t := r.tasks[kind]
		r.cron.Schedule(cron.Every(r.interval), cron.FuncJob(func() {
			_, _ = r.runTask(r.ctx, t)
		}))
	}
	r.cron.Start()
	r.log.Info().Dur("interval", r.interval).Interface("tasks", r.order).Msg("✅ Notification scheduler started")
}

// RunNow runs one pass of kind outside the schedule. It still refuses to
// overlap a pass of the same kind.
func (r *Runner) RunNow(ctx context.Context, kind Kind) (PassSummary, error) {
	t, ok := r.tasks[kind]
	if !ok {
		return PassSummary{Kind: kind}, fmt.Errorf("%w: %q", ErrUnknownTask, kind)
	}

	runCtx, cancel := context.WithCancel(r.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return r.runTask(runCtx, t)
}

func (r *Runner) runTask(ctx context.Context, t *Task) (PassSummary, error) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return PassSummary{Kind: t.Kind()}, ErrRunnerStopped
	}
	r.inflight.Add(1)
	observers := append([]Observer(nil), r.observers...)
	r.mu.Unlock()
	defer r.inflight.Done()

	sum, err := t.Run(ctx)
	if err != nil {
		if errors.Is(err, ErrPassInProgress) {
			r.log.Debug().Str("task", string(t.Kind())).Msg("Previous pass still running, skipping tick")
		} else {
			r.log.Error().Err(err).Str("task", string(t.Kind())).Msg("🔥 Pass failed")
		}
		return sum, err
	}
	for _, fn := range observers {
		fn(sum)
	}
	return sum, nil
}

// Stop prevents new passes and waits for in-flight ones. If ctx expires
// first, in-flight passes are cancelled between bookings and Stop waits for
// them to return.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	r.mu.Unlock()

	cronDone := r.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		r.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		r.log.Info().Msg("Notification scheduler stopped")
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		r.log.Warn().Msg("Notification scheduler stopped after cancelling in-flight passes")
		return ctx.Err()
	}
}
