package notification

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/healthsync/healthsync-api/internal/config"
	"github.com/healthsync/healthsync-api/pkg/logger"
	"github.com/healthsync/healthsync-api/pkg/metrics"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
	outcomePanic = "panic"
)

// Hook is a side effect that runs after a write has been committed.
type Hook func(ctx context.Context) error

// Dispatcher runs post-commit hooks. A failing or panicking hook is
// logged and counted; it never affects the request that scheduled it.
type Dispatcher struct {
	async   bool
	timeout time.Duration
	log     *logger.Logger
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

func NewDispatcher(cfg config.NotificationConfig, log *logger.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		async:   cfg.Async,
		timeout: cfg.Timeout,
		log:     log.With("hooks"),
		metrics: m,
	}
}

// Dispatch runs hook detached from ctx's cancellation, in the
// background when the dispatcher is async.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, hook Hook) {
	ctx = context.WithoutCancel(ctx)
	if !d.async {
		d.run(ctx, name, hook)
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(ctx, name, hook)
	}()
}

func (d *Dispatcher) run(ctx context.Context, name string, hook Hook) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			d.metrics.HookRuns.WithLabelValues(name, outcomePanic).Inc()
			d.log.ErrorStack(fmt.Errorf("panic: %v", r), debug.Stack(), "post-commit hook panicked", "hook", name)
		}
	}()

	if err := hook(ctx); err != nil {
		d.metrics.HookRuns.WithLabelValues(name, outcomeError).Inc()
		d.log.Error(err, "post-commit hook failed", "hook", name)
		return
	}
	d.metrics.HookRuns.WithLabelValues(name, outcomeOK).Inc()
}

// Wait blocks until every background hook has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
