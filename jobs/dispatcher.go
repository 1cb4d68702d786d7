package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anjiri1684/medical_consult/models"
	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

type namedTask struct {
	name   string
	fields []zap.Field
	run    Task
}

// Dispatcher runs detached tasks on a fixed set of workers. Submitting never
// blocks: when the queue is full the task is dropped and logged. Each task
// gets its own timeout and its failure is only ever logged.
type Dispatcher struct {
	tasks   chan namedTask
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(workers, queueSize int, timeout time.Duration, log *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		tasks:   make(chan namedTask, queueSize),
		timeout: timeout,
		log:     log.Named("background"),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Go queues task and reports whether it was accepted.
func (d *Dispatcher) Go(name string, task Task, fields ...zap.Field) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn("background task dropped, dispatcher stopped",
			append(fields, zap.String("task", name), zap.Error(models.ErrDownstreamBestEffort))...)
		return false
	}

	select {
	case d.tasks <- namedTask{name: name, fields: fields, run: task}:
		return true
	default:
		d.log.Warn("background task dropped, queue full",
			append(fields, zap.String("task", name), zap.Error(models.ErrDownstreamBestEffort))...)
		return false
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for t := range d.tasks {
		d.run(t)
	}
}

func (d *Dispatcher) run(t namedTask) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	fields := append([]zap.Field{zap.String("task", t.name)}, t.fields...)
	start := time.Now()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return t.run(ctx)
	}()

	fields = append(fields, zap.Duration("elapsed", time.Since(start)))
	if err != nil {
		d.log.Error("background task failed",
			append(fields, zap.Error(fmt.Errorf("%w: %v", models.ErrDownstreamBestEffort, err)))...)
		return
	}
	d.log.Debug("background task finished", fields...)
}

// Shutdown stops accepting tasks and waits for queued ones to drain or for ctx
// to end, whichever comes first.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.tasks)
	}
	d.mu.Unlock()

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
