// Package tasks corre efectos secundarios best-effort (notificaciones,
// presets de grants) fuera del request que los dispara.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stable-sharing/internal/platform/logger"
	"stable-sharing/internal/platform/metrics"
)

// Func es una tarea. Su error se loguea y nada más.
type Func func(ctx context.Context) error

// Dispatcher es lo que consumen los servicios.
type Dispatcher interface {
	Dispatch(name string, fn Func)
}

type job struct {
	name string
	fn   Func
}

// Queue: canal con buffer + workers fijos. Si el buffer está lleno la tarea se
// descarta (con log), nunca bloquea al caller.
type Queue struct {
	log     logger.Logger
	jobs    chan job
	timeout time.Duration

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

type Options struct {
	Workers int
	Buffer  int
	Timeout time.Duration // por tarea
}

func NewQueue(log logger.Logger, opts Options) *Queue {
	if log == nil {
		log = logger.Nop()
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	q := &Queue{
		log:     log.With(map[string]any{"component": "tasks"}),
		jobs:    make(chan job, opts.Buffer),
		timeout: opts.Timeout,
	}
	for i := 0; i < opts.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

func (q *Queue) Dispatch(name string, fn Func) {
	if fn == nil {
		return
	}
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.log.Warn("task dropped: queue closed", map[string]any{"task": name})
		metrics.TasksTotal.WithLabelValues(name, "dropped").Inc()
		return
	}

	select {
	case q.jobs <- job{name: name, fn: fn}:
	default:
		q.log.Warn("task dropped: queue full", map[string]any{"task": name})
		metrics.TasksTotal.WithLabelValues(name, "dropped").Inc()
	}
}

// Close deja de aceptar tareas y espera a que terminen las encoladas.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for j := range q.jobs {
		q.run(j)
	}
}

func (q *Queue) run(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			q.log.Error("task panicked", map[string]any{"task": j.name, "panic": fmt.Sprint(rec)})
			metrics.TasksTotal.WithLabelValues(j.name, "failed").Inc()
		}
	}()

	if err := j.fn(ctx); err != nil {
		q.log.Warn("task failed", map[string]any{"task": j.name, "err": err})
		metrics.TasksTotal.WithLabelValues(j.name, "failed").Inc()
		return
	}
	metrics.TasksTotal.WithLabelValues(j.name, "ok").Inc()
}

// Inline ejecuta en el momento, tragándose el error. Útil en tests y CLIs.
type Inline struct {
	Log logger.Logger
}

// Un panic de la tarea tampoco llega al caller, igual que en Queue.
func (i Inline) Dispatch(name string, fn Func) {
	if fn == nil {
		return
	}
	log := i.Log
	if log == nil {
		log = logger.Nop()
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("task panicked", map[string]any{"task": name, "panic": fmt.Sprint(rec)})
			metrics.TasksTotal.WithLabelValues(name, "failed").Inc()
		}
	}()
	if err := fn(context.Background()); err != nil {
		log.Warn("task failed", map[string]any{"task": name, "err": err})
	}
}
