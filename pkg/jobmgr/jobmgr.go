// Package jobmgr runs named jobs in their own goroutines, tracks them and
// cancels them on demand or at shutdown.
//
//	jm := jobmgr.NewManager(ctx, logger)
//	err := jm.Start("msg:123", func(ctx context.Context) error {
//	    // work until ctx is cancelled
//	    return nil
//	})
//	...
//	jm.StopAll()
//	_ = jm.Wait(shutdownCtx)
//
// A panicking job is recovered and reported as a *PanicError.
package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrRunning = errors.New("job already running")
	ErrUnknown = errors.New("job not running")
	ErrClosed  = errors.New("job manager closed")
)

// PanicError is what a job that panicked reports.
type PanicError struct {
	Job   string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("job %s panicked: %v", e.Job, e.Value) }

// Job is a running unit of work.
type Job struct {
	Name   string
	cancel context.CancelFunc
}

// ResultFunc receives the outcome of every job once it returns.
type ResultFunc func(name string, err error)

// Manager starts, stops and tracks jobs. It is safe for concurrent use.
type Manager struct {
	parent   context.Context
	log      *zap.Logger
	onResult ResultFunc

	mu     sync.Mutex
	jobs   map[string]*Job
	closed bool
	wg     sync.WaitGroup
}

// NewManager derives every job context from parent.
func NewManager(parent context.Context, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		parent: parent,
		log:    logger.With(zap.String("component", "jobmgr")),
		jobs:   make(map[string]*Job),
	}
}

// OnResult sets the callback invoked after each job. Set it before the
// first Start.
func (m *Manager) OnResult(fn ResultFunc) { m.onResult = fn }

// Start runs fn in a new goroutine. Names are unique among running jobs.
func (m *Manager) Start(name string, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if _, ok := m.jobs[name]; ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRunning, name)
	}
	ctx, cancel := context.WithCancel(m.parent)
	job := &Job{Name: name, cancel: cancel}
	m.jobs[name] = job
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer cancel()

		err := m.run(ctx, name, fn)

		m.mu.Lock()
		if m.jobs[name] == job {
			delete(m.jobs, name)
		}
		m.mu.Unlock()

		switch {
		case err == nil:
			m.log.Debug("job done", zap.String("job", name))
		case errors.Is(err, context.Canceled):
			m.log.Debug("job cancelled", zap.String("job", name))
		default:
			m.log.Debug("job failed", zap.String("job", name), zap.Error(err))
		}
		if m.onResult != nil {
			m.onResult(name, err)
		}
	}()
	return nil
}

func (m *Manager) run(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			m.log.Error("job panicked",
				zap.String("job", name),
				zap.Any("panic", r),
				zap.ByteString("stack", stack))
			err = &PanicError{Job: name, Value: r, Stack: stack}
		}
	}()
	return fn(ctx)
}

// Stop cancels a running job. The job leaves the list once it returns.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	job.cancel()
	return nil
}

// StopAll cancels every job and refuses new ones.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for _, job := range m.jobs {
		job.cancel()
	}
}

// Wait blocks until every job has returned or ctx ends.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List returns the running job names, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.jobs))
	for name := range m.jobs {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// Status is a one-line summary for operators.
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return fmt.Sprintf("Running jobs: %s", strings.Join(active, ", "))
}
