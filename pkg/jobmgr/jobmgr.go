// Package jobmgr tracks named jobs that are currently running and refuses to
// start a second job under a name that is still busy.
//
//	jm := jobmgr.NewManager(func(msg string) { log.Println("JOB:", msg) })
//	err := jm.Run(ctx, "purge:123", func(ctx context.Context) error {
//	    return doWork(ctx)
//	})
//	if errors.Is(err, jobmgr.ErrRunning) {
//	    // someone else holds the name
//	}
//
// There is no retry, no worker pool and no persistence.
package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrRunning is returned when a job with the same name is already running.
var ErrRunning = errors.New("job is already running")

// Job is a running unit of work.
type Job struct {
	Name    string
	Started time.Time
}

// StatusReporter receives lifecycle events such as "running:get",
// "error:get:failed to connect" and "done:get".
type StatusReporter func(string)

// Manager is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	jobs     map[string]Job
	Reporter StatusReporter
}

// NewManager creates a Manager. reporter may be nil.
func NewManager(reporter StatusReporter) *Manager {
	return &Manager{jobs: make(map[string]Job), Reporter: reporter}
}

// Run executes runner in the calling goroutine while holding name. It returns
// ErrRunning without calling runner if name is taken.
func (m *Manager) Run(ctx context.Context, name string, runner func(ctx context.Context) error) error {
	m.mu.Lock()
	if _, exists := m.jobs[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRunning, name)
	}
	m.jobs[name] = Job{Name: name, Started: time.Now()}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.jobs, name)
		m.mu.Unlock()
	}()

	m.report("running:" + name)
	if err := runner(ctx); err != nil {
		m.report("error:" + name + ":" + err.Error())
		return err
	}
	m.report("done:" + name)
	return nil
}

// Running reports whether name is taken.
func (m *Manager) Running(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jobs[name]
	return ok
}

// List returns the active jobs sorted by name.
func (m *Manager) List() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Status is a one-line summary, e.g. "Running jobs: purge:1, purge:2".
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	names := make([]string, len(active))
	for i, j := range active {
		names[i] = j.Name
	}
	return fmt.Sprintf("Running jobs: %s", strings.Join(names, ", "))
}

func (m *Manager) report(s string) {
	if m.Reporter != nil {
		m.Reporter(s)
	}
}
