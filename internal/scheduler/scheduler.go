// Package scheduler runs named maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jsyzc2019/abquant-data/internal/observability"
)

var (
	// ErrUnknownJob is returned by RunNow for an unregistered name.
	ErrUnknownJob = errors.New("unknown job")

	// ErrDuplicateJob is returned when a name is registered twice.
	ErrDuplicateJob = errors.New("duplicate job")
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// Entry describes a registered job.
type Entry struct {
	Name string
	Spec string
	Next time.Time
}

type registered struct {
	id   cron.EntryID
	spec string
	job  Job
}

// Scheduler manages cron jobs. Specs use six fields (seconds first).
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	logger *log.Logger

	mu   sync.Mutex
	jobs map[string]registered
}

// Options contains configuration for creating a Scheduler.
type Options struct {
	Logger   *log.Logger
	Location *time.Location // nil means time.Local
}

// New creates a Scheduler whose jobs receive ctx.
func New(ctx context.Context, opts Options) *Scheduler {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[scheduler] ", log.LstdFlags)
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	return &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		ctx:    ctx,
		logger: logger,
		jobs:   make(map[string]registered),
	}
}

// Register adds job under name on spec.
func (s *Scheduler) Register(name, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	id, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("register %s job: %w", name, err)
	}
	s.jobs[name] = registered{id: id, spec: spec, job: job}
	return nil
}

// RunNow executes the named job synchronously and returns its error.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	r, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.run(name, r.job)
}

// Entries lists registered jobs sorted by name.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(s.jobs))
	for name, r := range s.jobs {
		entries = append(entries, Entry{
			Name: name,
			Spec: r.spec,
			Next: s.cron.Entry(r.id).Next,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Printf("started with %d jobs", len(s.Entries()))
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Println("stopped")
}

func (s *Scheduler) run(name string, job Job) error {
	start := time.Now()
	err := job(s.ctx)
	observability.RecordJobRun(name, err)
	if err != nil {
		s.logger.Printf("job %s failed after %s: %v", name, time.Since(start).Round(time.Millisecond), err)
		return err
	}
	s.logger.Printf("job %s done in %s", name, time.Since(start).Round(time.Millisecond))
	return nil
}
