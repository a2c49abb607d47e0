// Package scheduler runs the background maintenance jobs: price history
// refresh, report cache expiry and WAL checkpoints.
package scheduler

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// RunRecorder receives the outcome of every job run
type RunRecorder interface {
	RecordJobRun(job string, duration time.Duration, err error)
}

// JobStatus is the run history of one job
type JobStatus struct {
	Name         string     `json:"name"`
	Schedule     string     `json:"schedule,omitempty"`
	NextRun      *time.Time `json:"next_run,omitempty"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastDuration string     `json:"last_duration,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	Runs         int        `json:"runs"`
	Failures     int        `json:"failures"`
}

type entry struct {
	job     Job
	spec    string
	cronID  cron.EntryID
	status  JobStatus
	running sync.Mutex
}

// Scheduler owns the cron runner and the run history of every job it knows
type Scheduler struct {
	cron     *cron.Cron
	log      zerolog.Logger
	recorder RunRecorder
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	order   []string
	cronIDs []string
}

// New creates a new scheduler. Schedules use the six-field cron format
// with a leading seconds column.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:     log.With().Str("component", "scheduler").Logger(),
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// SetRecorder routes run outcomes to r, typically the Prometheus metrics
func (s *Scheduler) SetRecorder(r RunRecorder) {
	s.mu.Lock()
	s.recorder = r
	s.mu.Unlock()
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers job on a cron schedule, for example
// "0 30 22 * * MON-FRI" or "@every 30s".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	s.mu.Lock()
	e, known := s.entries[job.Name()]
	s.mu.Unlock()
	if !known {
		e = &entry{job: job, status: JobStatus{Name: job.Name()}}
	}

	id, err := s.cron.AddFunc(schedule, func() { _ = s.run(e) })
	if err != nil {
		return err
	}

	s.mu.Lock()
	if !known {
		s.entries[job.Name()] = e
		s.order = append(s.order, job.Name())
	}
	e.job = job
	e.spec = schedule
	e.cronID = id
	s.cronIDs = append(s.cronIDs, job.Name())
	s.mu.Unlock()

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")
	return nil
}

// Register tracks a job that only runs when triggered through RunNow
func (s *Scheduler) Register(job Job) {
	s.register(job)
	s.log.Info().Str("job", job.Name()).Msg("Job registered for manual runs")
}

func (s *Scheduler) register(job Job) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[job.Name()]; ok {
		e.job = job
		return e
	}
	e := &entry{job: job, status: JobStatus{Name: job.Name()}}
	s.entries[job.Name()] = e
	s.order = append(s.order, job.Name())
	return e
}

// Jobs returns the names of cron-scheduled jobs in registration order
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cronIDs...)
}

// RunNow executes a job immediately, outside its schedule. Jobs the
// scheduler has not seen are registered first so their runs are tracked.
// A run overlapping a scheduled one waits for it.
func (s *Scheduler) RunNow(job Job) error {
	s.mu.Lock()
	e, ok := s.entries[job.Name()]
	s.mu.Unlock()
	if !ok {
		e = s.register(job)
	}

	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return s.run(e)
}

// Lookup returns a registered job by name
func (s *Scheduler) Lookup(name string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok {
		return nil, false
	}
	return e.job, true
}

// Status returns the history of every known job, in registration order
func (s *Scheduler) Status() []JobStatus {
	next := make(map[cron.EntryID]time.Time)
	for _, ce := range s.cron.Entries() {
		if !ce.Next.IsZero() {
			next[ce.ID] = ce.Next
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.order))
	for _, name := range s.order {
		e := s.entries[name]
		st := e.status
		st.Schedule = e.spec
		if t, ok := next[e.cronID]; ok && e.cronID != 0 {
			st.NextRun = &t
		}
		out = append(out, st)
	}
	return out
}

func (s *Scheduler) run(e *entry) error {
	e.running.Lock()
	defer e.running.Unlock()

	name := e.job.Name()
	s.log.Debug().Str("job", name).Msg("Running job")

	started := s.now()
	err := e.job.Run()
	duration := s.now().Sub(started)

	s.mu.Lock()
	e.status.Runs++
	e.status.LastRun = &started
	e.status.LastDuration = duration.String()
	e.status.LastError = ""
	if err != nil {
		e.status.Failures++
		e.status.LastError = err.Error()
	}
	recorder := s.recorder
	s.mu.Unlock()

	if recorder != nil {
		recorder.RecordJobRun(name, duration, err)
	}

	if err != nil {
		s.log.Error().Err(err).Str("job", name).Dur("duration", duration).Msg("Job failed")
	} else {
		s.log.Debug().Str("job", name).Dur("duration", duration).Msg("Job completed")
	}
	return err
}
