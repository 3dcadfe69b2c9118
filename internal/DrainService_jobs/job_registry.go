package DrainService_jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrJobNotFound = errors.New("job not found")
	// ErrJobCancelled is the cancellation cause of jobs stopped through the registry.
	ErrJobCancelled = errors.New("job cancelled")
)

type RunningJob struct {
	Command   string
	StartedAt time.Time
	cancel    context.CancelCauseFunc
}

// JobRegistry tracks running drains so they can be cancelled by id.
type JobRegistry struct {
	mu   sync.Locker
	jobs map[uuid.UUID]*RunningJob
}

func NewJobRegistry() *JobRegistry {
	return &JobRegistry{
		jobs: make(map[uuid.UUID]*RunningJob),
		mu:   new(sync.Mutex),
	}
}

// AddJob registers a job and returns its id and the finalizer that removes it.
func (r *JobRegistry) AddJob(command string, cancel context.CancelCauseFunc) (uuid.UUID, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	r.jobs[id] = &RunningJob{Command: command, StartedAt: time.Now(), cancel: cancel}
	return id, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.jobs, id)
	}
}

func (r *JobRegistry) CancelJob(id string) error {
	jobID, err := uuid.Parse(id)
	if err != nil {
		// no job can have a malformed id
		return fmt.Errorf("job id %q: %w", id, ErrJobNotFound)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return fmt.Errorf("job %s: %w", id, ErrJobNotFound)
	}
	job.cancel(ErrJobCancelled)
	return nil
}

// CancelEach cancels every running job and returns how many were cancelled.
func (r *JobRegistry) CancelEach() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, job := range r.jobs {
		job.cancel(ErrJobCancelled)
	}
	return len(r.jobs)
}

func (r *JobRegistry) Get(id uuid.UUID) (RunningJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return RunningJob{}, false
	}
	return *job, true
}

func (r *JobRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}
