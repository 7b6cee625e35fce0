package papers

import (
	"context"
	"sync"
	"time"
)

// Registry stores jobs in memory and is safe for concurrent use. Jobs do not
// survive a process restart. All mutation happens under one lock, so a
// status read and a concurrent completion write cannot interleave into a
// lost update.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

// NewRegistry constructs a Registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[string]Job),
	}
}

// Create stores a new job record.
func (r *Registry) Create(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	return nil
}

// Get returns a job by its ID.
func (r *Registry) Get(ctx context.Context, jobID string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	return job, nil
}

// Complete transitions a processing job to completed with the given result.
// It refuses to resurrect deleted jobs (ErrNotFound) and to overwrite a
// terminal state (ErrAlreadyFinal).
func (r *Registry) Complete(ctx context.Context, jobID string, result Result) error {
	return r.finalize(ctx, jobID, func(job *Job) {
		job.Status = StatusCompleted
		job.Result = &result
	})
}

// Fail transitions a processing job to failed with the given error message.
// Same guards as Complete.
func (r *Registry) Fail(ctx context.Context, jobID, errorMessage string) error {
	return r.finalize(ctx, jobID, func(job *Job) {
		job.Status = StatusFailed
		job.Error = errorMessage
	})
}

func (r *Registry) finalize(ctx context.Context, jobID string, apply func(*Job)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return ErrNotFound
	}
	if job.Status != StatusProcessing {
		return ErrAlreadyFinal
	}
	apply(&job)
	now := time.Now().UTC()
	job.CompletedAt = &now
	r.jobs[jobID] = job
	return nil
}

// Delete removes a job record. In-flight analysis work is not cancelled;
// its eventual completion write will fail with ErrNotFound.
func (r *Registry) Delete(ctx context.Context, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[jobID]; !ok {
		return ErrNotFound
	}
	delete(r.jobs, jobID)
	return nil
}

// AppendChatTurn appends one turn to a completed job's history. Past turns
// are never mutated or dropped.
func (r *Registry) AppendChatTurn(ctx context.Context, jobID string, turn ChatTurn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return ErrNotFound
	}
	if job.Status != StatusCompleted {
		return ErrInvalidState
	}
	job.ChatHistory = append(job.ChatHistory, turn)
	r.jobs[jobID] = job
	return nil
}

// ChatHistory returns a job's chat turns in submission order.
func (r *Registry) ChatHistory(ctx context.Context, jobID string) ([]ChatTurn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	history := make([]ChatTurn, len(job.ChatHistory))
	copy(history, job.ChatHistory)
	return history, nil
}
