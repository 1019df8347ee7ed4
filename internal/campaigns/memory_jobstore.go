package campaigns

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryJobStore keeps send jobs in process memory. It backs the in-memory
// queue mode where the worker runs inside the API process.
type MemoryJobStore struct {
	mu   sync.Mutex
	jobs map[string]*SendJob
}

var _ JobRecorder = (*MemoryJobStore)(nil)
var _ JobUpdater = (*MemoryJobStore)(nil)

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: map[string]*SendJob{}}
}

func (s *MemoryJobStore) PutPending(_ context.Context, job *SendJob) error {
	if job == nil {
		return errors.New("campaigns: job cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	job.Status = JobStatusPending
	job.CreatedAt = now.Format(time.RFC3339Nano)
	job.UpdatedAt = job.CreatedAt
	if job.ExpiresAt == 0 {
		job.ExpiresAt = now.Add(jobTTL).Unix()
	}
	clone := *job
	s.jobs[job.JobID] = &clone
	return nil
}

func (s *MemoryJobStore) GetJob(_ context.Context, jobID string) (*SendJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	clone := *job
	return &clone, nil
}

func (s *MemoryJobStore) MarkCompleted(_ context.Context, jobID string) error {
	return s.setStatus(jobID, JobStatusCompleted, "")
}

func (s *MemoryJobStore) MarkFailed(_ context.Context, jobID string, errMsg string) error {
	return s.setStatus(jobID, JobStatusFailed, errMsg)
}

func (s *MemoryJobStore) setStatus(jobID string, status JobStatus, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = status
	job.ErrorMessage = errMsg
	job.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	return nil
}
