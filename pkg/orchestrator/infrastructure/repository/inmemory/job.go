package inmemory

import (
	"context"
	"fmt"

	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
	repository "github.com/tigerroll/swell/pkg/orchestrator/core/domain/repository"
)

// SaveJob persists a new Job.
// It returns an error if a Job with the same ID already exists.
func (r *InMemoryRepository) SaveJob(ctx context.Context, job *model.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("job with ID %s already exists", job.ID)
	}
	r.jobs[job.ID] = cloneJob(job)
	r.jobOrder = append(r.jobOrder, job.ID)
	return nil
}

// UpdateJob updates an existing Job.
// It returns ErrJobNotFound if the Job with the given ID is not found.
func (r *InMemoryRepository) UpdateJob(ctx context.Context, job *model.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; !exists {
		return repository.ErrJobNotFound
	}
	r.jobs[job.ID] = cloneJob(job)
	return nil
}

// FindJobByID finds a Job by its ID.
func (r *InMemoryRepository) FindJobByID(ctx context.Context, id string) (*model.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, repository.ErrJobNotFound
	}
	// Deep copy to prevent external modification of internal state
	return cloneJob(job), nil
}

// FindJobsByBatchID returns every Job under a Batch in creation order.
func (r *InMemoryRepository) FindJobsByBatchID(ctx context.Context, batchID string) ([]*model.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var jobs []*model.Job
	for _, id := range r.jobOrder {
		if j, ok := r.jobs[id]; ok && j.BatchID == batchID {
			jobs = append(jobs, cloneJob(j))
		}
	}
	return jobs, nil
}

// SaveJobConfiguration persists a new JobConfiguration.
func (r *InMemoryRepository) SaveJobConfiguration(ctx context.Context, config *model.JobConfiguration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.configs[config.ID]; exists {
		return fmt.Errorf("job configuration with ID %s already exists", config.ID)
	}
	r.configs[config.ID] = cloneJobConfiguration(config)
	return nil
}

// FindJobConfigurationByID finds a JobConfiguration by its ID.
func (r *InMemoryRepository) FindJobConfigurationByID(ctx context.Context, id string) (*model.JobConfiguration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	config, ok := r.configs[id]
	if !ok {
		return nil, repository.ErrJobConfigurationNotFound
	}
	return cloneJobConfiguration(config), nil
}

// AppendTrackingLog appends one record to the job tracking audit trail.
func (r *InMemoryRepository) AppendTrackingLog(ctx context.Context, entry *model.TrackingLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cloned := *entry
	r.trackingLog[entry.JobID] = append(r.trackingLog[entry.JobID], &cloned)
	return nil
}

// FindTrackingLogByJobID returns the audit trail of a Job in change order.
func (r *InMemoryRepository) FindTrackingLogByJobID(ctx context.Context, jobID string) ([]*model.TrackingLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*model.TrackingLogEntry, 0, len(r.trackingLog[jobID]))
	for _, e := range r.trackingLog[jobID] {
		cloned := *e
		entries = append(entries, &cloned)
	}
	return entries, nil
}
