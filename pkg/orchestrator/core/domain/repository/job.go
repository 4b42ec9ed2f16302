package repository

import (
	"context"
	"errors"

	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
)

// ErrJobNotFound is the error returned when a Job is not found.
var ErrJobNotFound = errors.New("job not found")

// ErrJobConfigurationNotFound is the error returned when a JobConfiguration is not found.
var ErrJobConfigurationNotFound = errors.New("job configuration not found")

// JobRepository defines persistence operations for Jobs, their configurations,
// and the append-only tracking log.
type JobRepository interface {
	// SaveJob persists a new Job.
	SaveJob(ctx context.Context, job *model.Job) error

	// UpdateJob updates the state of an existing Job.
	UpdateJob(ctx context.Context, job *model.Job) error

	// FindJobByID finds a Job by its ID. It returns ErrJobNotFound when absent.
	FindJobByID(ctx context.Context, id string) (*model.Job, error)

	// FindJobsByBatchID returns every Job under a Batch in creation order.
	FindJobsByBatchID(ctx context.Context, batchID string) ([]*model.Job, error)

	// SaveJobConfiguration persists a new JobConfiguration.
	SaveJobConfiguration(ctx context.Context, config *model.JobConfiguration) error

	// FindJobConfigurationByID finds a JobConfiguration by its ID.
	// It returns ErrJobConfigurationNotFound when absent.
	FindJobConfigurationByID(ctx context.Context, id string) (*model.JobConfiguration, error)

	// AppendTrackingLog appends one record to the job tracking audit trail.
	// The log is append-only; entries are never updated or removed.
	AppendTrackingLog(ctx context.Context, entry *model.TrackingLogEntry) error

	// FindTrackingLogByJobID returns the audit trail of a Job in change order.
	FindTrackingLogByJobID(ctx context.Context, jobID string) ([]*model.TrackingLogEntry, error)
}
