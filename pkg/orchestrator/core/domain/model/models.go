package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/tigerroll/swell/pkg/orchestrator/support/util/exception"
)

// Batch is a group of Jobs created together from one configuration and batch
// type, tracked and reconciled as a unit. A Batch is owned by the
// orchestration core; step and configuration collaborators only reference it.
type Batch struct {
	ID              string
	StepID          string
	ConfigurationID string
	BatchType       string
	Status          BatchStatus
	CreateTime      time.Time
	LastUpdated     time.Time
	CompletionTime  *time.Time
}

// Job is a single unit of work submitted to the remote service and tracked to
// a terminal outcome. A Job belongs to exactly one Batch. ParentJobID links a
// resubmitted Job to the Job it replaced; ExternalWorkflowID is empty until
// the remote service has accepted the submission.
type Job struct {
	ID                 string
	BatchID            string
	JobConfigurationID string
	ParentJobID        string
	Status             JobStatus
	ExternalWorkflowID string
	CreateTime         time.Time
	SubmitTime         *time.Time
	LastUpdated        time.Time
	ResultMetadata     Payload
}

// JobConfiguration is the payload describing what a Job asks the remote
// service to do. It is immutable once a Job referencing it has been submitted;
// resubmission with an override creates a new version instead of mutating.
type JobConfiguration struct {
	ID      string
	BatchID string
	Payload Payload
	Version int
}

// TrackingLogEntry is one record of the append-only audit trail of job status
// changes.
type TrackingLogEntry struct {
	JobID      string
	OldStatus  JobStatus
	NewStatus  JobStatus
	ChangeTime time.Time
	Source     string
}

// NewID generates a new UUID string.
func NewID() string {
	return uuid.New().String()
}

// NewBatch creates a new Batch in the INITIATED state.
func NewBatch(batchType, configurationID, stepID string) *Batch {
	now := time.Now()
	return &Batch{
		ID:              NewID(),
		StepID:          stepID,
		ConfigurationID: configurationID,
		BatchType:       batchType,
		Status:          BatchStatusInitiated,
		CreateTime:      now,
		LastUpdated:     now,
	}
}

// TransitionTo safely transitions the state of the Batch. Entering a terminal
// status records the completion time. Illegal transitions fail naming the
// attempted pair.
func (b *Batch) TransitionTo(next BatchStatus) error {
	if !isValidBatchTransition(b.Status, next) {
		return exception.Newf(exception.KindIllegalTransition, "model",
			"batch (ID: %s): invalid state transition: %s -> %s", b.ID, b.Status, next).
			WithDetail("batch_id", b.ID).
			WithDetail("current_status", b.Status.String()).
			WithDetail("attempted_status", next.String())
	}
	now := time.Now()
	b.Status = next
	b.LastUpdated = now
	if next.IsTerminal() {
		b.CompletionTime = &now
	}
	return nil
}

// MarkAsActive transitions the Batch to ACTIVE.
func (b *Batch) MarkAsActive() error {
	return b.TransitionTo(BatchStatusActive)
}

// NewJob creates a new Job in the INITIATED state bound to the given
// JobConfiguration. parentJobID may be empty for first submissions.
func NewJob(batchID, jobConfigurationID, parentJobID string) *Job {
	now := time.Now()
	return &Job{
		ID:                 NewID(),
		BatchID:            batchID,
		JobConfigurationID: jobConfigurationID,
		ParentJobID:        parentJobID,
		Status:             JobStatusInitiated,
		CreateTime:         now,
		LastUpdated:        now,
		ResultMetadata:     NewPayload(),
	}
}

// TransitionTo safely transitions the state of the Job. Illegal transitions
// fail naming the attempted pair.
func (j *Job) TransitionTo(next JobStatus) error {
	if !isValidJobTransition(j.Status, next) {
		return exception.Newf(exception.KindIllegalTransition, "model",
			"job (ID: %s): invalid state transition: %s -> %s", j.ID, j.Status, next).
			WithDetail("job_id", j.ID).
			WithDetail("current_status", j.Status.String()).
			WithDetail("attempted_status", next.String())
	}
	j.Status = next
	j.LastUpdated = time.Now()
	return nil
}

// MarkAsSubmitted transitions the Job to SUBMITTED and records the workflow
// reference returned by the remote service.
func (j *Job) MarkAsSubmitted(externalWorkflowID string) error {
	if err := j.TransitionTo(JobStatusSubmitted); err != nil {
		return err
	}
	now := time.Now()
	j.ExternalWorkflowID = externalWorkflowID
	j.SubmitTime = &now
	return nil
}

// NewJobConfiguration creates a new JobConfiguration for a Batch.
func NewJobConfiguration(batchID string, payload Payload, version int) *JobConfiguration {
	return &JobConfiguration{
		ID:      NewID(),
		BatchID: batchID,
		Payload: payload,
		Version: version,
	}
}

// NewTrackingLogEntry creates an audit-trail record for a job status change.
func NewTrackingLogEntry(jobID string, oldStatus, newStatus JobStatus, source string) *TrackingLogEntry {
	return &TrackingLogEntry{
		JobID:      jobID,
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
		ChangeTime: time.Now(),
		Source:     source,
	}
}
