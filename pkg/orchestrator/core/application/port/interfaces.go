// Package port defines the interfaces through which collaborators drive the
// orchestration core: batch and job management, reconciliation, and the remote
// workflow transport. Implementations live under core/application/usecase and
// infrastructure.
package port

import (
	"context"
	"time"

	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
)

// BatchManager creates, reads, updates, cancels, and submits Batches, and
// enforces the duplicate-batch prevention invariant.
type BatchManager interface {
	// CreateBatch creates a Batch (INITIATED) for a configuration and workflow
	// step and materializes every JobConfiguration and Job derived by the
	// transformer registered for batchType, all inside one transaction.
	// It fails with a conflict error naming the existing batch when an
	// INITIATED/ACTIVE Batch already exists for (configurationID, batchType),
	// unless allowDuplicate overrides the guard. It returns the new batch id.
	CreateBatch(ctx context.Context, batchType, configurationID, stepID string, configData model.Payload, allowDuplicate bool) (string, error)

	// ReadBatch returns the Batch with the given id, or a not-found error.
	ReadBatch(ctx context.Context, id string) (*model.Batch, error)

	// UpdateBatchStatus validates the status against the closed enum and
	// applies it. Entering a terminal status records the completion time.
	UpdateBatchStatus(ctx context.Context, id string, status string) error

	// GetActiveBatchesForConfig returns the INITIATED/ACTIVE Batches for a
	// configuration, most recent first. An empty batchType matches any type.
	GetActiveBatchesForConfig(ctx context.Context, configurationID, batchType string) ([]*model.Batch, error)

	// CancelBatch cancels every non-terminal Job then the Batch itself,
	// atomically. It returns false without touching anything when the Batch is
	// already terminal, and a not-found error when the id is unknown.
	CancelBatch(ctx context.Context, id, reason string) (bool, error)

	// SubmitBatch submits each Job of the Batch in creation order via the Job
	// Manager and flips the Batch to ACTIVE on the first successful submission.
	SubmitBatch(ctx context.Context, id string) error
}

// JobManager creates, submits, tracks, skips, and resubmits individual Jobs.
type JobManager interface {
	// CreateJob creates a Job (INITIATED) under a Batch from the given source.
	// It returns the new job id.
	CreateJob(ctx context.Context, batchID string, source JobSource) (string, error)

	// SubmitJob submits the Job to the remote service, stores the returned
	// workflow reference, and transitions the Job to SUBMITTED. An
	// already-submitted Job fails unless forceResubmit is set.
	SubmitJob(ctx context.Context, id string, forceResubmit bool) error

	// TrackJobStatus polls the remote service for the Job's workflow, maps the
	// remote vocabulary onto the local enum, and appends a tracking log entry
	// only when the status actually changed. It fails when called before
	// submission. It returns the Job's (possibly unchanged) status.
	TrackJobStatus(ctx context.Context, id string) (model.JobStatus, error)

	// SkipJob marks an INITIATED Job as SKIPPED; any other state fails.
	SkipJob(ctx context.Context, id, reason string) error

	// ResubmitJob replaces a Job with a new one preserving lineage via the
	// parent id. A non-nil overridePayload requires overrideReason; the parent
	// is cancelled and the new Job submitted. It returns the new job id.
	ResubmitJob(ctx context.Context, id string, overridePayload model.Payload, overrideReason string) (string, error)

	// GetJobConfig resolves the JobConfiguration currently bound to the Job.
	GetJobConfig(ctx context.Context, id string) (*model.JobConfiguration, error)
}

// Reconciler derives a Batch's status from its Jobs' statuses.
type Reconciler interface {
	// ReconBatch recomputes the Batch status from the multiset of its Jobs'
	// statuses, writes it only when it differs from the stored status, and
	// returns the final status. Re-running with no job changes mutates nothing.
	ReconBatch(ctx context.Context, batchID string) (model.BatchStatus, error)
}

// StartResult is the outcome of triggering a workflow on the remote service.
// WorkflowID is populated only when the trigger was accepted (201/202) with a
// Location header; otherwise the raw response is returned with no polling.
type StartResult struct {
	WorkflowID  string
	WorkflowURL string
	StatusCode  int
	Body        []byte
}

// WorkflowStatus is one workflow's status as reported by the remote service.
type WorkflowStatus struct {
	WorkflowID string
	// Status is the remote vocabulary value, not yet mapped to the local enum.
	Status string
	// Detail is the parsed response document for the workflow, if any.
	Detail model.Payload
}

// WorkflowClient is the resilient transport to the remote modeling service.
type WorkflowClient interface {
	// StartWorkflow issues the triggering call for a workflow.
	StartWorkflow(ctx context.Context, path string, payload model.Payload) (*StartResult, error)

	// FetchWorkflowStatus fetches the current status of one workflow.
	FetchWorkflowStatus(ctx context.Context, workflowID string) (*WorkflowStatus, error)

	// PollWorkflow polls a workflow URL at a fixed interval until it reaches a
	// terminal status or the timeout elapses. Timeout fails explicitly, never
	// silently reporting success.
	PollWorkflow(ctx context.Context, workflowURL string, interval, timeout time.Duration) (*WorkflowStatus, error)

	// PollWorkflowsBatch resolves many workflows via the paginated status
	// endpoint until all reach a terminal status or one overall deadline
	// elapses. Mixed completion states are surfaced in the result map.
	PollWorkflowsBatch(ctx context.Context, workflowURLs []string, interval, timeout time.Duration) (map[string]*WorkflowStatus, error)

	// ExecuteWorkflow composes StartWorkflow and PollWorkflow, skipping the
	// polling phase when the trigger response was not 201/202.
	ExecuteWorkflow(ctx context.Context, path string, payload model.Payload, interval, timeout time.Duration) (*WorkflowStatus, error)
}
