package model

import (
	"strings"

	"github.com/tigerroll/swell/pkg/orchestrator/support/util/exception"
)

// BatchStatus represents the state of a Batch.
type BatchStatus string

const (
	BatchStatusInitiated BatchStatus = "INITIATED"
	BatchStatusActive    BatchStatus = "ACTIVE"
	BatchStatusCompleted BatchStatus = "COMPLETED"
	BatchStatusFailed    BatchStatus = "FAILED"
	BatchStatusCancelled BatchStatus = "CANCELLED"
)

// String returns the string representation of the BatchStatus.
func (s BatchStatus) String() string {
	return string(s)
}

// IsTerminal checks if the BatchStatus represents a terminal state.
func (s BatchStatus) IsTerminal() bool {
	switch s {
	case BatchStatusCompleted, BatchStatusFailed, BatchStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseBatchStatus validates a string against the closed BatchStatus enum.
// Unrecognized values fail with a validation error.
func ParseBatchStatus(s string) (BatchStatus, error) {
	switch BatchStatus(strings.ToUpper(s)) {
	case BatchStatusInitiated, BatchStatusActive, BatchStatusCompleted, BatchStatusFailed, BatchStatusCancelled:
		return BatchStatus(strings.ToUpper(s)), nil
	default:
		return "", exception.Newf(exception.KindValidation, "model", "unrecognized batch status '%s'", s).
			WithDetail("status", s)
	}
}

// JobStatus represents the state of a Job.
type JobStatus string

const (
	JobStatusInitiated JobStatus = "INITIATED"
	JobStatusSubmitted JobStatus = "SUBMITTED"
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusFinished  JobStatus = "FINISHED"
	JobStatusFailed    JobStatus = "FAILED"
	JobStatusCancelled JobStatus = "CANCELLED"
	JobStatusSkipped   JobStatus = "SKIPPED"
)

// String returns the string representation of the JobStatus.
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal checks if the JobStatus represents a terminal state.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusFinished, JobStatusFailed, JobStatusCancelled, JobStatusSkipped:
		return true
	default:
		return false
	}
}

// ParseJobStatus validates a string against the closed JobStatus enum.
func ParseJobStatus(s string) (JobStatus, error) {
	switch JobStatus(strings.ToUpper(s)) {
	case JobStatusInitiated, JobStatusSubmitted, JobStatusQueued, JobStatusPending,
		JobStatusRunning, JobStatusFinished, JobStatusFailed, JobStatusCancelled, JobStatusSkipped:
		return JobStatus(strings.ToUpper(s)), nil
	default:
		return "", exception.Newf(exception.KindValidation, "model", "unrecognized job status '%s'", s).
			WithDetail("status", s)
	}
}

// ParseRemoteWorkflowStatus maps the remote service's status vocabulary onto
// the local JobStatus enum. The remote side is not fully consistent in its
// naming, so known synonyms are accepted. Anything else fails with a
// remote-service error carrying the offending value.
func ParseRemoteWorkflowStatus(s string) (JobStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "QUEUED":
		return JobStatusQueued, nil
	case "PENDING", "WAITING":
		return JobStatusPending, nil
	case "RUNNING", "ACTIVE", "IN_PROGRESS":
		return JobStatusRunning, nil
	case "FINISHED", "SUCCEEDED", "COMPLETED":
		return JobStatusFinished, nil
	case "FAILED", "ERROR":
		return JobStatusFailed, nil
	case "CANCELLED", "CANCELED", "ABORTED":
		return JobStatusCancelled, nil
	default:
		return "", exception.Newf(exception.KindRemoteService, "model", "unknown remote workflow status '%s'", s).
			WithDetail("remote_status", s)
	}
}

// isValidBatchTransition checks if the state transition for a Batch is valid.
func isValidBatchTransition(current, next BatchStatus) bool {
	switch current {
	case BatchStatusInitiated:
		// INITIATED can go ACTIVE on first submission, or straight to a
		// terminal state via reconciliation (all jobs skipped) or cancellation.
		return next == BatchStatusActive || next == BatchStatusCompleted ||
			next == BatchStatusFailed || next == BatchStatusCancelled
	case BatchStatusActive:
		return next == BatchStatusCompleted || next == BatchStatusFailed || next == BatchStatusCancelled
	case BatchStatusCompleted, BatchStatusFailed, BatchStatusCancelled:
		return false // Terminal states are absorbing.
	default:
		return false
	}
}

// isValidJobTransition checks if the state transition for a Job is valid.
func isValidJobTransition(current, next JobStatus) bool {
	switch current {
	case JobStatusInitiated:
		return next == JobStatusSubmitted || next == JobStatusSkipped || next == JobStatusCancelled
	case JobStatusSubmitted:
		return next == JobStatusQueued || next == JobStatusPending || next == JobStatusRunning ||
			next == JobStatusFailed || next == JobStatusCancelled
	case JobStatusQueued, JobStatusPending, JobStatusRunning:
		// Self-loop on RUNNING while polling; otherwise only terminal outcomes.
		return next == JobStatusRunning || next == JobStatusFinished ||
			next == JobStatusFailed || next == JobStatusCancelled
	case JobStatusFinished, JobStatusFailed, JobStatusCancelled, JobStatusSkipped:
		return false // Terminal states are absorbing.
	default:
		return false
	}
}
