// Package metrics defines the abstract metric recording interface for the
// orchestration core, decoupling it from the metrics backend in use.
package metrics

import (
	"context"

	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
)

// Recorder is an abstract interface for recording orchestration metrics.
// This facilitates integration with different metrics backends.
type Recorder interface {
	// RecordBatchCreated records the creation of a Batch.
	RecordBatchCreated(ctx context.Context, batchType string)

	// RecordBatchStatus records a Batch entering a status.
	RecordBatchStatus(ctx context.Context, batchType string, status model.BatchStatus)

	// RecordJobSubmitted records a successful job submission to the remote service.
	RecordJobSubmitted(ctx context.Context)

	// RecordJobStatus records a Job entering a status.
	RecordJobStatus(ctx context.Context, status model.JobStatus)

	// RecordRemoteRetry records one retried transport attempt, labeled by the
	// HTTP status code that caused it (0 for connection failures).
	RecordRemoteRetry(ctx context.Context, statusCode int)

	// RecordReconciliation records one reconciliation run and whether it
	// changed the batch status.
	RecordReconciliation(ctx context.Context, changed bool)
}
