package metrics

import (
	"context"

	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
)

// NoOpRecorder is a Recorder that records nothing. It is the default when no
// metrics backend is wired.
type NoOpRecorder struct{}

// NewNoOpRecorder creates a new NoOpRecorder.
func NewNoOpRecorder() Recorder {
	return &NoOpRecorder{}
}

func (r *NoOpRecorder) RecordBatchCreated(ctx context.Context, batchType string) {}
func (r *NoOpRecorder) RecordBatchStatus(ctx context.Context, batchType string, status model.BatchStatus) {
}
func (r *NoOpRecorder) RecordJobSubmitted(ctx context.Context)                      {}
func (r *NoOpRecorder) RecordJobStatus(ctx context.Context, status model.JobStatus) {}
func (r *NoOpRecorder) RecordRemoteRetry(ctx context.Context, statusCode int)       {}
func (r *NoOpRecorder) RecordReconciliation(ctx context.Context, changed bool)      {}

var _ Recorder = (*NoOpRecorder)(nil)
