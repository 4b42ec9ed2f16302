package metrics_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
	"github.com/tigerroll/swell/pkg/orchestrator/infrastructure/metrics"
)

func TestPrometheusRecorder_Counters(t *testing.T) {
	r := metrics.NewPrometheusRecorder()
	ctx := context.Background()

	r.RecordBatchCreated(ctx, "default")
	r.RecordBatchCreated(ctx, "default")
	r.RecordBatchStatus(ctx, "default", model.BatchStatusActive)
	r.RecordJobSubmitted(ctx)
	r.RecordJobStatus(ctx, model.JobStatusFinished)
	r.RecordRemoteRetry(ctx, 503)
	r.RecordReconciliation(ctx, true)
	r.RecordReconciliation(ctx, false)

	gathered, err := r.GetRegistry().Gather()
	assert.NoError(t, err)
	counters := make(map[string]float64)
	for _, mf := range gathered {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() != nil {
				counters[mf.GetName()] += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, float64(2), counters["swell_batch_created_total"])
	assert.Equal(t, float64(1), counters["swell_batch_status_total"])
	assert.Equal(t, float64(1), counters["swell_job_submitted_total"])
	assert.Equal(t, float64(1), counters["swell_remote_retry_total"])
	assert.Equal(t, float64(2), counters["swell_reconciliation_total"])
	assert.Equal(t, float64(1), counters["swell_job_status_total"])
}

func TestPrometheusRecorder_RegistersRuntimeCollectors(t *testing.T) {
	r := metrics.NewPrometheusRecorder()

	gathered, err := r.GetRegistry().Gather()
	assert.NoError(t, err)
	found := false
	for _, mf := range gathered {
		if mf.GetName() == "go_goroutines" {
			found = true
			break
		}
	}
	assert.True(t, found)
}
