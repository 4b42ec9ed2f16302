// Package metrics provides the Prometheus implementation of the orchestration
// metric recorder.
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
	metrics "github.com/tigerroll/swell/pkg/orchestrator/core/metrics"
)

// PrometheusRecorder is a Prometheus implementation of the metrics.Recorder
// interface.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	batchCreatedCounter   *prometheus.CounterVec
	batchStatusCounter    *prometheus.CounterVec
	jobSubmittedCounter   prometheus.Counter
	jobStatusCounter      *prometheus.CounterVec
	remoteRetryCounter    *prometheus.CounterVec
	reconciliationCounter *prometheus.CounterVec
}

// NewPrometheusRecorder creates a new instance of PrometheusRecorder.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		batchCreatedCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swell_batch_created_total",
			Help: "Total number of batches created by batch type.",
		}, []string{"batch_type"}),
		batchStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swell_batch_status_total",
			Help: "Total number of batch status transitions by batch type and status.",
		}, []string{"batch_type", "status"}),
		jobSubmittedCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swell_job_submitted_total",
			Help: "Total number of jobs submitted to the remote service.",
		}),
		jobStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swell_job_status_total",
			Help: "Total number of job status transitions by status.",
		}, []string{"status"}),
		remoteRetryCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swell_remote_retry_total",
			Help: "Total number of retried remote transport attempts by status code.",
		}, []string{"status_code"}),
		reconciliationCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swell_reconciliation_total",
			Help: "Total number of batch reconciliation runs by outcome.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(r.batchCreatedCounter)
	registry.MustRegister(r.batchStatusCounter)
	registry.MustRegister(r.jobSubmittedCounter)
	registry.MustRegister(r.jobStatusCounter)
	registry.MustRegister(r.remoteRetryCounter)
	registry.MustRegister(r.reconciliationCounter)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordBatchCreated implements metrics.Recorder.
func (r *PrometheusRecorder) RecordBatchCreated(ctx context.Context, batchType string) {
	r.batchCreatedCounter.WithLabelValues(batchType).Inc()
}

// RecordBatchStatus implements metrics.Recorder.
func (r *PrometheusRecorder) RecordBatchStatus(ctx context.Context, batchType string, status model.BatchStatus) {
	r.batchStatusCounter.WithLabelValues(batchType, status.String()).Inc()
}

// RecordJobSubmitted implements metrics.Recorder.
func (r *PrometheusRecorder) RecordJobSubmitted(ctx context.Context) {
	r.jobSubmittedCounter.Inc()
}

// RecordJobStatus implements metrics.Recorder.
func (r *PrometheusRecorder) RecordJobStatus(ctx context.Context, status model.JobStatus) {
	r.jobStatusCounter.WithLabelValues(status.String()).Inc()
}

// RecordRemoteRetry implements metrics.Recorder. A zero status code means the
// failure never reached the HTTP layer.
func (r *PrometheusRecorder) RecordRemoteRetry(ctx context.Context, statusCode int) {
	r.remoteRetryCounter.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordReconciliation implements metrics.Recorder.
func (r *PrometheusRecorder) RecordReconciliation(ctx context.Context, changed bool) {
	outcome := "unchanged"
	if changed {
		outcome = "changed"
	}
	r.reconciliationCounter.WithLabelValues(outcome).Inc()
}

var _ metrics.Recorder = (*PrometheusRecorder)(nil)
