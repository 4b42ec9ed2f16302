package usecase

import (
	"context"
	"errors"
	"time"

	port "github.com/tigerroll/swell/pkg/orchestrator/core/application/port"
	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
	repository "github.com/tigerroll/swell/pkg/orchestrator/core/domain/repository"
	metrics "github.com/tigerroll/swell/pkg/orchestrator/core/metrics"
	tx "github.com/tigerroll/swell/pkg/orchestrator/core/tx"
	"github.com/tigerroll/swell/pkg/orchestrator/support/util/exception"
	"github.com/tigerroll/swell/pkg/orchestrator/support/util/logger"
)

const jobManagerModule = "job_manager"

// workflowTriggerPath is the remote endpoint that accepts job submissions.
const workflowTriggerPath = "/workflows"

// DefaultJobManager implements port.JobManager.
type DefaultJobManager struct {
	repo      repository.Repository
	txManager tx.TransactionManager
	client    port.WorkflowClient
	recorder  metrics.Recorder
}

// NewDefaultJobManager creates a new DefaultJobManager.
func NewDefaultJobManager(
	repo repository.Repository,
	txManager tx.TransactionManager,
	client port.WorkflowClient,
	recorder metrics.Recorder,
) *DefaultJobManager {
	if recorder == nil {
		recorder = metrics.NewNoOpRecorder()
	}
	return &DefaultJobManager{
		repo:      repo,
		txManager: txManager,
		client:    client,
		recorder:  recorder,
	}
}

func (m *DefaultJobManager) findJob(ctx context.Context, id string) (*model.Job, error) {
	job, err := m.repo.FindJobByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, exception.Newf(exception.KindNotFound, jobManagerModule,
				"job '%s' does not exist", id).
				WithDetail("job_id", id)
		}
		return nil, err
	}
	return job, nil
}

func (m *DefaultJobManager) findJobConfiguration(ctx context.Context, id string) (*model.JobConfiguration, error) {
	config, err := m.repo.FindJobConfigurationByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrJobConfigurationNotFound) {
			return nil, exception.Newf(exception.KindNotFound, jobManagerModule,
				"job configuration '%s' does not exist", id).
				WithDetail("job_configuration_id", id)
		}
		return nil, err
	}
	return config, nil
}

// CreateJob creates a Job (INITIATED) under a Batch. The source names exactly
// one of an existing JobConfiguration or a fresh payload; a referenced
// configuration must belong to the target Batch.
func (m *DefaultJobManager) CreateJob(ctx context.Context, batchID string, source port.JobSource) (string, error) {
	if err := source.Validate(); err != nil {
		return "", err
	}

	batch, err := m.repo.FindBatchByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, repository.ErrBatchNotFound) {
			return "", exception.Newf(exception.KindNotFound, jobManagerModule,
				"batch '%s' does not exist", batchID).
				WithDetail("batch_id", batchID)
		}
		return "", err
	}

	var jobID string
	err = tx.RunInTransaction(ctx, m.txManager, func(txCtx context.Context) error {
		configID, ok := source.ExistingConfigurationID()
		if ok {
			config, err := m.findJobConfiguration(txCtx, configID)
			if err != nil {
				return err
			}
			if config.BatchID != batch.ID {
				return exception.Newf(exception.KindValidation, jobManagerModule,
					"job configuration '%s' belongs to batch '%s', not '%s'",
					config.ID, config.BatchID, batch.ID).
					WithDetail("job_configuration_id", config.ID)
			}
		} else {
			payload, _ := source.Payload()
			config := model.NewJobConfiguration(batch.ID, payload, 1)
			if err := m.repo.SaveJobConfiguration(txCtx, config); err != nil {
				return err
			}
			configID = config.ID
		}

		job := model.NewJob(batch.ID, configID, "")
		if err := m.repo.SaveJob(txCtx, job); err != nil {
			return err
		}
		jobID = job.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return jobID, nil
}

// SubmitJob sends the Job's configuration to the remote service, stores the
// returned workflow reference, and transitions the Job to SUBMITTED. A Job
// that already holds a workflow reference fails unless forceResubmit is set,
// in which case the reference is replaced.
func (m *DefaultJobManager) SubmitJob(ctx context.Context, id string, forceResubmit bool) error {
	job, err := m.findJob(ctx, id)
	if err != nil {
		return err
	}
	if job.ExternalWorkflowID != "" && !forceResubmit {
		return exception.Newf(exception.KindConflict, jobManagerModule,
			"job '%s' was already submitted as workflow '%s'", job.ID, job.ExternalWorkflowID).
			WithDetail("job_id", job.ID).
			WithDetail("external_workflow_id", job.ExternalWorkflowID)
	}

	config, err := m.findJobConfiguration(ctx, job.JobConfigurationID)
	if err != nil {
		return err
	}

	started, err := m.client.StartWorkflow(ctx, workflowTriggerPath, config.Payload)
	if err != nil {
		return err
	}
	if started.WorkflowID == "" {
		return exception.Newf(exception.KindRemoteService, jobManagerModule,
			"remote service did not accept the workflow for job '%s' (status %d)",
			job.ID, started.StatusCode).
			WithDetail("job_id", job.ID).
			WithDetail("status_code", started.StatusCode)
	}

	oldStatus := job.Status
	if job.Status == model.JobStatusSubmitted {
		// Forced resubmission of an already submitted job replaces the
		// workflow reference without a state transition.
		now := time.Now()
		job.ExternalWorkflowID = started.WorkflowID
		job.SubmitTime = &now
		job.LastUpdated = now
	} else if err := job.MarkAsSubmitted(started.WorkflowID); err != nil {
		return err
	}
	if err := m.repo.UpdateJob(ctx, job); err != nil {
		return err
	}
	if oldStatus != job.Status {
		entry := model.NewTrackingLogEntry(job.ID, oldStatus, job.Status, "submit_job")
		if err := m.repo.AppendTrackingLog(ctx, entry); err != nil {
			return err
		}
	}

	m.recorder.RecordJobSubmitted(ctx)
	logger.Infof("Submitted job %s as workflow %s.", job.ID, started.WorkflowID)
	return nil
}

// TrackJobStatus polls the remote service for the Job's workflow, maps the
// remote vocabulary onto the local enum, and persists the Job only when the
// status actually changed. A Job that was never submitted cannot be tracked.
func (m *DefaultJobManager) TrackJobStatus(ctx context.Context, id string) (model.JobStatus, error) {
	job, err := m.findJob(ctx, id)
	if err != nil {
		return "", err
	}
	if job.ExternalWorkflowID == "" {
		return "", exception.Newf(exception.KindIllegalTransition, jobManagerModule,
			"job '%s' cannot be tracked before submission", job.ID).
			WithDetail("job_id", job.ID).
			WithDetail("current_status", job.Status.String())
	}
	if job.Status.IsTerminal() {
		return job.Status, nil
	}

	ws, err := m.client.FetchWorkflowStatus(ctx, job.ExternalWorkflowID)
	if err != nil {
		return "", err
	}
	mapped, err := model.ParseRemoteWorkflowStatus(ws.Status)
	if err != nil {
		return "", err
	}
	if mapped == job.Status {
		return job.Status, nil
	}

	oldStatus := job.Status
	if err := job.TransitionTo(mapped); err != nil {
		return "", err
	}
	if mapped.IsTerminal() && len(ws.Detail) > 0 {
		for k, v := range ws.Detail {
			job.ResultMetadata.Put(k, v)
		}
	}
	if err := m.repo.UpdateJob(ctx, job); err != nil {
		return "", err
	}
	entry := model.NewTrackingLogEntry(job.ID, oldStatus, mapped, "track_job_status")
	if err := m.repo.AppendTrackingLog(ctx, entry); err != nil {
		return "", err
	}

	m.recorder.RecordJobStatus(ctx, mapped)
	logger.Debugf("Job %s moved %s -> %s.", job.ID, oldStatus, mapped)
	return mapped, nil
}

// SkipJob marks an INITIATED Job as SKIPPED with the given reason. The state
// machine rejects skipping from any other status.
func (m *DefaultJobManager) SkipJob(ctx context.Context, id, reason string) error {
	job, err := m.findJob(ctx, id)
	if err != nil {
		return err
	}

	oldStatus := job.Status
	if err := job.TransitionTo(model.JobStatusSkipped); err != nil {
		return err
	}
	if reason != "" {
		job.ResultMetadata.Put("skip_reason", reason)
	}
	if err := m.repo.UpdateJob(ctx, job); err != nil {
		return err
	}
	entry := model.NewTrackingLogEntry(job.ID, oldStatus, model.JobStatusSkipped, "skip_job")
	if err := m.repo.AppendTrackingLog(ctx, entry); err != nil {
		return err
	}

	m.recorder.RecordJobStatus(ctx, model.JobStatusSkipped)
	return nil
}

// ResubmitJob replaces a Job with a new one that preserves lineage via the
// parent id. The parent is cancelled and the replacement created in one
// transaction; the replacement is then submitted. A payload override requires
// a reason; without one nothing is mutated.
func (m *DefaultJobManager) ResubmitJob(ctx context.Context, id string, overridePayload model.Payload, overrideReason string) (string, error) {
	if overridePayload != nil && overrideReason == "" {
		return "", exception.New(exception.KindValidation, jobManagerModule,
			"a payload override requires an override reason", nil).
			WithDetail("job_id", id)
	}

	parent, err := m.findJob(ctx, id)
	if err != nil {
		return "", err
	}

	var childID string
	err = tx.RunInTransaction(ctx, m.txManager, func(txCtx context.Context) error {
		configID := parent.JobConfigurationID
		if overridePayload != nil {
			parentConfig, err := m.findJobConfiguration(txCtx, parent.JobConfigurationID)
			if err != nil {
				return err
			}
			config := model.NewJobConfiguration(parent.BatchID, overridePayload, parentConfig.Version+1)
			if err := m.repo.SaveJobConfiguration(txCtx, config); err != nil {
				return err
			}
			configID = config.ID
		}

		if !parent.Status.IsTerminal() {
			oldStatus := parent.Status
			if err := parent.TransitionTo(model.JobStatusCancelled); err != nil {
				return err
			}
			if err := m.repo.UpdateJob(txCtx, parent); err != nil {
				return err
			}
			entry := model.NewTrackingLogEntry(parent.ID, oldStatus, model.JobStatusCancelled, "resubmit_job")
			if err := m.repo.AppendTrackingLog(txCtx, entry); err != nil {
				return err
			}
		}

		child := model.NewJob(parent.BatchID, configID, parent.ID)
		if overrideReason != "" {
			child.ResultMetadata.Put("override_reason", overrideReason)
		}
		if err := m.repo.SaveJob(txCtx, child); err != nil {
			return err
		}
		childID = child.ID
		return nil
	})
	if err != nil {
		return "", err
	}

	// The replacement stays INITIATED and can be submitted again if this
	// first attempt fails.
	if err := m.SubmitJob(ctx, childID, false); err != nil {
		return childID, err
	}
	logger.Infof("Resubmitted job %s as %s.", id, childID)
	return childID, nil
}

// GetJobConfig resolves the JobConfiguration currently bound to the Job.
func (m *DefaultJobManager) GetJobConfig(ctx context.Context, id string) (*model.JobConfiguration, error) {
	job, err := m.findJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.findJobConfiguration(ctx, job.JobConfigurationID)
}

var _ port.JobManager = (*DefaultJobManager)(nil)
