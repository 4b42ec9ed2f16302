// Package usecase implements the orchestration core's application services:
// the batch manager, the job manager, and the reconciler.
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	port "github.com/tigerroll/swell/pkg/orchestrator/core/application/port"
	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
	repository "github.com/tigerroll/swell/pkg/orchestrator/core/domain/repository"
	metrics "github.com/tigerroll/swell/pkg/orchestrator/core/metrics"
	"github.com/tigerroll/swell/pkg/orchestrator/core/transformer"
	tx "github.com/tigerroll/swell/pkg/orchestrator/core/tx"
	"github.com/tigerroll/swell/pkg/orchestrator/support/util/exception"
	"github.com/tigerroll/swell/pkg/orchestrator/support/util/logger"
)

const batchManagerModule = "batch_manager"

// DefaultBatchManager implements port.BatchManager.
type DefaultBatchManager struct {
	repo       repository.Repository
	txManager  tx.TransactionManager
	jobManager port.JobManager
	recorder   metrics.Recorder
}

// NewDefaultBatchManager creates a new DefaultBatchManager.
func NewDefaultBatchManager(
	repo repository.Repository,
	txManager tx.TransactionManager,
	jobManager port.JobManager,
	recorder metrics.Recorder,
) *DefaultBatchManager {
	if recorder == nil {
		recorder = metrics.NewNoOpRecorder()
	}
	return &DefaultBatchManager{
		repo:       repo,
		txManager:  txManager,
		jobManager: jobManager,
		recorder:   recorder,
	}
}

// CreateBatch creates a Batch and materializes its JobConfigurations and Jobs
// from the transformer registered for batchType. The transformation runs
// before the transaction so a malformed configuration aborts with no rows
// written; the duplicate guard, the batch row, and every derived row are then
// committed atomically.
func (m *DefaultBatchManager) CreateBatch(ctx context.Context, batchType, configurationID, stepID string, configData model.Payload, allowDuplicate bool) (string, error) {
	specs, err := transformer.CreateJobConfigurations(configData, batchType)
	if err != nil {
		return "", err
	}

	batch := model.NewBatch(batchType, configurationID, stepID)

	err = tx.RunInTransaction(ctx, m.txManager, func(txCtx context.Context) error {
		if !allowDuplicate {
			existing, err := m.repo.FindActiveBatches(txCtx, configurationID, batchType)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				return exception.Newf(exception.KindConflict, batchManagerModule,
					"an active batch already exists for configuration '%s' and type '%s': batch %s (%s)",
					configurationID, batchType, existing[0].ID, existing[0].Status).
					WithDetail("existing_batch_id", existing[0].ID).
					WithDetail("existing_batch_status", existing[0].Status.String())
			}
		}

		if err := m.repo.SaveBatch(txCtx, batch); err != nil {
			return err
		}

		for _, spec := range specs {
			jobConfig := model.NewJobConfiguration(batch.ID, spec.Payload, 1)
			if err := m.repo.SaveJobConfiguration(txCtx, jobConfig); err != nil {
				return err
			}
			job := model.NewJob(batch.ID, jobConfig.ID, "")
			if err := m.repo.SaveJob(txCtx, job); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	m.recorder.RecordBatchCreated(ctx, batchType)
	logger.Infof("Created batch %s (type: %s, configuration: %s, %d jobs).",
		batch.ID, batchType, configurationID, len(specs))
	return batch.ID, nil
}

// ReadBatch returns the Batch with the given id.
func (m *DefaultBatchManager) ReadBatch(ctx context.Context, id string) (*model.Batch, error) {
	batch, err := m.repo.FindBatchByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBatchNotFound) {
			return nil, exception.Newf(exception.KindNotFound, batchManagerModule,
				"batch '%s' does not exist", id).
				WithDetail("batch_id", id)
		}
		return nil, err
	}
	return batch, nil
}

// UpdateBatchStatus validates the status against the closed enum and applies
// it through the batch state machine.
func (m *DefaultBatchManager) UpdateBatchStatus(ctx context.Context, id string, status string) error {
	next, err := model.ParseBatchStatus(status)
	if err != nil {
		return err
	}

	batch, err := m.ReadBatch(ctx, id)
	if err != nil {
		return err
	}
	if err := batch.TransitionTo(next); err != nil {
		return err
	}
	if err := m.repo.UpdateBatch(ctx, batch); err != nil {
		return err
	}

	m.recorder.RecordBatchStatus(ctx, batch.BatchType, next)
	return nil
}

// GetActiveBatchesForConfig returns the INITIATED/ACTIVE Batches for a
// configuration, most recent first.
func (m *DefaultBatchManager) GetActiveBatchesForConfig(ctx context.Context, configurationID, batchType string) ([]*model.Batch, error) {
	return m.repo.FindActiveBatches(ctx, configurationID, batchType)
}

// CancelBatch cancels every non-terminal Job of the Batch and then the Batch
// itself, atomically. An already terminal Batch is left untouched and reported
// with false.
func (m *DefaultBatchManager) CancelBatch(ctx context.Context, id, reason string) (bool, error) {
	cancelled := false
	batchType := ""

	err := tx.RunInTransaction(ctx, m.txManager, func(txCtx context.Context) error {
		batch, err := m.repo.FindBatchByID(txCtx, id)
		if err != nil {
			if errors.Is(err, repository.ErrBatchNotFound) {
				return exception.Newf(exception.KindNotFound, batchManagerModule,
					"batch '%s' does not exist", id).
					WithDetail("batch_id", id)
			}
			return err
		}
		batchType = batch.BatchType
		if batch.Status.IsTerminal() {
			return nil
		}

		jobs, err := m.repo.FindJobsByBatchID(txCtx, batch.ID)
		if err != nil {
			return err
		}

		var result *multierror.Error
		for _, job := range jobs {
			if job.Status.IsTerminal() {
				continue
			}
			oldStatus := job.Status
			if err := job.TransitionTo(model.JobStatusCancelled); err != nil {
				result = multierror.Append(result, err)
				continue
			}
			if reason != "" {
				job.ResultMetadata.Put("cancel_reason", reason)
			}
			if err := m.repo.UpdateJob(txCtx, job); err != nil {
				result = multierror.Append(result, err)
				continue
			}
			entry := model.NewTrackingLogEntry(job.ID, oldStatus, model.JobStatusCancelled, "cancel_batch")
			if err := m.repo.AppendTrackingLog(txCtx, entry); err != nil {
				result = multierror.Append(result, err)
			}
		}
		if err := result.ErrorOrNil(); err != nil {
			return exception.New(exception.KindTransient, batchManagerModule,
				fmt.Sprintf("failed to cancel jobs of batch '%s'", id), err)
		}

		if err := batch.TransitionTo(model.BatchStatusCancelled); err != nil {
			return err
		}
		if err := m.repo.UpdateBatch(txCtx, batch); err != nil {
			return err
		}
		cancelled = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if cancelled {
		m.recorder.RecordBatchStatus(ctx, batchType, model.BatchStatusCancelled)
		logger.Infof("Cancelled batch %s (reason: %s).", id, reason)
	}
	return cancelled, nil
}

// SubmitBatch submits each Job of the Batch in creation order and flips the
// Batch to ACTIVE on the first successful submission. A failing submission
// does not prevent later siblings from being attempted; failures are collected
// and returned together.
func (m *DefaultBatchManager) SubmitBatch(ctx context.Context, id string) error {
	batch, err := m.ReadBatch(ctx, id)
	if err != nil {
		return err
	}

	jobs, err := m.repo.FindJobsByBatchID(ctx, batch.ID)
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, job := range jobs {
		if job.Status != model.JobStatusInitiated {
			continue
		}
		if err := m.jobManager.SubmitJob(ctx, job.ID, false); err != nil {
			logger.Warnf("Failed to submit job %s of batch %s: %v", job.ID, id, err)
			result = multierror.Append(result, err)
			continue
		}
		if batch.Status == model.BatchStatusInitiated {
			if err := batch.MarkAsActive(); err != nil {
				result = multierror.Append(result, err)
				continue
			}
			if err := m.repo.UpdateBatch(ctx, batch); err != nil {
				result = multierror.Append(result, err)
				continue
			}
			m.recorder.RecordBatchStatus(ctx, batch.BatchType, model.BatchStatusActive)
		}
	}
	return result.ErrorOrNil()
}

var _ port.BatchManager = (*DefaultBatchManager)(nil)
