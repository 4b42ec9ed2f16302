package usecase

import (
	"context"
	"errors"

	port "github.com/tigerroll/swell/pkg/orchestrator/core/application/port"
	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
	repository "github.com/tigerroll/swell/pkg/orchestrator/core/domain/repository"
	metrics "github.com/tigerroll/swell/pkg/orchestrator/core/metrics"
	tx "github.com/tigerroll/swell/pkg/orchestrator/core/tx"
	"github.com/tigerroll/swell/pkg/orchestrator/support/util/exception"
	"github.com/tigerroll/swell/pkg/orchestrator/support/util/logger"
)

const reconcilerModule = "reconciler"

// DefaultReconciler implements port.Reconciler.
type DefaultReconciler struct {
	repo      repository.Repository
	txManager tx.TransactionManager
	recorder  metrics.Recorder
}

// NewDefaultReconciler creates a new DefaultReconciler.
func NewDefaultReconciler(
	repo repository.Repository,
	txManager tx.TransactionManager,
	recorder metrics.Recorder,
) *DefaultReconciler {
	if recorder == nil {
		recorder = metrics.NewNoOpRecorder()
	}
	return &DefaultReconciler{
		repo:      repo,
		txManager: txManager,
		recorder:  recorder,
	}
}

// ReconBatch recomputes the Batch status from the multiset of its Jobs'
// statuses and persists it only when it differs from the stored status.
// A Batch with no Jobs is left untouched; re-running without job changes
// mutates nothing.
func (r *DefaultReconciler) ReconBatch(ctx context.Context, batchID string) (model.BatchStatus, error) {
	var finalStatus model.BatchStatus
	changed := false

	err := tx.RunInTransaction(ctx, r.txManager, func(txCtx context.Context) error {
		batch, err := r.repo.FindBatchByID(txCtx, batchID)
		if err != nil {
			if errors.Is(err, repository.ErrBatchNotFound) {
				return exception.Newf(exception.KindNotFound, reconcilerModule,
					"batch '%s' does not exist", batchID).
					WithDetail("batch_id", batchID)
			}
			return err
		}
		finalStatus = batch.Status

		jobs, err := r.repo.FindJobsByBatchID(txCtx, batch.ID)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			return nil
		}

		computed := computeBatchStatus(batch.Status, jobs)
		if computed == batch.Status {
			return nil
		}

		if err := batch.TransitionTo(computed); err != nil {
			return err
		}
		if err := r.repo.UpdateBatch(txCtx, batch); err != nil {
			return err
		}
		finalStatus = computed
		changed = true
		return nil
	})
	if err != nil {
		return "", err
	}

	r.recorder.RecordReconciliation(ctx, changed)
	if changed {
		logger.Infof("Reconciled batch %s to %s.", batchID, finalStatus)
	}
	return finalStatus, nil
}

// computeBatchStatus derives a Batch status from its Jobs' statuses. The
// derivation depends only on the multiset of statuses, never on job order:
//
//   - any non-terminal job keeps the stored status;
//   - any FAILED job fails the batch;
//   - all CANCELLED cancels the batch;
//   - otherwise every job ended in FINISHED, SKIPPED, or CANCELLED, and the
//     batch completed (a partly cancelled batch that still produced results
//     counts as completed).
func computeBatchStatus(stored model.BatchStatus, jobs []*model.Job) model.BatchStatus {
	anyFailed := false
	allCancelled := true
	for _, job := range jobs {
		if !job.Status.IsTerminal() {
			return stored
		}
		if job.Status == model.JobStatusFailed {
			anyFailed = true
		}
		if job.Status != model.JobStatusCancelled {
			allCancelled = false
		}
	}
	if anyFailed {
		return model.BatchStatusFailed
	}
	if allCancelled {
		return model.BatchStatusCancelled
	}
	return model.BatchStatusCompleted
}

var _ port.Reconciler = (*DefaultReconciler)(nil)
