// Package scheduler drives periodic status tracking: on every tick it polls
// the remote status of each unfinished job of every ACTIVE batch and then
// reconciles the batch status from the results.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	port "github.com/tigerroll/swell/pkg/orchestrator/core/application/port"
	config "github.com/tigerroll/swell/pkg/orchestrator/core/config"
	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
	repository "github.com/tigerroll/swell/pkg/orchestrator/core/domain/repository"
	"github.com/tigerroll/swell/pkg/orchestrator/support/util/logger"
)

// TrackingScheduler periodically tracks job statuses and reconciles batches.
type TrackingScheduler struct {
	repo       repository.Repository
	jobManager port.JobManager
	reconciler port.Reconciler
	interval   time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTrackingScheduler creates a TrackingScheduler from the orchestration
// configuration.
func NewTrackingScheduler(
	cfg *config.Config,
	repo repository.Repository,
	jobManager port.JobManager,
	reconciler port.Reconciler,
) *TrackingScheduler {
	interval := time.Duration(cfg.Swell.Orchestration.TrackingIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &TrackingScheduler{
		repo:       repo,
		jobManager: jobManager,
		reconciler: reconciler,
		interval:   interval,
	}
}

// Start launches the tracking loop. It returns immediately; the loop runs
// until Stop is called.
func (s *TrackingScheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		logger.Infof("Tracking scheduler started (interval: %v).", s.interval)
		for {
			select {
			case <-ctx.Done():
				logger.Infof("Tracking scheduler stopped.")
				return
			case <-ticker.C:
				if err := s.RunOnce(ctx); err != nil {
					logger.Errorf("Tracking run finished with errors: %v", err)
				}
			}
		}
	}()
}

// Stop terminates the tracking loop and waits for an in-flight run to finish.
func (s *TrackingScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// RunOnce performs one tracking pass over every ACTIVE batch. A failure on one
// job or batch never prevents the others from being processed; all failures
// are collected and returned together.
func (s *TrackingScheduler) RunOnce(ctx context.Context) error {
	batches, err := s.repo.FindBatchesByStatus(ctx, model.BatchStatusActive)
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, batch := range batches {
		if err := s.trackBatch(ctx, batch); err != nil {
			result = multierror.Append(result, err)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return result.ErrorOrNil()
}

func (s *TrackingScheduler) trackBatch(ctx context.Context, batch *model.Batch) error {
	jobs, err := s.repo.FindJobsByBatchID(ctx, batch.ID)
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, job := range jobs {
		if job.Status.IsTerminal() || job.ExternalWorkflowID == "" {
			continue
		}
		if _, err := s.jobManager.TrackJobStatus(ctx, job.ID); err != nil {
			logger.Warnf("Failed to track job %s of batch %s: %v", job.ID, batch.ID, err)
			result = multierror.Append(result, err)
		}
	}

	if _, err := s.reconciler.ReconBatch(ctx, batch.ID); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
