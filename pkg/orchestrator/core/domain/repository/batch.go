package repository

import (
	"context"
	"errors"

	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
)

// ErrBatchNotFound is the error returned when a Batch is not found.
var ErrBatchNotFound = errors.New("batch not found")

// BatchRepository defines persistence operations for Batches.
type BatchRepository interface {
	// SaveBatch persists a new Batch.
	SaveBatch(ctx context.Context, batch *model.Batch) error

	// UpdateBatch updates the state of an existing Batch.
	UpdateBatch(ctx context.Context, batch *model.Batch) error

	// FindBatchByID finds a Batch by its ID. It returns ErrBatchNotFound when absent.
	FindBatchByID(ctx context.Context, id string) (*model.Batch, error)

	// FindActiveBatches returns the INITIATED/ACTIVE Batches for a
	// configuration, most recent first. An empty batchType matches any type.
	// This backs the duplicate-batch guard and interactive confirmation flows.
	FindActiveBatches(ctx context.Context, configurationID, batchType string) ([]*model.Batch, error)

	// FindBatchesByStepID returns all Batches referencing a workflow step,
	// most recent first.
	FindBatchesByStepID(ctx context.Context, stepID string) ([]*model.Batch, error)

	// FindBatchesByStatus returns all Batches in any of the given statuses,
	// most recent first. The tracking scheduler uses it to enumerate ACTIVE
	// batches.
	FindBatchesByStatus(ctx context.Context, statuses ...model.BatchStatus) ([]*model.Batch, error)
}
