package inmemory

import (
	"context"
	"fmt"
	"sort"

	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
	repository "github.com/tigerroll/swell/pkg/orchestrator/core/domain/repository"
)

// SaveBatch persists a new Batch.
// It returns an error if a Batch with the same ID already exists.
func (r *InMemoryRepository) SaveBatch(ctx context.Context, batch *model.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.batches[batch.ID]; exists {
		return fmt.Errorf("batch with ID %s already exists", batch.ID)
	}
	r.batches[batch.ID] = cloneBatch(batch)
	return nil
}

// UpdateBatch updates an existing Batch.
// It returns ErrBatchNotFound if the Batch with the given ID is not found.
func (r *InMemoryRepository) UpdateBatch(ctx context.Context, batch *model.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.batches[batch.ID]; !exists {
		return repository.ErrBatchNotFound
	}
	r.batches[batch.ID] = cloneBatch(batch)
	return nil
}

// FindBatchByID finds a Batch by its ID.
func (r *InMemoryRepository) FindBatchByID(ctx context.Context, id string) (*model.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	batch, ok := r.batches[id]
	if !ok {
		return nil, repository.ErrBatchNotFound
	}
	// Deep copy to prevent external modification of internal state
	return cloneBatch(batch), nil
}

// FindActiveBatches returns the INITIATED/ACTIVE Batches for a configuration,
// most recent first. An empty batchType matches any type.
func (r *InMemoryRepository) FindActiveBatches(ctx context.Context, configurationID, batchType string) ([]*model.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*model.Batch
	for _, b := range r.batches {
		if b.ConfigurationID != configurationID {
			continue
		}
		if batchType != "" && b.BatchType != batchType {
			continue
		}
		if b.Status != model.BatchStatusInitiated && b.Status != model.BatchStatusActive {
			continue
		}
		matches = append(matches, cloneBatch(b))
	}
	sortBatchesByCreateTimeDesc(matches)
	return matches, nil
}

// FindBatchesByStepID returns all Batches referencing a workflow step, most
// recent first.
func (r *InMemoryRepository) FindBatchesByStepID(ctx context.Context, stepID string) ([]*model.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*model.Batch
	for _, b := range r.batches {
		if b.StepID == stepID {
			matches = append(matches, cloneBatch(b))
		}
	}
	sortBatchesByCreateTimeDesc(matches)
	return matches, nil
}

// FindBatchesByStatus returns all Batches in any of the given statuses, most
// recent first.
func (r *InMemoryRepository) FindBatchesByStatus(ctx context.Context, statuses ...model.BatchStatus) ([]*model.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[model.BatchStatus]struct{}, len(statuses))
	for _, s := range statuses {
		wanted[s] = struct{}{}
	}

	var matches []*model.Batch
	for _, b := range r.batches {
		if _, ok := wanted[b.Status]; ok {
			matches = append(matches, cloneBatch(b))
		}
	}
	sortBatchesByCreateTimeDesc(matches)
	return matches, nil
}

func sortBatchesByCreateTimeDesc(batches []*model.Batch) {
	sort.Slice(batches, func(i, j int) bool {
		return batches[j].CreateTime.Before(batches[i].CreateTime)
	})
}
