// Package inmemory provides an in-memory implementation of the Repository
// interface. It stores all orchestration data in maps within memory, suitable
// for testing and scenarios where persistence is not required.
package inmemory

import (
	"sync"

	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
)

// InMemoryRepository is an in-memory implementation of the Repository
// interface. It holds all orchestration data in in-memory maps.
type InMemoryRepository struct {
	batches     map[string]*model.Batch
	jobs        map[string]*model.Job
	jobOrder    []string
	configs     map[string]*model.JobConfiguration
	trackingLog map[string][]*model.TrackingLogEntry
	mu          sync.RWMutex // Mutex to protect concurrent access to maps.
}

// NewInMemoryRepository creates and initializes a new instance of
// InMemoryRepository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		batches:     make(map[string]*model.Batch),
		jobs:        make(map[string]*model.Job),
		configs:     make(map[string]*model.JobConfiguration),
		trackingLog: make(map[string][]*model.TrackingLogEntry),
	}
}

// Close releases resources used by the repository. As an in-memory repository,
// it holds no external resources, so this method always returns nil.
func (r *InMemoryRepository) Close() error {
	return nil
}

func cloneBatch(b *model.Batch) *model.Batch {
	cloned := *b
	if b.CompletionTime != nil {
		t := *b.CompletionTime
		cloned.CompletionTime = &t
	}
	return &cloned
}

func cloneJob(j *model.Job) *model.Job {
	cloned := *j
	if j.SubmitTime != nil {
		t := *j.SubmitTime
		cloned.SubmitTime = &t
	}
	cloned.ResultMetadata = j.ResultMetadata.Copy()
	return &cloned
}

func cloneJobConfiguration(c *model.JobConfiguration) *model.JobConfiguration {
	cloned := *c
	cloned.Payload = c.Payload.Copy()
	return &cloned
}
