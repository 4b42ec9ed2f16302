package inmemory

import (
	"context"
	"sync"

	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
	"github.com/tigerroll/swell/pkg/orchestrator/core/tx"
)

// InMemoryTransactionManager serializes transactions over an
// InMemoryRepository and restores a snapshot of the whole store on rollback,
// so a failed multi-row operation leaves no partial rows behind.
type InMemoryTransactionManager struct {
	repo *InMemoryRepository
	txMu sync.Mutex // Held for the duration of each transaction.
}

// NewInMemoryTransactionManager creates a TransactionManager bound to the
// given repository.
func NewInMemoryTransactionManager(repo *InMemoryRepository) *InMemoryTransactionManager {
	return &InMemoryTransactionManager{repo: repo}
}

type storeSnapshot struct {
	batches     map[string]*model.Batch
	jobs        map[string]*model.Job
	jobOrder    []string
	configs     map[string]*model.JobConfiguration
	trackingLog map[string][]*model.TrackingLogEntry
}

// inMemoryTx holds the pre-transaction snapshot until Commit or Rollback.
type inMemoryTx struct {
	manager  *InMemoryTransactionManager
	snapshot *storeSnapshot
	done     sync.Once
}

// Begin starts a transaction: it acquires the transaction mutex so concurrent
// transactions are serialized, then snapshots the store.
func (m *InMemoryTransactionManager) Begin(ctx context.Context) (tx.Tx, error) {
	m.txMu.Lock()
	return &inMemoryTx{manager: m, snapshot: m.repo.snapshot()}, nil
}

// Commit discards the snapshot and releases the transaction.
func (t *inMemoryTx) Commit() error {
	t.done.Do(func() {
		t.snapshot = nil
		t.manager.txMu.Unlock()
	})
	return nil
}

// Rollback restores the snapshot taken at Begin and releases the transaction.
func (t *inMemoryTx) Rollback() error {
	t.done.Do(func() {
		t.manager.repo.restore(t.snapshot)
		t.snapshot = nil
		t.manager.txMu.Unlock()
	})
	return nil
}

var _ tx.TransactionManager = (*InMemoryTransactionManager)(nil)

func (r *InMemoryRepository) snapshot() *storeSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := &storeSnapshot{
		batches:     make(map[string]*model.Batch, len(r.batches)),
		jobs:        make(map[string]*model.Job, len(r.jobs)),
		jobOrder:    append([]string(nil), r.jobOrder...),
		configs:     make(map[string]*model.JobConfiguration, len(r.configs)),
		trackingLog: make(map[string][]*model.TrackingLogEntry, len(r.trackingLog)),
	}
	for id, b := range r.batches {
		s.batches[id] = cloneBatch(b)
	}
	for id, j := range r.jobs {
		s.jobs[id] = cloneJob(j)
	}
	for id, c := range r.configs {
		s.configs[id] = cloneJobConfiguration(c)
	}
	for id, entries := range r.trackingLog {
		s.trackingLog[id] = append([]*model.TrackingLogEntry(nil), entries...)
	}
	return s
}

func (r *InMemoryRepository) restore(s *storeSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.batches = s.batches
	r.jobs = s.jobs
	r.jobOrder = s.jobOrder
	r.configs = s.configs
	r.trackingLog = s.trackingLog
}
