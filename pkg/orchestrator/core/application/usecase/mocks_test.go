package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	port "github.com/tigerroll/swell/pkg/orchestrator/core/application/port"
	usecase "github.com/tigerroll/swell/pkg/orchestrator/core/application/usecase"
	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
	"github.com/tigerroll/swell/pkg/orchestrator/infrastructure/repository/inmemory"
)

// mockWorkflowClient is a testify mock of port.WorkflowClient.
type mockWorkflowClient struct {
	mock.Mock
}

func (m *mockWorkflowClient) StartWorkflow(ctx context.Context, path string, payload model.Payload) (*port.StartResult, error) {
	args := m.Called(ctx, path, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.StartResult), args.Error(1)
}

func (m *mockWorkflowClient) FetchWorkflowStatus(ctx context.Context, workflowID string) (*port.WorkflowStatus, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.WorkflowStatus), args.Error(1)
}

func (m *mockWorkflowClient) PollWorkflow(ctx context.Context, workflowURL string, interval, timeout time.Duration) (*port.WorkflowStatus, error) {
	args := m.Called(ctx, workflowURL, interval, timeout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.WorkflowStatus), args.Error(1)
}

func (m *mockWorkflowClient) PollWorkflowsBatch(ctx context.Context, workflowURLs []string, interval, timeout time.Duration) (map[string]*port.WorkflowStatus, error) {
	args := m.Called(ctx, workflowURLs, interval, timeout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*port.WorkflowStatus), args.Error(1)
}

func (m *mockWorkflowClient) ExecuteWorkflow(ctx context.Context, path string, payload model.Payload, interval, timeout time.Duration) (*port.WorkflowStatus, error) {
	args := m.Called(ctx, path, payload, interval, timeout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.WorkflowStatus), args.Error(1)
}

var _ port.WorkflowClient = (*mockWorkflowClient)(nil)

// testEnv bundles the in-memory infrastructure and the application services
// under test.
type testEnv struct {
	repo         *inmemory.InMemoryRepository
	txManager    *inmemory.InMemoryTransactionManager
	client       *mockWorkflowClient
	batchManager *usecase.DefaultBatchManager
	jobManager   *usecase.DefaultJobManager
	reconciler   *usecase.DefaultReconciler
}

func newTestEnv() *testEnv {
	repo := inmemory.NewInMemoryRepository()
	txManager := inmemory.NewInMemoryTransactionManager(repo)
	client := &mockWorkflowClient{}

	jobManager := usecase.NewDefaultJobManager(repo, txManager, client, nil)
	return &testEnv{
		repo:         repo,
		txManager:    txManager,
		client:       client,
		batchManager: usecase.NewDefaultBatchManager(repo, txManager, jobManager, nil),
		jobManager:   jobManager,
		reconciler:   usecase.NewDefaultReconciler(repo, txManager, nil),
	}
}

// seedBatchWithJobs persists a batch and jobs forced into the given statuses,
// bypassing the state machine.
func (e *testEnv) seedBatchWithJobs(ctx context.Context, batchStatus model.BatchStatus, jobStatuses ...model.JobStatus) (*model.Batch, []*model.Job, error) {
	batch := model.NewBatch("default", "cfg-"+model.NewID(), "step-1")
	batch.Status = batchStatus
	if err := e.repo.SaveBatch(ctx, batch); err != nil {
		return nil, nil, err
	}

	jobs := make([]*model.Job, 0, len(jobStatuses))
	for _, status := range jobStatuses {
		config := model.NewJobConfiguration(batch.ID, model.Payload{"unit": "u"}, 1)
		if err := e.repo.SaveJobConfiguration(ctx, config); err != nil {
			return nil, nil, err
		}
		job := model.NewJob(batch.ID, config.ID, "")
		job.Status = status
		if status != model.JobStatusInitiated && status != model.JobStatusSkipped {
			job.ExternalWorkflowID = "wf-" + job.ID
		}
		if err := e.repo.SaveJob(ctx, job); err != nil {
			return nil, nil, err
		}
		jobs = append(jobs, job)
	}
	return batch, jobs, nil
}
