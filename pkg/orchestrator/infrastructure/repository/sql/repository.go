// Package sql implements the Repository interface on a relational store via
// GORM. Repositories resolve their executor from the context: inside a managed
// transaction they operate on the transactional handle, otherwise on the
// shared connection.
package sql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
	repository "github.com/tigerroll/swell/pkg/orchestrator/core/domain/repository"
	tx "github.com/tigerroll/swell/pkg/orchestrator/core/tx"
	"github.com/tigerroll/swell/pkg/orchestrator/support/util/exception"
)

const moduleName = "sql"

// GormRepository implements the repository.Repository interface.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new GormRepository over an open gorm connection.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// session resolves the gorm handle for the current operation. If a transaction
// travels in the context it is used; otherwise the shared connection is.
func (r *GormRepository) session(ctx context.Context) *gorm.DB {
	if t, ok := tx.FromContext(ctx); ok {
		if gt, ok := t.(*GormTx); ok {
			return gt.DB().WithContext(ctx)
		}
	}
	return r.db.WithContext(ctx)
}

// --- Batch implementation ---

func (r *GormRepository) SaveBatch(ctx context.Context, batch *model.Batch) error {
	const op = "GormRepository.SaveBatch"
	entity := fromDomainBatch(batch)

	if err := r.session(ctx).Create(entity).Error; err != nil {
		if isUniqueViolation(err) {
			return exception.Newf(exception.KindConflict, moduleName,
				"batch (ID: %s) violates a uniqueness constraint", batch.ID, err).
				WithDetail("batch_id", batch.ID)
		}
		return exception.New(exception.KindTransient, moduleName,
			fmt.Sprintf("%s: failed to save Batch (ID: %s)", op, batch.ID), err)
	}
	return nil
}

func (r *GormRepository) UpdateBatch(ctx context.Context, batch *model.Batch) error {
	const op = "GormRepository.UpdateBatch"
	entity := fromDomainBatch(batch)

	result := r.session(ctx).Model(&BatchEntity{}).
		Where("id = ?", batch.ID).
		Select("step_id", "configuration_id", "batch_type", "status", "updated_ts", "completed_ts").
		Updates(entity)
	if result.Error != nil {
		return exception.New(exception.KindTransient, moduleName,
			fmt.Sprintf("%s: failed to update Batch (ID: %s)", op, batch.ID), result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrBatchNotFound
	}
	return nil
}

func (r *GormRepository) FindBatchByID(ctx context.Context, id string) (*model.Batch, error) {
	const op = "GormRepository.FindBatchByID"
	var entity BatchEntity

	err := r.session(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrBatchNotFound
		}
		return nil, exception.New(exception.KindTransient, moduleName,
			fmt.Sprintf("%s: failed to find Batch by ID: %s", op, id), err)
	}
	return toDomainBatch(&entity), nil
}

func (r *GormRepository) FindActiveBatches(ctx context.Context, configurationID, batchType string) ([]*model.Batch, error) {
	const op = "GormRepository.FindActiveBatches"
	var entities []BatchEntity

	query := r.session(ctx).
		Where("configuration_id = ?", configurationID).
		Where("status IN ?", []string{
			model.BatchStatusInitiated.String(),
			model.BatchStatusActive.String(),
		})
	if batchType != "" {
		query = query.Where("batch_type = ?", batchType)
	}

	if err := query.Order("created_ts desc").Find(&entities).Error; err != nil {
		return nil, exception.New(exception.KindTransient, moduleName,
			fmt.Sprintf("%s: failed to find active Batches for configuration %s", op, configurationID), err)
	}
	return toDomainBatches(entities), nil
}

func (r *GormRepository) FindBatchesByStepID(ctx context.Context, stepID string) ([]*model.Batch, error) {
	const op = "GormRepository.FindBatchesByStepID"
	var entities []BatchEntity

	err := r.session(ctx).
		Where("step_id = ?", stepID).
		Order("created_ts desc").
		Find(&entities).Error
	if err != nil {
		return nil, exception.New(exception.KindTransient, moduleName,
			fmt.Sprintf("%s: failed to find Batches by step ID: %s", op, stepID), err)
	}
	return toDomainBatches(entities), nil
}

func (r *GormRepository) FindBatchesByStatus(ctx context.Context, statuses ...model.BatchStatus) ([]*model.Batch, error) {
	const op = "GormRepository.FindBatchesByStatus"
	var entities []BatchEntity

	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = s.String()
	}

	err := r.session(ctx).
		Where("status IN ?", values).
		Order("created_ts desc").
		Find(&entities).Error
	if err != nil {
		return nil, exception.New(exception.KindTransient, moduleName,
			fmt.Sprintf("%s: failed to find Batches by status", op), err)
	}
	return toDomainBatches(entities), nil
}

func toDomainBatches(entities []BatchEntity) []*model.Batch {
	batches := make([]*model.Batch, len(entities))
	for i := range entities {
		batches[i] = toDomainBatch(&entities[i])
	}
	return batches
}

// --- Job implementation ---

func (r *GormRepository) SaveJob(ctx context.Context, job *model.Job) error {
	const op = "GormRepository.SaveJob"
	entity := fromDomainJob(job)

	if err := r.session(ctx).Create(entity).Error; err != nil {
		return exception.New(exception.KindTransient, moduleName,
			fmt.Sprintf("%s: failed to save Job (ID: %s)", op, job.ID), err)
	}
	return nil
}

func (r *GormRepository) UpdateJob(ctx context.Context, job *model.Job) error {
	const op = "GormRepository.UpdateJob"
	entity := fromDomainJob(job)

	result := r.session(ctx).Model(&JobEntity{}).
		Where("id = ?", job.ID).
		Select("status", "external_workflow_id", "submit_ts", "updated_ts", "result_metadata").
		Updates(entity)
	if result.Error != nil {
		return exception.New(exception.KindTransient, moduleName,
			fmt.Sprintf("%s: failed to update Job (ID: %s)", op, job.ID), result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrJobNotFound
	}
	return nil
}

func (r *GormRepository) FindJobByID(ctx context.Context, id string) (*model.Job, error) {
	const op = "GormRepository.FindJobByID"
	var entity JobEntity

	err := r.session(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrJobNotFound
		}
		return nil, exception.New(exception.KindTransient, moduleName,
			fmt.Sprintf("%s: failed to find Job by ID: %s", op, id), err)
	}
	return toDomainJob(&entity), nil
}

func (r *GormRepository) FindJobsByBatchID(ctx context.Context, batchID string) ([]*model.Job, error) {
	const op = "GormRepository.FindJobsByBatchID"
	var entities []JobEntity

	err := r.session(ctx).
		Where("batch_id = ?", batchID).
		Order("created_ts asc, id asc").
		Find(&entities).Error
	if err != nil {
		return nil, exception.New(exception.KindTransient, moduleName,
			fmt.Sprintf("%s: failed to find Jobs by batch ID: %s", op, batchID), err)
	}

	jobs := make([]*model.Job, len(entities))
	for i := range entities {
		jobs[i] = toDomainJob(&entities[i])
	}
	return jobs, nil
}

func (r *GormRepository) SaveJobConfiguration(ctx context.Context, config *model.JobConfiguration) error {
	const op = "GormRepository.SaveJobConfiguration"
	entity := fromDomainJobConfiguration(config)

	if err := r.session(ctx).Create(entity).Error; err != nil {
		return exception.New(exception.KindTransient, moduleName,
			fmt.Sprintf("%s: failed to save JobConfiguration (ID: %s)", op, config.ID), err)
	}
	return nil
}

func (r *GormRepository) FindJobConfigurationByID(ctx context.Context, id string) (*model.JobConfiguration, error) {
	const op = "GormRepository.FindJobConfigurationByID"
	var entity JobConfigurationEntity

	err := r.session(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrJobConfigurationNotFound
		}
		return nil, exception.New(exception.KindTransient, moduleName,
			fmt.Sprintf("%s: failed to find JobConfiguration by ID: %s", op, id), err)
	}
	return toDomainJobConfiguration(&entity), nil
}

func (r *GormRepository) AppendTrackingLog(ctx context.Context, entry *model.TrackingLogEntry) error {
	const op = "GormRepository.AppendTrackingLog"
	entity := fromDomainTrackingLogEntry(entry)

	if err := r.session(ctx).Create(entity).Error; err != nil {
		return exception.New(exception.KindTransient, moduleName,
			fmt.Sprintf("%s: failed to append tracking log for Job (ID: %s)", op, entry.JobID), err)
	}
	return nil
}

func (r *GormRepository) FindTrackingLogByJobID(ctx context.Context, jobID string) ([]*model.TrackingLogEntry, error) {
	const op = "GormRepository.FindTrackingLogByJobID"
	var entities []TrackingLogEntity

	err := r.session(ctx).
		Where("job_id = ?", jobID).
		Order("seq asc").
		Find(&entities).Error
	if err != nil {
		return nil, exception.New(exception.KindTransient, moduleName,
			fmt.Sprintf("%s: failed to find tracking log by job ID: %s", op, jobID), err)
	}

	entries := make([]*model.TrackingLogEntry, len(entities))
	for i := range entities {
		entries[i] = toDomainTrackingLogEntry(&entities[i])
	}
	return entries, nil
}

// Close releases the underlying database connection.
func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ repository.Repository = (*GormRepository)(nil)
