package sql

import (
	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
)

// --- Mapper functions ---

func fromDomainBatch(b *model.Batch) *BatchEntity {
	if b == nil {
		return nil
	}
	return &BatchEntity{
		ID:              b.ID,
		StepID:          b.StepID,
		ConfigurationID: b.ConfigurationID,
		BatchType:       b.BatchType,
		Status:          b.Status.String(),
		CreatedTs:       b.CreateTime,
		UpdatedTs:       b.LastUpdated,
		CompletedTs:     b.CompletionTime,
	}
}

func toDomainBatch(entity *BatchEntity) *model.Batch {
	if entity == nil {
		return nil
	}
	return &model.Batch{
		ID:              entity.ID,
		StepID:          entity.StepID,
		ConfigurationID: entity.ConfigurationID,
		BatchType:       entity.BatchType,
		Status:          model.BatchStatus(entity.Status),
		CreateTime:      entity.CreatedTs,
		LastUpdated:     entity.UpdatedTs,
		CompletionTime:  entity.CompletedTs,
	}
}

func fromDomainJob(j *model.Job) *JobEntity {
	if j == nil {
		return nil
	}
	return &JobEntity{
		ID:                 j.ID,
		BatchID:            j.BatchID,
		JobConfigurationID: j.JobConfigurationID,
		ParentJobID:        j.ParentJobID,
		Status:             j.Status.String(),
		ExternalWorkflowID: j.ExternalWorkflowID,
		CreatedTs:          j.CreateTime,
		SubmitTs:           j.SubmitTime,
		UpdatedTs:          j.LastUpdated,
		ResultMetadata:     j.ResultMetadata,
	}
}

func toDomainJob(entity *JobEntity) *model.Job {
	if entity == nil {
		return nil
	}
	return &model.Job{
		ID:                 entity.ID,
		BatchID:            entity.BatchID,
		JobConfigurationID: entity.JobConfigurationID,
		ParentJobID:        entity.ParentJobID,
		Status:             model.JobStatus(entity.Status),
		ExternalWorkflowID: entity.ExternalWorkflowID,
		CreateTime:         entity.CreatedTs,
		SubmitTime:         entity.SubmitTs,
		LastUpdated:        entity.UpdatedTs,
		ResultMetadata:     entity.ResultMetadata,
	}
}

func fromDomainJobConfiguration(c *model.JobConfiguration) *JobConfigurationEntity {
	if c == nil {
		return nil
	}
	return &JobConfigurationEntity{
		ID:      c.ID,
		BatchID: c.BatchID,
		Payload: c.Payload,
		Version: c.Version,
	}
}

func toDomainJobConfiguration(entity *JobConfigurationEntity) *model.JobConfiguration {
	if entity == nil {
		return nil
	}
	return &model.JobConfiguration{
		ID:      entity.ID,
		BatchID: entity.BatchID,
		Payload: entity.Payload,
		Version: entity.Version,
	}
}

func fromDomainTrackingLogEntry(e *model.TrackingLogEntry) *TrackingLogEntity {
	if e == nil {
		return nil
	}
	return &TrackingLogEntity{
		JobID:     e.JobID,
		OldStatus: e.OldStatus.String(),
		NewStatus: e.NewStatus.String(),
		ChangeTs:  e.ChangeTime,
		Source:    e.Source,
	}
}

func toDomainTrackingLogEntry(entity *TrackingLogEntity) *model.TrackingLogEntry {
	if entity == nil {
		return nil
	}
	return &model.TrackingLogEntry{
		JobID:      entity.JobID,
		OldStatus:  model.JobStatus(entity.OldStatus),
		NewStatus:  model.JobStatus(entity.NewStatus),
		ChangeTime: entity.ChangeTs,
		Source:     entity.Source,
	}
}
