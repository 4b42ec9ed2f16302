package sql

import (
	"time"

	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
)

// BatchEntity is a schema model used for persistence.
type BatchEntity struct {
	ID              string     `gorm:"column:id;primaryKey"`
	StepID          string     `gorm:"column:step_id"`
	ConfigurationID string     `gorm:"column:configuration_id"`
	BatchType       string     `gorm:"column:batch_type"`
	Status          string     `gorm:"column:status"`
	CreatedTs       time.Time  `gorm:"column:created_ts"`
	UpdatedTs       time.Time  `gorm:"column:updated_ts"`
	CompletedTs     *time.Time `gorm:"column:completed_ts"`
}

func (BatchEntity) TableName() string {
	return "batches"
}

// JobEntity is a schema model used for persistence.
type JobEntity struct {
	ID                 string        `gorm:"column:id;primaryKey"`
	BatchID            string        `gorm:"column:batch_id"`
	JobConfigurationID string        `gorm:"column:job_configuration_id"`
	ParentJobID        string        `gorm:"column:parent_job_id"`
	Status             string        `gorm:"column:status"`
	ExternalWorkflowID string        `gorm:"column:external_workflow_id"`
	CreatedTs          time.Time     `gorm:"column:created_ts"`
	SubmitTs           *time.Time    `gorm:"column:submit_ts"`
	UpdatedTs          time.Time     `gorm:"column:updated_ts"`
	ResultMetadata     model.Payload `gorm:"column:result_metadata"`
}

func (JobEntity) TableName() string {
	return "jobs"
}

// JobConfigurationEntity is a schema model used for persistence.
type JobConfigurationEntity struct {
	ID      string        `gorm:"column:id;primaryKey"`
	BatchID string        `gorm:"column:batch_id"`
	Payload model.Payload `gorm:"column:payload"`
	Version int           `gorm:"column:version"`
}

func (JobConfigurationEntity) TableName() string {
	return "job_configurations"
}

// TrackingLogEntity is a schema model used for persistence.
type TrackingLogEntity struct {
	Seq       int64     `gorm:"column:seq;primaryKey;autoIncrement"`
	JobID     string    `gorm:"column:job_id"`
	OldStatus string    `gorm:"column:old_status"`
	NewStatus string    `gorm:"column:new_status"`
	ChangeTs  time.Time `gorm:"column:change_ts"`
	Source    string    `gorm:"column:source"`
}

func (TrackingLogEntity) TableName() string {
	return "job_tracking_log"
}
