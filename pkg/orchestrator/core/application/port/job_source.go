package port

import (
	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
	"github.com/tigerroll/swell/pkg/orchestrator/support/util/exception"
)

// JobSource is the tagged union naming where a new Job's configuration comes
// from: exactly one of an existing JobConfiguration id or a fresh payload.
// The constructors make the exactly-one-of contract structural; the zero value
// is invalid and rejected by Validate.
type JobSource struct {
	existingConfigurationID string
	payload                 model.Payload
	hasPayload              bool
}

// SourceFromExistingConfiguration builds a JobSource referencing an already
// persisted JobConfiguration.
func SourceFromExistingConfiguration(jobConfigurationID string) JobSource {
	return JobSource{existingConfigurationID: jobConfigurationID}
}

// SourceFromPayload builds a JobSource carrying a new configuration payload.
func SourceFromPayload(payload model.Payload) JobSource {
	return JobSource{payload: payload, hasPayload: true}
}

// Validate enforces the exactly-one-of contract. The zero value (neither
// source supplied) and a both-supplied value fail with a validation error.
func (s JobSource) Validate() error {
	hasConfig := s.existingConfigurationID != ""
	if hasConfig == s.hasPayload {
		return exception.New(exception.KindValidation, "job_manager",
			"exactly one of an existing job configuration id or a new payload must be supplied", nil).
			WithDetail("has_existing_configuration", hasConfig).
			WithDetail("has_payload", s.hasPayload)
	}
	return nil
}

// ExistingConfigurationID returns the referenced JobConfiguration id and
// whether this source carries one.
func (s JobSource) ExistingConfigurationID() (string, bool) {
	return s.existingConfigurationID, s.existingConfigurationID != ""
}

// Payload returns the new configuration payload and whether this source
// carries one.
func (s JobSource) Payload() (model.Payload, bool) {
	return s.payload, s.hasPayload
}
