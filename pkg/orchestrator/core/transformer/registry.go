// Package transformer maps a validated configuration to an ordered sequence of
// job specifications, keyed by batch type. Transformers register into
// process-wide state at startup only and are read-only under load.
package transformer

import (
	"sync"

	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
	"github.com/tigerroll/swell/pkg/orchestrator/support/util/exception"
)

const moduleName = "transformer"

// JobSpec is one job specification produced from a configuration. Specs are
// ordered; the Batch Manager materializes one JobConfiguration and one Job per
// spec in sequence.
type JobSpec struct {
	// Payload is the job configuration payload sent to the remote service.
	Payload model.Payload
}

// Transformer converts a validated configuration into an ordered sequence of
// job specifications.
type Transformer func(configData model.Payload) ([]JobSpec, error)

// registry maps batch types to their transformers. It is written only via
// Register at startup and read-only thereafter.
var registry = make(map[string]Transformer)

// registryMutex protects access to the registry during startup registration.
var registryMutex sync.RWMutex

// Register registers a transformer for a batch type. It is intended to be
// called at startup only. It panics on an empty batch type or nil transformer,
// matching the registration contract of the error-type registry.
func Register(batchType string, t Transformer) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if batchType == "" {
		panic("transformer batch type cannot be empty")
	}
	if t == nil {
		panic("cannot register nil transformer for batch type: " + batchType)
	}
	registry[batchType] = t
}

// IsRegistered checks if a transformer is registered for the batch type.
func IsRegistered(batchType string) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	_, ok := registry[batchType]
	return ok
}

// RegisteredTypes returns the batch types currently registered.
func RegisteredTypes() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	return types
}

// CreateJobConfigurations resolves the transformer registered for batchType
// and applies it to configData. An unknown batch type fails with a validation
// error naming the type; an empty result also fails, because a batch without
// jobs can never leave INITIATED through reconciliation.
func CreateJobConfigurations(configData model.Payload, batchType string) ([]JobSpec, error) {
	registryMutex.RLock()
	t, ok := registry[batchType]
	registryMutex.RUnlock()

	if !ok {
		return nil, exception.Newf(exception.KindValidation, moduleName,
			"no transformer registered for batch type '%s'", batchType).
			WithDetail("batch_type", batchType)
	}

	specs, err := t(configData)
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, exception.Newf(exception.KindValidation, moduleName,
			"transformer for batch type '%s' produced no job specifications", batchType).
			WithDetail("batch_type", batchType)
	}
	return specs, nil
}
