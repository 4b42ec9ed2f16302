package transformer

import (
	"sort"

	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
	"github.com/tigerroll/swell/pkg/orchestrator/support/util/configbinder"
	"github.com/tigerroll/swell/pkg/orchestrator/support/util/exception"
)

// Built-in batch types.
const (
	BatchTypeDefault     = "default"
	BatchTypePassthrough = "passthrough"
	BatchTypeMultiJob    = "multi_job"
)

// multiJobSection is the shape of the explicit jobs list accepted by the
// multi_job transformer.
type multiJobSection struct {
	Jobs []map[string]interface{} `yaml:"jobs"`
}

func init() {
	Register(BatchTypeDefault, DefaultTransformer)
	Register(BatchTypePassthrough, PassthroughTransformer)
	Register(BatchTypeMultiJob, MultiJobTransformer)
}

// DefaultTransformer produces one job per top-level unit of the configuration.
// Keys are visited in lexical order so the resulting job sequence is
// deterministic regardless of map iteration order.
func DefaultTransformer(configData model.Payload) ([]JobSpec, error) {
	if len(configData) == 0 {
		return nil, exception.New(exception.KindValidation, moduleName,
			"configuration has no top-level units to derive jobs from", nil)
	}

	keys := make([]string, 0, len(configData))
	for k := range configData {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	specs := make([]JobSpec, 0, len(keys))
	for _, k := range keys {
		payload := model.NewPayload()
		payload.Put(k, configData[k])
		specs = append(specs, JobSpec{Payload: payload})
	}
	return specs, nil
}

// PassthroughTransformer produces a single job whose payload is the whole
// configuration.
func PassthroughTransformer(configData model.Payload) ([]JobSpec, error) {
	return []JobSpec{{Payload: configData.Copy()}}, nil
}

// MultiJobTransformer produces jobs from an explicit `jobs` list in the
// configuration. When the list is absent it falls back to the default policy;
// when present but malformed it fails instead of guessing.
func MultiJobTransformer(configData model.Payload) ([]JobSpec, error) {
	if _, ok := configData.Get("jobs"); !ok {
		return DefaultTransformer(configData)
	}

	var section multiJobSection
	if err := configbinder.DecodeMap(configData, &section); err != nil {
		return nil, exception.New(exception.KindValidation, moduleName,
			"failed to decode explicit jobs list", err)
	}
	if len(section.Jobs) == 0 {
		return nil, exception.New(exception.KindValidation, moduleName,
			"explicit jobs list is present but empty", nil)
	}

	specs := make([]JobSpec, 0, len(section.Jobs))
	for _, job := range section.Jobs {
		specs = append(specs, JobSpec{Payload: model.Payload(job)})
	}
	return specs, nil
}
