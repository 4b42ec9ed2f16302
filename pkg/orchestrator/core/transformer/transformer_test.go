package transformer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
	"github.com/tigerroll/swell/pkg/orchestrator/core/transformer"
	"github.com/tigerroll/swell/pkg/orchestrator/support/util/exception"
)

func TestDefaultTransformer_OneJobPerTopLevelUnit(t *testing.T) {
	config := model.Payload{
		"beta":  map[string]interface{}{"x": 1},
		"alpha": map[string]interface{}{"y": 2},
		"gamma": "plain",
	}

	specs, err := transformer.DefaultTransformer(config)
	require.NoError(t, err)
	require.Len(t, specs, 3)

	// Keys are visited in lexical order.
	_, ok := specs[0].Payload.Get("alpha")
	assert.True(t, ok)
	_, ok = specs[1].Payload.Get("beta")
	assert.True(t, ok)
	_, ok = specs[2].Payload.Get("gamma")
	assert.True(t, ok)

	// Each payload carries exactly its own unit.
	assert.Len(t, specs[0].Payload, 1)
}

func TestDefaultTransformer_EmptyConfiguration(t *testing.T) {
	_, err := transformer.DefaultTransformer(model.Payload{})
	assert.Error(t, err)
	assert.True(t, exception.IsValidation(err))
}

func TestPassthroughTransformer(t *testing.T) {
	config := model.Payload{"a": 1, "b": 2}

	specs, err := transformer.PassthroughTransformer(config)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Len(t, specs[0].Payload, 2)

	// The payload is a copy; mutating it does not touch the source.
	specs[0].Payload.Put("c", 3)
	_, ok := config.Get("c")
	assert.False(t, ok)
}

func TestMultiJobTransformer_ExplicitJobsList(t *testing.T) {
	config := model.Payload{
		"jobs": []interface{}{
			map[string]interface{}{"name": "first"},
			map[string]interface{}{"name": "second"},
		},
	}

	specs, err := transformer.MultiJobTransformer(config)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	name, _ := specs[0].Payload.GetString("name")
	assert.Equal(t, "first", name)
	name, _ = specs[1].Payload.GetString("name")
	assert.Equal(t, "second", name)
}

func TestMultiJobTransformer_FallsBackWithoutJobsList(t *testing.T) {
	config := model.Payload{"alpha": 1, "beta": 2}

	specs, err := transformer.MultiJobTransformer(config)
	require.NoError(t, err)
	assert.Len(t, specs, 2)
}

func TestMultiJobTransformer_MalformedJobsList(t *testing.T) {
	// An empty list is present but unusable.
	_, err := transformer.MultiJobTransformer(model.Payload{"jobs": []interface{}{}})
	assert.True(t, exception.IsValidation(err))

	// A scalar where a list is expected fails instead of guessing.
	_, err = transformer.MultiJobTransformer(model.Payload{"jobs": "not-a-list"})
	assert.True(t, exception.IsValidation(err))
}

func TestCreateJobConfigurations(t *testing.T) {
	specs, err := transformer.CreateJobConfigurations(model.Payload{"a": 1}, transformer.BatchTypeDefault)
	require.NoError(t, err)
	assert.Len(t, specs, 1)

	// Unknown batch type fails naming the type.
	_, err = transformer.CreateJobConfigurations(model.Payload{"a": 1}, "nonexistent")
	require.Error(t, err)
	assert.True(t, exception.IsValidation(err))
	v, ok := exception.Detail(err, "batch_type")
	assert.True(t, ok)
	assert.Equal(t, "nonexistent", v)
}

func TestRegister(t *testing.T) {
	assert.True(t, transformer.IsRegistered(transformer.BatchTypeDefault))
	assert.True(t, transformer.IsRegistered(transformer.BatchTypePassthrough))
	assert.True(t, transformer.IsRegistered(transformer.BatchTypeMultiJob))
	assert.False(t, transformer.IsRegistered("nonexistent"))

	assert.Panics(t, func() { transformer.Register("", transformer.DefaultTransformer) })
	assert.Panics(t, func() { transformer.Register("custom", nil) })

	transformer.Register("custom", func(configData model.Payload) ([]transformer.JobSpec, error) {
		return []transformer.JobSpec{{Payload: configData}}, nil
	})
	assert.True(t, transformer.IsRegistered("custom"))
	assert.Contains(t, transformer.RegisteredTypes(), "custom")
}
