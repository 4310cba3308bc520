package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/schemagraph/internal/schema"
)

func TestEngineRunAllPass(t *testing.T) {
	set := schema.FromSchemas(&schema.Schema{
		Namespace:   "NS",
		EntityTypes: []*schema.EntityType{{Name: "Customer"}},
	})

	report, err := NewEngine(nil).Run(context.Background(), NewContext(set), DefaultConfig())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.True(t, report.OK())
	assert.Equal(t, 2, report.Passed)
	require.Len(t, report.Results, 2)
	assert.Equal(t, ElementDefinitionName, report.Results[0].RuleName)
	assert.Equal(t, SchemaNamespaceName, report.Results[1].RuleName)
	assert.Equal(t, []string{ReferenceValidationName}, report.Skipped)
	assert.Empty(t, report.FirstFailures)
}

func TestEngineCollectsFailures(t *testing.T) {
	set := schema.FromSchemas(&schema.Schema{
		Namespace:   "1NS",
		EntityTypes: []*schema.EntityType{{Name: "Bad Name"}},
	})

	report, err := NewEngine(nil).Run(context.Background(), NewContext(set), DefaultConfig())
	require.NoError(t, err)

	assert.False(t, report.OK())
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, []string{
		"element-definition: Invalid EntityType name: Bad Name",
		"schema-namespace: Invalid namespace format: 1NS",
	}, report.FirstFailures)
}

func TestEngineFailFast(t *testing.T) {
	set := schema.FromSchemas(&schema.Schema{
		Namespace:   "NS",
		EntityTypes: []*schema.EntityType{{Name: "Bad Name"}},
	})
	cfg := StrictConfig()
	cfg.MaxConcurrency = 1

	report, err := NewEngine(nil).Run(context.Background(), NewContext(set), cfg)
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.Equal(t, ElementDefinitionName, report.Results[0].RuleName)
	assert.Equal(t, []string{ReferenceValidationName, SchemaNamespaceName}, report.Skipped)
}

func TestEngineHonoursConfigGates(t *testing.T) {
	set := schema.FromSchemas(&schema.Schema{Namespace: "NS"})
	cfg := DefaultConfig()
	cfg.EnabledRules = []string{SchemaNamespaceName}

	report, err := NewEngine(nil).Run(context.Background(), NewContext(set), cfg)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, SchemaNamespaceName, report.Results[0].RuleName)

	cfg = DefaultConfig()
	cfg.StructuralValidationEnabled = false
	report, err = NewEngine(nil).Run(context.Background(), NewContext(set), cfg)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Len(t, report.Skipped, 3)
}

func TestEngineContractErrors(t *testing.T) {
	_, err := NewEngine(nil).Run(context.Background(), nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNilContext)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	set := schema.FromSchemas(&schema.Schema{Namespace: "NS"})
	_, err = NewEngine(nil).Run(ctx, NewContext(set), DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}
