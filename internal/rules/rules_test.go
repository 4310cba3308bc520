package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/schemagraph/internal/schema"
)

func TestIsRuleEnabled(t *testing.T) {
	tests := []struct {
		name     string
		enabled  []string
		disabled []string
		rule     string
		want     bool
	}{
		{"default enables everything", nil, nil, "element-definition", true},
		{"disabled list", nil, []string{"element-definition"}, "element-definition", false},
		{"disabled list other rule", nil, []string{"element-definition"}, "schema-namespace", true},
		{"allow list member", []string{"schema-namespace"}, nil, "schema-namespace", true},
		{"allow list non-member", []string{"schema-namespace"}, nil, "element-definition", false},
		{"allow list wins over disabled", []string{"x"}, []string{"x"}, "x", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.EnabledRules = tt.enabled
			cfg.DisabledRules = tt.disabled
			assert.Equal(t, tt.want, cfg.IsRuleEnabled(tt.rule))
		})
	}

	var nilCfg *Config
	assert.False(t, nilCfg.IsRuleEnabled("x"))
	assert.False(t, nilCfg.IsStructuralValidationEnabled())
}

func TestConfigPresetsAndValidate(t *testing.T) {
	assert.True(t, StrictConfig().FailFast)
	assert.False(t, LenientConfig().IsRuleEnabled(ReferenceValidationName))
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Level = "extreme"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MaxFileSize = 10
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.EnabledRules = []string{"a"}
	cfg.DisabledRules = []string{"a"}
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MaxConcurrency = 0
	assert.Equal(t, 1, cfg.Concurrency())
}

func TestApplicabilityGate(t *testing.T) {
	ctx := NewContext(schema.FromSchemas(&schema.Schema{Namespace: "NS"}))
	rule := NewElementDefinitionRule()

	assert.True(t, rule.IsApplicable(ctx, DefaultConfig()))

	off := DefaultConfig()
	off.StructuralValidationEnabled = false
	assert.False(t, rule.IsApplicable(ctx, off))

	disabled := DefaultConfig()
	disabled.DisabledRules = []string{ElementDefinitionName}
	assert.False(t, rule.IsApplicable(ctx, disabled))

	assert.False(t, rule.IsApplicable(NewContext(schema.NewSet()), DefaultConfig()))
	assert.False(t, rule.IsApplicable(nil, DefaultConfig()))
}

func TestRuleMetadata(t *testing.T) {
	tests := []struct {
		rule     Rule
		name     string
		estimate int64
	}{
		{NewElementDefinitionRule(), "element-definition", 400},
		{NewSchemaNamespaceRule(), "schema-namespace", 100},
		{NewReferenceValidationRule(), "reference-validation", 200},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.name, tt.rule.Name())
		assert.Equal(t, tt.estimate, tt.rule.EstimatedExecutionTime())
		assert.Equal(t, CategoryStructural, tt.rule.Category())
		assert.Equal(t, SeverityError, tt.rule.Severity())
		assert.NotEmpty(t, tt.rule.Description())
	}
}

func TestPassAndFail(t *testing.T) {
	p := Pass("r", 0)
	assert.True(t, p.Passed)
	assert.Empty(t, p.Message)

	f := Fail("r", "broken", 0)
	assert.False(t, f.Passed)
	assert.Equal(t, "broken", f.Message)
	assert.Equal(t, "r", f.RuleName)
}

func TestContextIsPrepopulated(t *testing.T) {
	set := schema.NewSet(&schema.Document{
		References: []schema.Reference{{URI: "core.xml", Includes: []schema.Include{{Namespace: "Core"}}}},
		Schemas: []*schema.Schema{{
			Namespace:   "NS",
			EntityTypes: []*schema.EntityType{{Name: "A"}},
		}},
	})
	ctx := NewContext(set)

	assert.True(t, ctx.IsCurrentNamespace("NS"))
	assert.True(t, ctx.IsImportedNamespace("Core"))
	assert.True(t, ctx.IsDefined("NS.A"))
	assert.Empty(t, ctx.ReferencedNamespaces())

	ctx.AddReferencedNamespace("X")
	ctx.AddDefinedTarget("X.Y")
	assert.Equal(t, []string{"X"}, ctx.ReferencedNamespaces())
	assert.Contains(t, ctx.DefinedTargets(), "X.Y")
	assert.Equal(t, schema.KindEntityType, ctx.KindOf("NS.A"))
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"element-definition", "reference-validation", "schema-namespace"}, r.Names())

	err := r.Register(NewSchemaNamespaceRule())
	assert.Error(t, err)

	rule, ok := r.Get(ElementDefinitionName)
	require.True(t, ok)
	assert.Equal(t, ElementDefinitionName, rule.Name())

	_, ok = r.Get("nope")
	assert.False(t, ok)
}
