package impact

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/schemagraph/internal/graph"
	"github.com/zheng/schemagraph/internal/schema"
	"github.com/zheng/schemagraph/internal/storage"
)

// Order -> Customer -> Address -> Country
func sampleStore() *graph.Store {
	s := graph.NewStore()
	s.RegisterElement("NS.Order", "NS.Order", schema.KindEntityType, "NS")
	s.RegisterElement("NS.Customer", "NS.Customer", schema.KindEntityType, "NS")
	s.RegisterElement("NS.Address", "NS.Address", schema.KindComplexType, "NS")
	s.RegisterElement("Geo.Country", "Geo.Country", schema.KindEnumType, "Geo")
	s.AddDependency("NS.Order", "NS.Customer")
	s.AddDependency("NS.Customer", "NS.Address")
	s.AddDependency("NS.Address", "Geo.Country")
	return s
}

func fqns(nodes []*graph.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.FQN)
	}
	return out
}

func TestAnalyzeImpactFromDB(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "impact.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.SaveSnapshot(sampleStore().Snapshot()))

	report, err := NewAnalyzer(db).AnalyzeImpact("NS.Address", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "NS.Address", report.Target.FQN)
	assert.Equal(t, []string{"NS.Customer"}, fqns(report.DirectDependents))
	assert.Equal(t, []string{"NS.Order"}, fqns(report.IndirectDependents))
	assert.Equal(t, []string{"Geo.Country"}, fqns(report.DirectDependencies))
	assert.Empty(t, report.IndirectDependencies)
	assert.Equal(t, storage.RiskNone, report.RiskLevel)

	direct, err := NewAnalyzer(db).AnalyzeImpact("NS.Address", 1, 1)
	require.NoError(t, err)
	assert.Empty(t, direct.IndirectDependents)

	// unique partial match
	byPattern, err := NewAnalyzer(db).AnalyzeImpact("Country", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "Geo.Country", byPattern.Target.FQN)

	_, err = NewAnalyzer(db).AnalyzeImpact("Missing", 0, 0)
	assert.ErrorContains(t, err, "element not found")

	_, err = NewAnalyzer(db).AnalyzeImpact("NS.", 0, 0)
	assert.ErrorContains(t, err, "ambiguous")
}

func TestFromStore(t *testing.T) {
	report, err := FromStore(sampleStore(), "NS.Customer")
	require.NoError(t, err)
	assert.Equal(t, []string{"NS.Order"}, fqns(report.DirectDependents))
	assert.Empty(t, report.IndirectDependents)
	assert.Equal(t, []string{"NS.Address"}, fqns(report.DirectDependencies))
	assert.Equal(t, []string{"Geo.Country"}, fqns(report.IndirectDependencies))

	_, err = FromStore(sampleStore(), "NS.Nope")
	assert.Error(t, err)
}

func TestFormatting(t *testing.T) {
	report, err := FromStore(sampleStore(), "NS.Address")
	require.NoError(t, err)

	md := report.FormatMarkdown()
	assert.Contains(t, md, "## 变更影响分析: NS.Address")
	assert.Contains(t, md, "| NS.Customer | EntityType | NS |")
	assert.Contains(t, md, "### 间接依赖方")
	assert.NotContains(t, md, "### 间接下游依赖")

	tree := report.FormatTree()
	assert.Contains(t, tree, "⬆️ 依赖方 (共 2 个)")
	assert.Contains(t, tree, "└── EnumType     Geo.Country")

	assert.Equal(t,
		"Target: NS.Address, Direct Dependents: 1, Indirect Dependents: 1, Direct Dependencies: 1, Indirect Dependencies: 0, Risk: NONE",
		report.Summary())

	leaf, err := FromStore(sampleStore(), "NS.Order")
	require.NoError(t, err)
	assert.Contains(t, leaf.FormatTree(), "⬆️ 依赖方\n└── (无)")
	assert.Contains(t, leaf.FormatMarkdown(), "_无直接依赖方_")
}
