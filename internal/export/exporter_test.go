package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/schemagraph/internal/graph"
	"github.com/zheng/schemagraph/internal/schema"
	"github.com/zheng/schemagraph/internal/storage"
)

func sampleStore() *graph.Store {
	s := graph.NewStore()
	s.RegisterElement("Sales.Customer", "Sales.Customer", schema.KindEntityType, "Sales")
	s.RegisterElement("Sales.Address", "Sales.Address", schema.KindComplexType, "Sales")
	s.RegisterElement("Geo.Country", "Geo.Country", schema.KindEnumType, "Geo")
	s.AddDependencyWithProperty("Sales.Customer", "Sales.Address", "Home", graph.EdgeKindProperty)
	s.AddDependencyWithProperty("Sales.Address", "Geo.Country", "Country", graph.EdgeKindProperty)
	s.AddDependency("Sales.Customer", "Ext.Missing")
	return s
}

func fixedOptions() ExportOptions {
	opts := DefaultExportOptions()
	opts.ProjectName = "Demo "
	opts.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local) }
	return opts
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleStore(), fixedOptions()))
	out := buf.String()

	assert.Contains(t, out, "# Demo schema 依赖图谱")
	assert.Contains(t, out, "> 生成时间: 2026-01-02 03:04:05")
	assert.Contains(t, out, "| Sales | 2 |")
	assert.Contains(t, out, "| Geo | 1 |")
	assert.Contains(t, out, "graph LR")
	assert.Contains(t, out, `Sales_Customer["Sales.Customer"]`)
	assert.Contains(t, out, "Sales_Customer -->|property| Sales_Address")
	assert.Contains(t, out, "Sales_Customer --> Ext_Missing")
	assert.Contains(t, out, "#### Sales.Address")
	assert.Contains(t, out, "- **依赖:** Geo.Country")
	assert.Contains(t, out, "- **被依赖:** 1 个 (Sales.Customer)")
	assert.Contains(t, out, "_无循环依赖_")
	// placeholders get no section of their own
	assert.NotContains(t, out, "#### Ext.Missing")
}

func TestRenderCyclesAndFilters(t *testing.T) {
	s := sampleStore()
	s.AddDependency("Geo.Country", "Sales.Customer")

	opts := fixedOptions()
	opts.IncludeMermaid = false
	opts.Namespaces = []string{"Geo"}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, s, opts))
	out := buf.String()

	assert.NotContains(t, out, "```mermaid")
	assert.Contains(t, out, "### Geo")
	assert.NotContains(t, out, "### Sales")
	assert.Contains(t, out, "| 1 | Sales.Customer → Sales.Address → Geo.Country → Sales.Customer |")
}

func TestExportFromDB(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "export.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.SaveSnapshot(sampleStore().Snapshot()))

	var buf bytes.Buffer
	require.NoError(t, NewExporter(db).Export(&buf, fixedOptions()))
	assert.Contains(t, buf.String(), "#### Sales.Customer")
}

func TestMakeNodeID(t *testing.T) {
	assert.Equal(t, "NS_C__Orders", makeNodeID("NS.C/Orders"))
}
