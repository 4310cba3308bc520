package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/zheng/schemagraph/internal/rules"
	"github.com/zheng/schemagraph/internal/schema"
)

const catalog = "testdata/catalog.txtar"

// extract writes the members of a txtar fixture into a temp dir.
func extract(t *testing.T, archive string) string {
	t.Helper()
	ar, err := txtar.ParseFile(archive)
	require.NoError(t, err)
	dir := t.TempDir()
	for _, f := range ar.Files {
		p := filepath.Join(dir, f.Name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, f.Data, 0o644))
	}
	return dir
}

func TestLoadArchive(t *testing.T) {
	docs, err := New().LoadFile(catalog)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, filepath.Join("testdata", "sales.yaml"), docs[0].Path)
	assert.Equal(t, filepath.Join("testdata", "geo.json"), docs[1].Path)
	assert.Equal(t, filepath.Join("testdata", "billing.xml"), docs[2].Path)
	for _, d := range docs {
		assert.NotEmpty(t, d.Raw)
	}
}

func TestDecodeYAML(t *testing.T) {
	docs, err := New().LoadFile(catalog)
	require.NoError(t, err)
	sales := docs[0]

	require.Len(t, sales.References, 1)
	assert.Equal(t, "geo.json", sales.References[0].URI)
	assert.Equal(t, "Geo", sales.References[0].Includes[0].Namespace)

	require.Len(t, sales.Schemas, 1)
	sch := sales.Schemas[0]
	assert.Equal(t, "Sales", sch.Namespace)
	require.Len(t, sch.EntityTypes, 2)
	assert.Equal(t, []string{"ID"}, sch.EntityTypes[0].Key)
	assert.Equal(t, "Collection(Sales.Order)", sch.EntityTypes[0].NavigationProperties[0].Type)
	require.NotNil(t, sch.EntityContainer)
	assert.Equal(t, "Orders", sch.EntityContainer.EntitySets[0].Bindings[0].Target)
}

func TestDecodeJSON(t *testing.T) {
	docs, err := New().LoadFile(catalog)
	require.NoError(t, err)
	geo := docs[1]

	require.Len(t, geo.Schemas, 1)
	sch := geo.Schemas[0]
	assert.Equal(t, "Geo", sch.Namespace)
	assert.Equal(t, "Geo.Country", sch.ComplexTypes[0].Properties[0].Type)
	require.Len(t, sch.EnumTypes[0].Members, 2)
	require.NotNil(t, sch.EnumTypes[0].Members[1].Value)
	assert.Equal(t, int64(2), *sch.EnumTypes[0].Members[1].Value)
}

func TestDecodeXML(t *testing.T) {
	docs, err := New().LoadFile(catalog)
	require.NoError(t, err)
	billing := docs[2]

	require.Len(t, billing.References, 1)
	assert.Equal(t, "sales.yaml", billing.References[0].URI)
	assert.Equal(t, "Sales", billing.References[0].Includes[0].Namespace)

	require.Len(t, billing.Schemas, 1)
	sch := billing.Schemas[0]
	assert.Equal(t, "Billing", sch.Namespace)

	require.Len(t, sch.EntityTypes, 1)
	inv := sch.EntityTypes[0]
	assert.Equal(t, []string{"ID"}, inv.Key)
	require.NotNil(t, inv.Properties[0].Nullable)
	assert.False(t, *inv.Properties[0].Nullable)
	assert.Equal(t, "Invoices", inv.NavigationProperties[0].Partner)

	require.Len(t, sch.Functions, 1)
	assert.True(t, sch.Functions[0].IsComposable)
	assert.Equal(t, "Outstanding(Sales.Customer):Collection(Billing.Invoice)", sch.Functions[0].Signature())
	assert.Equal(t, []string{"EntityType", "Property"}, sch.Terms[0].AppliesTo)

	c := sch.EntityContainer
	require.NotNil(t, c)
	assert.Equal(t, "Billing.Invoice", c.EntitySets[0].EntityType)
	assert.True(t, c.FunctionImports[0].IncludeInServiceDocument)
}

func TestMalformedXMLKeepsRaw(t *testing.T) {
	docs, err := Parse("broken.xml", []byte(`<Schema Namespace="Loose"><EntityType`))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Empty(t, docs[0].Schemas)
	assert.Contains(t, docs[0].Raw, `Namespace="Loose"`)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Parse("bad.yaml", []byte("schemas: [unclosed"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, FormatYAML, le.Format)
	assert.Equal(t, "bad.yaml", le.Path)

	_, err = Parse("bad.json", []byte(`{"schemas": [`))
	require.ErrorAs(t, err, &le)
	assert.Equal(t, FormatJSON, le.Format)

	_, err = Parse("schema.proto", nil)
	require.ErrorAs(t, err, &le)
	assert.Contains(t, err.Error(), "unsupported extension")
}

func TestMaxFileSize(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "big.yaml")
	require.NoError(t, os.WriteFile(p, []byte("schemas:\n  - namespace: Big\n"), 0o644))

	_, err := New(WithMaxFileSize(8)).LoadFile(p)
	assert.True(t, errors.Is(err, ErrFileTooLarge))

	docs, err := New(WithMaxFileSize(0)).LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "Big", docs[0].Schemas[0].Namespace)
}

func TestLoadPathDirectory(t *testing.T) {
	dir := extract(t, catalog)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "hidden.yaml"), []byte("schemas: []"), 0o644))

	files, err := SchemaFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "billing.xml"),
		filepath.Join(dir, "geo.json"),
		filepath.Join(dir, "sales.yaml"),
	}, files)

	docs, err := New().LoadPath(dir)
	require.NoError(t, err)
	set := schema.NewSet(docs...)
	assert.Equal(t, []string{"Billing", "Geo", "Sales"}, set.Namespaces())
	assert.Equal(t, schema.KindEnumType, set.KindOf("Geo.Country"))

	_, err = New().LoadPath(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestLoadedCatalogValidates(t *testing.T) {
	docs, err := New().LoadPath(extract(t, catalog))
	require.NoError(t, err)

	vctx := rules.NewContext(schema.NewSet(docs...))
	report, err := rules.NewEngine(nil).Run(context.Background(), vctx, rules.DefaultConfig())
	require.NoError(t, err)
	assert.True(t, report.OK(), report.FirstFailures)
	assert.Equal(t, 3, report.Passed)
}

func TestParseChangedFiles(t *testing.T) {
	out := []byte("cmd/root.go\nschemas/sales.yaml\nschemas/geo.json\n\nmodels/billing.xml\nREADME.md\n")
	changes, err := parseChangedFiles(out)
	require.NoError(t, err)

	assert.True(t, changes.HasChanges())
	assert.Equal(t, []string{"schemas/sales.yaml", "schemas/geo.json", "models/billing.xml"}, changes.ChangedFiles)
	assert.Equal(t, []string{"schemas", "models"}, changes.ChangedDirs)
	assert.Equal(t, "3 schema files changed in 2 directories", changes.String())
	assert.Equal(t, filepath.Join("/repo", "schemas/sales.yaml"), changes.AbsPaths("/repo")[0])

	empty, err := parseChangedFiles(nil)
	require.NoError(t, err)
	assert.False(t, empty.HasChanges())
}
