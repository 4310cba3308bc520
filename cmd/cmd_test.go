package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/schemagraph/internal/storage"
)

const salesYAML = `
schemas:
  - namespace: Sales
    entityTypes:
      - name: Customer
        properties:
          - name: Home
            type: Sales.Address
      - name: Order
        navigationProperties:
          - name: Buyer
            type: Sales.Customer
    complexTypes:
      - name: Address
    entityContainer:
      name: Shop
      entitySets:
        - name: Orders
          entityType: Sales.Order
`

func writeSchemas(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sales.yaml"), []byte(content), 0o644))
	return dir
}

// run executes sgraph with args and returns what it printed to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		done <- buf.String()
	}()

	root := NewRootCmd("test")
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	runErr := root.ExecuteContext(context.Background())

	w.Close()
	os.Stdout = stdout
	return <-done, runErr
}

func TestAnalyzeThenQuery(t *testing.T) {
	dir := writeSchemas(t, salesYAML)
	db := filepath.Join(t.TempDir(), "sgraph.db")

	out, err := run(t, "--db", db, "analyze", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✅ 分析完成")

	out, err = run(t, "--db", db, "path", "Sales.Order", "Sales.Address")
	require.NoError(t, err)
	assert.Equal(t, "Sales.Order → Sales.Customer → Sales.Address\n", out)

	out, err = run(t, "--db", db, "deps", "Sales.Order")
	require.NoError(t, err)
	assert.Contains(t, out, "Sales.Customer")
	assert.Contains(t, out, "Sales.Address")

	out, err = run(t, "--db", db, "dependents", "Sales.Customer", "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "## 上游依赖方: Sales.Customer")
	assert.Contains(t, out, "| Sales.Order |")

	out, err = run(t, "--db", db, "cycles")
	require.NoError(t, err)
	assert.Contains(t, out, "没有循环依赖")

	for _, args := range [][]string{
		{"stats"},
		{"layers"},
		{"impact", "Sales.Address"},
		{"impact", "Sales.Address", "--format", "markdown"},
		{"risk"},
		{"risk", "Sales.Address"},
		{"export", "-o", filepath.Join(t.TempDir(), "graph.md")},
	} {
		_, err := run(t, append([]string{"--db", db}, args...)...)
		assert.NoError(t, err, "%v", args)
	}
}

func TestQueryBeforeAnalyze(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	_, err := run(t, "--db", db, "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sgraph analyze")

	_, err = run(t, "--db", db, "deps", "Sales.Order")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "element not found")
}

func TestValidateRecordsHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sgraph.db")

	out, err := run(t, "--db", dbPath, "validate", writeSchemas(t, salesYAML))
	require.NoError(t, err)
	assert.Contains(t, out, "failed: 0")

	_, err = run(t, "--db", dbPath, "validate", writeSchemas(t, `
schemas:
  - namespace: Sales
    entityTypes:
      - name: Customer
      - name: Customer
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 条规则未通过")

	_, err = run(t, "--db", dbPath, "validate", "--no-record", "--level", "nonsense", writeSchemas(t, salesYAML))
	require.Error(t, err)

	db, err := storage.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	runs, err := db.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 1, runs[0].Failed)

	out, err = run(t, "--db", dbPath, "history", runs[0].RunID)
	require.NoError(t, err)
	assert.Contains(t, out, "failed: 1")
}

func TestValidateHelpDescribesRules(t *testing.T) {
	long := validateCmd().Long
	assert.Contains(t, long, "schema-namespace:     每个 schema 都声明了格式合法的命名空间")
	assert.Contains(t, long, "reference-validation: 外部引用 (edmx:Reference) 指向的本地文件存在且可读")
	assert.Contains(t, long, "类型引用都能解析")
	assert.NotContains(t, long, "别名")
}
