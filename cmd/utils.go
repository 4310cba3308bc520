package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/zheng/schemagraph/internal/display"
	"github.com/zheng/schemagraph/internal/graph"
	"github.com/zheng/schemagraph/internal/storage"
	"github.com/zheng/schemagraph/internal/workspace"
)

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func openDB() (*storage.DB, error) {
	db, err := storage.Open(DbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	return db, nil
}

// schemaPath returns the first argument or the current directory
func schemaPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func newWorkspace(path string) *workspace.Workspace {
	cfg := Cfg.Validation
	return workspace.New(path, &cfg)
}

// loadStore reads the graph saved by analyze
func loadStore(db *storage.DB) (*graph.Store, error) {
	nodes, _, err := db.GetStats()
	if err != nil {
		return nil, fmt.Errorf("查询失败: %w", err)
	}
	if nodes == 0 {
		return nil, fmt.Errorf("数据库为空，请先运行 sgraph analyze")
	}
	return db.LoadStore()
}

// analyzeInto loads path and replaces the stored graph
func analyzeInto(ctx context.Context, db *storage.DB, path string) (*workspace.State, error) {
	st, err := newWorkspace(path).Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := db.SaveSnapshot(st.Analyzer.Store().Snapshot()); err != nil {
		return nil, fmt.Errorf("保存图失败: %w", err)
	}
	return st, nil
}

// nameFn maps store ids to display names
func nameFn(store *graph.Store) func(string) string {
	return func(id string) string {
		if n, ok := store.Node(id); ok {
			return display.NodeName(&n)
		}
		return id
	}
}

// printTree prints a dependency tree under the target line
func printTree(title string, target *graph.Node, tree []*storage.TreeNode, depth int) {
	maxWidth := len(display.NodeName(target))
	maxDepth := 0
	display.CalcTreeMaxWidth(tree, &maxWidth, 0, &maxDepth)

	fmt.Println("📍 当前元素")
	fmt.Printf("%-*s  %s\n\n", maxWidth+maxDepth*4, display.NodeName(target), target.Kind)

	if len(tree) == 0 {
		fmt.Println(title)
		fmt.Println("└── (无)")
		return
	}
	fmt.Printf("%s (深度 %d)\n", title, depth)
	fmt.Print(display.FormatTree(tree, "", maxWidth, maxDepth, 0))
}

func getRiskIcon(level string) string {
	switch level {
	case storage.RiskHigh:
		return "🔴"
	case storage.RiskMedium:
		return "🟠"
	case storage.RiskLow:
		return "🟡"
	default:
		return "🟢"
	}
}
