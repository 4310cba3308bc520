package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zheng/schemagraph/internal/display"
	"github.com/zheng/schemagraph/internal/impact"
)

func depsCmd() *cobra.Command {
	var depth int
	var format string

	cmd := &cobra.Command{
		Use:   "deps <element>",
		Short: "查询元素依赖的类型 (下游)",
		Long: `列出元素直接或间接引用的所有类型。

示例：
  sgraph deps Sales.Order
  sgraph deps Customer --depth 2
  sgraph deps Sales.Container/Orders --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNeighbours(args[0], depth, format, false)
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 7, "递归深度 (0=无限)")
	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json/markdown)")

	return cmd
}

func dependentsCmd() *cobra.Command {
	var depth int
	var format string

	cmd := &cobra.Command{
		Use:   "dependents <element>",
		Short: "查询引用该元素的类型 (上游)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNeighbours(args[0], depth, format, true)
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 7, "递归深度 (0=无限)")
	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json/markdown)")

	return cmd
}

// runNeighbours prints the dependencies of name, or its dependents when up is set
func runNeighbours(name string, depth int, format string, up bool) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	target, err := impact.NewAnalyzer(db).Resolve(name)
	if err != nil {
		return err
	}

	title := "⬇️ 依赖项"
	heading := "下游依赖"
	closure, tree := db.DependenciesOf, db.DependencyTree
	if up {
		title = "⬆️ 依赖方"
		heading = "上游依赖方"
		closure, tree = db.DependentsOf, db.DependentTree
	}

	switch format {
	case "json":
		nodes, err := closure(target.ElementID, depth)
		if err != nil {
			return fmt.Errorf("查询失败: %w", err)
		}
		return outputJSON(nodes)
	case "markdown":
		nodes, err := closure(target.ElementID, depth)
		if err != nil {
			return fmt.Errorf("查询失败: %w", err)
		}
		fmt.Printf("## %s: %s\n\n", heading, display.NodeName(target))
		if len(nodes) == 0 {
			fmt.Println("_无_")
			return nil
		}
		fmt.Println("| 元素 | 类型 | 命名空间 |")
		fmt.Println("|------|------|----------|")
		for _, n := range nodes {
			fmt.Printf("| %s | %s | %s |\n", display.NodeName(n), n.Kind, n.Namespace)
		}
	default:
		t, err := tree(target.ElementID, depth)
		if err != nil {
			return fmt.Errorf("获取依赖树失败: %w", err)
		}
		printTree(title, target, t, depth)
	}
	return nil
}

func pathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path <from> <to>",
		Short: "查找两个元素之间的最短依赖路径",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			a := impact.NewAnalyzer(db)
			from, err := a.Resolve(args[0])
			if err != nil {
				return err
			}
			to, err := a.Resolve(args[1])
			if err != nil {
				return err
			}

			store, err := loadStore(db)
			if err != nil {
				return err
			}
			ids := store.DependencyPath(from.ElementID, to.ElementID)
			if len(ids) == 0 {
				fmt.Printf("%s 与 %s 之间没有依赖路径\n", display.NodeName(from), display.NodeName(to))
				return nil
			}
			name := nameFn(store)
			path := make([]string, len(ids))
			for i, id := range ids {
				path[i] = name(id)
			}
			fmt.Println(display.FormatPath(path))
			return nil
		},
	}

	return cmd
}

func cyclesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "cycles",
		Short: "检测循环依赖",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			store, err := loadStore(db)
			if err != nil {
				return err
			}
			name := nameFn(store)
			cycles := store.Cycles()
			named := make([][]string, len(cycles))
			for i, c := range cycles {
				for _, id := range c {
					named[i] = append(named[i], name(id))
				}
			}

			if format == "json" {
				return outputJSON(named)
			}
			if len(named) == 0 {
				fmt.Println("✅ 没有循环依赖")
				return nil
			}
			fmt.Printf("⚠️  发现 %d 个循环依赖:\n\n", len(named))
			for i, c := range named {
				fmt.Printf("  [%d] %s\n", i+1, display.FormatPath(c))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json)")
	return cmd
}

func impactCmd() *cobra.Command {
	var upstreamDepth int
	var downstreamDepth int
	var format string

	cmd := &cobra.Command{
		Use:   "impact <element>",
		Short: "分析元素变更的影响范围",
		Long: `分析修改一个模型元素时可能受影响的所有元素，包括：
  - 直接依赖方：直接引用该元素的类型、实体集等
  - 间接依赖方：通过依赖链间接受影响的元素
  - 下游依赖：该元素引用的类型`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			report, err := impact.NewAnalyzer(db).AnalyzeImpact(args[0], upstreamDepth, downstreamDepth)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				return outputJSON(report)
			case "markdown":
				fmt.Print(report.FormatMarkdown())
			default:
				fmt.Print(report.FormatTree())
				fmt.Printf("\n%s %s\n", getRiskIcon(report.RiskLevel), report.Summary())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&upstreamDepth, "upstream-depth", 7, "上游递归深度 (0=无限)")
	cmd.Flags().IntVar(&downstreamDepth, "downstream-depth", 7, "下游递归深度 (0=无限)")
	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json/markdown)")

	return cmd
}
