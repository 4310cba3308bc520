package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zheng/schemagraph/internal/display"
	"github.com/zheng/schemagraph/internal/impact"
)

func riskCmd() *cobra.Command {
	var limit int
	var format string

	cmd := &cobra.Command{
		Use:     "risk [element]",
		Aliases: []string{"hotspots"},
		Short:   "分析元素变更风险",
		Long: `根据依赖方数量评估修改一个元素的风险等级。

风险等级说明 (按间接依赖方总数)：
  - HIGH:   > 50
  - MEDIUM: > 20
  - LOW:    > 5
  - NONE:   其他

示例：
  sgraph risk Sales.Address     # 查看单个元素的风险
  sgraph risk --limit 20        # 显示被依赖最多的 20 个元素`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if len(args) == 0 {
				spots, err := db.TopDependedOn(limit)
				if err != nil {
					return fmt.Errorf("查询失败: %w", err)
				}
				if format == "json" {
					return outputJSON(spots)
				}
				if len(spots) == 0 {
					fmt.Println("依赖图中没有元素")
					return nil
				}
				fmt.Printf("被依赖最多的元素 (Top %d)\n\n", limit)
				display.RenderHotspots(os.Stdout, spots)
				fmt.Println("\n💡 使用 sgraph risk <元素> 查看详细分析")
				return nil
			}

			report, err := impact.NewAnalyzer(db).AnalyzeImpact(args[0], 0, 1)
			if err != nil {
				return err
			}
			if format == "json" {
				return outputJSON(report)
			}

			fmt.Printf("## 变更风险分析: %s\n\n", display.NodeName(report.Target))
			fmt.Printf("**类型:** %s\n\n", report.Target.Kind)
			fmt.Printf("### 风险等级: %s %s\n\n", getRiskIcon(report.RiskLevel), report.RiskLevel)
			fmt.Printf("直接依赖方: %d\n", len(report.DirectDependents))
			fmt.Printf("间接依赖方: %d\n", len(report.IndirectDependents))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "显示数量")
	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json)")

	return cmd
}
