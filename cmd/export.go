package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zheng/schemagraph/internal/export"
)

func exportCmd() *cobra.Command {
	var outputFile string
	var projectName string
	var namespaces []string
	var noMermaid bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "导出依赖图文档",
		Long:  "导出完整的模型依赖图文档（Markdown 格式，含 Mermaid 图），可作为 AI 编码上下文",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := loadStore(db); err != nil {
				return err
			}

			exporter := export.NewExporter(db)
			opts := export.DefaultExportOptions()
			opts.IncludeMermaid = !noMermaid
			opts.ProjectName = projectName
			opts.Namespaces = namespaces

			var w *os.File
			if outputFile == "" || outputFile == "-" {
				w = os.Stdout
			} else {
				w, err = os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("创建输出文件失败: %w", err)
				}
				defer w.Close()
			}

			if err := exporter.Export(w, opts); err != nil {
				return fmt.Errorf("导出失败: %w", err)
			}
			if w != os.Stdout {
				fmt.Fprintf(os.Stderr, "✅ 已导出到 %s\n", outputFile)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "输出文件路径 (默认输出到 stdout)")
	cmd.Flags().StringVar(&projectName, "project", "", "文档标题中的项目名")
	cmd.Flags().StringSliceVarP(&namespaces, "namespace", "n", nil, "只导出指定命名空间")
	cmd.Flags().BoolVar(&noMermaid, "no-mermaid", false, "不生成 Mermaid 图表")

	return cmd
}
