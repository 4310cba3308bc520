package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/zheng/schemagraph/internal/display"
	"github.com/zheng/schemagraph/internal/loader"
)

func analyzeCmd() *cobra.Command {
	var changed bool
	var gitBase string

	cmd := &cobra.Command{
		Use:   "analyze [schema-path]",
		Short: "解析模型文件并构建依赖图",
		Long: `解析目录 (或单个文件、.txtar 归档) 中的所有模型文件，
构建依赖图并写入数据库，供 deps / dependents / impact 等命令查询。

示例：
  sgraph analyze ./schemas
  sgraph analyze ./schemas --changed          # 只在 git 有变更时重新分析
  sgraph analyze ./schemas --changed --base main`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := schemaPath(args)

			if changed {
				changes, err := loader.GetGitChanges(repoDir(path), gitBase)
				if err != nil {
					return fmt.Errorf("获取 git 变更失败: %w", err)
				}
				if !changes.HasChanges() {
					fmt.Println("没有检测到模型文件变更，跳过分析")
					return nil
				}
				fmt.Printf("检测到变更: %s\n", changes)
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			start := time.Now()
			fmt.Printf("正在解析: %s\n", path)
			st, err := analyzeInto(cmd.Context(), db, path)
			if err != nil {
				return err
			}

			nodeCount, edgeCount, err := db.GetStats()
			if err != nil {
				return fmt.Errorf("查询统计失败: %w", err)
			}
			fmt.Printf("✅ 分析完成: %d 个文件, %d 元素, %d 依赖 (耗时 %v)\n",
				len(st.Documents), nodeCount, edgeCount, time.Since(start).Round(time.Millisecond))
			fmt.Printf("数据库路径: %s\n", DbPath)

			if cycles := st.Analyzer.Store().Cycles(); len(cycles) > 0 {
				fmt.Printf("⚠️  发现 %d 个循环依赖，运行 sgraph cycles 查看\n", len(cycles))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&changed, "changed", false, "仅在 git 检测到模型文件变更时分析")
	cmd.Flags().StringVar(&gitBase, "base", "HEAD", "git 比较基准 (默认 HEAD，即未提交的变更)")

	return cmd
}

// repoDir returns the directory git commands run in for path
func repoDir(path string) string {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return filepath.Dir(path)
	}
	return path
}

func statsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "显示依赖图统计信息",
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
			stats := store.Stats()
			if format == "json" {
				return outputJSON(stats)
			}
			display.RenderStats(os.Stdout, stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json)")
	return cmd
}

func layersCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "layers",
		Short: "按依赖层级分组显示元素",
		Long: `按拓扑层级分组：第 0 层元素没有任何依赖，
每一层只依赖更早层级的元素。循环依赖中的元素统一放在最后一层。`,
		Args: cobra.NoArgs,
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
			layers := store.Layers()
			name := nameFn(store)

			if format == "json" {
				out := make([][]string, len(layers))
				for i, layer := range layers {
					for _, id := range layer {
						out[i] = append(out[i], name(id))
					}
				}
				return outputJSON(out)
			}
			display.RenderLayers(os.Stdout, layers, name)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json)")
	return cmd
}
