package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zheng/schemagraph/internal/display"
	"github.com/zheng/schemagraph/internal/loader"
	"github.com/zheng/schemagraph/internal/rules"
	"github.com/zheng/schemagraph/internal/workspace"
)

func validateCmd() *cobra.Command {
	var level string
	var enable []string
	var disable []string
	var failFast bool
	var changed bool
	var gitBase string
	var format string
	var noRecord bool

	cmd := &cobra.Command{
		Use:   "validate [schema-path]",
		Short: "对模型文件执行结构校验",
		Long: `加载模型文件并执行结构校验规则：
  - element-definition:   元素名称合法且不重复，类型引用都能解析
  - schema-namespace:     每个 schema 都声明了格式合法的命名空间
  - reference-validation: 外部引用 (edmx:Reference) 指向的本地文件存在且可读

存在失败规则时以非零状态退出。每次运行记录到数据库，可用 sgraph history 查看。

示例：
  sgraph validate ./schemas
  sgraph validate ./schemas --level strict
  sgraph validate ./schemas --disable reference-validation
  sgraph validate ./schemas --changed --base main`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := schemaPath(args)

			cfg := Cfg.Validation
			if cmd.Flags().Changed("level") {
				switch rules.Level(level) {
				case rules.LevelStrict:
					cfg = *rules.StrictConfig()
				case rules.LevelLenient:
					cfg = *rules.LenientConfig()
				case rules.LevelStandard:
					cfg = *rules.DefaultConfig()
				default:
					return fmt.Errorf("未知的校验级别: %s", level)
				}
				cfg.MaxConcurrency = Cfg.Validation.MaxConcurrency
				cfg.MaxFileSize = Cfg.Validation.MaxFileSize
			}
			if len(enable) > 0 {
				cfg.EnabledRules = enable
			}
			if len(disable) > 0 {
				cfg.DisabledRules = append(append([]string(nil), cfg.DisabledRules...), disable...)
			}
			if failFast {
				cfg.FailFast = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ws := workspace.New(path, &cfg)
			ctx := cmd.Context()

			var st *workspace.State
			var err error
			if changed {
				files, err := changedFiles(path, gitBase)
				if err != nil {
					return err
				}
				st, err = ws.LoadChanged(ctx, files)
				if errors.Is(err, workspace.ErrNoChanges) {
					fmt.Println("没有检测到模型文件变更，跳过校验")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "检测到 %d 个变更文件，校验整个目录\n", len(files))
			} else {
				st, err = ws.Load(ctx)
				if err != nil {
					return err
				}
			}

			report, err := ws.Validate(ctx, st)
			if err != nil {
				return fmt.Errorf("校验失败: %w", err)
			}

			if !noRecord {
				if err := recordRun(report, path); err != nil {
					fmt.Fprintf(os.Stderr, "⚠️  记录校验结果失败: %v\n", err)
				}
			}

			if format == "json" {
				if err := outputJSON(report); err != nil {
					return err
				}
			} else {
				display.RenderReport(os.Stdout, report)
			}

			if !report.OK() {
				return fmt.Errorf("%d 条规则未通过", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&level, "level", "", "校验级别 (lenient/standard/strict)")
	cmd.Flags().StringSliceVar(&enable, "enable", nil, "只执行指定的规则")
	cmd.Flags().StringSliceVar(&disable, "disable", nil, "跳过指定的规则")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "第一条规则失败后停止")
	cmd.Flags().BoolVar(&changed, "changed", false, "仅在 git 检测到模型文件变更时校验 (校验整个目录)")
	cmd.Flags().StringVar(&gitBase, "base", "HEAD", "git 比较基准")
	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json)")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "不记录到数据库")

	return cmd
}

// changedFiles lists schema files changed since base, deleted ones included
func changedFiles(path, base string) ([]string, error) {
	root := repoDir(path)
	changes, err := loader.GetGitChanges(root, base)
	if err != nil {
		return nil, fmt.Errorf("获取 git 变更失败: %w", err)
	}
	files := changes.AbsPaths(root)
	for i, f := range files {
		files[i] = filepath.Clean(f)
	}
	return files, nil
}

func recordRun(report *rules.Report, source string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return db.SaveReport(report, source)
}

func historyCmd() *cobra.Command {
	var limit int
	var format string

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "查看校验运行历史",
		Long: `不带参数时列出最近的校验运行；指定运行 ID 时显示该次运行每条规则的结果。`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if len(args) == 1 {
				results, err := db.GetRunResults(args[0])
				if err != nil {
					return fmt.Errorf("查询运行 %s 失败: %w", args[0], err)
				}
				if format == "json" {
					return outputJSON(results)
				}
				report := &rules.Report{RunID: args[0], Results: results}
				for _, r := range results {
					if r.Passed {
						report.Passed++
					} else {
						report.Failed++
					}
				}
				display.RenderReport(os.Stdout, report)
				return nil
			}

			runs, err := db.ListRuns(limit)
			if err != nil {
				return fmt.Errorf("查询失败: %w", err)
			}
			if format == "json" {
				return outputJSON(runs)
			}
			if len(runs) == 0 {
				fmt.Println("还没有校验记录")
				return nil
			}
			display.RenderRuns(os.Stdout, runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "显示数量 (0=全部)")
	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json)")

	return cmd
}
