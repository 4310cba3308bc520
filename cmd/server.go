package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zheng/schemagraph/internal/display"
	"github.com/zheng/schemagraph/internal/mcp"
	"github.com/zheng/schemagraph/internal/watcher"
	"github.com/zheng/schemagraph/internal/web"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp [schema-path]",
		Short: "启动 MCP (Model Context Protocol) 服务器",
		Long: `启动 MCP 服务器，允许 AI 助手（如 Cursor、Claude）直接查询模型依赖图。

MCP 工具包括：
  - dependencies: 查询元素的全部依赖
  - dependents:   查询直接引用元素的类型
  - path:         两个元素之间的最短依赖路径
  - cycles:       检测循环依赖
  - impact:       分析元素变更的影响范围
  - validate:     重新加载并执行结构校验`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			server := mcp.NewServer(newWorkspace(schemaPath(args)), db, cmd.Root().Version)
			return server.Run()
		},
	}

	return cmd
}

func watchCmd() *cobra.Command {
	var debounceMs int
	var validate bool

	cmd := &cobra.Command{
		Use:   "watch [schema-path]",
		Short: "监控模型文件变更并自动更新依赖图",
		Long: `启动 watch 模式，监控目录中的模型文件 (.xml .json .yaml .yml .txtar)。
当检测到变更时，自动重新分析并更新依赖图数据库，可选地执行结构校验。

特性：
  - 自动递归监控所有目录
  - 防抖处理，避免频繁触发分析
  - 忽略隐藏目录

示例：
  sgraph watch ./schemas
  sgraph watch ./schemas --validate
  sgraph watch ./schemas --debounce 1000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := schemaPath(args)

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ws := newWorkspace(path)
			run := func(ctx context.Context, changed []string) error {
				st, err := analyzeInto(ctx, db, path)
				if err != nil {
					return err
				}
				if !validate {
					return nil
				}
				report, err := ws.Validate(ctx, st)
				if err != nil {
					return err
				}
				if err := db.SaveReport(report, path); err != nil {
					return fmt.Errorf("记录校验结果失败: %w", err)
				}
				display.RenderReport(os.Stdout, report)
				return nil
			}

			fmt.Println("执行初始分析...")
			if err := run(cmd.Context(), nil); err != nil {
				return fmt.Errorf("初始分析失败: %w", err)
			}
			nodeCount, edgeCount, _ := db.GetStats()
			fmt.Printf("初始分析完成: %d 元素, %d 依赖\n", nodeCount, edgeCount)

			fmt.Printf("\n开始监控目录: %s\n", path)
			fmt.Printf("数据库路径: %s\n", DbPath)
			fmt.Printf("防抖延迟: %dms\n", debounceMs)
			fmt.Println("\n按 Ctrl+C 停止...")
			fmt.Println()

			w, err := watcher.New(
				path,
				run,
				watcher.WithDebounceDelay(time.Duration(debounceMs)*time.Millisecond),
				watcher.WithOnRunStart(func(changed []string) {
					fmt.Printf("[%s] 检测到 %d 个文件变更，开始分析...\n", time.Now().Format("15:04:05"), len(changed))
				}),
				watcher.WithOnRunDone(func(duration time.Duration) {
					nodes, edges, _ := db.GetStats()
					fmt.Printf("[%s] 分析完成: %d 元素, %d 依赖 (耗时 %v)\n",
						time.Now().Format("15:04:05"), nodes, edges, duration.Round(time.Millisecond))
				}),
				watcher.WithOnError(func(err error) {
					fmt.Fprintf(os.Stderr, "[%s] 错误: %v\n", time.Now().Format("15:04:05"), err)
				}),
			)
			if err != nil {
				return fmt.Errorf("创建监控器失败: %w", err)
			}

			w.Start()
			defer w.Stop()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			fmt.Println("\n停止监控...")
			return nil
		},
	}

	cmd.Flags().IntVar(&debounceMs, "debounce", 500, "防抖延迟（毫秒）")
	cmd.Flags().BoolVar(&validate, "validate", false, "每次分析后执行结构校验")

	return cmd
}

func viewCmd() *cobra.Command {
	var port int
	var host string

	cmd := &cobra.Command{
		Use:   "view [schema-path]",
		Short: "启动 HTTP API 服务",
		Long: `启动一个本地 HTTP 服务器，以 JSON 形式提供依赖图查询与校验接口。

接口：
  GET  /api/stats              统计信息
  GET  /api/graph              完整依赖图
  GET  /api/elements           元素列表 (?kind= &namespace=)
  GET  /api/dependencies/<fqn> 依赖项
  GET  /api/dependents/<fqn>   依赖方
  GET  /api/impact/<fqn>       影响分析
  GET  /api/path?from=&to=     最短依赖路径
  GET  /api/cycles             循环依赖
  GET  /api/layers             依赖层级
  POST /api/validate           执行结构校验
  POST /api/reload             重新加载模型文件

示例：
  sgraph view ./schemas              # 使用配置中的端口 (默认 8080)
  sgraph view ./schemas -p 3000      # 指定端口`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			addr := Cfg.Server
			if cmd.Flags().Changed("port") {
				addr.Port = port
			}
			if cmd.Flags().Changed("host") {
				addr.Host = host
			}

			server := web.NewServer(newWorkspace(schemaPath(args)), db)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Printf("🚀 服务已启动: http://%s/api/stats\n", addr.Addr())
			fmt.Println("按 Ctrl+C 停止...")
			return server.Run(ctx, addr.Addr())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "服务器端口")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "监听地址")

	return cmd
}
