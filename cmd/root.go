package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zheng/schemagraph/internal/config"
	"github.com/zheng/schemagraph/pkg/logging"
)

var (
	DbPath     string
	ConfigPath string
	LogLevel   string

	// Cfg is loaded before any subcommand runs
	Cfg *config.Config
)

// NewRootCmd builds the sgraph command tree
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "sgraph",
		Short:   "Schema Graph - CSDL 模型依赖图与结构校验工具",
		Version: version,
		Long: `sgraph 解析 CSDL / OData 风格的模型文件 (XML, JSON, YAML)，
构建类型之间的依赖图，帮助追踪模型变更的影响范围，并执行结构校验规则。`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&DbPath, "db", "d", "", "数据库文件路径 (默认 .sgraph.db)")
	rootCmd.PersistentFlags().StringVarP(&ConfigPath, "config", "c", "", "配置文件路径 (默认 .sgraph.yaml)")
	rootCmd.PersistentFlags().StringVar(&LogLevel, "log-level", "", "日志级别 (debug/info/warn/error)")

	RegisterCommands(rootCmd)
	return rootCmd
}

// RegisterCommands adds all subcommands to the root command
func RegisterCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(layersCmd())
	rootCmd.AddCommand(depsCmd())
	rootCmd.AddCommand(dependentsCmd())
	rootCmd.AddCommand(pathCmd())
	rootCmd.AddCommand(cyclesCmd())
	rootCmd.AddCommand(impactCmd())
	rootCmd.AddCommand(riskCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(viewCmd())
}

// setup loads the config and applies flag overrides
func setup(cmd *cobra.Command) error {
	cfg, err := config.Load(ConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		cfg.Storage.Path = DbPath
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = LogLevel
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("无效的日志级别: %w", err)
	}
	logging.InitForCLI(level, os.Stderr)

	DbPath = cfg.Storage.Path
	Cfg = cfg
	return nil
}
