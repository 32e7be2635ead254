// Package cmd 包含 tracescope CLI 的所有命令实现
// 使用 cobra 构建命令行接口，viper 负责参数、环境变量和配置文件的合并
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// 全局命令行标志变量
var (
	cfgFile   string // 配置文件路径
	outputFmt string // 输出格式（table/json/yaml）
)

// rootCmd 是 CLI 的根命令
var rootCmd = &cobra.Command{
	Use:   "tracescope",
	Short: "tracescope - function execution log analyzer",
	Long: `tracescope 解析函数执行日志，按函数汇总耗时并做进一步分析。

使用示例:
  # 查看每个函数的耗时统计
  tracescope stats run.log

  # 只看建表操作中耗时超过 1 秒的记录
  tracescope records run.log --operation table-creation --min-duration 1

  # 相关性分析，JSON 输出
  tracescope analyze run.log --section correlation -o json

  # 导出 xlsx、生成图表
  tracescope export run.log --out report.xlsx
  tracescope chart run.log.gz --kind timeline --out timeline.png`,
	SilenceUsage: true,
}

// Execute 执行根命令，由 main 包调用
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径（默认为 $HOME/.tracescope.yaml）")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "输出格式（table、json、yaml）")
	rootCmd.PersistentFlags().String("log-level", "", "日志级别（debug、info、warn、error）")
	rootCmd.PersistentFlags().String("log-format", "", "日志格式（text、json）")
	rootCmd.PersistentFlags().String("metrics-file", "", "命令结束后写出 Prometheus textfile 的路径")

	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("metrics.file", rootCmd.PersistentFlags().Lookup("metrics-file"))
}

// initConfig 按优先级加载配置：命令行标志 > 环境变量 > 配置文件
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tracescope")
	}

	// 环境变量格式：TRACESCOPE_<KEY>，如 TRACESCOPE_OUTPUT
	viper.SetEnvPrefix("TRACESCOPE")
	viper.AutomaticEnv()
	_ = viper.BindEnv("output", "TRACESCOPE_OUTPUT")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: failed to read config: %v\n", err)
		}
	}
}

// getConfigPath 返回配置文件路径，未指定时为 ~/.tracescope.yaml
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tracescope.yaml")
}
