package cmd

import (
	"context"

	"github.com/oriys/tracescope/internal/session"
	"github.com/spf13/cobra"
)

var (
	recordsFilter  filterOptions
	recordsSummary bool
)

// recordsCmd 列出过滤后的记录
var recordsCmd = &cobra.Command{
	Use:   "records <log>",
	Short: "List parsed records",
	Long: `列出日志中解析出的记录，按出现顺序排列。

使用 "-" 从标准输入读取，.gz / .zst 压缩文件自动解压。

Examples:
  tracescope records run.log
  tracescope records run.log --function create_tables --min-duration 0.5
  tracescope records run.log --search users --summary`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], &recordsFilter, func(_ context.Context, _ *app, s *session.Session) error {
			p := NewPrinter(cmd.OutOrStdout())
			if recordsSummary {
				return p.PrintQuick(s.Quick())
			}
			return p.PrintRecords(s.Filtered)
		})
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	addFilterFlags(recordsCmd, &recordsFilter)
	recordsCmd.Flags().BoolVar(&recordsSummary, "summary", false, "只输出总数、过滤后数量和平均耗时")
}
