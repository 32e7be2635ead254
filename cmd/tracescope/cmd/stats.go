package cmd

import (
	"context"

	"github.com/oriys/tracescope/internal/session"
	"github.com/spf13/cobra"
)

var statsFilter filterOptions

// statsCmd 输出每个函数的耗时统计
var statsCmd = &cobra.Command{
	Use:   "stats <log>",
	Short: "Show per-function duration statistics",
	Long: `按函数汇总过滤后记录的耗时：次数、最小、最大、平均、总体标准差和总耗时。

Examples:
  tracescope stats run.log
  tracescope stats run.log --operation data-insertion -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], &statsFilter, func(_ context.Context, _ *app, s *session.Session) error {
			return NewPrinter(cmd.OutOrStdout()).PrintStats(s.FilteredStats.Rows())
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	addFilterFlags(statsCmd, &statsFilter)
}
