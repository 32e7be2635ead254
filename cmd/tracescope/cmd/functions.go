package cmd

import (
	"context"

	"github.com/oriys/tracescope/internal/session"
	"github.com/spf13/cobra"
)

// functionsCmd 列出日志中出现的函数名
var functionsCmd = &cobra.Command{
	Use:   "functions <log>",
	Short: "List function names in order of first appearance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], &filterOptions{}, func(_ context.Context, _ *app, s *session.Session) error {
			return NewPrinter(cmd.OutOrStdout()).PrintFunctions(s.Functions())
		})
	},
}

func init() {
	rootCmd.AddCommand(functionsCmd)
}
