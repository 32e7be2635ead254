package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/oriys/tracescope/internal/domain"
	"github.com/oriys/tracescope/internal/export"
	"github.com/oriys/tracescope/internal/session"
	"github.com/spf13/cobra"
)

var (
	exportFilter filterOptions
	exportOut    string
)

// exportCmd 把过滤后的记录和统计导出为 xlsx
var exportCmd = &cobra.Command{
	Use:   "export <log>",
	Short: "Export filtered records and statistics to xlsx",
	Long: `把过滤后的记录写入 "Raw Data" 工作表，把这些记录的函数统计写入 "Statistics" 工作表。

Examples:
  tracescope export run.log
  tracescope export run.log --function create_tables --out tables.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], &exportFilter, func(ctx context.Context, a *app, s *session.Session) error {
			out := exportOut
			if out == "" {
				out = a.cfg.Export.Path
			}
			err := writeExport(ctx, a, s, out)
			a.metrics.RecordOutput("xlsx", err)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", len(s.Filtered), out)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addFilterFlags(exportCmd, &exportFilter)
	exportCmd.Flags().StringVar(&exportOut, "out", "", "输出文件（默认 log_analysis_export.xlsx）")
}

func writeExport(ctx context.Context, a *app, s *session.Session, path string) error {
	_, span := a.tel.Tracer().Start(ctx, "export.xlsx")
	defer span.End()

	if len(s.Filtered) == 0 {
		return fmt.Errorf("export: %w", domain.ErrEmptyDataset)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := export.WriteXLSX(f, s.Filtered, s.FilteredStats); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("export: %w", err)
	}
	return f.Close()
}
