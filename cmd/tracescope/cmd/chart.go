package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/oriys/tracescope/internal/chart"
	"github.com/oriys/tracescope/internal/domain"
	"github.com/oriys/tracescope/internal/session"
	"github.com/spf13/cobra"
)

var (
	chartFilter filterOptions
	chartKind   string
	chartOut    string
)

// chartCmd 渲染 PNG 图表
var chartCmd = &cobra.Command{
	Use:   "chart <log>",
	Short: "Render a PNG chart of the filtered records",
	Long: fmt.Sprintf(`把过滤后的记录渲染为 PNG 图表。

Kinds: %s

Examples:
  tracescope chart run.log --kind timeline --out timeline.png
  tracescope chart run.log --kind average`, kindNames()),
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		_, err := chart.ParseKind(chartKind)
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], &chartFilter, func(ctx context.Context, a *app, s *session.Session) error {
			kind, _ := chart.ParseKind(chartKind)
			out := chartOut
			if out == "" {
				out = a.cfg.Chart.Path
			}
			err := writeChart(ctx, a, s, kind, out)
			a.metrics.RecordOutput(string(kind), err)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s chart of %d records to %s\n", kind, len(s.Filtered), out)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	addFilterFlags(chartCmd, &chartFilter)
	chartCmd.Flags().StringVar(&chartKind, "kind", string(chart.KindTimeline), "图表类型")
	chartCmd.Flags().StringVar(&chartOut, "out", "", "输出文件（默认 chart.png）")
}

func kindNames() string {
	var names []string
	for _, k := range chart.Kinds() {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}

func writeChart(ctx context.Context, a *app, s *session.Session, kind chart.Kind, path string) error {
	_, span := a.tel.Tracer().Start(ctx, "chart.render")
	defer span.End()

	if len(s.Filtered) == 0 {
		return fmt.Errorf("chart: %w", domain.ErrEmptyDataset)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	opts := chart.Options{
		Width:  a.cfg.Chart.Width,
		Height: a.cfg.Chart.Height,
		Window: a.cfg.Analytics.MovingAverageWindow,
		Bins:   a.cfg.Analytics.HistogramBins,
	}
	if err := chart.Render(f, kind, s.Filtered, opts); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("chart: %w", err)
	}
	return f.Close()
}
