package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/oriys/tracescope/internal/domain"
	"github.com/oriys/tracescope/internal/session"
	"github.com/spf13/cobra"
)

// 分析结果分区
const (
	sectionAll         = "all"
	sectionMetrics     = "metrics"
	sectionPercentiles = "percentiles"
	sectionTrend       = "trend"
	sectionCumulative  = "cumulative"
	sectionHeatmap     = "heatmap"
	sectionCorrelation = "correlation"
	sectionTimeline    = "timeline"
	sectionHistogram   = "histogram"
)

var sections = []string{
	sectionMetrics, sectionPercentiles, sectionTrend, sectionCumulative,
	sectionHeatmap, sectionCorrelation, sectionTimeline, sectionHistogram,
}

var (
	analyzeFilter  filterOptions
	analyzeSection string
)

// analyzeCmd 对过滤后的记录做完整分析
var analyzeCmd = &cobra.Command{
	Use:   "analyze <log>",
	Short: "Run analytics over the filtered records",
	Long: fmt.Sprintf(`对过滤后的记录运行分析：性能指标、百分位、移动平均趋势、累计耗时、
小时热力图、函数间相关性、时间线和耗时分布。

Sections: %s, %s

Examples:
  tracescope analyze run.log
  tracescope analyze run.log --section correlation -o yaml`, sectionAll, strings.Join(sections, ", ")),
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := parseSection(analyzeSection); err != nil {
			return err
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], &analyzeFilter, func(ctx context.Context, a *app, s *session.Session) error {
			res := a.loader.Analyze(ctx, s, a.analyticsOptions())
			section, _ := parseSection(analyzeSection)
			return NewPrinter(cmd.OutOrStdout()).PrintAnalysis(section, res)
		})
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addFilterFlags(analyzeCmd, &analyzeFilter)
	analyzeCmd.Flags().StringVar(&analyzeSection, "section", sectionAll, "输出的分析部分")
}

func parseSection(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == sectionAll {
		return sectionAll, nil
	}
	for _, known := range sections {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownSection, s)
}

// sectionsFor 返回 section 对应的分区列表
func sectionsFor(section string) []string {
	if section == sectionAll {
		return sections
	}
	return []string{section}
}

// sectionValue 返回结构化输出时 section 对应的值
func sectionValue(section string, res session.Result) interface{} {
	switch section {
	case sectionMetrics:
		return res.Metrics
	case sectionPercentiles:
		return res.Metrics.Percentiles
	case sectionTrend:
		return struct {
			Trend         string      `json:"trend" yaml:"trend"`
			MovingAverage interface{} `json:"moving_average" yaml:"moving_average"`
		}{res.Trend, res.MovingAverage}
	case sectionCumulative:
		return res.Cumulative
	case sectionHeatmap:
		return res.Heatmap
	case sectionCorrelation:
		return struct {
			Matrix interface{} `json:"matrix" yaml:"matrix"`
			Strong interface{} `json:"strong" yaml:"strong"`
		}{res.Correlation, res.Strong}
	case sectionTimeline:
		return res.Timeline
	case sectionHistogram:
		return res.Histogram
	default:
		return res
	}
}
