// Package cmd 提供 tracescope 命令行工具的所有子命令实现。
// 本文件实现输出格式化，支持 table（默认）、json、yaml 三种格式。
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/oriys/tracescope/internal/analytics"
	"github.com/oriys/tracescope/internal/domain"
	"github.com/oriys/tracescope/internal/duration"
	"github.com/oriys/tracescope/internal/session"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Printer 按配置的输出格式把数据写到 writer
type Printer struct {
	format string    // 输出格式：table、json 或 yaml
	writer io.Writer // 输出目标
	color  bool      // writer 是终端时启用 ANSI 颜色
}

// NewPrinter 从 viper 读取 output 格式创建 Printer，未配置时为 table。
func NewPrinter(w io.Writer) *Printer {
	format := strings.ToLower(viper.GetString("output"))
	if format == "" {
		format = "table"
	}
	return &Printer{format: format, writer: w, color: colorEnabled(w)}
}

// colorEnabled 在 w 是终端且未设置 NO_COLOR 时返回 true
func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isTerminal(f.Fd())
}

// structured 以 json/yaml 输出 v，table 格式返回 false
func (p *Printer) structured(v interface{}) (bool, error) {
	switch p.format {
	case "json":
		return true, p.printJSON(v)
	case "yaml":
		return true, p.printYAML(v)
	default:
		return false, nil
	}
}

func (p *Printer) printJSON(v interface{}) error {
	enc := json.NewEncoder(p.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) printYAML(v interface{}) error {
	enc := yaml.NewEncoder(p.writer)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// PrintRecords 打印记录列表
func (p *Printer) PrintRecords(records []domain.LogRecord) error {
	if ok, err := p.structured(records); ok {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(p.writer, "No records found.")
		return nil
	}

	w := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tFUNCTION\tSTART\tEND\tDURATION\tSECONDS\tDETAILS")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.3f\t%s\n",
			r.Timestamp,
			r.Function,
			duration.FormatClock(r.StartTime),
			duration.FormatClock(r.EndTime),
			duration.Format(r.DurationRaw),
			r.DurationSeconds,
			truncate(r.Details, 50),
		)
	}
	return w.Flush()
}

// PrintQuick 打印记录总数与过滤结果速览
func (p *Printer) PrintQuick(q session.QuickStats) error {
	if ok, err := p.structured(q); ok {
		return err
	}
	fmt.Fprintf(p.writer, "Total records:    %d\n", q.Total)
	fmt.Fprintf(p.writer, "Filtered records: %d\n", q.Filtered)
	fmt.Fprintf(p.writer, "Filtered average: %s s\n", q.FilteredAverage)
	return nil
}

// PrintStats 打印每个函数的统计
func (p *Printer) PrintStats(rows []domain.FunctionStats) error {
	if ok, err := p.structured(rows); ok {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(p.writer, "No records found.")
		return nil
	}

	w := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FUNCTION\tCOUNT\tMIN (s)\tMAX (s)\tAVG (s)\tSTD DEV\tTOTAL (s)")
	for _, st := range rows {
		fmt.Fprintf(w, "%s\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\n",
			st.Function, st.Count, st.Min, st.Max, st.Average, st.StdDev, st.Total)
	}
	return w.Flush()
}

// PrintFunctions 打印函数名列表
func (p *Printer) PrintFunctions(names []string) error {
	if ok, err := p.structured(names); ok {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(p.writer, "No functions found.")
		return nil
	}
	for _, n := range names {
		fmt.Fprintln(p.writer, n)
	}
	return nil
}

// PrintAnalysis 打印分析结果中 section 对应的部分，section 为 all 时打印全部。
func (p *Printer) PrintAnalysis(section string, res session.Result) error {
	if ok, err := p.structured(sectionValue(section, res)); ok {
		return err
	}

	fmt.Fprintf(p.writer, "Session: %s  Records: %d\n", res.SessionID, res.Records)
	for _, s := range sectionsFor(section) {
		fmt.Fprintf(p.writer, "\n== %s ==\n", strings.ToUpper(s))
		switch s {
		case sectionMetrics:
			p.printMetrics(res.Metrics)
		case sectionPercentiles:
			p.printPercentiles(res.Metrics.Percentiles)
		case sectionTrend:
			p.printTrend(res)
		case sectionCumulative:
			p.printCumulative(res.Cumulative)
		case sectionHeatmap:
			p.printHeatmap(res.Heatmap)
		case sectionCorrelation:
			p.printCorrelation(res.Correlation, res.Strong)
		case sectionTimeline:
			p.printTimeline(res.Timeline)
		case sectionHistogram:
			p.printHistogram(res.Histogram)
		}
	}
	return nil
}

func (p *Printer) printMetrics(m analytics.Summary) {
	if m.Count == 0 {
		fmt.Fprintln(p.writer, "No records found.")
		return
	}
	w := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Count:\t%d\n", m.Count)
	fmt.Fprintf(w, "Total:\t%.3f s\t(%s)\n", m.Total, duration.FormatSeconds(m.Total))
	fmt.Fprintf(w, "Mean:\t%.3f s\n", m.Mean)
	fmt.Fprintf(w, "Std dev:\t%.3f s\n", m.StdDev)
	fmt.Fprintf(w, "Min / Max:\t%.3f / %.3f s\n", m.Min, m.Max)
	fmt.Fprintf(w, "Ops/sec:\t%s\n", m.OpsPerSecond)
	w.Flush()
}

func (p *Printer) printPercentiles(ps []analytics.PercentileValue) {
	if len(ps) == 0 {
		fmt.Fprintln(p.writer, "No records found.")
		return
	}
	w := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PERCENTILE\tSECONDS")
	for _, v := range ps {
		fmt.Fprintf(w, "p%g\t%.3f\n", v.Rank, v.Value)
	}
	w.Flush()
}

func (p *Printer) printTrend(res session.Result) {
	fmt.Fprintf(p.writer, "Window: %d  Trend: %s\n", res.MovingAverage.Window, p.colorTrend(res.Trend))
	w := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tMOVING AVG (s)")
	for i, v := range res.MovingAverage.Values {
		fmt.Fprintf(w, "%d\t%s\n", i+1, v)
	}
	w.Flush()
}

func (p *Printer) printCumulative(cum []float64) {
	w := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tCUMULATIVE (s)")
	for i, v := range cum {
		fmt.Fprintf(w, "%d\t%.3f\n", i+1, v)
	}
	w.Flush()
}

func (p *Printer) printHeatmap(h analytics.HeatmapResult) {
	if len(h.Functions) == 0 {
		fmt.Fprintln(p.writer, "No timestamps could be parsed.")
		return
	}
	w := tabwriter.NewWriter(p.writer, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprint(w, "FUNCTION\t")
	for hour := 0; hour < 24; hour++ {
		fmt.Fprintf(w, "%02d\t", hour)
	}
	fmt.Fprintln(w)
	for i, fn := range h.Functions {
		fmt.Fprintf(w, "%s\t", fn)
		for _, v := range h.Cells[i] {
			fmt.Fprintf(w, "%.1f\t", v)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
	if h.Skipped > 0 {
		fmt.Fprintf(p.writer, "(%d records with unparseable timestamps skipped)\n", h.Skipped)
	}
}

func (p *Printer) printCorrelation(m analytics.CorrelationMatrix, strong analytics.StrongPairs) {
	if len(m.Functions) == 0 {
		fmt.Fprintln(p.writer, "No records found.")
		return
	}
	w := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "\t")
	for _, fn := range m.Functions {
		fmt.Fprintf(w, "%s\t", truncate(fn, 16))
	}
	fmt.Fprintln(w)
	for i, fn := range m.Functions {
		fmt.Fprintf(w, "%s\t", truncate(fn, 16))
		for _, v := range m.Values[i] {
			fmt.Fprintf(w, "%s\t", v)
		}
		fmt.Fprintln(w)
	}
	w.Flush()

	fmt.Fprintf(p.writer, "\nStrong correlations (|r| > %g):\n", strong.Threshold)
	if len(strong.Positive)+len(strong.Negative) == 0 {
		fmt.Fprintln(p.writer, "  none")
	}
	for _, pr := range strong.Positive {
		fmt.Fprintf(p.writer, "  + %s ~ %s: %.3f\n", pr.A, pr.B, pr.Value)
	}
	for _, pr := range strong.Negative {
		fmt.Fprintf(p.writer, "  - %s ~ %s: %.3f\n", pr.A, pr.B, pr.Value)
	}
}

func (p *Printer) printTimeline(tl *analytics.TimelineResult) {
	if tl == nil {
		fmt.Fprintln(p.writer, "Not enough parseable timestamps.")
		return
	}
	w := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "First:\t%s\n", tl.First.Format(domain.TimestampLayout))
	fmt.Fprintf(w, "Last:\t%s\n", tl.Last.Format(domain.TimestampLayout))
	fmt.Fprintf(w, "Span:\t%s\n", duration.FormatSeconds(tl.SpanSeconds))
	fmt.Fprintf(w, "Mean interval:\t%.3f s\n", tl.MeanInterval)
	fmt.Fprintf(w, "Interval std dev:\t%.3f s\n", tl.IntervalStdDev)
	fmt.Fprintf(w, "Ops/min:\t%s\n", tl.OpsPerMinute)
	w.Flush()
}

func (p *Printer) printHistogram(bins []analytics.Bin) {
	if len(bins) == 0 {
		fmt.Fprintln(p.writer, "No records found.")
		return
	}
	max := 0
	for _, b := range bins {
		if b.Count > max {
			max = b.Count
		}
	}
	w := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANGE (s)\tCOUNT\t")
	for _, b := range bins {
		bar := 0
		if max > 0 {
			bar = b.Count * 40 / max
		}
		fmt.Fprintf(w, "%.3f - %.3f\t%d\t%s\n", b.Lower, b.Upper, b.Count, strings.Repeat("#", bar))
	}
	w.Flush()
}

// ====== 辅助函数 ======

// colorTrend 按趋势着色：improving 绿色，worsening 红色
func (p *Printer) colorTrend(trend string) string {
	if !p.color {
		return trend
	}
	switch trend {
	case analytics.TrendImproving:
		return "\033[32m" + trend + "\033[0m"
	case analytics.TrendWorsening:
		return "\033[31m" + trend + "\033[0m"
	default:
		return "\033[33m" + trend + "\033[0m"
	}
}

// truncate 按 rune 截断字符串，超长时加 "..."
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
