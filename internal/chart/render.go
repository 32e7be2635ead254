// Package chart 用 go-chart 把分析结果渲染为 PNG 图表。
package chart

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/oriys/tracescope/internal/aggregate"
	"github.com/oriys/tracescope/internal/analytics"
	"github.com/oriys/tracescope/internal/domain"
	"github.com/oriys/tracescope/internal/duration"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Kind 是图表类型
type Kind string

const (
	// KindTimeline 每条记录的耗时及其移动平均
	KindTimeline Kind = "timeline"
	// KindCumulative 累计耗时
	KindCumulative Kind = "cumulative"
	// KindDistribution 耗时分布直方图
	KindDistribution Kind = "distribution"
	// KindAverage 各函数平均耗时
	KindAverage Kind = "average"
)

// Kinds 返回所有支持的图表类型
func Kinds() []Kind {
	return []Kind{KindTimeline, KindCumulative, KindDistribution, KindAverage}
}

// ParseKind 解析图表类型，未知类型返回 domain.ErrUnknownChart。
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownChart, s)
}

// Options 是渲染参数，零值使用默认值。
type Options struct {
	Width  int
	Height int
	// Window 移动平均最大窗口
	Window int
	// Bins 分布图分箱数
	Bins int
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 1024
	}
	if o.Height <= 0 {
		o.Height = 512
	}
	return o
}

// Render 按 kind 渲染 records 的图表并以 PNG 写入 w。
// 没有记录时返回 domain.ErrEmptyDataset。
func Render(w io.Writer, kind Kind, records []domain.LogRecord, opts Options) error {
	if len(records) == 0 {
		return domain.ErrEmptyDataset
	}
	opts = opts.withDefaults()

	switch kind {
	case KindTimeline:
		return renderTimeline(w, records, opts)
	case KindCumulative:
		return renderCumulative(w, records, opts)
	case KindDistribution:
		return renderDistribution(w, records, opts)
	case KindAverage:
		return renderAverage(w, aggregate.Aggregate(records), opts)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownChart, kind)
	}
}

func lineStyle(col drawing.Color) gochart.Style {
	return gochart.Style{StrokeColor: col, StrokeWidth: 2}
}

func dotStyle(col drawing.Color) gochart.Style {
	return gochart.Style{StrokeWidth: gochart.Disabled, DotColor: col, DotWidth: 3}
}

// yRange 返回从 0 开始的纵轴范围，全为 0 时使用 [0, 1]。
func yRange(values []float64) *gochart.ContinuousRange {
	max := 0.0
	for _, v := range values {
		max = math.Max(max, v)
	}
	if max == 0 {
		max = 1
	}
	return &gochart.ContinuousRange{Min: 0, Max: max * 1.1}
}

// index 返回 1..n 的横坐标
func index(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i + 1)
	}
	return xs
}

// pad 在只有一个点时补一个相同取值的点，go-chart 无法绘制零宽度的横轴
func pad(xs, ys []float64) ([]float64, []float64) {
	if len(xs) == 1 {
		return []float64{xs[0], xs[0] + 1}, []float64{ys[0], ys[0]}
	}
	return xs, ys
}

// timestamps 在所有时间戳都可解析且跨度大于 0 时返回时间轴
func timestamps(records []domain.LogRecord) ([]time.Time, bool) {
	times := make([]time.Time, len(records))
	for i, r := range records {
		ts, err := duration.ParseTimestamp(r.Timestamp)
		if err != nil {
			return nil, false
		}
		times[i] = ts
	}
	if len(times) < 2 || !times[len(times)-1].After(times[0]) {
		return nil, false
	}
	return times, true
}

func renderTimeline(w io.Writer, records []domain.LogRecord, opts Options) error {
	values := domain.Durations(records)
	ma := analytics.MovingAverage(values, opts.Window)

	var maX []int
	var maY []float64
	for i, v := range ma.Values {
		if v.Valid {
			maX = append(maX, i)
			maY = append(maY, v.Float64)
		}
	}
	maName := fmt.Sprintf("Moving average (%d)", ma.Window)

	var series []gochart.Series
	xAxis := gochart.XAxis{Name: "Record"}
	if times, ok := timestamps(records); ok {
		xAxis = gochart.XAxis{Name: "Time", ValueFormatter: gochart.TimeValueFormatterWithFormat("15:04:05")}
		series = append(series, gochart.TimeSeries{Name: "Duration", XValues: times, YValues: values, Style: dotStyle(gochart.ColorBlue)})
		if len(maX) >= 2 {
			maTimes := make([]time.Time, len(maX))
			for k, i := range maX {
				maTimes[k] = times[i]
			}
			series = append(series, gochart.TimeSeries{Name: maName, XValues: maTimes, YValues: maY, Style: lineStyle(gochart.ColorRed)})
		}
	} else {
		xs, ys := pad(index(len(values)), values)
		series = append(series, gochart.ContinuousSeries{Name: "Duration", XValues: xs, YValues: ys, Style: dotStyle(gochart.ColorBlue)})
		if len(maX) >= 2 {
			mx := make([]float64, len(maX))
			for k, i := range maX {
				mx[k] = float64(i + 1)
			}
			series = append(series, gochart.ContinuousSeries{Name: maName, XValues: mx, YValues: maY, Style: lineStyle(gochart.ColorRed)})
		}
	}

	ch := gochart.Chart{
		Title:      "Duration timeline",
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      xAxis,
		YAxis:      gochart.YAxis{Name: "Duration (s)", Range: yRange(values)},
		Series:     series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	return ch.Render(gochart.PNG, w)
}

func renderCumulative(w io.Writer, records []domain.LogRecord, opts Options) error {
	cum := analytics.Cumulative(domain.Durations(records))
	xs, ys := pad(index(len(cum)), cum)
	ch := gochart.Chart{
		Title:      "Cumulative duration",
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: "Record"},
		YAxis:      gochart.YAxis{Name: "Total (s)", Range: yRange(cum)},
		Series: []gochart.Series{
			gochart.ContinuousSeries{Name: "Cumulative", XValues: xs, YValues: ys, Style: lineStyle(gochart.ColorGreen)},
		},
	}
	return ch.Render(gochart.PNG, w)
}

func renderDistribution(w io.Writer, records []domain.LogRecord, opts Options) error {
	bins := analytics.Histogram(domain.Durations(records), opts.Bins)
	bars := make([]gochart.Value, len(bins))
	counts := make([]float64, len(bins))
	for i, b := range bins {
		counts[i] = float64(b.Count)
		bars[i] = gochart.Value{Value: counts[i], Label: fmt.Sprintf("%.2f", b.Lower)}
	}
	return renderBars(w, "Duration distribution", "Records", bars, counts, opts)
}

func renderAverage(w io.Writer, table aggregate.Table, opts Options) error {
	rows := table.Rows()
	bars := make([]gochart.Value, len(rows))
	avgs := make([]float64, len(rows))
	for i, st := range rows {
		avgs[i] = st.Average
		bars[i] = gochart.Value{Value: st.Average, Label: st.Function}
	}
	return renderBars(w, "Average duration by function", "Average (s)", bars, avgs, opts)
}

func renderBars(w io.Writer, title, yName string, bars []gochart.Value, values []float64, opts Options) error {
	barWidth := (opts.Width - 120) / (len(bars) * 2)
	if barWidth < 4 {
		barWidth = 4
	}
	ch := gochart.BarChart{
		Title:      title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40}},
		BarWidth:   barWidth,
		BarSpacing: barWidth,
		YAxis:      gochart.YAxis{Name: yName, Range: yRange(values)},
		Bars:       bars,
	}
	return ch.Render(gochart.PNG, w)
}
