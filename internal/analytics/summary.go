package analytics

import (
	"math"
	"time"

	"github.com/oriys/tracescope/internal/aggregate"
	"github.com/oriys/tracescope/internal/domain"
	"github.com/oriys/tracescope/internal/duration"
)

// Summary 是一组耗时的整体性能指标。
type Summary struct {
	Count  int     `json:"count" yaml:"count"`
	Total  float64 `json:"total" yaml:"total"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	// OpsPerSecond = Count / Total，总耗时为 0 时无值
	OpsPerSecond domain.NullFloat  `json:"ops_per_second" yaml:"ops_per_second"`
	Percentiles  []PercentileValue `json:"percentiles" yaml:"percentiles"`
}

// Summarize 计算整体性能指标，空输入返回零值。
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	s := Summary{
		Count:       len(values),
		Min:         math.Inf(1),
		Max:         math.Inf(-1),
		Percentiles: Percentiles(values),
	}
	for _, v := range values {
		s.Total += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = s.Total / float64(s.Count)
	s.StdDev = aggregate.StdDev(values)
	if s.Total > 0 {
		s.OpsPerSecond = domain.Float(float64(s.Count) / s.Total)
	}
	return s
}

// TimelineResult 描述记录在时间轴上的分布。
type TimelineResult struct {
	First time.Time `json:"first" yaml:"first"`
	Last  time.Time `json:"last" yaml:"last"`
	// SpanSeconds 首末记录之间的秒数
	SpanSeconds float64 `json:"span_seconds" yaml:"span_seconds"`
	// MeanInterval / IntervalStdDev 相邻记录时间间隔的均值和总体标准差
	MeanInterval   float64 `json:"mean_interval" yaml:"mean_interval"`
	IntervalStdDev float64 `json:"interval_std_dev" yaml:"interval_std_dev"`
	// OpsPerMinute 全部记录数除以跨度分钟数（含时间戳无法解析的记录），跨度为 0 时无值
	OpsPerMinute domain.NullFloat `json:"ops_per_minute" yaml:"ops_per_minute"`
	Points       int              `json:"points" yaml:"points"`
	Skipped      int              `json:"skipped" yaml:"skipped"`
}

// Timeline 按记录顺序分析时间戳间隔，至少需要两个可解析的时间戳，否则 ok 为 false。
func Timeline(records []domain.LogRecord) (TimelineResult, bool) {
	var res TimelineResult
	times := make([]time.Time, 0, len(records))
	for _, r := range records {
		ts, err := duration.ParseTimestamp(r.Timestamp)
		if err != nil {
			res.Skipped++
			continue
		}
		times = append(times, ts)
	}
	res.Points = len(times)
	if len(times) < 2 {
		return res, false
	}

	diffs := make([]float64, len(times)-1)
	for i := 1; i < len(times); i++ {
		diffs[i-1] = times[i].Sub(times[i-1]).Seconds()
	}
	res.First, res.Last = times[0], times[len(times)-1]
	res.SpanSeconds = res.Last.Sub(res.First).Seconds()
	res.MeanInterval = aggregate.Mean(diffs)
	res.IntervalStdDev = aggregate.StdDev(diffs)
	if res.SpanSeconds != 0 {
		res.OpsPerMinute = domain.Float(float64(len(records)) / (res.SpanSeconds / 60))
	}
	return res, true
}

// DefaultBins 是耗时分布直方图的默认分箱数
const DefaultBins = 20

// Bin 是直方图的一个分箱，区间为 [Lower, Upper)，最后一个分箱包含上界。
type Bin struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
	Count int     `json:"count" yaml:"count"`
}

// Histogram 把耗时分到等宽分箱中。所有值相等时使用 [v-0.5, v+0.5] 区间。
func Histogram(values []float64, bins int) []Bin {
	if len(values) == 0 {
		return nil
	}
	if bins <= 0 {
		bins = DefaultBins
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(bins)

	out := make([]Bin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		if i < 0 {
			i = 0
		}
		out[i].Count++
	}
	return out
}
