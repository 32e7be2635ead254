package session

import (
	"github.com/oriys/tracescope/internal/analytics"
	"github.com/oriys/tracescope/internal/domain"
)

// Options 是分析参数，零值使用各算法的默认值。
type Options struct {
	Window               int
	CorrelationThreshold float64
	Bins                 int
}

// Result 是对过滤视图的完整分析结果。
type Result struct {
	SessionID     string                        `json:"session_id" yaml:"session_id"`
	Records       int                           `json:"records" yaml:"records"`
	Metrics       analytics.Summary             `json:"metrics" yaml:"metrics"`
	MovingAverage analytics.MovingAverageResult `json:"moving_average" yaml:"moving_average"`
	Trend         string                        `json:"trend" yaml:"trend"`
	Cumulative    []float64                     `json:"cumulative" yaml:"cumulative"`
	Heatmap       analytics.HeatmapResult       `json:"heatmap" yaml:"heatmap"`
	Correlation   analytics.CorrelationMatrix   `json:"correlation" yaml:"correlation"`
	Strong        analytics.StrongPairs         `json:"strong_correlations" yaml:"strong_correlations"`
	// Timeline 可解析的时间戳少于两个时为 nil
	Timeline  *analytics.TimelineResult `json:"timeline,omitempty" yaml:"timeline,omitempty"`
	Histogram []analytics.Bin           `json:"histogram" yaml:"histogram"`
}

// Analyze 在会话的过滤视图上运行全部分析。
func Analyze(s *Session, opts Options) Result {
	records := s.Filtered
	values := domain.Durations(records)

	ma := analytics.MovingAverage(values, opts.Window)
	corr := analytics.Correlation(records)
	res := Result{
		SessionID:     s.ID.String(),
		Records:       len(records),
		Metrics:       analytics.Summarize(values),
		MovingAverage: ma,
		Trend:         analytics.Trend(ma),
		Cumulative:    analytics.Cumulative(values),
		Heatmap:       analytics.Heatmap(records),
		Correlation:   corr,
		Strong:        analytics.StrongCorrelations(corr, opts.CorrelationThreshold),
		Histogram:     analytics.Histogram(values, opts.Bins),
	}
	if tl, ok := analytics.Timeline(records); ok {
		res.Timeline = &tl
	}
	return res
}
