package analytics

import "github.com/oriys/tracescope/internal/domain"

// DefaultWindow 是移动平均的最大窗口
const DefaultWindow = 10

// MovingAverageResult 是尾随移动平均的结果。
// Values 与输入等长，前 Window-1 个位置无值。
type MovingAverageResult struct {
	Window int                `json:"window" yaml:"window"`
	Values []domain.NullFloat `json:"values" yaml:"values"`
}

// MovingAverage 计算简单尾随移动平均，窗口为 min(maxWindow, n)。
// maxWindow <= 0 时使用 DefaultWindow。
func MovingAverage(values []float64, maxWindow int) MovingAverageResult {
	if maxWindow <= 0 {
		maxWindow = DefaultWindow
	}
	n := len(values)
	window := maxWindow
	if n < window {
		window = n
	}
	res := MovingAverageResult{Window: window, Values: make([]domain.NullFloat, n)}
	if window == 0 {
		return res
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			res.Values[i] = domain.Float(sum / float64(window))
		}
	}
	return res
}

// Cumulative 返回耗时的累计和，长度与输入相同且单调不减（输入非负时）。
func Cumulative(values []float64) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		out[i] = sum
	}
	return out
}

// 趋势方向
const (
	TrendImproving = "improving"
	TrendWorsening = "worsening"
	TrendFlat      = "flat"
	TrendUnknown   = "unknown"
)

// Trend 比较第一个与最后一个有效移动平均值。
// 末值更小表示耗时在改善。
func Trend(ma MovingAverageResult) string {
	first, last := -1, -1
	for i, v := range ma.Values {
		if !v.Valid {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 || first == last {
		return TrendUnknown
	}
	a, b := ma.Values[first].Float64, ma.Values[last].Float64
	switch {
	case b < a:
		return TrendImproving
	case b > a:
		return TrendWorsening
	default:
		return TrendFlat
	}
}
