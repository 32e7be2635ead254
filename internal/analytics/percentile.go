// Package analytics 提供基于记录序列的派生序列与汇总计算。
// 包内所有函数都是无状态的纯计算，不做任何 I/O。
package analytics

import (
	"math"
	"sort"
)

// Ranks 是默认输出的百分位
var Ranks = []float64{25, 50, 75, 90, 95, 99}

// PercentileValue 是一个百分位及其取值（秒）。
type PercentileValue struct {
	Rank  float64 `json:"rank" yaml:"rank"`
	Value float64 `json:"value" yaml:"value"`
}

// Percentiles 计算默认百分位，空输入返回 nil。
func Percentiles(values []float64) []PercentileValue {
	return PercentilesAt(values, Ranks)
}

// PercentilesAt 计算指定百分位（线性插值），空输入返回 nil。
func PercentilesAt(values []float64, ranks []float64) []PercentileValue {
	if len(values) == 0 {
		return nil
	}
	sorted := sortedCopy(values)
	out := make([]PercentileValue, len(ranks))
	for i, p := range ranks {
		out[i] = PercentileValue{Rank: p, Value: percentileSorted(sorted, p)}
	}
	return out
}

// Percentile 计算单个百分位 p（0-100），空输入返回 0。
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return percentileSorted(sortedCopy(values), p)
}

// percentileSorted 在已排序序列上做线性插值，索引为 p/100*(n-1)。
func percentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	p = math.Max(0, math.Min(100, p))
	index := p / 100 * float64(n-1)
	lower := int(math.Floor(index))
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}
