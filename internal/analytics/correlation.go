package analytics

import (
	"math"

	"github.com/oriys/tracescope/internal/aggregate"
	"github.com/oriys/tracescope/internal/domain"
)

// minuteKeyLen 是按分钟分桶时截取的时间戳前缀长度（YYYY-MM-DD HH:MM）
const minuteKeyLen = 16

// DefaultCorrelationThreshold 是强相关的默认阈值
const DefaultCorrelationThreshold = 0.7

// CorrelationMatrix 是函数之间按分钟平均耗时序列的 Pearson 相关矩阵。
// 数据不足的单元为无效值，调用方不能假定每个单元都有数值。
type CorrelationMatrix struct {
	Functions []string             `json:"functions" yaml:"functions"`
	Values    [][]domain.NullFloat `json:"values" yaml:"values"`
	// Series 每个函数的分钟均值序列（已右侧补齐无效值）
	Series [][]domain.NullFloat `json:"series,omitempty" yaml:"series,omitempty"`
}

// At 返回 (a, b) 两个函数的相关系数。
func (c CorrelationMatrix) At(a, b string) domain.NullFloat {
	i, j := c.index(a), c.index(b)
	if i < 0 || j < 0 {
		return domain.NullFloat{}
	}
	return c.Values[i][j]
}

func (c CorrelationMatrix) index(name string) int {
	for i, f := range c.Functions {
		if f == name {
			return i
		}
	}
	return -1
}

// Correlation 计算函数间的相关矩阵：
//  1. 以时间戳前 16 个字符为分钟键分桶
//  2. 对每个 (分钟, 函数) 求平均耗时，按分钟首次出现顺序追加到该函数的序列；
//     函数按所在分钟的先后、同一分钟内首次出现的先后排列
//  3. 较短的序列在右侧补无效值到相同长度
//  4. 对每一对函数在双方都有值的位置上计算 Pearson 相关系数
//
// 注意第 2 步得到的是压缩后的序列：函数缺席的分钟不占位置。
func Correlation(records []domain.LogRecord) CorrelationMatrix {
	type bucket struct {
		order []string
		byFn  map[string][]float64
	}
	var minutes []string
	buckets := make(map[string]*bucket)

	for _, r := range records {
		key := r.Timestamp
		if len(key) > minuteKeyLen {
			key = key[:minuteKeyLen]
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{byFn: make(map[string][]float64)}
			buckets[key] = b
			minutes = append(minutes, key)
		}
		if _, ok := b.byFn[r.Function]; !ok {
			b.order = append(b.order, r.Function)
		}
		b.byFn[r.Function] = append(b.byFn[r.Function], r.DurationSeconds)
	}

	// 函数顺序：先按分钟出现顺序，再按分钟内首次出现顺序
	var functions []string
	series := make(map[string][]float64)
	maxLen := 0
	for _, m := range minutes {
		b := buckets[m]
		for _, fn := range b.order {
			if _, ok := series[fn]; !ok {
				functions = append(functions, fn)
			}
			series[fn] = append(series[fn], aggregate.Mean(b.byFn[fn]))
			if l := len(series[fn]); l > maxLen {
				maxLen = l
			}
		}
	}

	res := CorrelationMatrix{
		Functions: functions,
		Values:    make([][]domain.NullFloat, len(functions)),
		Series:    make([][]domain.NullFloat, len(functions)),
	}
	for i, fn := range functions {
		padded := make([]domain.NullFloat, maxLen)
		for k, v := range series[fn] {
			padded[k] = domain.Float(v)
		}
		res.Series[i] = padded
		res.Values[i] = make([]domain.NullFloat, len(functions))
	}

	for i := range functions {
		if validCount(res.Series[i]) >= 2 {
			res.Values[i][i] = domain.Float(1)
		}
		for j := i + 1; j < len(functions); j++ {
			v := pearson(res.Series[i], res.Series[j])
			res.Values[i][j] = v
			res.Values[j][i] = v
		}
	}
	return res
}

// pearson 在两序列都有效的位置上计算相关系数。
// 重叠点少于 2 个或任一方方差为 0 时返回无效值。
func pearson(x, y []domain.NullFloat) domain.NullFloat {
	var xs, ys []float64
	for k := range x {
		if k < len(y) && x[k].Valid && y[k].Valid {
			xs = append(xs, x[k].Float64)
			ys = append(ys, y[k].Float64)
		}
	}
	if len(xs) < 2 {
		return domain.NullFloat{}
	}
	mx, my := aggregate.Mean(xs), aggregate.Mean(ys)
	var sxy, sxx, syy float64
	for k := range xs {
		dx, dy := xs[k]-mx, ys[k]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	div := math.Sqrt(sxx * syy)
	if div == 0 {
		return domain.NullFloat{}
	}
	r := sxy / div
	return domain.Float(math.Max(-1, math.Min(1, r)))
}

func validCount(s []domain.NullFloat) int {
	n := 0
	for _, v := range s {
		if v.Valid {
			n++
		}
	}
	return n
}

// Pair 是一对强相关的函数。
type Pair struct {
	A     string  `json:"a" yaml:"a"`
	B     string  `json:"b" yaml:"b"`
	Value float64 `json:"value" yaml:"value"`
}

// StrongPairs 是强正相关和强负相关的函数对。
type StrongPairs struct {
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Positive  []Pair  `json:"positive" yaml:"positive"`
	Negative  []Pair  `json:"negative" yaml:"negative"`
}

// StrongCorrelations 列出相关系数大于 threshold 或小于 -threshold 的函数对（只看上三角）。
// threshold <= 0 时使用 DefaultCorrelationThreshold。
func StrongCorrelations(m CorrelationMatrix, threshold float64) StrongPairs {
	if threshold <= 0 {
		threshold = DefaultCorrelationThreshold
	}
	res := StrongPairs{Threshold: threshold}
	for i := range m.Functions {
		for j := i + 1; j < len(m.Functions); j++ {
			v := m.Values[i][j]
			if !v.Valid {
				continue
			}
			p := Pair{A: m.Functions[i], B: m.Functions[j], Value: v.Float64}
			switch {
			case v.Float64 > threshold:
				res.Positive = append(res.Positive, p)
			case v.Float64 < -threshold:
				res.Negative = append(res.Negative, p)
			}
		}
	}
	return res
}
