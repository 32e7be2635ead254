// Package aggregate 按函数名汇总记录的耗时统计。
package aggregate

import (
	"math"

	"github.com/oriys/tracescope/internal/domain"
)

// Table 是一次汇总的结果。
// Order 保存函数名首次出现的顺序，Stats 只包含至少有一条记录的函数。
type Table struct {
	Order []string                        `json:"order" yaml:"order"`
	Stats map[string]domain.FunctionStats `json:"stats" yaml:"stats"`
}

// accumulator 是单个函数的累加状态
type accumulator struct {
	count     int
	min, max  float64
	total     float64
	durations []float64
}

// Aggregate 对记录序列做一次遍历，按函数分组计算统计量。
// 这是输入的纯函数：过滤条件变化后应重新调用，而不是修补旧结果。
func Aggregate(records []domain.LogRecord) Table {
	t := Table{Stats: make(map[string]domain.FunctionStats)}
	acc := make(map[string]*accumulator)

	for _, r := range records {
		a, ok := acc[r.Function]
		if !ok {
			a = &accumulator{min: math.Inf(1)}
			acc[r.Function] = a
			t.Order = append(t.Order, r.Function)
		}
		d := r.DurationSeconds
		a.count++
		a.total += d
		a.min = math.Min(a.min, d)
		a.max = math.Max(a.max, d)
		a.durations = append(a.durations, d)
	}

	for _, name := range t.Order {
		a := acc[name]
		t.Stats[name] = domain.FunctionStats{
			Function: name,
			Count:    a.count,
			Min:      a.min,
			Max:      a.max,
			Average:  a.total / float64(a.count),
			StdDev:   StdDev(a.durations),
			Total:    a.total,
		}
	}
	return t
}

// Get 返回指定函数的统计；函数不存在时 ok 为 false。
func (t Table) Get(function string) (domain.FunctionStats, bool) {
	s, ok := t.Stats[function]
	return s, ok
}

// Rows 按首次出现顺序返回统计列表。
func (t Table) Rows() []domain.FunctionStats {
	rows := make([]domain.FunctionStats, 0, len(t.Order))
	for _, name := range t.Order {
		rows = append(rows, t.Stats[name])
	}
	return rows
}

// Total 返回所有函数耗时之和。
func (t Table) Total() float64 {
	sum := 0.0
	for _, name := range t.Order {
		sum += t.Stats[name].Total
	}
	return sum
}

// Len 返回函数个数。
func (t Table) Len() int { return len(t.Order) }

// StdDev 计算总体标准差（ddof=0），样本数不超过 1 时为 0。
func StdDev(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	mean := Mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

// Mean 计算算术平均值，空输入为 0。
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
