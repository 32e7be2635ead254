// Package domain 定义了追踪日志分析的核心领域模型。
package domain

import (
	"math"
	"strconv"
)

// TimestampLayout 是日志原生的时间格式：YYYY-MM-DD HH:MM:SS.ffffff
const TimestampLayout = "2006-01-02 15:04:05.999999"

// LogRecord 表示一次被插桩函数调用的追踪记录。
// 记录在解析完成后不可修改。
type LogRecord struct {
	// Timestamp 日志行首方括号中的时间戳，保留原文（不做 trim）
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	// Function 被调用的函数名，保留原文（不做 trim），非空
	Function string `json:"function" yaml:"function"`
	// StartTime 调用开始时间，与 Timestamp 格式相同
	StartTime string `json:"start_time" yaml:"start_time"`
	// EndTime 调用结束时间，与 Timestamp 格式相同
	EndTime string `json:"end_time" yaml:"end_time"`
	// DurationRaw 日志中的原始耗时文本
	DurationRaw string `json:"duration_raw" yaml:"duration_raw"`
	// DurationSeconds 由 DurationRaw 解码得到的秒数，始终 >= 0
	DurationSeconds float64 `json:"duration_seconds" yaml:"duration_seconds"`
	// DurationValid 为 false 表示原始耗时无法解析，DurationSeconds 回退为 0
	DurationValid bool `json:"duration_valid" yaml:"duration_valid"`
	// Details 操作详情，可为空
	Details string `json:"details" yaml:"details"`
}

// FunctionStats 是单个函数的耗时统计，单位均为秒。
// 只由记录集合重新计算得到，从不手工修改。
type FunctionStats struct {
	Function string  `json:"function" yaml:"function"`
	Count    int     `json:"count" yaml:"count"`
	Min      float64 `json:"min" yaml:"min"`
	Max      float64 `json:"max" yaml:"max"`
	Average  float64 `json:"average" yaml:"average"`
	StdDev   float64 `json:"std_dev" yaml:"std_dev"`
	Total    float64 `json:"total" yaml:"total"`
}

// Durations 提取记录的耗时序列，保持输入顺序。
func Durations(records []LogRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.DurationSeconds
	}
	return out
}

// NullFloat 是可能缺失的浮点值。
// 用于移动平均的前缀位置和无法计算的相关系数。
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float 构造一个有效的 NullFloat。
// NaN 和 Inf 会被视为缺失值。
func Float(v float64) NullFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat{}
	}
	return NullFloat{Float64: v, Valid: true}
}

// MarshalJSON 缺失值输出为 null。
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, n.Float64, 'g', -1, 64), nil
}

// MarshalYAML 缺失值输出为 null。
func (n NullFloat) MarshalYAML() (interface{}, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Float64, nil
}

// String 返回保留三位小数的值，缺失值为 "-"。
func (n NullFloat) String() string {
	if !n.Valid {
		return "-"
	}
	return strconv.FormatFloat(n.Float64, 'f', 3, 64)
}
