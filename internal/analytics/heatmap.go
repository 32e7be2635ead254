package analytics

import (
	"github.com/oriys/tracescope/internal/domain"
	"github.com/oriys/tracescope/internal/duration"
)

// HeatmapResult 是 函数 × 24 小时 的耗时汇总矩阵。
// Cells[i][h] 是函数 Functions[i] 在 h 点钟开始的记录耗时之和。
type HeatmapResult struct {
	Functions []string      `json:"functions" yaml:"functions"`
	Cells     [][24]float64 `json:"cells" yaml:"cells"`
	// Skipped 时间戳无法解析而未计入的记录数
	Skipped int `json:"skipped" yaml:"skipped"`
}

// Heatmap 按 (函数, 时间戳的小时) 汇总耗时。
// 函数按首次出现顺序排列；时间戳无法解析的记录跳过并计数。
func Heatmap(records []domain.LogRecord) HeatmapResult {
	var res HeatmapResult
	index := make(map[string]int)
	for _, r := range records {
		ts, err := duration.ParseTimestamp(r.Timestamp)
		if err != nil {
			res.Skipped++
			continue
		}
		i, ok := index[r.Function]
		if !ok {
			i = len(res.Functions)
			index[r.Function] = i
			res.Functions = append(res.Functions, r.Function)
			res.Cells = append(res.Cells, [24]float64{})
		}
		res.Cells[i][ts.Hour()] += r.DurationSeconds
	}
	return res
}

// Row 返回指定函数的 24 小时数据。
func (h HeatmapResult) Row(function string) ([24]float64, bool) {
	for i, f := range h.Functions {
		if f == function {
			return h.Cells[i], true
		}
	}
	return [24]float64{}, false
}
