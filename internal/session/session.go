// Package session 把解析、聚合、过滤和分析串成一次显式的分析会话。
// Session 是不可变值：Filter 返回新的会话，原会话保持不变。
package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/oriys/tracescope/internal/aggregate"
	"github.com/oriys/tracescope/internal/domain"
	"github.com/oriys/tracescope/internal/filter"
	"github.com/oriys/tracescope/internal/parser"
)

// Session 是一次加载得到的记录集及当前过滤视图。
type Session struct {
	ID       uuid.UUID `json:"id" yaml:"id"`
	Source   string    `json:"source,omitempty" yaml:"source,omitempty"`
	LoadedAt time.Time `json:"loaded_at" yaml:"loaded_at"`

	// Records 全部记录，Stats 基于全部记录计算
	Records []domain.LogRecord `json:"-" yaml:"-"`
	Stats   aggregate.Table    `json:"-" yaml:"-"`

	// Skipped 解析时跳过的块；InvalidDurations 耗时回退为 0 的记录数
	Skipped          []parser.Skip `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	InvalidDurations int           `json:"invalid_durations" yaml:"invalid_durations"`

	// Spec 当前过滤条件，Filtered / FilteredStats 是过滤后的视图
	Spec          filter.Spec        `json:"filter" yaml:"filter"`
	Criteria      []filter.Criterion `json:"criteria,omitempty" yaml:"criteria,omitempty"`
	Filtered      []domain.LogRecord `json:"-" yaml:"-"`
	FilteredStats aggregate.Table    `json:"-" yaml:"-"`
}

// Load 解析日志文本并创建会话，过滤视图初始为全部记录。
func Load(text string) *Session {
	res := parser.Parse(text)
	stats := aggregate.Aggregate(res.Records)
	return &Session{
		ID:               uuid.New(),
		LoadedAt:         time.Now(),
		Records:          res.Records,
		Stats:            stats,
		Skipped:          res.Skipped,
		InvalidDurations: res.InvalidDurations,
		Filtered:         res.Records,
		FilteredStats:    stats,
	}
}

// Filter 以 spec 重新过滤全部记录，返回新的会话。
// 过滤总是基于 Records 而不是上一次的 Filtered。
func (s *Session) Filter(spec filter.Spec) *Session {
	out := filter.Apply(s.Records, spec)
	next := *s
	next.Spec = spec
	next.Criteria = out.Criteria
	next.Filtered = out.Records
	next.FilteredStats = aggregate.Aggregate(out.Records)
	return &next
}

// Functions 返回按首次出现顺序排列的函数名，不受过滤影响。
func (s *Session) Functions() []string {
	out := make([]string, len(s.Stats.Order))
	copy(out, s.Stats.Order)
	return out
}

// Disabled 返回当前过滤中失效的条件。
func (s *Session) Disabled() []filter.Criterion {
	var out []filter.Criterion
	for _, c := range s.Criteria {
		if c.Status == filter.StatusDisabled {
			out = append(out, c)
		}
	}
	return out
}

// QuickStats 是记录总数与过滤视图的速览
type QuickStats struct {
	Total           int              `json:"total" yaml:"total"`
	Filtered        int              `json:"filtered" yaml:"filtered"`
	FilteredAverage domain.NullFloat `json:"filtered_average" yaml:"filtered_average"`
}

// Quick 返回速览统计，过滤视图为空时平均值无效。
func (s *Session) Quick() QuickStats {
	q := QuickStats{Total: len(s.Records), Filtered: len(s.Filtered)}
	if q.Filtered > 0 {
		q.FilteredAverage = domain.Float(aggregate.Mean(domain.Durations(s.Filtered)))
	}
	return q
}
