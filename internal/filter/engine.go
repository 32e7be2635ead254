// Package filter 实现记录过滤引擎。
//
// 过滤条件由展示层以原始字符串提供（命令行标志、预设文件），
// 在 Compile 时转换为类型化的条件。所有条件之间是逻辑与关系，
// 省略的条件不起作用。无法解析的数值或时间边界不会报错，
// 而是让该条件失效（放行全部记录），失效原因记录在结果中。
package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/oriys/tracescope/internal/domain"
	"github.com/oriys/tracescope/internal/duration"
)

// AllSentinel 表示“不过滤”的哨兵值，用于函数名和操作类型
const AllSentinel = "all"

// 操作类型及其对应的函数名子串
const (
	OperationTableCreation = "table-creation"
	OperationDataInsertion = "data-insertion"
)

var operationSubstrings = map[string]string{
	OperationTableCreation: "create_tables",
	OperationDataInsertion: "create_base_data",
}

// OperationTypes 返回支持的操作类型（不含 all）。
func OperationTypes() []string {
	return []string{OperationTableCreation, OperationDataInsertion}
}

// Spec 是展示层提供的过滤参数，全部为原始字符串。
type Spec struct {
	// Function 函数名精确匹配，"" 或 "all" 表示不过滤
	Function string `json:"function,omitempty" yaml:"function,omitempty"`
	// MinDuration / MaxDuration 耗时范围（秒）
	MinDuration string `json:"min_duration,omitempty" yaml:"min_duration,omitempty"`
	MaxDuration string `json:"max_duration,omitempty" yaml:"max_duration,omitempty"`
	// StartTime / EndTime 开始时间的时刻范围，格式 HH:MM:SS
	StartTime string `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	// OperationType 操作类型，"" 或 "all" 表示不过滤
	OperationType string `json:"operation_type,omitempty" yaml:"operation_type,omitempty"`
	// Search 在函数名和详情中做不区分大小写的子串搜索
	Search string `json:"search,omitempty" yaml:"search,omitempty"`
}

// IsZero 报告是否没有设置任何条件。
func (s Spec) IsZero() bool {
	return s == Spec{}
}

// Status 是单个条件的生效状态。
type Status string

const (
	// StatusOmitted 条件未设置
	StatusOmitted Status = "omitted"
	// StatusActive 条件生效
	StatusActive Status = "active"
	// StatusDisabled 条件值无效，已失效（放行全部记录）
	StatusDisabled Status = "disabled"
)

// 条件名称
const (
	CriterionFunction      = "function"
	CriterionDuration      = "duration_range"
	CriterionTimeOfDay     = "time_of_day_range"
	CriterionOperationType = "operation_type"
	CriterionSearch        = "search_text"
)

// Criterion 报告一个条件的编译结果。
type Criterion struct {
	Name   string `json:"name" yaml:"name"`
	Status Status `json:"status" yaml:"status"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

type matcher func(domain.LogRecord) bool

// Predicate 是编译后的过滤谓词。零值匹配所有记录。
type Predicate struct {
	criteria []Criterion
	matchers []matcher
}

// Compile 把原始参数编译为谓词。永不失败。
func Compile(spec Spec) Predicate {
	var p Predicate
	p.add(CriterionFunction, compileFunction(spec.Function))
	p.add(CriterionDuration, compileDuration(spec.MinDuration, spec.MaxDuration))
	p.add(CriterionTimeOfDay, compileTimeOfDay(spec.StartTime, spec.EndTime))
	p.add(CriterionOperationType, compileOperation(spec.OperationType))
	p.add(CriterionSearch, compileSearch(spec.Search))
	return p
}

// compiled 是单个条件的编译产物
type compiled struct {
	status Status
	reason string
	match  matcher
}

func (p *Predicate) add(name string, c compiled) {
	p.criteria = append(p.criteria, Criterion{Name: name, Status: c.status, Reason: c.reason})
	if c.status == StatusActive {
		p.matchers = append(p.matchers, c.match)
	}
}

// Match 报告记录是否满足所有生效条件。
func (p Predicate) Match(r domain.LogRecord) bool {
	for _, m := range p.matchers {
		if !m(r) {
			return false
		}
	}
	return true
}

// Criteria 返回每个条件的编译状态。
func (p Predicate) Criteria() []Criterion {
	out := make([]Criterion, len(p.criteria))
	copy(out, p.criteria)
	return out
}

// Disabled 返回因参数无效而失效的条件。
func (p Predicate) Disabled() []Criterion {
	var out []Criterion
	for _, c := range p.criteria {
		if c.Status == StatusDisabled {
			out = append(out, c)
		}
	}
	return out
}

// Outcome 是一次过滤的结果。
type Outcome struct {
	Records  []domain.LogRecord `json:"-" yaml:"-"`
	Criteria []Criterion        `json:"criteria" yaml:"criteria"`
}

// Apply 按 spec 过滤记录，保持输入顺序。
func Apply(records []domain.LogRecord, spec Spec) Outcome {
	p := Compile(spec)
	return Outcome{Records: p.Filter(records), Criteria: p.Criteria()}
}

// Filter 返回满足谓词的记录子集，保持输入顺序。
func (p Predicate) Filter(records []domain.LogRecord) []domain.LogRecord {
	out := make([]domain.LogRecord, 0, len(records))
	for _, r := range records {
		if p.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func omitted() compiled { return compiled{status: StatusOmitted} }

func disabled(format string, args ...interface{}) compiled {
	return compiled{status: StatusDisabled, reason: fmt.Sprintf(format, args...)}
}

func active(m matcher) compiled { return compiled{status: StatusActive, match: m} }

func isAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, AllSentinel)
}

func compileFunction(name string) compiled {
	if isAll(name) {
		return omitted()
	}
	return active(func(r domain.LogRecord) bool { return r.Function == name })
}

func compileDuration(minText, maxText string) compiled {
	minText, maxText = strings.TrimSpace(minText), strings.TrimSpace(maxText)
	if minText == "" && maxText == "" {
		return omitted()
	}
	lo, err := parseBound(minText)
	if err != nil {
		return disabled("min duration: %v", err)
	}
	hi, err := parseBound(maxText)
	if err != nil {
		return disabled("max duration: %v", err)
	}
	return active(func(r domain.LogRecord) bool {
		return lo <= r.DurationSeconds && r.DurationSeconds <= hi
	})
}

func parseBound(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}

func compileTimeOfDay(startText, endText string) compiled {
	startText, endText = strings.TrimSpace(startText), strings.TrimSpace(endText)
	if startText == "" && endText == "" {
		return omitted()
	}
	start, ok := duration.ParseClock(startText)
	if !ok {
		return disabled("start time %q is not HH:MM:SS", startText)
	}
	end, ok := duration.ParseClock(endText)
	if !ok {
		return disabled("end time %q is not HH:MM:SS", endText)
	}
	return active(func(r domain.LogRecord) bool {
		clock, ok := duration.ClockOf(r.StartTime)
		if !ok {
			// 无法解析的时间放行
			return true
		}
		return inRange(start, end, clock)
	})
}

func inRange(start, end, v time.Duration) bool {
	return start <= v && v <= end
}

func compileOperation(op string) compiled {
	if isAll(op) {
		return omitted()
	}
	sub, ok := operationSubstrings[strings.ToLower(strings.TrimSpace(op))]
	if !ok {
		return disabled("unknown operation type %q", op)
	}
	return active(func(r domain.LogRecord) bool { return strings.Contains(r.Function, sub) })
}

func compileSearch(text string) compiled {
	if text == "" {
		return omitted()
	}
	needle := strings.ToLower(text)
	return active(func(r domain.LogRecord) bool {
		return strings.Contains(strings.ToLower(r.Function), needle) ||
			strings.Contains(strings.ToLower(r.Details), needle)
	})
}
