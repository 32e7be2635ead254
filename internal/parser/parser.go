// Package parser 从原始追踪日志文本中提取 LogRecord 序列。
//
// 每条记录占据一个块，依次包含带标签的行，标签行之间允许任意内容，
// 并以 80 个连字符组成的分隔行结束：
//
//	[<timestamp>] Function: <function>
//	Start Time (datetime): <start>
//	End Time (datetime): <end>
//	Duration (datetime): <duration>
//	Operation Details: <details>
//	--------------------------------------------------------------------------------
//
// 缺少结束分隔行的块不会被提取。匹配范围之外的文本全部忽略。
package parser

import (
	"regexp"
	"strings"

	"github.com/oriys/tracescope/internal/domain"
	"github.com/oriys/tracescope/internal/duration"
)

// Delimiter 是记录结束标记。
var Delimiter = strings.Repeat("-", 80)

var recordRegex = regexp.MustCompile(
	`(?s)\[(.*?)\] Function: (.*?)\n.*?Start Time \(datetime\): (.*?)\n.*?End Time \(datetime\): (.*?)\n.*?Duration \(datetime\): (.*?)\n.*?Operation Details: (.*?)\n-{80}`,
)

// 捕获组序号
const (
	groupTimestamp = iota + 1
	groupFunction
	groupStart
	groupEnd
	groupDuration
	groupDetails
	groupCount
)

// Skip 描述一个匹配了语法但无法转换为记录的块。
type Skip struct {
	// Index 块在所有匹配中的序号（从 0 开始）
	Index int `json:"index" yaml:"index"`
	// Offset 块在原文中的字节偏移
	Offset int `json:"offset" yaml:"offset"`
	// Reason 跳过原因
	Reason string `json:"reason" yaml:"reason"`
}

// Result 是一次解析的结果。
type Result struct {
	// Records 按出现顺序排列的记录
	Records []domain.LogRecord
	// Skipped 被跳过的块
	Skipped []Skip
	// InvalidDurations 耗时无法解析、已回退为 0 的记录数
	InvalidDurations int
}

// Parse 扫描整段文本并提取所有记录。
// 单个块的失败不会中断解析，而是记录到 Result.Skipped 后继续。
// Parse 不持有任何跨调用的状态。
func Parse(text string) Result {
	var res Result
	matches := recordRegex.FindAllStringSubmatchIndex(text, -1)
	for i, m := range matches {
		rec, reason := extract(text, m)
		if reason != "" {
			res.Skipped = append(res.Skipped, Skip{Index: i, Offset: m[0], Reason: reason})
			continue
		}
		if !rec.DurationValid {
			res.InvalidDurations++
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// extract 把一个匹配转换为记录；失败时返回非空原因。
func extract(text string, m []int) (domain.LogRecord, string) {
	if len(m) < groupCount*2 {
		return domain.LogRecord{}, "incomplete match"
	}
	group := func(n int) (string, bool) {
		lo, hi := m[2*n], m[2*n+1]
		if lo < 0 || hi < lo {
			return "", false
		}
		return text[lo:hi], true
	}

	fields := make([]string, groupCount)
	for n := groupTimestamp; n < groupCount; n++ {
		v, ok := group(n)
		if !ok {
			return domain.LogRecord{}, "missing field"
		}
		fields[n] = v
	}

	if strings.TrimSpace(fields[groupFunction]) == "" {
		return domain.LogRecord{}, "empty function name"
	}

	rawDuration := strings.TrimSpace(fields[groupDuration])
	seconds, ok := duration.Decode(rawDuration)

	return domain.LogRecord{
		Timestamp:       fields[groupTimestamp],
		Function:        fields[groupFunction],
		StartTime:       strings.TrimSpace(fields[groupStart]),
		EndTime:         strings.TrimSpace(fields[groupEnd]),
		DurationRaw:     rawDuration,
		DurationSeconds: seconds,
		DurationValid:   ok,
		Details:         strings.TrimSpace(fields[groupDetails]),
	}, ""
}
