// Package duration 负责日志中耗时与时间文本的解码和显示格式化。
//
// 支持的耗时格式：
//   - HH:MM:SS[.fraction]
//   - MM:SS[.fraction]
//   - SS[.fraction]
//
// 小数部分按 "0.<digits>" 解释为秒，即 "12.5" 为 12.5 秒，"12.05" 为 12.05 秒，
// 而不是按位数换算的毫秒。
package duration

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/oriys/tracescope/internal/domain"
)

// Parse 严格解析耗时文本，返回秒数。
// 任何非数字片段、空片段、超过 3 段或多个小数点都返回 ErrInvalidDuration。
func Parse(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("%w: empty", domain.ErrInvalidDuration)
	}

	intPart, fracPart, hasFrac := strings.Cut(text, ".")
	fraction := 0.0
	if hasFrac {
		if strings.Contains(fracPart, ".") {
			return 0, fmt.Errorf("%w: %q has more than one '.'", domain.ErrInvalidDuration, text)
		}
		if !allDigits(fracPart) {
			return 0, fmt.Errorf("%w: bad fraction in %q", domain.ErrInvalidDuration, text)
		}
		if fracPart != "" {
			f, err := strconv.ParseFloat("0."+fracPart, 64)
			if err != nil {
				return 0, fmt.Errorf("%w: %v", domain.ErrInvalidDuration, err)
			}
			fraction = f
		}
	}

	parts := strings.Split(intPart, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q has %d components", domain.ErrInvalidDuration, text, len(parts))
	}

	values := make([]int64, len(parts))
	for i, p := range parts {
		if p == "" || !allDigits(p) {
			return 0, fmt.Errorf("%w: bad component %q in %q", domain.ErrInvalidDuration, p, text)
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", domain.ErrInvalidDuration, err)
		}
		values[i] = v
	}

	var hours, minutes, seconds int64
	switch len(values) {
	case 3:
		hours, minutes, seconds = values[0], values[1], values[2]
	case 2:
		minutes, seconds = values[0], values[1]
	default:
		seconds = values[0]
	}

	total := float64(hours)*3600 + float64(minutes)*60 + float64(seconds) + fraction
	if math.IsInf(total, 0) || math.IsNaN(total) {
		return 0, fmt.Errorf("%w: %q overflows", domain.ErrInvalidDuration, text)
	}
	return total, nil
}

// Decode 是 Parse 的降级版本：解析失败时返回 (0, false)，从不报错。
func Decode(text string) (float64, bool) {
	v, err := Parse(text)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Format 把原始耗时文本格式化为 HH:MM:SS.mmm。
// 缺失的时、分补 "00"，每段补零到两位，小数部分截断（不是四舍五入）为 3 位。
// 无法格式化的输入原样返回。
func Format(raw string) string {
	text := strings.TrimSpace(raw)
	if _, err := Parse(text); err != nil {
		return raw
	}

	timePart, fracPart, _ := strings.Cut(text, ".")
	millis := (fracPart + "000")[:3]

	parts := strings.Split(timePart, ":")
	for len(parts) < 3 {
		parts = append([]string{"00"}, parts...)
	}
	for i, p := range parts {
		parts[i] = zfill(p, 2)
	}
	return strings.Join(parts, ":") + "." + millis
}

// FormatSeconds 把秒数编码为 HH:MM:SS.mmm，毫秒四舍五入。
// 负数和非有限值按 0 处理。
func FormatSeconds(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	// 毫秒总数可能超出 int64，小时部分保持为浮点
	total := math.Round(seconds * 1000)
	h := math.Floor(total / 3_600_000)
	ms := int64(math.Mod(total, 3_600_000))
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02.0f:%02d:%02d.%03d", h, m, s, ms)
}

// ParseTimestamp 按日志原生格式 YYYY-MM-DD HH:MM:SS.ffffff 解析时间。
// 小数部分必须存在且为 1 到 6 位数字。
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	dot := strings.LastIndexByte(s, '.')
	if dot < 0 || !validMicros(s[dot+1:]) {
		return time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidTimestamp, s)
	}
	t, err := time.Parse(domain.TimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", domain.ErrInvalidTimestamp, err)
	}
	return t, nil
}

// FormatClock 把日志时间格式化为 HH:MM:SS.mmm，无法解析时原样返回。
func FormatClock(datetime string) string {
	t, err := ParseTimestamp(datetime)
	if err != nil {
		return datetime
	}
	return t.Format("15:04:05.000")
}

// ClockOf 提取时间文本中的时刻部分并换算为当天的微秒数。
// 输入可以是完整时间戳（取空格后的部分），也可以只有 HH:MM:SS.ffffff。
// 小数部分必须存在。
func ClockOf(s string) (time.Duration, bool) {
	if _, after, ok := strings.Cut(s, " "); ok {
		s = after
	}
	clock, frac, ok := strings.Cut(s, ".")
	if !ok || !validMicros(frac) {
		return 0, false
	}
	d, ok := ParseClock(clock)
	if !ok {
		return 0, false
	}
	micros, _ := strconv.Atoi((frac + "00000")[:6])
	return d + time.Duration(micros)*time.Microsecond, true
}

// ParseClock 解析 HH:MM:SS 形式的时刻（不带小数），返回距零点的时长。
func ParseClock(s string) (time.Duration, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, false
	}
	limits := [3]int{23, 59, 61}
	var v [3]int
	for i, p := range parts {
		if len(p) == 0 || len(p) > 2 || !allDigits(p) {
			return 0, false
		}
		n, _ := strconv.Atoi(p)
		if n > limits[i] {
			return 0, false
		}
		v[i] = n
	}
	return time.Duration(v[0])*time.Hour + time.Duration(v[1])*time.Minute + time.Duration(v[2])*time.Second, true
}

func validMicros(frac string) bool {
	return len(frac) >= 1 && len(frac) <= 6 && allDigits(frac)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func zfill(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
