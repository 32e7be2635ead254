package parser

import (
	"fmt"
	"strings"
	"testing"
)

// block 生成一个符合日志语法的记录块。
func block(ts, fn, dur, details string) string {
	return fmt.Sprintf(`[%s] Function: %s
Thread: main
Start Time (datetime): %s
End Time (datetime): %s
Duration (datetime): %s
Memory: 12MB
Operation Details: %s
%s
`, ts, fn, ts, ts, dur, details, Delimiter)
}

func TestParse_ExtractsRecordsInOrder(t *testing.T) {
	text := "preamble line\n" +
		block("2024-03-01 10:00:00.000001", "create_tables", "0:00:01.5", "created 3 tables") +
		block("2024-03-01 10:00:02.000000", "create_base_data", "0:00:00.25", "  inserted rows  ") +
		block("2024-03-01 10:01:00.100000", "cleanup", "3", "")

	res := Parse(text)
	if len(res.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(res.Records))
	}
	if len(res.Skipped) != 0 {
		t.Errorf("unexpected skips: %+v", res.Skipped)
	}

	want := []string{"create_tables", "create_base_data", "cleanup"}
	for i, r := range res.Records {
		if r.Function != want[i] {
			t.Errorf("record %d function = %q, want %q", i, r.Function, want[i])
		}
	}

	r := res.Records[1]
	if r.Details != "inserted rows" {
		t.Errorf("details not trimmed: %q", r.Details)
	}
	if r.DurationSeconds != 0.25 || !r.DurationValid {
		t.Errorf("duration = %v (valid=%v), want 0.25", r.DurationSeconds, r.DurationValid)
	}
	if r.StartTime != "2024-03-01 10:00:02.000000" {
		t.Errorf("start time = %q", r.StartTime)
	}
	if res.Records[2].Details != "" {
		t.Errorf("empty details should stay empty, got %q", res.Records[2].Details)
	}
}

// TestParse_MissingDelimiter 验证缺少结束分隔行的块不会被提取。
func TestParse_MissingDelimiter(t *testing.T) {
	broken := strings.TrimSuffix(block("2024-03-01 11:00:00.000000", "orphan", "1", "no end"), Delimiter+"\n")
	text := block("2024-03-01 10:00:00.000000", "a", "1", "x") +
		block("2024-03-01 10:00:01.000000", "b", "2", "y") +
		block("2024-03-01 10:00:02.000000", "c", "3", "z") +
		broken

	res := Parse(text)
	if len(res.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(res.Records))
	}
	for _, r := range res.Records {
		if r.Function == "orphan" {
			t.Error("block without delimiter was extracted")
		}
	}
}

// TestParse_BadDurationKept 验证耗时无法解析的记录仍被保留，耗时为 0。
func TestParse_BadDurationKept(t *testing.T) {
	res := Parse(block("2024-03-01 10:00:00.000000", "weird", "abc", "d"))
	if len(res.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(res.Records))
	}
	r := res.Records[0]
	if r.DurationSeconds != 0 || r.DurationValid {
		t.Errorf("duration = %v (valid=%v), want 0 invalid", r.DurationSeconds, r.DurationValid)
	}
	if r.DurationRaw != "abc" {
		t.Errorf("raw duration = %q", r.DurationRaw)
	}
	if res.InvalidDurations != 1 {
		t.Errorf("InvalidDurations = %d, want 1", res.InvalidDurations)
	}
}

func TestParse_SkipsBlankFunction(t *testing.T) {
	text := block("2024-03-01 10:00:00.000000", "  ", "1", "d") +
		block("2024-03-01 10:00:01.000000", "ok", "1", "d")

	res := Parse(text)
	if len(res.Records) != 1 || res.Records[0].Function != "ok" {
		t.Fatalf("unexpected records: %+v", res.Records)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Index != 0 {
		t.Fatalf("unexpected skips: %+v", res.Skipped)
	}
}

func TestParse_KeepsRawTimestampAndFunction(t *testing.T) {
	res := Parse(block("2024-03-01 10:00:00.000000", "load_config ", "1", "d"))
	if len(res.Records) != 1 {
		t.Fatalf("got %d records", len(res.Records))
	}
	if res.Records[0].Function != "load_config " {
		t.Errorf("function should not be trimmed: %q", res.Records[0].Function)
	}
}

func TestParse_Empty(t *testing.T) {
	res := Parse("nothing to see here")
	if len(res.Records) != 0 || len(res.Skipped) != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
}
