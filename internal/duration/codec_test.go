package duration

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/oriys/tracescope/internal/domain"
)

// TestParse 覆盖三种整数部分形式和小数部分的 "0.<digits>" 语义。
func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"hms with fraction", "01:02:03.5", 3723.5},
		{"hms hundredths", "00:00:12.05", 12.05},
		{"ms", "02:30", 150},
		{"bare seconds", "42", 42},
		{"bare with fraction", "12.5", 12.5},
		{"microseconds", "0:00:00.000123", 0.000123},
		{"trailing dot", "7.", 7},
		{"surrounding space", "  00:01:00.250 \r", 60.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// TestParse_Invalid 验证非法输入返回 ErrInvalidDuration。
func TestParse_Invalid(t *testing.T) {
	inputs := []string{"", "abc", "not-a-duration", "1:2:3:4", "1.2.3", "-5", "12:x", ":30", "1.5e3", "00:00:1a"}
	for _, in := range inputs {
		if _, err := Parse(in); !errors.Is(err, domain.ErrInvalidDuration) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidDuration", in, err)
		}
	}
}

func TestDecode_FailSoft(t *testing.T) {
	v, ok := Decode("not-a-duration")
	if ok || v != 0 {
		t.Errorf("Decode(bad) = (%v, %v), want (0, false)", v, ok)
	}

	v, ok = Decode("01:02:03.5")
	if !ok || v != 3723.5 {
		t.Errorf("Decode(good) = (%v, %v), want (3723.5, true)", v, ok)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1:2:3.456789", "01:02:03.456"},
		{"2:03", "00:02:03.000"},
		{"5", "00:00:05.000"},
		{"00:00:12.05", "00:00:12.050"},
		{"garbage", "garbage"},
	}
	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Errorf("Format(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestRoundTrip 验证 H:M:S.mmm 解码再编码得到相同的补零显示形式。
func TestRoundTrip(t *testing.T) {
	inputs := []string{"01:02:03.500", "00:00:12.050", "10:59:59.999", "0:0:0.001", "23:00:01.100"}
	for _, in := range inputs {
		v, ok := Decode(in)
		if !ok {
			t.Fatalf("Decode(%q) failed", in)
		}
		if got, want := FormatSeconds(v), Format(in); got != want {
			t.Errorf("FormatSeconds(Decode(%q)) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatSeconds_Clamps(t *testing.T) {
	for _, v := range []float64{-1, math.NaN(), math.Inf(1)} {
		if got := FormatSeconds(v); got != "00:00:00.000" {
			t.Errorf("FormatSeconds(%v) = %q", v, got)
		}
	}
}

// TestFormatSeconds_Large 验证超出 int64 毫秒范围的秒数仍输出非负的时分秒。
func TestFormatSeconds_Large(t *testing.T) {
	v, ok := Decode("99999999999999999")
	if !ok || v != 1e17 {
		t.Fatalf("Decode = %v, %v", v, ok)
	}
	if got := FormatSeconds(v); got != "27777777777777:46:40.000" {
		t.Errorf("FormatSeconds(1e17) = %q", got)
	}
	if got := FormatSeconds(360000); got != "100:00:00.000" {
		t.Errorf("FormatSeconds(360000) = %q", got)
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock("2024-03-01 14:05:06.123456"); got != "14:05:06.123" {
		t.Errorf("FormatClock = %q", got)
	}
	if got := FormatClock("yesterday"); got != "yesterday" {
		t.Errorf("FormatClock(bad) = %q", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2024-03-01 14:05:06.5")
	if err != nil {
		t.Fatalf("ParseTimestamp error = %v", err)
	}
	if ts.Hour() != 14 || ts.Nanosecond() != 500_000_000 {
		t.Errorf("unexpected time %v", ts)
	}

	for _, bad := range []string{"2024-03-01 14:05:06", "2024-03-01 14:05:06.1234567", "14:05:06.1"} {
		if _, err := ParseTimestamp(bad); !errors.Is(err, domain.ErrInvalidTimestamp) {
			t.Errorf("ParseTimestamp(%q) error = %v", bad, err)
		}
	}
}

func TestClockOf(t *testing.T) {
	d, ok := ClockOf("2024-03-01 10:30:00.250000")
	want := 10*time.Hour + 30*time.Minute + 250*time.Millisecond
	if !ok || d != want {
		t.Errorf("ClockOf = (%v, %v), want %v", d, ok, want)
	}

	if _, ok := ClockOf("2024-03-01 10:30:00"); ok {
		t.Error("ClockOf without fraction should fail")
	}
	if _, ok := ParseClock("24:00:00"); ok {
		t.Error("ParseClock should reject hour 24")
	}
}
