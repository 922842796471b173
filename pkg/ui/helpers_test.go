package ui

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

func TestTruncate_UTF8Safe(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "zero max", input: "hello", maxLen: 0, want: ""},
		{name: "fits", input: "hello", maxLen: 10, want: "hello"},
		{name: "ellipsis", input: "hello world", maxLen: 6, want: "hello…"},
		{name: "wide runes", input: "日本語テキスト", maxLen: 5, want: "日本…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.maxLen)
			if got != tt.want {
				t.Fatalf("truncate(%q, %d) = %q; want %q", tt.input, tt.maxLen, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("truncate output is not valid UTF-8: %q", got)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("日本", 5); runewidth.StringWidth(got) != 5 {
		t.Errorf("padRight wide = %q", got)
	}
	if got := padRight("abcdef", 3); got != "abcdef" {
		t.Errorf("padRight should not cut: %q", got)
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("the quick brown fox jumps", 10)
	want := []string{"the quick", "brown fox", "jumps"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("wrapText = %q, want %q", got, want)
	}

	for _, line := range wrapText("supercalifragilistic word", 8) {
		if runewidth.StringWidth(line) > 8 {
			t.Errorf("line %q exceeds width", line)
		}
	}

	if got := wrapText("a\n\nb", 10); len(got) != 3 || got[1] != "" {
		t.Errorf("paragraph breaks lost: %q", got)
	}
	if wrapText("x", 0) != nil {
		t.Error("zero width should yield nothing")
	}
}

func TestFormatTimeRel(t *testing.T) {
	now := time.Now()
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Time{}, "unknown"},
		{now.Add(time.Hour), "now"},
		{now.Add(-10 * time.Second), "now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-50 * time.Hour), "2d ago"},
	}
	for _, tt := range tests {
		if got := FormatTimeRel(tt.at); got != tt.want {
			t.Errorf("FormatTimeRel(%v) = %q, want %q", tt.at, got, tt.want)
		}
	}
}

func TestClampInt(t *testing.T) {
	if clampInt(5, 0, 3) != 3 || clampInt(-1, 0, 3) != 0 || clampInt(2, 0, 3) != 2 {
		t.Error("clampInt out of range")
	}
}
