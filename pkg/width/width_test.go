// ABOUTME: Tests for VisibleWidth and segment iteration
// ABOUTME: Covers ASCII, wide characters, emoji and embedded ANSI sequences

package width

import "testing"

func TestVisibleWidth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "empty string", input: "", want: 0},
		{name: "ascii", input: "hello", want: 5},
		{name: "ansi colored", input: "\x1b[31mred\x1b[0m", want: 3},
		{name: "cjk", input: "你好", want: 4},
		{name: "mixed", input: "hi\x1b[1m!\x1b[0m", want: 3},
		{name: "emoji", input: "👋", want: 2},
		{name: "combining accent", input: "e\u0301", want: 1},
		{name: "only ansi", input: "\x1b[31m\x1b[0m", want: 0},
		{name: "ellipsis", input: Ellipsis, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := VisibleWidth(tt.input); got != tt.want {
				t.Errorf("VisibleWidth(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsPlainASCII(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "plain ascii", input: "hello world!", want: true},
		{name: "with escape", input: "hello\x1b[31m", want: false},
		{name: "with tab", input: "a\tb", want: false},
		{name: "empty", input: "", want: true},
		{name: "unicode", input: "café", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isPlainASCII(tt.input); got != tt.want {
				t.Errorf("isPlainASCII(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestForEachSegment_Stops(t *testing.T) {
	t.Parallel()

	var seen []string
	forEachSegment("ab\x1b[1mcd", func(seg string, _ bool, _ int) bool {
		seen = append(seen, seg)
		return len(seen) < 3
	})

	if len(seen) != 3 || seen[2] != "\x1b[1m" {
		t.Errorf("segments = %q, want stop after the escape sequence", seen)
	}
}

func BenchmarkVisibleWidth_ASCII(b *testing.B) {
	s := "building target 12 of 240 [compile] 00:42"
	for b.Loop() {
		VisibleWidth(s)
	}
}

func BenchmarkVisibleWidth_Unicode(b *testing.B) {
	s := "\x1b[1m构建\x1b[0m 12/240 ⏳ 00:42"
	for b.Loop() {
		VisibleWidth(s)
	}
}
