package style

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestContentHeight(t *testing.T) {
	tests := []struct {
		w, h int
		want int
	}{
		{80, 24, 21},
		{10, 5, 2},
		{10, 3, 1}, // 3-3=0, clamped to 1
		{10, 0, 1},
		{80, 50, 47},
	}

	for _, tt := range tests {
		l := NewLayout(tt.w, tt.h)
		got := l.ContentHeight()
		if got != tt.want {
			t.Errorf("NewLayout(%d,%d).ContentHeight() = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestBarWidth(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{10, 5},   // content width floors at 20, 20-29 is negative
		{50, 7},   // (50-29)/3
		{80, 17},  // (80-29)/3
		{200, 24}, // clamped
	}

	for _, tt := range tests {
		l := NewLayout(tt.width, 24)
		got := l.BarWidth()
		if got != tt.want {
			t.Errorf("NewLayout(%d,24).BarWidth() = %d, want %d", tt.width, got, tt.want)
		}
	}
}

func TestNameWidth(t *testing.T) {
	for _, width := range []int{10, 30, 80, 200} {
		l := NewLayout(width, 24)
		if got := l.NameWidth(); got < 8 {
			t.Errorf("NewLayout(%d,24).NameWidth() = %d, want >= 8", width, got)
		}
	}

	// For a wide terminal, NameWidth + BarWidth + overhead = ContentWidth
	l := NewLayout(80, 24)
	total := l.NameWidth() + l.BarWidth() + l.rowOverhead()
	if total != l.ContentWidth() {
		t.Errorf("NameWidth(%d) + BarWidth(%d) + overhead(%d) = %d, want ContentWidth %d",
			l.NameWidth(), l.BarWidth(), l.rowOverhead(), total, l.ContentWidth())
	}
}

func TestPathWidth(t *testing.T) {
	if got := NewLayout(80, 24).PathWidth(); got != 72 {
		t.Errorf("PathWidth() = %d, want 72", got)
	}
	if got := NewLayout(5, 24).PathWidth(); got != 12 {
		t.Errorf("PathWidth() on narrow terminal = %d, want 12", got)
	}
}

func TestFullWidth(t *testing.T) {
	got := FullWidth("hi", 5)
	if got != "hi   " {
		t.Errorf("FullWidth(\"hi\", 5) = %q, want %q", got, "hi   ")
	}

	got = FullWidth("hello", 5)
	if got != "hello" {
		t.Errorf("FullWidth(\"hello\", 5) = %q, want %q", got, "hello")
	}
}

func TestBarGradient(t *testing.T) {
	theme := DefaultTheme()
	for _, ratio := range []float64{-1, 0, 0.5, 1, 2} {
		bar := theme.BarGradient(10, ratio)
		if w := lipgloss.Width(bar); w != 10 {
			t.Errorf("BarGradient(10, %v) width = %d, want 10", ratio, w)
		}
	}
	if got := theme.BarGradient(0, 1); got != "" {
		t.Errorf("BarGradient(0, 1) = %q, want empty", got)
	}
}
