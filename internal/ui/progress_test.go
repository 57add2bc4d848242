package ui

import (
	"errors"
	"strings"
	"testing"

	"kestrel/internal/driver"
)

func TestProgressModelTracksFiles(t *testing.T) {
	events := make(chan driver.PhaseEvent)
	files := []string{"src/a.ks", "src/b.ks"}
	m := NewProgressModel("build", files, events).(*progressModel)

	steps := []driver.PhaseEvent{
		{Path: "./src/a.ks", Name: "parse", Status: driver.PhaseStart},
		{Path: "src/a.ks", Name: "asm", Status: driver.PhaseStart},
		{Path: "src/b.ks", Status: driver.FileFailed, Err: errors.New("boom")},
		{Path: "other.ks", Name: "parse", Status: driver.PhaseStart},
	}
	for _, ev := range steps {
		m.Update(eventMsg(ev))
	}
	if got := m.items[0].status; got != "assembling" {
		t.Fatalf("a.ks status = %q", got)
	}
	if got := m.items[1].status; got != "error" {
		t.Fatalf("b.ks status = %q", got)
	}
	if p := m.percent(); p < 0.9 || p > 0.95 {
		t.Fatalf("percent = %v, want (0.85+1)/2", p)
	}

	m.Update(eventMsg{Path: "src/a.ks", Status: driver.FileDone})
	if p := m.percent(); p != 1 {
		t.Fatalf("percent = %v after all files finished", p)
	}

	m.Update(doneMsg{})
	view := m.View()
	for _, want := range []string{"done: build", "src/a.ks", "src/b.ks", "error"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short.ks", 20, "short.ks"},
		{"very/long/path/main.ks", 10, "very/lo..."},
		{"abcdef", 2, "ab"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
