package trace_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"kestrel/internal/trace"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    trace.Level
		wantErr bool
	}{
		{"", trace.LevelOff, false},
		{"off", trace.LevelOff, false},
		{"STAGE", trace.LevelStage, false},
		{"pass", trace.LevelPass, false},
		{"debug", trace.LevelDebug, false},
		{"loud", trace.LevelOff, true},
	}
	for _, tt := range tests {
		got, err := trace.ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestShouldEmit(t *testing.T) {
	tests := []struct {
		level trace.Level
		scope trace.Scope
		want  bool
	}{
		{trace.LevelOff, trace.ScopeDriver, false},
		{trace.LevelStage, trace.ScopeStage, true},
		{trace.LevelStage, trace.ScopePass, false},
		{trace.LevelPass, trace.ScopePass, true},
		{trace.LevelPass, trace.ScopeOp, false},
		{trace.LevelDebug, trace.ScopeOp, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%v.ShouldEmit(%v) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestSpanPairs(t *testing.T) {
	r := trace.NewRingTracer(16, trace.LevelPass)
	outer := trace.Begin(r, trace.ScopeStage, "opt", 0)
	inner := trace.Begin(r, trace.ScopePass, "const-fold", outer.ID())
	inner.WithExtra("changed", "true").End("")
	trace.Begin(r, trace.ScopeOp, "Add", inner.ID()).End("") // filtered
	outer.End("done")

	evs := r.Snapshot()
	if len(evs) != 4 {
		t.Fatalf("got %d events, want 4", len(evs))
	}
	if evs[1].ParentID != evs[0].SpanID {
		t.Errorf("inner parent = %d, want %d", evs[1].ParentID, evs[0].SpanID)
	}
	if evs[2].Kind != trace.KindSpanEnd || evs[2].Extra["changed"] != "true" {
		t.Errorf("unexpected inner end event: %+v", evs[2])
	}
	if evs[3].Detail != "done" {
		t.Errorf("outer detail = %q", evs[3].Detail)
	}
	for i := 1; i < len(evs); i++ {
		if evs[i].Seq <= evs[i-1].Seq {
			t.Errorf("sequence not monotonic at %d", i)
		}
	}
}

func TestRingWraps(t *testing.T) {
	r := trace.NewRingTracer(3, trace.LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		trace.Point(r, trace.ScopeOp, name, "", 0)
	}
	var names []string
	for _, ev := range r.Snapshot() {
		names = append(names, ev.Name)
	}
	if got := strings.Join(names, ","); got != "c,d,e" {
		t.Errorf("snapshot = %s, want c,d,e", got)
	}
}

func TestStreamText(t *testing.T) {
	var buf bytes.Buffer
	s := trace.NewStreamTracer(&buf, trace.LevelStage, trace.FormatText)
	trace.Begin(s, trace.ScopeStage, "parse", 0).End("ok")
	out := buf.String()
	if !strings.Contains(out, "→ parse") || !strings.Contains(out, "← parse (ok)") {
		t.Errorf("unexpected text output:\n%s", out)
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	s := trace.NewStreamTracer(&buf, trace.LevelDebug, trace.FormatNDJSON)
	trace.Point(s, trace.ScopeOp, "Halt", "pc=4", 0)

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if got["name"] != "Halt" || got["kind"] != "point" || got["scope"] != "op" {
		t.Errorf("unexpected event: %v", got)
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := trace.New(trace.Config{Level: trace.LevelOff})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Enabled() {
		t.Error("off tracer must be disabled")
	}
	if id := trace.Begin(tr, trace.ScopeStage, "x", 0).ID(); id != 0 {
		t.Errorf("disabled span id = %d, want 0", id)
	}
}

func TestContextParent(t *testing.T) {
	r := trace.NewRingTracer(8, trace.LevelPass)
	ctx := trace.WithTracer(context.Background(), r)
	ctx, outer := trace.Start(ctx, trace.ScopeStage, "build")
	_, inner := trace.Start(ctx, trace.ScopePass, "main")
	inner.End("")
	outer.End("")

	evs := r.Snapshot()
	if len(evs) != 4 || evs[1].ParentID != outer.ID() {
		t.Fatalf("parent not propagated: %+v", evs)
	}
	if trace.FromContext(context.Background()) != trace.Nop {
		t.Error("empty context must yield Nop")
	}
}
