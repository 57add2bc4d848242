package observ_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"kestrel/internal/observ"
)

func TestTimerPhases(t *testing.T) {
	tm := observ.NewTimer()
	idx := tm.Begin("parse")
	tm.End(idx, "3 decls")
	err := tm.Measure("lower", func() error { return errors.New("boom") })
	if err == nil {
		t.Fatal("Measure must return fn's error")
	}
	tm.End(99, "ignored")

	phases := tm.Phases()
	if len(phases) != 2 || phases[0].Name != "parse" || phases[1].Note != "failed" {
		t.Fatalf("phases = %+v", phases)
	}
	sum := tm.Summary()
	for _, want := range []string{"timings:", "parse", "// 3 decls", "total"} {
		if !strings.Contains(sum, want) {
			t.Errorf("summary lacks %q:\n%s", want, sum)
		}
	}
}

func TestTimerConcurrent(t *testing.T) {
	tm := observ.NewTimer()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.End(tm.Begin("file"), "")
		}()
	}
	wg.Wait()
	if n := len(tm.Report().Phases); n != 8 {
		t.Fatalf("got %d phases, want 8", n)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *observ.Timer
	tm.End(tm.Begin("x"), "")
	if got := tm.Report(); len(got.Phases) != 0 {
		t.Fatalf("nil timer report = %+v", got)
	}
}
