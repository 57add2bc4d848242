package types_test

import (
	"testing"

	"kestrel/internal/types"
)

func TestApplyTransitive(t *testing.T) {
	s := types.Subst{
		0: types.VarOf(1),
		1: types.Func([]types.Type{types.VarOf(2)}, types.Bool),
		2: types.Int,
	}
	got := s.Apply(types.VarOf(0))
	if got.String() != "fn(int) -> bool" {
		t.Fatalf("Apply(?0) = %s", got)
	}
	// результат уже полностью разрешён
	if again := s.Apply(got); !again.Equal(got) {
		t.Errorf("Apply is not idempotent: %s vs %s", again, got)
	}
}

func TestApplyTerminatesOnCycle(t *testing.T) {
	s := types.Subst{0: types.VarOf(1), 1: types.VarOf(0)}
	got := s.Apply(types.VarOf(0))
	if !got.IsVar() {
		t.Fatalf("Apply on cycle = %s, want a variable", got)
	}
}

func TestComposeLeftBiased(t *testing.T) {
	s1 := types.Subst{0: types.VarOf(5), 1: types.Int}
	s2 := types.Subst{5: types.Bool, 1: types.String, 7: types.Float}
	c := types.Compose(s1, s2)

	tests := []struct {
		v    types.TypeVar
		want types.Type
	}{
		{0, types.Bool}, // s1 binding rewritten under s2
		{1, types.Int},  // conflict: s1 wins
		{5, types.Bool}, // s2-only binding kept
		{7, types.Float},
	}
	for _, tt := range tests {
		got, ok := c.Lookup(tt.v)
		if !ok || !got.Equal(tt.want) {
			t.Errorf("compose[%s] = %s (ok %v), want %s", tt.v, got, ok, tt.want)
		}
	}
	if len(c) != 4 {
		t.Errorf("len = %d, want 4", len(c))
	}
}

func TestFreeVars(t *testing.T) {
	s := types.Subst{1: types.Int}
	ty := types.Func([]types.Type{types.VarOf(0), types.VarOf(1)}, types.Tuple(types.VarOf(2), types.VarOf(0)))
	got := s.FreeVars(ty)
	if len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Fatalf("FreeVars = %v, want [?0 ?2]", got)
	}
}

func TestFromName(t *testing.T) {
	for name, want := range map[string]types.Type{
		"int":    types.Int,
		"float":  types.Float,
		"bool":   types.Bool,
		"string": types.String,
		"unit":   types.Unit,
		"Point":  types.Custom("Point"),
	} {
		if got := types.FromName(name); !got.Equal(want) {
			t.Errorf("FromName(%q) = %s, want %s", name, got, want)
		}
	}
}
