package types

// Subst maps type variables to types. Bindings may point at other bound
// variables; Apply follows such chains, so the map is never normalised
// eagerly.
type Subst map[TypeVar]Type

func (s Subst) Lookup(v TypeVar) (Type, bool) {
	t, ok := s[v]
	return t, ok
}

// Apply replaces every bound variable in t, transitively. A variable that is
// already being expanded higher up the chain is left as is, so a cyclic map
// cannot make Apply loop.
func (s Subst) Apply(t Type) Type {
	if len(s) == 0 {
		return t
	}
	return s.apply(t, make(map[TypeVar]bool))
}

func (s Subst) apply(t Type, visiting map[TypeVar]bool) Type {
	switch t.Kind {
	case KindVar:
		bound, ok := s[t.Var]
		if !ok || visiting[t.Var] {
			return t
		}
		visiting[t.Var] = true
		out := s.apply(bound, visiting)
		delete(visiting, t.Var)
		return out
	case KindFunc:
		params := make([]Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = s.apply(p, visiting)
		}
		return Func(params, s.apply(*t.Ret, visiting))
	case KindTuple:
		elems := make([]Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = s.apply(e, visiting)
		}
		return Tuple(elems...)
	default:
		return t
	}
}

// Compose returns s1∘s2: every binding of s1 rewritten under s2, plus the
// bindings of s2 for variables s1 does not bind. On conflicts s1 wins.
func Compose(s1, s2 Subst) Subst {
	out := make(Subst, len(s1)+len(s2))
	for v, t := range s1 {
		out[v] = s2.Apply(t)
	}
	for v, t := range s2 {
		if _, ok := out[v]; !ok {
			out[v] = t
		}
	}
	return out
}

// FreeVars lists the unbound variables of t after applying s, in order of
// first appearance.
func (s Subst) FreeVars(t Type) []TypeVar {
	var out []TypeVar
	seen := map[TypeVar]bool{}
	var walk func(Type)
	walk = func(t Type) {
		switch t.Kind {
		case KindVar:
			if !seen[t.Var] {
				seen[t.Var] = true
				out = append(out, t.Var)
			}
		case KindFunc:
			for _, p := range t.Params {
				walk(p)
			}
			walk(*t.Ret)
		case KindTuple:
			for _, e := range t.Elems {
				walk(e)
			}
		}
	}
	walk(s.Apply(t))
	return out
}
