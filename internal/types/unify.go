package types

import "fmt"

// MismatchError reports two types that cannot be made equal. Both sides are
// shown after substitution.
type MismatchError struct {
	Left, Right Type
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("type mismatch: %s vs %s", e.Left, e.Right)
}

// OccursError reports an attempt to bind a variable to a type containing it.
type OccursError struct {
	Var TypeVar
	In  Type
}

func (e *OccursError) Error() string {
	return fmt.Sprintf("occurs check failed: %s occurs in %s", e.Var, e.In)
}

// ArityError reports function or tuple types of different lengths.
type ArityError struct {
	Left, Right Type
	Want, Got   int
}

func (e *ArityError) Error() string {
	what := "function parameter"
	if e.Left.Kind == KindTuple {
		what = "tuple element"
	}
	return fmt.Sprintf("%s count mismatch: %d vs %d (%s vs %s)", what, e.Want, e.Got, e.Left, e.Right)
}

// Unifier owns the substitution of one inference session.
type Unifier struct {
	subst Subst
}

func NewUnifier() *Unifier {
	return &Unifier{subst: make(Subst)}
}

// Subst exposes the current substitution. Callers must not modify it.
func (u *Unifier) Subst() Subst {
	return u.subst
}

// Resolve applies the current substitution to t.
func (u *Unifier) Resolve(t Type) Type {
	return u.subst.Apply(t)
}

// Unify makes a and b equal by extending the substitution. On failure the
// substitution may hold bindings made before the failing pair.
func (u *Unifier) Unify(a, b Type) error {
	a, b = u.Resolve(a), u.Resolve(b)

	switch {
	case a.IsVar() && b.IsVar() && a.Var == b.Var:
		return nil
	case a.IsVar():
		return u.bind(a.Var, b)
	case b.IsVar():
		return u.bind(b.Var, a)
	}

	switch {
	case a.Kind.IsPrimitive() && b.Kind.IsPrimitive():
		if a.Kind == b.Kind {
			return nil
		}
	case a.Kind == KindFunc && b.Kind == KindFunc:
		if len(a.Params) != len(b.Params) {
			return &ArityError{Left: a, Right: b, Want: len(a.Params), Got: len(b.Params)}
		}
		for i := range a.Params {
			if err := u.Unify(a.Params[i], b.Params[i]); err != nil {
				return err
			}
		}
		return u.Unify(*a.Ret, *b.Ret)
	case a.Kind == KindTuple && b.Kind == KindTuple:
		if len(a.Elems) != len(b.Elems) {
			return &ArityError{Left: a, Right: b, Want: len(a.Elems), Got: len(b.Elems)}
		}
		for i := range a.Elems {
			if err := u.Unify(a.Elems[i], b.Elems[i]); err != nil {
				return err
			}
		}
		return nil
	case a.Kind == KindCustom && b.Kind == KindCustom:
		if a.Name == b.Name {
			return nil
		}
	}
	return &MismatchError{Left: u.Resolve(a), Right: u.Resolve(b)}
}

func (u *Unifier) bind(v TypeVar, t Type) error {
	if Occurs(u.subst, v, t) {
		return &OccursError{Var: v, In: u.Resolve(t)}
	}
	u.subst[v] = t
	return nil
}

// Occurs reports whether v appears in t, following bindings in s.
func Occurs(s Subst, v TypeVar, t Type) bool {
	return occurs(s, v, t, make(map[TypeVar]bool))
}

func occurs(s Subst, v TypeVar, t Type, seen map[TypeVar]bool) bool {
	switch t.Kind {
	case KindVar:
		if t.Var == v {
			return true
		}
		if seen[t.Var] {
			return false
		}
		seen[t.Var] = true
		if bound, ok := s[t.Var]; ok {
			return occurs(s, v, bound, seen)
		}
		return false
	case KindFunc:
		for _, p := range t.Params {
			if occurs(s, v, p, seen) {
				return true
			}
		}
		return occurs(s, v, *t.Ret, seen)
	case KindTuple:
		for _, e := range t.Elems {
			if occurs(s, v, e, seen) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
