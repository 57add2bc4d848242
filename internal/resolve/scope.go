package resolve

import (
	"kestrel/internal/ast"
	"kestrel/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid  ScopeKind = iota
	ScopeGlobal             // top-level functions and globals
	ScopeFunction           // parameters and the function body
	ScopeBlock              // nested `{ ... }`, if/while bodies
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGlobal:
		return "global"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// Scope models a lexical scope with a parent-child hierarchy.
type Scope struct {
	Kind     ScopeKind
	Parent   ScopeID
	Owner    ast.NodeID
	Span     source.Span
	Names    map[string]SymbolID
	Symbols  []SymbolID
	Children []ScopeID
}

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolFunction
	SymbolGlobal
	SymbolLocal
	SymbolParam
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolFunction:
		return "function"
	case SymbolGlobal:
		return "global"
	case SymbolLocal:
		return "local"
	case SymbolParam:
		return "param"
	default:
		return "invalid"
	}
}

// Symbol is one declared name.
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Decl  ast.NodeID
	Span  source.Span
	Scope ScopeID
}
