// Package ir defines the control-flow-graph intermediate representation:
// modules of functions and globals, functions of labelled basic blocks,
// three-address instructions and block terminators.
package ir

import "kestrel/internal/types"

// Module is the unit handed from lowering to the optimizer and back ends.
type Module struct {
	Funcs   []*Func
	Globals []Global
}

// Global is a module-level variable. Init is set when the declaration had a
// constant initializer.
type Global struct {
	Name string
	Type types.Type
	Init *Const
}

type Param struct {
	Name string
	Type types.Type
}

type Func struct {
	Name   string
	Params []Param
	Result types.Type
	Blocks []*Block
}

type Block struct {
	Label  string
	Instrs []Instr
	Term   Terminator
}

func (b *Block) Terminated() bool {
	if b == nil {
		return true
	}
	return b.Term.Kind != TermNone
}

// Func returns the function named name or nil.
func (m *Module) Func(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Global returns the global named name and its index.
func (m *Module) Global(name string) (*Global, int) {
	for i := range m.Globals {
		if m.Globals[i].Name == name {
			return &m.Globals[i], i
		}
	}
	return nil, -1
}

// Block returns the block labelled label or nil.
func (f *Func) Block(label string) *Block {
	for _, b := range f.Blocks {
		if b.Label == label {
			return b
		}
	}
	return nil
}

// Entry returns the first block.
func (f *Func) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// InstrCount sums instructions over all blocks of the module.
func (m *Module) InstrCount() int {
	n := 0
	for _, f := range m.Funcs {
		for _, b := range f.Blocks {
			n += len(b.Instrs)
		}
	}
	return n
}
