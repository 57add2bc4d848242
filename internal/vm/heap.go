package vm

import "fmt"

// Heap maps addresses to values. Addresses grow monotonically and are never
// reused within a run, freed ones simply disappear.
type Heap struct {
	next uint64
	objs map[uint64]Value
}

func (h *Heap) initIfNeeded() {
	if h.objs == nil {
		h.objs = make(map[uint64]Value, 16)
	}
	if h.next == 0 {
		h.next = 1
	}
}

// Alloc stores v and returns its address. Address 0 is never handed out.
func (h *Heap) Alloc(v Value) uint64 {
	h.initIfNeeded()
	addr := h.next
	h.next++
	h.objs[addr] = v
	return addr
}

// Load returns the value stored at addr.
func (h *Heap) Load(addr uint64) (Value, error) {
	v, ok := h.objs[addr]
	if !ok {
		return Value{}, &VMError{Kind: KindInvalidAddress, Message: fmt.Sprintf("heap address %d", addr)}
	}
	return v, nil
}

// Store overwrites a live address.
func (h *Heap) Store(addr uint64, v Value) error {
	if _, ok := h.objs[addr]; !ok {
		return &VMError{Kind: KindInvalidAddress, Message: fmt.Sprintf("heap address %d", addr)}
	}
	h.objs[addr] = v
	return nil
}

// Free removes addr. Freeing twice is an error.
func (h *Heap) Free(addr uint64) error {
	if _, ok := h.objs[addr]; !ok {
		return &VMError{Kind: KindInvalidAddress, Message: fmt.Sprintf("double free of heap address %d", addr)}
	}
	delete(h.objs, addr)
	return nil
}

// Len is the number of live objects.
func (h *Heap) Len() int { return len(h.objs) }

func (h *Heap) reset() {
	clear(h.objs)
	h.next = 1
}
