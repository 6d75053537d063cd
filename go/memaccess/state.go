// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memaccess

import (
	"golang.org/x/tools/go/ssa"
)

// MemoryAccessData is the abstract state of one basic block, or, after
// fixpoint, one function. A pointer-origin value appears in at most one of
// the five classification sets at the block level; stores is defined
// wherever a key appears in any classification set.
type MemoryAccessData struct {
	// Stores maps a pointer-origin value to the joined value most
	// recently written through that pointer.
	Stores map[ssa.Value]StoredValue

	StackStores    map[ssa.Value]struct{}
	GlobalStores   map[ssa.Value]struct{}
	ArgumentStores map[ssa.Value]struct{}
	HeapStores     map[ssa.Value]struct{}
	UnknownStores  map[ssa.Value]struct{}

	// Temporaries memoises the Evaluator's result for SSA values whose
	// evaluation does not depend on the mutable store (allocas, globals,
	// arguments, constant GEPs/casts/binops).
	Temporaries map[ssa.Value]StoredValue

	FunctionCalls map[ssa.CallInstruction]struct{}
	IndirectCalls map[ssa.CallInstruction]struct{}
}

// NewMemoryAccessData returns an empty state.
func NewMemoryAccessData() *MemoryAccessData {
	return &MemoryAccessData{
		Stores:         make(map[ssa.Value]StoredValue),
		StackStores:    make(map[ssa.Value]struct{}),
		GlobalStores:   make(map[ssa.Value]struct{}),
		ArgumentStores: make(map[ssa.Value]struct{}),
		HeapStores:     make(map[ssa.Value]struct{}),
		UnknownStores:  make(map[ssa.Value]struct{}),
		Temporaries:    make(map[ssa.Value]StoredValue),
		FunctionCalls:  make(map[ssa.CallInstruction]struct{}),
		IndirectCalls:  make(map[ssa.CallInstruction]struct{}),
	}
}

func (d *MemoryAccessData) classificationSet(k Kind) map[ssa.Value]struct{} {
	switch k {
	case Stack:
		return d.StackStores
	case Global:
		return d.GlobalStores
	case ArgumentKind:
		return d.ArgumentStores
	case Heap:
		return d.HeapStores
	default:
		return d.UnknownStores
	}
}

// Classify records that ptr's origin has the given kind, inserting it into
// the matching classification set (anything other than
// Stack/Global/Argument/Heap goes to UnknownStores).
func (d *MemoryAccessData) Classify(ptr ssa.Value, k Kind) {
	d.classificationSet(k)[ptr] = struct{}{}
}

// Store joins sv into the stored value for sp, and classifies sp by k.
// Returns whether the stored value at sp changed.
func (d *MemoryAccessData) Store(sp ssa.Value, k Kind, sv StoredValue) bool {
	d.Classify(sp, k)
	prev, ok := d.Stores[sp]
	if !ok {
		d.Stores[sp] = sv
		return true
	}
	joined, changed := Join(prev, sv)
	d.Stores[sp] = joined
	return changed
}

// Clone returns a deep copy of d suitable for seeding a successor block's
// state before joining.
func (d *MemoryAccessData) Clone() *MemoryAccessData {
	c := NewMemoryAccessData()
	for k, v := range d.Stores {
		c.Stores[k] = v
	}
	for k := range d.StackStores {
		c.StackStores[k] = struct{}{}
	}
	for k := range d.GlobalStores {
		c.GlobalStores[k] = struct{}{}
	}
	for k := range d.ArgumentStores {
		c.ArgumentStores[k] = struct{}{}
	}
	for k := range d.HeapStores {
		c.HeapStores[k] = struct{}{}
	}
	for k := range d.UnknownStores {
		c.UnknownStores[k] = struct{}{}
	}
	// Temporaries are block-local memoisation and do not propagate to
	// successors: each block re-evaluates carrier-derived values lazily.
	for k := range d.FunctionCalls {
		c.FunctionCalls[k] = struct{}{}
	}
	for k := range d.IndirectCalls {
		c.IndirectCalls[k] = struct{}{}
	}
	return c
}

// JoinInto merges src into dst in place (dst := dst ⊔ src) and reports
// whether dst changed. The join is pointwise, idempotent, commutative and
// monotone: a key only gains information or rises to Top.
func (dst *MemoryAccessData) JoinInto(src *MemoryAccessData) bool {
	changed := false
	for k, sv := range src.Stores {
		prev, ok := dst.Stores[k]
		if !ok {
			dst.Stores[k] = sv
			changed = true
			continue
		}
		joined, diff := Join(prev, sv)
		if diff {
			dst.Stores[k] = joined
			changed = true
		}
	}
	changed = mergeSet(dst.StackStores, src.StackStores) || changed
	changed = mergeSet(dst.GlobalStores, src.GlobalStores) || changed
	changed = mergeSet(dst.ArgumentStores, src.ArgumentStores) || changed
	changed = mergeSet(dst.HeapStores, src.HeapStores) || changed
	changed = mergeSet(dst.UnknownStores, src.UnknownStores) || changed
	for k := range src.FunctionCalls {
		if _, ok := dst.FunctionCalls[k]; !ok {
			dst.FunctionCalls[k] = struct{}{}
			changed = true
		}
	}
	for k := range src.IndirectCalls {
		if _, ok := dst.IndirectCalls[k]; !ok {
			dst.IndirectCalls[k] = struct{}{}
			changed = true
		}
	}
	return changed
}

func mergeSet(dst, src map[ssa.Value]struct{}) bool {
	changed := false
	for k := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = struct{}{}
			changed = true
		}
	}
	return changed
}
