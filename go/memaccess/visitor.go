// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memaccess

import (
	"sort"

	"golang.org/x/tools/go/ssa"
)

// Config holds the watermarks that bound the chaotic-iteration fixpoint
// and the summarisability predicate. The zero value is not valid; use
// DefaultConfig.
type Config struct {
	// VisitBlockCountWatermark bounds the total number of block visits
	// (not distinct blocks) performed by the chaotic iteration.
	VisitBlockCountWatermark int
	// ArgumentAccessWatermark bounds the number of distinct
	// argument-classified pointers a summarisable function may write.
	ArgumentAccessWatermark int
	// GlobalAccessWatermark bounds the number of distinct
	// global-classified pointers a summarisable function may write.
	GlobalAccessWatermark int
	// FunctionCallCountWatermark bounds the number of direct call sites
	// a summarisable function may contain.
	FunctionCallCountWatermark int
}

// DefaultConfig returns the default watermarks (10 for each).
func DefaultConfig() Config {
	return Config{
		VisitBlockCountWatermark:   10,
		ArgumentAccessWatermark:    10,
		GlobalAccessWatermark:      10,
		FunctionCallCountWatermark: 10,
	}
}

// MemoryAccessInstVisitor owns the chaotic-iteration fixpoint for one
// function and the resulting summary. It must not be run more than once.
type MemoryAccessInstVisitor struct {
	fn     *ssa.Function
	config Config

	states     map[*ssa.BasicBlock]*MemoryAccessData
	visitCount int
	enough     bool

	ran          bool
	summary      *MemoryAccessData
	summarisable bool
}

// NewMemoryAccessInstVisitor constructs a visitor for fn. Run performs
// only the intra-procedural fixpoint; inter-procedural call effects are
// applied afterwards by a SummaryCache against the resulting
// summary.
func NewMemoryAccessInstVisitor(fn *ssa.Function, config Config) *MemoryAccessInstVisitor {
	return &MemoryAccessInstVisitor{
		fn:     fn,
		config: config,
		states: make(map[*ssa.BasicBlock]*MemoryAccessData),
	}
}

// Function returns the function this visitor analyses.
func (v *MemoryAccessInstVisitor) Function() *ssa.Function { return v.fn }

// Run performs the intra-procedural chaotic-iteration fixpoint. It
// panics if called more than once on the same visitor: re-running would
// silently re-derive a summary from stale per-block state instead of
// signalling the caller's bug.
func (v *MemoryAccessInstVisitor) Run() {
	assert(!v.ran, "MemoryAccessInstVisitor.Run called twice for "+v.fn.String())
	v.ran = true

	if IsPredefined(v.fn.Name()) || len(v.fn.Blocks) == 0 {
		v.summary = NewMemoryAccessData()
		v.enough = true
		v.summarisable = false
		return
	}

	entry := v.fn.Blocks[0]
	v.states[entry] = NewMemoryAccessData()
	worklist := []*ssa.BasicBlock{entry}

	for len(worklist) > 0 {
		worklist = dedupeSortedByIndex(worklist)
		b := worklist[0]
		worklist = worklist[1:]

		v.visitCount++
		if v.visitCount > v.config.VisitBlockCountWatermark {
			v.enough = true
			break
		}

		st := v.states[b]
		v.processBlock(b, st)

		for _, s := range b.Succs {
			if existing, ok := v.states[s]; ok {
				if existing.JoinInto(st) {
					worklist = append(worklist, s)
				}
			} else {
				v.states[s] = st.Clone()
				worklist = append(worklist, s)
			}
		}
	}

	v.summary = v.exitState()
	v.summarisable = v.localSummarisable()
}

// exitState returns the MemoryAccessData of the function's last basic
// block by IR order: the summary is read at function scope from the
// exit block only, not joined across every visited block.
func (v *MemoryAccessInstVisitor) exitState() *MemoryAccessData {
	last := v.fn.Blocks[len(v.fn.Blocks)-1]
	if st, ok := v.states[last]; ok {
		return st
	}
	return NewMemoryAccessData()
}

// Blocks exposes the per-block states the fixpoint computed, supplementing
// the function-level summary with per-block detail for diagnostics.
func (v *MemoryAccessInstVisitor) Blocks() map[*ssa.BasicBlock]*MemoryAccessData {
	return v.states
}

// Summary returns the function-scope MemoryAccessData computed by Run.
func (v *MemoryAccessInstVisitor) Summary() *MemoryAccessData {
	if v.summary == nil {
		return NewMemoryAccessData()
	}
	return v.summary
}

// Enough reports whether the visit-block watermark was exceeded.
func (v *MemoryAccessInstVisitor) Enough() bool { return v.enough }

// IsSummarisable reports the local summarisability predicate computed
// after the intra-procedural fixpoint. The SummaryCache further ANDs this
// with the transitive summarisability of every direct callee.
func (v *MemoryAccessInstVisitor) IsSummarisable() bool { return v.summarisable }

// ForceNonSummarisable downgrades the visitor's summarisability, used by
// the SummaryCache when a callee is found non-summarisable.
func (v *MemoryAccessInstVisitor) ForceNonSummarisable() { v.summarisable = false }

func (v *MemoryAccessInstVisitor) localSummarisable() bool {
	if v.enough {
		return false
	}
	s := v.summary
	if len(s.IndirectCalls) > 0 {
		return false
	}
	if len(s.UnknownStores) > 0 {
		return false
	}
	if len(s.HeapStores) > 0 {
		return false
	}
	for k := range s.ArgumentStores {
		if _, ok := k.(*ssa.Parameter); !ok {
			return false
		}
	}
	if len(s.ArgumentStores) > v.config.ArgumentAccessWatermark {
		return false
	}
	if len(s.GlobalStores) > v.config.GlobalAccessWatermark {
		return false
	}
	if len(s.FunctionCalls) > v.config.FunctionCallCountWatermark {
		return false
	}
	return true
}

// processBlock updates st in place with the effects of every instruction
// in b: stores update the abstract store and classification sets, and
// direct and indirect calls are recorded. The inter-procedural join over
// the recorded direct calls is applied later by a SummaryCache.
func (v *MemoryAccessInstVisitor) processBlock(b *ssa.BasicBlock, st *MemoryAccessData) {
	if v.enough {
		return
	}
	eval := NewEvaluator(v.fn, st)
	for _, instr := range b.Instrs {
		switch x := instr.(type) {
		case *ssa.Store:
			v.handleStore(eval, st, x)
		case *ssa.DebugRef:
			// Debug-info intrinsics carry no memory effect.
		case ssa.CallInstruction:
			v.handleCall(st, x)
		}
	}
}

func (v *MemoryAccessInstVisitor) handleStore(eval *Evaluator, st *MemoryAccessData, x *ssa.Store) {
	sp := eval.Eval(x.Addr)
	sv := eval.Eval(x.Val)
	// A Top pointer (nil carrier) is still recorded, under the nil key,
	// in UnknownStores.
	st.Store(sp.Carrier, sp.Kind, sv)
}

func (v *MemoryAccessInstVisitor) handleCall(st *MemoryAccessData, call ssa.CallInstruction) {
	if call.Common().StaticCallee() != nil {
		st.FunctionCalls[call] = struct{}{}
	} else {
		st.IndirectCalls[call] = struct{}{}
	}
}

func dedupeSortedByIndex(blocks []*ssa.BasicBlock) []*ssa.BasicBlock {
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Index < blocks[j].Index })
	out := blocks[:0:0]
	var last *ssa.BasicBlock
	for _, b := range blocks {
		if b == last {
			continue
		}
		out = append(out, b)
		last = b
	}
	return out
}

func assert(p bool, msg string) {
	if !p {
		panic(msg)
	}
}
