// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package locality

import (
	"go/token"

	"golang.org/x/tools/go/ssa"
)

// WorkQueueItem is one in-flight per-function locality visitor on the
// tracer's stack: the function being walked, the chain of ancestors
// (used to break recursion), and the actual-argument sources bound by
// the call site that pushed it (empty for the root).
type WorkQueueItem struct {
	Function        *ssa.Function
	CallerSet       map[*ssa.Function]bool
	ArgumentSources map[*ssa.Parameter]PointerSource
}

// descend returns the WorkQueueItem for calling callee from item, or
// ok=false if callee is item's own function or already an ancestor (a
// recursive call).
func (item WorkQueueItem) descend(callee *ssa.Function, args map[*ssa.Parameter]PointerSource) (WorkQueueItem, bool) {
	if callee == item.Function || item.CallerSet[callee] {
		return WorkQueueItem{}, false
	}
	next := make(map[*ssa.Function]bool, len(item.CallerSet)+1)
	for f := range item.CallerSet {
		next[f] = true
	}
	next[item.Function] = true
	return WorkQueueItem{Function: callee, CallerSet: next, ArgumentSources: args}, true
}

// Tracer performs the depth-first module-level locality traversal:
// starting from a root function, it walks each function's instructions
// in program order, calling PointerSourceEvaluator at every memory
// access and recording an edge in the result Graph, descending into
// direct callees and refusing to re-enter an ancestor.
type Tracer struct {
	memdep     MemoryDependence
	allocators AllocatorIdentifier
	graph      *Graph
	diag       func(pos token.Pos, format string, args ...interface{})
}

// NewTracer builds a Tracer. memdep and allocators are the host-provided
// alias-analysis and allocator-identification services; diag may be nil
// to discard diagnostics.
func NewTracer(memdep MemoryDependence, allocators AllocatorIdentifier, diag func(pos token.Pos, format string, args ...interface{})) *Tracer {
	if memdep == nil {
		memdep = LocalMemoryDependence{}
	}
	if allocators == nil {
		allocators = DefaultAllocatorIdentifier{}
	}
	if diag == nil {
		diag = func(token.Pos, string, ...interface{}) {}
	}
	return &Tracer{memdep: memdep, allocators: allocators, diag: diag}
}

// Trace runs the traversal from root and returns the resulting locality
// graph.
func (t *Tracer) Trace(root *ssa.Function) *Graph {
	t.graph = NewGraph()
	item := WorkQueueItem{Function: root, CallerSet: map[*ssa.Function]bool{}}
	t.visit(item)
	return t.graph
}

func (t *Tracer) visit(item WorkQueueItem) {
	fn := item.Function
	if fn == nil || len(fn.Blocks) == 0 {
		return
	}
	eval := NewPointerSourceEvaluator(fn, t.memdep, t.allocators, item.ArgumentSources, t.diag)
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			t.step(item, eval, instr)
		}
	}
}

func (t *Tracer) step(item WorkQueueItem, eval *PointerSourceEvaluator, instr ssa.Instruction) {
	switch x := instr.(type) {
	case *ssa.Store:
		t.emitAccess(item, eval, x.Addr)
	case *ssa.UnOp:
		if x.Op == token.MUL {
			t.emitAccess(item, eval, x.X)
		}
	case ssa.CallInstruction:
		t.handleCall(item, eval, x)
	}
}

func (t *Tracer) emitAccess(item WorkQueueItem, eval *PointerSourceEvaluator, ptr ssa.Value) {
	src := eval.Eval(ptr)
	dst := t.destinationFor(item.Function, src)
	if dst == "" {
		return
	}
	t.graph.AddEdge(item.Function.Name(), dst)
}

// destinationFor maps a resolved PointerSource to an edge destination.
// An empty string means no edge is emitted (Primitive or Local sources
// carry no cross-function locality information).
func (t *Tracer) destinationFor(fn *ssa.Function, src PointerSource) string {
	switch src.Kind {
	case SourcePrimitive, SourceLocal:
		return ""
	case SourceGlobal:
		return SinkGlobalObjects
	case SourceArgument:
		return SinkUnevaluatedArgument
	case SourceFunction:
		return src.Function
	default:
		return unknownSink(ReasonPointerEvaluation)
	}
}

// handleCall emits the call-graph edge for a direct or indirect call and,
// for direct calls that do not re-enter an ancestor, descends into the
// callee. This edge represents the call itself (control transfer into
// callee's frame); it is distinct from PointerSourceEvaluator's own
// call-result dispatch, used when a call's return value is later
// evaluated as a pointer source (which applies the allocator-owner
// override).
func (t *Tracer) handleCall(item WorkQueueItem, eval *PointerSourceEvaluator, call ssa.CallInstruction) {
	common := call.Common()
	callee := common.StaticCallee()
	if callee == nil {
		t.graph.AddEdge(item.Function.Name(), unknownSink(ReasonIndirectCall))
		return
	}
	t.graph.AddEdge(item.Function.Name(), callee.Name())
	next, ok := item.descend(callee, actualArgumentSources(eval, callee, common.Args))
	if !ok {
		t.graph.AddEdge(item.Function.Name(), unknownSink(ReasonRecursion))
		return
	}
	t.visit(next)
}

// actualArgumentSources resolves each of callee's formal parameters to
// the PointerSource of the corresponding actual argument, as seen by
// eval (the caller's own PointerSourceEvaluator).
func actualArgumentSources(eval *PointerSourceEvaluator, callee *ssa.Function, args []ssa.Value) map[*ssa.Parameter]PointerSource {
	sources := make(map[*ssa.Parameter]PointerSource, len(callee.Params))
	for i, param := range callee.Params {
		if i >= len(args) {
			break
		}
		sources[param] = eval.Eval(args[i])
	}
	return sources
}
