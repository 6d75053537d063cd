// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package locality

import (
	"go/token"

	"golang.org/x/tools/go/ssa"
)

// PHIDepthWatermark bounds recursion into a PHI's incoming values, to
// prevent blow-up on cyclic PHIs.
const PHIDepthWatermark = 10

// PointerSourceEvaluator resolves an SSA value reached while tracing
// memory accesses in fn to an abstract PointerSource. It is
// single-dispatch and recursive, mirroring
// the shape of memaccess.Evaluator but over the PointerSource domain
// instead of the StoredValue domain.
type PointerSourceEvaluator struct {
	fn         *ssa.Function
	memdep     MemoryDependence
	allocators AllocatorIdentifier
	// boundSources maps fn's own parameters to the source bound by the
	// work item that pushed fn onto the tracer's stack. An empty map
	// means fn's arguments resolve to raw Argument sources (the root, or
	// any function traced without bound actual-argument sources).
	boundSources map[*ssa.Parameter]PointerSource
	diag         func(pos token.Pos, format string, args ...interface{})
}

// NewPointerSourceEvaluator builds an evaluator for fn. diag receives
// diagnostics for indirect calls, depth-limited phis, and unresolved
// loads; it may be nil to discard them.
func NewPointerSourceEvaluator(fn *ssa.Function, memdep MemoryDependence, allocators AllocatorIdentifier, boundSources map[*ssa.Parameter]PointerSource, diag func(pos token.Pos, format string, args ...interface{})) *PointerSourceEvaluator {
	if diag == nil {
		diag = func(token.Pos, string, ...interface{}) {}
	}
	return &PointerSourceEvaluator{
		fn:           fn,
		memdep:       memdep,
		allocators:   allocators,
		boundSources: boundSources,
		diag:         diag,
	}
}

// Eval resolves v to a PointerSource.
func (e *PointerSourceEvaluator) Eval(v ssa.Value) PointerSource {
	return e.eval(v, 0)
}

func (e *PointerSourceEvaluator) eval(v ssa.Value, phiDepth int) PointerSource {
	switch x := v.(type) {
	case *ssa.Alloc:
		return PointerSource{Kind: SourceLocal, Local: e.fn.Name()}
	case *ssa.Global:
		return PointerSource{Kind: SourceGlobal, Global: x.Name()}
	case *ssa.Parameter:
		return e.evalParameter(x)
	case *ssa.FieldAddr:
		return e.eval(x.X, phiDepth)
	case *ssa.IndexAddr:
		return e.eval(x.X, phiDepth)
	case *ssa.ChangeType:
		return e.eval(x.X, phiDepth)
	case *ssa.Convert:
		return e.eval(x.X, phiDepth)
	case *ssa.MakeInterface:
		return e.eval(x.X, phiDepth)
	case *ssa.Call:
		return e.evalCall(x)
	case *ssa.UnOp:
		if x.Op == token.MUL {
			return e.evalLoad(x, phiDepth)
		}
		return PointerSource{Kind: SourceUnknown}
	case *ssa.Phi:
		return e.evalPhi(x, phiDepth)
	case *ssa.Const:
		if x.IsNil() {
			return PointerSource{Kind: SourceGlobal, Global: "null"}
		}
		return PointerSource{Kind: SourcePrimitive}
	default:
		e.diag(v.Pos(), "locality: unresolved pointer source %v, treating as Unknown", v)
		return PointerSource{Kind: SourceUnknown}
	}
}

func (e *PointerSourceEvaluator) evalParameter(p *ssa.Parameter) PointerSource {
	if len(e.boundSources) == 0 {
		return PointerSource{Kind: SourceArgument, Argument: p}
	}
	src, ok := e.boundSources[p]
	if !ok {
		return PointerSource{Kind: SourceArgument, Argument: p}
	}
	if src.Kind == SourceLocal {
		return PointerSource{Kind: SourceFunction, Function: src.Local}
	}
	return src
}

func (e *PointerSourceEvaluator) evalCall(call *ssa.Call) PointerSource {
	callee := call.Call.StaticCallee()
	if callee == nil {
		e.diag(call.Pos(), "locality: indirect call %v, treating as Unknown", call)
		return PointerSource{Kind: SourceUnknown}
	}
	if e.allocators.IsAllocator(callee.Name()) {
		return PointerSource{Kind: SourceFunction, Function: e.fn.Name()}
	}
	return PointerSource{Kind: SourceFunction, Function: callee.Name()}
}

func (e *PointerSourceEvaluator) evalLoad(load *ssa.UnOp, phiDepth int) PointerSource {
	dep := e.memdep.DependencyFor(load)
	if dep.Kind == DepDef {
		switch def := dep.Inst.(type) {
		case *ssa.Store:
			return e.eval(def.Val, phiDepth)
		case *ssa.UnOp:
			return e.eval(def, phiDepth)
		}
	}
	if src := e.eval(load.X, phiDepth); src.Kind != SourceUnknown {
		return src
	}
	for _, bd := range e.memdep.NonLocalDependencies(load) {
		if bd.Dependency.Kind != DepDef {
			continue
		}
		switch def := bd.Dependency.Inst.(type) {
		case *ssa.Store:
			if src := e.eval(def.Val, phiDepth); src.Kind != SourceUnknown {
				return src
			}
		case *ssa.UnOp:
			if src := e.eval(def, phiDepth); src.Kind != SourceUnknown {
				return src
			}
		}
	}
	e.diag(load.Pos(), "locality: load dependency for %v did not resolve", load)
	return PointerSource{Kind: SourceUnknown}
}

func (e *PointerSourceEvaluator) evalPhi(phi *ssa.Phi, phiDepth int) PointerSource {
	if phiDepth >= PHIDepthWatermark {
		e.diag(phi.Pos(), "locality: phi %v reached depth watermark %d", phi, PHIDepthWatermark)
		return PointerSource{Kind: SourceUnknown}
	}
	for _, edge := range phi.Edges {
		if src := e.eval(edge, phiDepth+1); src.Kind != SourceUnknown {
			return src
		}
	}
	return PointerSource{Kind: SourceUnknown}
}
