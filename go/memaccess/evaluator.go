// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memaccess

import (
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ssa"
)

// Evaluator is a recursive abstract evaluator over SSA values, dispatching
// by dynamic type exactly as go/ssa/sanity.go's own instruction-kind
// switch does. It is memoised by the cache embedded in the block state it
// is constructed over; load results are never cached because they depend
// on the mutable store.
type Evaluator struct {
	fn    *ssa.Function
	state *MemoryAccessData
}

// NewEvaluator returns an Evaluator for fn's values against state.
func NewEvaluator(fn *ssa.Function, state *MemoryAccessData) *Evaluator {
	return &Evaluator{fn: fn, state: state}
}

// Eval evaluates v to its abstract StoredValue.
func (e *Evaluator) Eval(v ssa.Value) StoredValue {
	if cached, ok := e.state.Temporaries[v]; ok {
		return cached
	}
	sv, cacheable := e.eval(v)
	if cacheable {
		e.state.Temporaries[v] = sv
	}
	return sv
}

func (e *Evaluator) eval(v ssa.Value) (StoredValue, bool) {
	switch x := v.(type) {
	case *ssa.Alloc:
		return StoredValue{Carrier: x, Kind: Stack}, true

	case *ssa.Global:
		return StoredValue{Carrier: x, Kind: Global}, true

	case *ssa.Parameter:
		if isPointer(x.Type()) {
			return StoredValue{Carrier: x, Kind: ArgumentKind}, true
		}
		return StoredValue{Carrier: x, Kind: Primitive}, true

	case *ssa.Const:
		return StoredValue{Carrier: x, Kind: ConstKind}, true

	case *ssa.UnOp:
		if x.Op == token.MUL { // load
			ptr := e.Eval(x.X)
			if sv, ok := e.state.Stores[ptr.Carrier]; ok {
				return sv, false
			}
			if isPointer(x.Type()) {
				return StoredValue{Carrier: x, Kind: Unknown}, false
			}
			return StoredValue{Carrier: x, Kind: Primitive}, false
		}
		// Other unary ops (negation, channel recv, etc.) behave like a
		// scalar/cast node: inherit constness from the operand.
		return e.evalUnary(x)

	case *ssa.FieldAddr:
		return e.evalGEP(x, x.X)

	case *ssa.IndexAddr:
		return e.evalGEPIdx(x, x.X, x.Index)

	case *ssa.ChangeType:
		return e.evalCast(x, x.X)

	case *ssa.Convert:
		return e.evalCast(x, x.X)

	case *ssa.MakeInterface:
		return e.evalCast(x, x.X)

	case *ssa.BinOp:
		return e.evalBinOp(x)

	case *ssa.Call:
		return e.evalCall(x), false

	default:
		return StoredValue{Carrier: v, Kind: Unknown}, false
	}
}

// evalUnary handles non-load unary operators (e.g. arithmetic negation)
// the same way a cast over a single operand is handled, except that it
// only ever produces Constant or Primitive, even for a channel receive
// whose element type is a pointer.
func (e *Evaluator) evalUnary(x *ssa.UnOp) (StoredValue, bool) {
	op := e.Eval(x.X)
	if op.Kind == ConstKind {
		return StoredValue{Carrier: x, Kind: ConstKind}, true
	}
	return StoredValue{Carrier: x, Kind: Primitive}, false
}

// evalGEP evaluates a field-offset (no index operand): the result
// inherits the pointer's kind since a field offset is always static.
func (e *Evaluator) evalGEP(instr ssa.Value, base ssa.Value) (StoredValue, bool) {
	b := e.Eval(base)
	return StoredValue{Carrier: instr, Kind: b.Kind}, true
}

// evalGEPIdx evaluates a pointer offset with a dynamic index: the result
// inherits the pointer's kind only when the index is itself a constant;
// otherwise the offset is dynamic and the kind collapses to Unknown.
func (e *Evaluator) evalGEPIdx(instr ssa.Value, base, index ssa.Value) (StoredValue, bool) {
	b := e.Eval(base)
	idx := e.Eval(index)
	if idx.Kind != ConstKind {
		return StoredValue{Carrier: instr, Kind: Unknown}, false
	}
	return StoredValue{Carrier: instr, Kind: b.Kind}, true
}

// evalCast handles pointer/non-pointer conversions, type changes, and
// interface boxing uniformly.
func (e *Evaluator) evalCast(instr ssa.Value, operand ssa.Value) (StoredValue, bool) {
	op := e.Eval(operand)
	resultIsPtr := isPointer(instr.Type())
	operandIsPtr := isPointer(operand.Type())

	cacheable := op.Kind == ConstKind
	if resultIsPtr {
		if operandIsPtr {
			return StoredValue{Carrier: instr, Kind: op.Kind}, cacheable
		}
		return StoredValue{Carrier: instr, Kind: Unknown}, false
	}
	if op.Kind == ConstKind {
		return StoredValue{Carrier: instr, Kind: ConstKind}, cacheable
	}
	return StoredValue{Carrier: instr, Kind: Primitive}, false
}

// evalBinOp handles binary arithmetic/comparison operators.
func (e *Evaluator) evalBinOp(x *ssa.BinOp) (StoredValue, bool) {
	l := e.Eval(x.X)
	r := e.Eval(x.Y)
	resultIsPtr := isPointer(x.Type())
	lIsPtr := isPointer(x.X.Type())
	rIsPtr := isPointer(x.Y.Type())
	bothConst := l.Kind == ConstKind && r.Kind == ConstKind

	if resultIsPtr {
		switch {
		case lIsPtr && !rIsPtr && r.Kind == ConstKind:
			return StoredValue{Carrier: x, Kind: l.Kind}, bothConst
		case rIsPtr && !lIsPtr && l.Kind == ConstKind:
			return StoredValue{Carrier: x, Kind: r.Kind}, bothConst
		default:
			return StoredValue{Carrier: x, Kind: Unknown}, false
		}
	}
	if bothConst {
		return StoredValue{Carrier: x, Kind: ConstKind}, true
	}
	return StoredValue{Carrier: x, Kind: Primitive}, false
}

// evalCall evaluates the abstract value of a call instruction's result:
// Heap for a recognised allocator, Top (Unknown) for everything else,
// including indirect calls.
func (e *Evaluator) evalCall(call *ssa.Call) StoredValue {
	if callee := call.Call.StaticCallee(); callee != nil && IsHeapAllocator(callee.Name()) {
		return StoredValue{Carrier: call, Kind: Heap}
	}
	return Top
}

func isPointer(t types.Type) bool {
	switch u := t.Underlying().(type) {
	case *types.Pointer:
		return true
	case *types.Basic:
		return u.Kind() == types.UnsafePointer
	}
	return false
}
