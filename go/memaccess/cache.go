// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memaccess

import (
	"golang.org/x/tools/go/ssa"
)

// Cache resolves a function to its (possibly freshly computed) visitor.
// It is the interface a caller consults when it needs a callee's summary;
// SummaryCache is the only implementation, but tests may supply a fake one.
type Cache interface {
	GetVisitor(fn *ssa.Function) *MemoryAccessInstVisitor
}

// SummaryCache lazily computes and caches per-function summaries and
// inlines each function's direct callees' effects into it. It is not
// safe for concurrent use: a module pass owns one SummaryCache for the
// duration of its run.
type SummaryCache struct {
	config   Config
	visitors map[*ssa.Function]*MemoryAccessInstVisitor
	order    []*ssa.Function
}

// NewSummaryCache returns an empty cache using the given watermarks for
// every function it analyses.
func NewSummaryCache(config Config) *SummaryCache {
	return &SummaryCache{
		config:   config,
		visitors: make(map[*ssa.Function]*MemoryAccessInstVisitor),
	}
}

// Functions returns every function analysed so far, in the order each
// was first requested, for deterministic whole-module reporting.
func (c *SummaryCache) Functions() []*ssa.Function {
	out := make([]*ssa.Function, len(c.order))
	copy(out, c.order)
	return out
}

// GetVisitor returns fn's visitor, computing it (and recursively, any
// callee it needs) if this is the first request. The visitor is inserted
// into the cache before analysis runs, so a call cycle reaching back to fn
// observes fn's partial, in-progress summary rather than recursing forever.
func (c *SummaryCache) GetVisitor(fn *ssa.Function) *MemoryAccessInstVisitor {
	if v, ok := c.visitors[fn]; ok {
		return v
	}
	v := NewMemoryAccessInstVisitor(fn, c.config)
	c.visitors[fn] = v
	c.order = append(c.order, fn)

	v.Run()
	c.applyInterproceduralJoin(v)
	return v
}

// applyInterproceduralJoin performs the inter-procedural merge of every direct callee's
// effects into v's summary.
func (c *SummaryCache) applyInterproceduralJoin(v *MemoryAccessInstVisitor) {
	if IsPredefined(v.Function().Name()) {
		return
	}
	summary := v.Summary()
	eval := NewEvaluator(v.Function(), summary)

	for callInstr := range summary.FunctionCalls {
		callee := callInstr.Common().StaticCallee()
		if callee == nil {
			continue
		}
		if IsPredefined(callee.Name()) {
			v.ForceNonSummarisable()
			continue
		}

		calleeVisitor := c.GetVisitor(callee)
		calleeSummary := calleeVisitor.Summary()

		foldDirect := func(key ssa.Value, kind Kind) {
			if sv, ok := calleeSummary.Stores[key]; ok {
				summary.Store(key, kind, sv)
				return
			}
			summary.Classify(key, kind)
		}
		for g := range calleeSummary.GlobalStores {
			foldDirect(g, Global)
		}
		for h := range calleeSummary.HeapStores {
			foldDirect(h, Unknown)
		}
		for u := range calleeSummary.UnknownStores {
			foldDirect(u, Unknown)
		}

		args := callInstr.Common().Args
		for k := range calleeSummary.ArgumentStores {
			param, ok := k.(*ssa.Parameter)
			if !ok {
				summary.UnknownStores[k] = struct{}{}
				continue
			}
			actual := actualArgFor(callee, param, args)
			if actual == nil {
				summary.UnknownStores[k] = struct{}{}
				continue
			}
			sv := eval.Eval(actual)
			if sv.IsTop() {
				summary.UnknownStores[k] = struct{}{}
				continue
			}
			summary.Classify(sv.Carrier, sv.Kind)
			if calleeStored, ok := calleeSummary.Stores[k]; ok {
				summary.Store(sv.Carrier, sv.Kind, calleeStored)
			}
		}

		if !calleeVisitor.IsSummarisable() {
			v.ForceNonSummarisable()
		}
	}
}

// actualArgFor returns the actual argument passed for callee's formal
// parameter param at a call site with the given argument list, or nil if
// param is not one of callee's parameters.
func actualArgFor(callee *ssa.Function, param *ssa.Parameter, args []ssa.Value) ssa.Value {
	for i, p := range callee.Params {
		if p == param {
			if i < len(args) {
				return args[i]
			}
			return nil
		}
	}
	return nil
}
