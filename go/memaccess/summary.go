// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memaccess

import "golang.org/x/tools/go/ssa"

// FunctionSummary is the externally visible result of analysing one
// function: its exit-reachable MemoryAccessData plus the derived
// summarisability verdict.
type FunctionSummary struct {
	Function       *ssa.Function
	Data           *MemoryAccessData
	IsSummarisable bool
}

// SummaryOf snapshots v's result. v.Run must have already been called
// (directly, or via a SummaryCache).
func SummaryOf(v *MemoryAccessInstVisitor) FunctionSummary {
	return FunctionSummary{
		Function:       v.Function(),
		Data:           v.Summary(),
		IsSummarisable: v.IsSummarisable(),
	}
}

// Analyze runs the classifier for every function in funcs and
// returns each one's summary, keyed by function. It is the module-level
// entry point a go/analysis.Analyzer calls into (see
// go/analysis/passes/memaccess).
func Analyze(funcs []*ssa.Function, config Config) (map[*ssa.Function]FunctionSummary, *SummaryCache) {
	cache := NewSummaryCache(config)
	out := make(map[*ssa.Function]FunctionSummary, len(funcs))
	for _, fn := range funcs {
		v := cache.GetVisitor(fn)
		out[fn] = SummaryOf(v)
	}
	return out, cache
}
