// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memaccess defines an Analyzer that runs the pointer-write
// classifier (github.com/omeranson/memlocality/go/memaccess) over the
// SSA form buildssa provides, and reports every source function with a
// body that the classifier finds non-summarisable.
package memaccess

import (
	"reflect"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"
	"golang.org/x/tools/go/ssa"

	"github.com/omeranson/memlocality/go/memaccess"
)

var Analyzer = &analysis.Analyzer{
	Name:       "memaccess",
	Doc:        "classify pointer-write origins (stack/global/argument/heap/unknown) per function",
	URL:        "https://pkg.go.dev/github.com/omeranson/memlocality/go/analysis/passes/memaccess",
	Run:        run,
	Requires:   []*analysis.Analyzer{buildssa.Analyzer},
	ResultType: reflect.TypeOf((*Result)(nil)),
}

// Result is the pass's externally visible output: one FunctionSummary
// per source function, keyed by *ssa.Function, plus the cache that
// produced them.
type Result struct {
	Summaries map[*ssa.Function]memaccess.FunctionSummary
	Cache     *memaccess.SummaryCache
}

func run(pass *analysis.Pass) (any, error) {
	ssaInput := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)
	config := memaccess.DefaultConfig()
	summaries, cache := memaccess.Analyze(ssaInput.SrcFuncs, config)

	for _, fn := range ssaInput.SrcFuncs {
		s, ok := summaries[fn]
		if !ok || s.IsSummarisable {
			continue
		}
		if fn.Syntax() == nil || len(fn.Blocks) == 0 {
			continue
		}
		pass.Reportf(fn.Pos(), "%s performs an unclassifiable memory write and is not summarisable", fn.Name())
	}

	return &Result{Summaries: summaries, Cache: cache}, nil
}
