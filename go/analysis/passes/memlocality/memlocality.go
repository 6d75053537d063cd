// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memlocality defines an Analyzer that runs the module-level
// locality tracer (github.com/omeranson/memlocality/go/locality) over
// the SSA form buildssa provides, rooted at the package's main function
// (or, absent one, every source function), and reports the synthetic
// "Unknown locality" edges it could not resolve.
package memlocality

import (
	"go/token"
	"reflect"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"
	"golang.org/x/tools/go/ssa"

	"github.com/omeranson/memlocality/go/locality"
)

var Analyzer = &analysis.Analyzer{
	Name:       "memlocality",
	Doc:        "trace the module-level memory locality graph from main (or every source function)",
	URL:        "https://pkg.go.dev/github.com/omeranson/memlocality/go/analysis/passes/memlocality",
	Run:        run,
	Requires:   []*analysis.Analyzer{buildssa.Analyzer},
	ResultType: reflect.TypeOf((*Result)(nil)),
}

// Result is the pass's externally visible output: the union of the
// locality graphs traced from each root.
type Result struct {
	Graph *locality.Graph
}

func run(pass *analysis.Pass) (any, error) {
	ssaInput := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)

	tracer := locality.NewTracer(nil, nil, func(pos token.Pos, format string, args ...interface{}) {
		pass.Reportf(pos, format, args...)
	})
	graph := locality.NewGraph()

	for _, root := range roots(ssaInput) {
		for _, e := range tracer.Trace(root).Edges() {
			graph.AddEdge(e.From, e.To)
		}
	}

	byName := make(map[string]*ssa.Function, len(ssaInput.SrcFuncs))
	for _, fn := range ssaInput.SrcFuncs {
		byName[fn.Name()] = fn
	}

	for _, e := range graph.Edges() {
		if !strings.HasPrefix(e.To, "Unknown locality") {
			continue
		}
		fn, ok := byName[e.From]
		if !ok {
			continue
		}
		pass.Reportf(fn.Pos(), "%s -> %s", e.From, e.To)
	}

	return &Result{Graph: graph}, nil
}

// roots returns the package's main function if present, else every
// source function is traced independently, in lieu of a call-graph
// construction input to pick a single non-main root.
func roots(ssaInput *buildssa.SSA) []*ssa.Function {
	for _, fn := range ssaInput.SrcFuncs {
		if fn.Name() == "main" {
			return []*ssa.Function{fn}
		}
	}
	return ssaInput.SrcFuncs
}
