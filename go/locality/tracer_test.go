// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package locality

import (
	"testing"

	"github.com/omeranson/memlocality/internal/ssatest"
)

func hasEdge(edges []Edge, from, to string) bool {
	for _, e := range edges {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

// A load from a package-level global inside a callee should surface as
// an edge from the caller into the callee and from the callee to the
// "Global objects" sink.
func TestGlobalLoadEmitsGlobalObjectsSink(t *testing.T) {
	const src = `package p

var G int32

func k() {
	x := G
	_ = x
}

func main() {
	k()
}
`
	pkg := ssatest.Build(t, src)
	root := ssatest.Func(t, pkg, "main")

	tracer := NewTracer(nil, nil, nil)
	g := tracer.Trace(root)
	edges := g.Edges()

	if !hasEdge(edges, "main", "k") {
		t.Errorf("edges = %v, want main->k", edges)
	}
	if !hasEdge(edges, "k", SinkGlobalObjects) {
		t.Errorf("edges = %v, want k->%q", edges, SinkGlobalObjects)
	}
}

// A self-recursive function should emit an edge to the Recursion sink
// instead of descending forever.
func TestSelfRecursionEmitsRecursionSink(t *testing.T) {
	const src = `package p

func r(n int) {
	if n > 0 {
		r(n - 1)
	}
}
`
	pkg := ssatest.Build(t, src)
	root := ssatest.Func(t, pkg, "r")

	tracer := NewTracer(nil, nil, nil)
	g := tracer.Trace(root)
	edges := g.Edges()

	if !hasEdge(edges, "r", unknownSink(ReasonRecursion)) {
		t.Errorf("edges = %v, want r->%q", edges, unknownSink(ReasonRecursion))
	}
}
