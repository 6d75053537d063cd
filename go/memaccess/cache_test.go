// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memaccess

import (
	"testing"
	"time"

	"github.com/omeranson/memlocality/internal/ssatest"
)

// Calling g(&G) where g stores through its pointer argument promotes
// the callee's argument-store to the caller's global-store once the
// actual argument (a global) is resolved by the inter-procedural join.
func TestInterproceduralJoinPromotesArgumentToGlobal(t *testing.T) {
	const src = `package p

var G int32

func g(p *int32) {
	*p = 7
}

func caller() {
	g(&G)
}
`
	pkg := ssatest.Build(t, src)
	fn := ssatest.Func(t, pkg, "caller")

	cache := NewSummaryCache(DefaultConfig())
	v := cache.GetVisitor(fn)
	s := SummaryOf(v)

	if len(s.Data.GlobalStores) != 1 {
		t.Fatalf("caller GlobalStores = %d entries, want 1", len(s.Data.GlobalStores))
	}
	if len(s.Data.ArgumentStores) != 0 {
		t.Errorf("caller ArgumentStores = %d entries, want 0 (promoted to global)", len(s.Data.ArgumentStores))
	}
}

// A callee that writes directly to a global (not through a forwarded
// pointer argument) must have that write's stored value folded into the
// caller's Stores map, not just the classification set.
func TestInterproceduralJoinFoldsCalleeDirectGlobalStore(t *testing.T) {
	const src = `package p

var G int32

func g() {
	G = 7
}

func caller() {
	g()
}
`
	pkg := ssatest.Build(t, src)
	fn := ssatest.Func(t, pkg, "caller")
	global := pkg.Var("G")
	if global == nil {
		t.Fatal("no global G in fixture package")
	}

	cache := NewSummaryCache(DefaultConfig())
	v := cache.GetVisitor(fn)
	s := SummaryOf(v)

	if _, ok := s.Data.GlobalStores[global]; !ok {
		t.Fatalf("caller GlobalStores does not contain G")
	}
	sv, ok := s.Data.Stores[global]
	if !ok {
		t.Fatalf("caller Stores has no entry for G, want the callee's folded value")
	}
	if sv.IsTop() {
		t.Errorf("caller Stores[G] = Top, want the callee's stored constant folded in")
	}
	if sv.Kind != ConstKind {
		t.Errorf("caller Stores[G].Kind = %v, want ConstKind", sv.Kind)
	}
}

func TestSelfRecursionYieldsPartialSummaryAndTerminates(t *testing.T) {
	const src = `package p

func r(n int) {
	if n > 0 {
		r(n - 1)
	}
}
`
	pkg := ssatest.Build(t, src)
	fn := ssatest.Func(t, pkg, "r")

	cache := NewSummaryCache(DefaultConfig())
	done := make(chan FunctionSummary, 1)
	go func() {
		v := cache.GetVisitor(fn)
		done <- SummaryOf(v)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("GetVisitor on a self-recursive function did not terminate")
	}
}
