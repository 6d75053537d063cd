// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memaccess

import (
	"testing"

	"github.com/omeranson/memlocality/internal/ssatest"
	"golang.org/x/tools/go/ssa"
)

func run(t *testing.T, src, fn string) FunctionSummary {
	t.Helper()
	pkg := ssatest.Build(t, src)
	f := ssatest.Func(t, pkg, fn)
	v := NewMemoryAccessInstVisitor(f, DefaultConfig())
	v.Run()
	return SummaryOf(v)
}

// An alloca plus a constant store is summarisable, classified Stack.
func TestAllocaConstantStoreIsStackSummarisable(t *testing.T) {
	const src = `package p

func allocaConst() {
	var a int32
	a = 7
	_ = a
}
`
	s := run(t, src, "allocaConst")
	if len(s.Data.StackStores) != 1 {
		t.Fatalf("StackStores = %d entries, want 1", len(s.Data.StackStores))
	}
	for ptr, sv := range s.Data.Stores {
		_ = ptr
		if sv.Kind != ConstKind {
			t.Errorf("stored value kind = %v, want Constant", sv.Kind)
		}
	}
	if !s.IsSummarisable {
		t.Errorf("IsSummarisable = false, want true")
	}
	if len(s.Data.FunctionCalls) != 0 || len(s.Data.IndirectCalls) != 0 {
		t.Errorf("expected no calls, got direct=%d indirect=%d", len(s.Data.FunctionCalls), len(s.Data.IndirectCalls))
	}
}

// Storing through an incoming pointer argument is summarisable,
// classified Argument.
func TestArgumentPointerStoreIsSummarisable(t *testing.T) {
	const src = `package p

func storeThroughArg(p *int32) {
	*p = 7
}
`
	s := run(t, src, "storeThroughArg")
	if len(s.Data.ArgumentStores) != 1 {
		t.Fatalf("ArgumentStores = %d entries, want 1", len(s.Data.ArgumentStores))
	}
	for ptr := range s.Data.ArgumentStores {
		if _, ok := ptr.(*ssa.Parameter); !ok {
			t.Errorf("argument-classified pointer %v is not an *ssa.Parameter", ptr)
		}
	}
	if !s.IsSummarisable {
		t.Errorf("IsSummarisable = false, want true")
	}
}

// A store through a malloc result is classified Heap and disqualifies
// summarisability.
func TestHeapStoreDisqualifiesSummarisability(t *testing.T) {
	const src = `package p

func malloc(n int) *byte { return nil }

func storeThroughHeap() {
	m := malloc(16)
	*m = 0
}
`
	s := run(t, src, "storeThroughHeap")
	if len(s.Data.HeapStores) != 1 {
		t.Fatalf("HeapStores = %d entries, want 1", len(s.Data.HeapStores))
	}
	if s.IsSummarisable {
		t.Errorf("IsSummarisable = true, want false (heap stores disqualify)")
	}
}

// Storing through a pointer loaded from a global whose value was not
// itself established in this block classifies Unknown and disqualifies
// summarisability.
func TestUnresolvedLoadedPointerIsUnknown(t *testing.T) {
	const src = `package p

var G *int32

func storeThroughUnresolvedLoad() {
	q := G
	*q = 0
}
`
	s := run(t, src, "storeThroughUnresolvedLoad")
	if len(s.Data.UnknownStores) != 1 {
		t.Fatalf("UnknownStores = %d entries, want 1", len(s.Data.UnknownStores))
	}
	if s.IsSummarisable {
		t.Errorf("IsSummarisable = true, want false (unknown stores disqualify)")
	}
}

// Predefined/intrinsic functions short-circuit to an empty,
// non-summarisable summary.
func TestIntrinsicShortCircuit(t *testing.T) {
	const src = `package p

func exit(code int) {
	for {
	}
}
`
	s := run(t, src, "exit")
	if len(s.Data.Stores) != 0 {
		t.Errorf("intrinsic summary has %d stores, want 0", len(s.Data.Stores))
	}
	if s.IsSummarisable {
		t.Errorf("IsSummarisable = true for intrinsic, want false")
	}
}

// A function with few enough blocks converges and produces a
// stable summary on repeated analysis (fresh visitor each time, since a
// visitor cannot be re-run).
func TestConvergenceIsDeterministic(t *testing.T) {
	const src = `package p

func branchy(x bool) int32 {
	var a int32
	if x {
		a = 1
	} else {
		a = 2
	}
	return a
}
`
	pkg := ssatest.Build(t, src)
	f := ssatest.Func(t, pkg, "branchy")

	first := func() FunctionSummary {
		v := NewMemoryAccessInstVisitor(f, DefaultConfig())
		v.Run()
		return SummaryOf(v)
	}
	a := first()
	b := first()

	if len(a.Data.StackStores) != len(b.Data.StackStores) {
		t.Fatalf("non-deterministic StackStores size: %d vs %d", len(a.Data.StackStores), len(b.Data.StackStores))
	}
	if a.IsSummarisable != b.IsSummarisable {
		t.Errorf("non-deterministic IsSummarisable: %v vs %v", a.IsSummarisable, b.IsSummarisable)
	}
}

func TestRunTwicePanics(t *testing.T) {
	const src = `package p

func once() {
	var a int32
	a = 1
	_ = a
}
`
	pkg := ssatest.Build(t, src)
	f := ssatest.Func(t, pkg, "once")
	v := NewMemoryAccessInstVisitor(f, DefaultConfig())
	v.Run()

	defer func() {
		if recover() == nil {
			t.Errorf("second Run did not panic")
		}
	}()
	v.Run()
}
