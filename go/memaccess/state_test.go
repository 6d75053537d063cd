// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memaccess

import (
	"testing"

	"golang.org/x/tools/go/ssa"
)

// fakeValues returns n distinct ssa.Value identities (all *ssa.Alloc); only
// pointer identity matters to MemoryAccessData, never the concrete type.
func fakeValues(n int) []ssa.Value {
	out := make([]ssa.Value, n)
	for i := range out {
		out[i] = new(ssa.Alloc)
	}
	return out
}

func TestStoreClassificationConsistency(t *testing.T) {
	d := NewMemoryAccessData()
	vs := fakeValues(1)
	d.Store(vs[0], Stack, StoredValue{Kind: ConstKind})

	for _, set := range []map[ssa.Value]struct{}{
		d.StackStores, d.GlobalStores, d.ArgumentStores, d.HeapStores, d.UnknownStores,
	} {
		for k := range set {
			if _, ok := d.Stores[k]; !ok {
				t.Errorf("key %v in a classification set but absent from Stores", k)
			}
		}
	}
}

func TestClassificationDisjoint(t *testing.T) {
	d := NewMemoryAccessData()
	vs := fakeValues(3)
	d.Classify(vs[0], Stack)
	d.Classify(vs[1], Global)
	d.Classify(vs[2], Heap)

	seen := map[ssa.Value]int{}
	for _, set := range []map[ssa.Value]struct{}{
		d.StackStores, d.GlobalStores, d.ArgumentStores, d.HeapStores, d.UnknownStores,
	} {
		for k := range set {
			seen[k]++
		}
	}
	for k, n := range seen {
		if n > 1 {
			t.Errorf("key %v appears in %d classification sets, want at most 1", k, n)
		}
	}
}

func TestTopAbsorption(t *testing.T) {
	d := NewMemoryAccessData()
	vs := fakeValues(1)
	c1 := StoredValue{Kind: ConstKind, Carrier: vs[0]}
	c2 := StoredValue{Kind: Primitive, Carrier: vs[0]}

	d.Store(vs[0], Stack, c1)
	if got := d.Stores[vs[0]]; !got.Equal(c1) {
		t.Fatalf("after first store, Stores[v] = %v, want %v", got, c1)
	}
	d.Store(vs[0], Stack, c2)
	if got := d.Stores[vs[0]]; !got.IsTop() {
		t.Errorf("after unequal re-store, Stores[v] = %v, want Top", got)
	}
}

func TestJoinIntoMonotone(t *testing.T) {
	a := NewMemoryAccessData()
	b := NewMemoryAccessData()
	vs := fakeValues(2)
	a.Store(vs[0], Stack, StoredValue{Kind: ConstKind})
	b.Store(vs[1], Global, StoredValue{Kind: Primitive})

	changed := a.JoinInto(b)
	if !changed {
		t.Fatalf("JoinInto reported no change after merging disjoint state")
	}
	if _, ok := a.Stores[vs[1]]; !ok {
		t.Errorf("JoinInto did not bring in b's key")
	}
	if _, ok := a.GlobalStores[vs[1]]; !ok {
		t.Errorf("JoinInto did not bring in b's classification")
	}

	// Idempotent: joining again changes nothing further.
	if changed2 := a.JoinInto(b); changed2 {
		t.Errorf("second JoinInto with same input reported changed")
	}
}

func TestJoinIntoCommutative(t *testing.T) {
	vs := fakeValues(2)
	mk := func() (*MemoryAccessData, *MemoryAccessData) {
		a := NewMemoryAccessData()
		b := NewMemoryAccessData()
		a.Store(vs[0], Stack, StoredValue{Kind: ConstKind})
		b.Store(vs[1], Global, StoredValue{Kind: Primitive})
		return a, b
	}

	a, b := mk()
	a.JoinInto(b)

	c, d := mk()
	d.JoinInto(c)

	if len(a.Stores) != len(d.Stores) {
		t.Errorf("join not commutative in size: %d vs %d", len(a.Stores), len(d.Stores))
	}
}
