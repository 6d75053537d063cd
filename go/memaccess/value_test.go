// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memaccess

import "testing"

func TestJoinEqualUnchanged(t *testing.T) {
	a := StoredValue{Kind: ConstKind}
	got, changed := Join(a, a)
	if changed {
		t.Errorf("Join(a, a) reported changed")
	}
	if !got.Equal(a) {
		t.Errorf("Join(a, a) = %v, want %v", got, a)
	}
}

func TestJoinUnequalIsTop(t *testing.T) {
	a := StoredValue{Kind: ConstKind}
	b := StoredValue{Kind: Primitive}
	got, changed := Join(a, b)
	if !changed {
		t.Errorf("Join(a, b) reported unchanged for unequal inputs")
	}
	if !got.Equal(Top) {
		t.Errorf("Join(a, b) = %v, want Top", got)
	}
}

func TestJoinTopWithTopIsUnchanged(t *testing.T) {
	got, changed := Join(Top, Top)
	if changed {
		t.Errorf("Join(Top, Top) reported changed")
	}
	if !got.IsTop() {
		t.Errorf("Join(Top, Top) = %v, want Top", got)
	}
}

func TestJoinCommutative(t *testing.T) {
	a := StoredValue{Kind: ConstKind}
	b := StoredValue{Kind: Primitive}
	ab, _ := Join(a, b)
	ba, _ := Join(b, a)
	if !ab.Equal(ba) {
		t.Errorf("Join not commutative: Join(a,b)=%v Join(b,a)=%v", ab, ba)
	}
}
