// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memaccess

import (
	"fmt"

	"golang.org/x/tools/go/ssa"
)

// Kind classifies the origin of a StoredValue's carrier.
type Kind int

const (
	// Unknown is Top: no information about the value's origin.
	Unknown Kind = iota
	// Primitive is a non-pointer scalar of unknown concrete value.
	Primitive
	// ConstKind marks a literal constant value.
	ConstKind
	// Stack marks a carrier that is an alloca in the current function.
	Stack
	// Global marks a carrier that is a program global symbol.
	Global
	// Heap marks a carrier originating from a recognised allocator call.
	Heap
	// ArgumentKind marks a carrier that is a pointer-typed incoming
	// parameter of the current function.
	ArgumentKind
)

func (k Kind) String() string {
	switch k {
	case Unknown:
		return "Unknown"
	case Primitive:
		return "Primitive"
	case ConstKind:
		return "Constant"
	case Stack:
		return "Stack"
	case Global:
		return "Global"
	case Heap:
		return "Heap"
	case ArgumentKind:
		return "Argument"
	default:
		return "Kind(?)"
	}
}

// StoredValue is the abstract value domain of the interpreter: a pair of
// the SSA value that carries the information (or nil) and a Kind
// classifying that carrier.
type StoredValue struct {
	Carrier ssa.Value
	Kind    Kind
}

// Top represents "no information": the absorbing element of Join and the
// default value of any key not yet written.
var Top = StoredValue{Carrier: nil, Kind: Unknown}

// Equal reports whether two StoredValues are componentwise equal.
func (v StoredValue) Equal(o StoredValue) bool {
	return v.Carrier == o.Carrier && v.Kind == o.Kind
}

// IsTop reports whether v carries no information.
func (v StoredValue) IsTop() bool {
	return v.Equal(Top)
}

// Join combines two StoredValues of the same key: equal values are
// unchanged, unequal values collapse to Top. The second return value
// reports whether the result differs from a.
func Join(a, b StoredValue) (StoredValue, bool) {
	if a.Equal(b) {
		return a, false
	}
	return Top, !a.Equal(Top)
}

func (v StoredValue) String() string {
	if v.Carrier == nil {
		return v.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", v.Kind, v.Carrier.Name())
}
