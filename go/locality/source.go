// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package locality

import "golang.org/x/tools/go/ssa"

// SourceKind tags a PointerSource.
type SourceKind int

const (
	SourcePrimitive SourceKind = iota
	SourceLocal
	SourceGlobal
	SourceArgument
	SourceFunction
	SourceUnknown
)

func (k SourceKind) String() string {
	switch k {
	case SourcePrimitive:
		return "Primitive"
	case SourceLocal:
		return "Local"
	case SourceGlobal:
		return "Global"
	case SourceArgument:
		return "Argument"
	case SourceFunction:
		return "Function"
	default:
		return "Unknown"
	}
}

// PointerSource is the abstract domain of the locality tracer: where a
// pointer value, as seen from the function currently being traced,
// logically points to.
type PointerSource struct {
	Kind SourceKind

	// Local names the function a Local alloca belongs to.
	Local string
	// Global names a program global symbol, or the literal "null" for
	// the null pointer constant.
	Global string
	// Argument carries the unresolved incoming-parameter value for an
	// Argument source (the root function, or any function analysed
	// without bound actual-argument sources).
	Argument ssa.Value
	// Function names the function a pointer transitively derives from:
	// a call result, or a caller's Local promoted across a call
	// boundary.
	Function string
}

func (s PointerSource) String() string {
	switch s.Kind {
	case SourceLocal:
		return "Local(" + s.Local + ")"
	case SourceGlobal:
		return "Global(" + s.Global + ")"
	case SourceArgument:
		return "Argument"
	case SourceFunction:
		return "Function(" + s.Function + ")"
	default:
		return s.Kind.String()
	}
}
