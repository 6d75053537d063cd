// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memaccess implements a per-function abstract interpreter over
// golang.org/x/tools/go/ssa that classifies every pointer written by a
// function according to where that pointer came from (the function's own
// stack frame, a program-level global, a heap allocation, an incoming
// argument, or an unresolved origin), together with the most recently
// stored abstract value for each such pointer.
//
// The interpreter (MemoryAccessInstVisitor) runs a chaotic-iteration
// fixpoint over a function's basic blocks. A SummaryCache inlines callee
// summaries into callers on demand, so a function's summary reflects the
// effects of every direct call it makes.
package memaccess
