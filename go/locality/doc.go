// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package locality implements a module-level memory-locality call graph
// over golang.org/x/tools/go/ssa: a depth-first expansion of the call
// graph that, at every load/store instruction, traces the accessed
// pointer back through loads, PHI nodes, GEPs, casts and calls to an
// abstract pointer source, then records which function (or synthetic
// sink) that memory logically belongs to.
package locality
