// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package locality

import (
	"go/token"

	"golang.org/x/tools/go/ssa"
)

// DependencyKind classifies a load's memory dependency, mirroring the
// result vocabulary of an LLVM-style MemoryDependenceAnalysis.
type DependencyKind int

const (
	// DepDef means the load's value is produced by Inst: a store (or,
	// for must-alias loads, another load).
	DepDef DependencyKind = iota
	// DepClobber means some instruction may have overwritten the
	// location but does not provably define its value.
	DepClobber
	// DepNonLocal means the dependency was not resolved within the
	// load's own block; the caller should consult NonLocalDependencies.
	DepNonLocal
	// DepNonFuncLocal means the dependency crosses a function boundary
	// the analysis does not follow.
	DepNonFuncLocal
	// DepUnknown means no dependency information is available.
	DepUnknown
)

// Dependency is the result of a memory-dependence query for one load.
type Dependency struct {
	Kind DependencyKind
	Inst ssa.Instruction // meaningful only when Kind == DepDef or DepClobber
}

// BlockDependency pairs a block with the dependency result discovered
// while searching outward from it, for NonLocalDependencies.
type BlockDependency struct {
	Block      *ssa.BasicBlock
	Dependency Dependency
}

// MemoryDependence is a host-provided alias/memory-dependence analysis.
// PointerSourceEvaluator is a client of it, never a provider.
type MemoryDependence interface {
	// DependencyFor returns load's dependency within its own block.
	DependencyFor(load *ssa.UnOp) Dependency
	// NonLocalDependencies returns, for each predecessor block reached
	// while searching outward from load's block, the dependency result
	// found there.
	NonLocalDependencies(load *ssa.UnOp) []BlockDependency
}

// LocalMemoryDependence is a default, intra-procedural implementation of
// MemoryDependence: it resolves a load only against the last store to, or
// load from, the same address appearing earlier in the same basic block,
// found by scanning that block's instructions rather than running a real
// alias analysis. It never reports DepClobber (it does not reason about
// may-alias) and its NonLocalDependencies always returns nil: a real
// deployment wires in a host-provided implementation backed by an actual
// alias analysis (e.g. golang.org/x/tools/go/pointer).
type LocalMemoryDependence struct{}

func (LocalMemoryDependence) DependencyFor(load *ssa.UnOp) Dependency {
	ptr := load.X
	var lastDef ssa.Instruction
	for _, instr := range load.Block().Instrs {
		if instr == ssa.Instruction(load) {
			break
		}
		switch x := instr.(type) {
		case *ssa.Store:
			if x.Addr == ptr {
				lastDef = x
			}
		case *ssa.UnOp:
			if x.Op == token.MUL && x.X == ptr {
				lastDef = x
			}
		}
	}
	if lastDef != nil {
		return Dependency{Kind: DepDef, Inst: lastDef}
	}
	return Dependency{Kind: DepNonLocal}
}

func (LocalMemoryDependence) NonLocalDependencies(load *ssa.UnOp) []BlockDependency {
	return nil
}
