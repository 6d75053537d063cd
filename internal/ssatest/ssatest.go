// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ssatest builds golang.org/x/tools/go/ssa packages from an
// in-memory source string, the way
// golang.org/x/tools/go/analysis/passes/buildssa builds SSA for a single
// already-type-checked package, but skipping go/packages entirely since
// these fixtures never need real imports. It exists to keep this module's
// own tests self-contained.
package ssatest

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"sort"
	"testing"

	"golang.org/x/tools/go/ssa"
)

// Build parses src as a single Go file (package clause required), type
// checks it, builds its SSA form, and returns the resulting *ssa.Package.
func Build(t *testing.T, src string) *ssa.Package {
	t.Helper()

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "fixture.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
		Scopes:     make(map[ast.Node]*types.Scope),
	}
	conf := types.Config{Importer: importer.Default()}
	pkg, err := conf.Check(f.Name.Name, fset, []*ast.File{f}, info)
	if err != nil {
		t.Fatalf("typecheck: %v", err)
	}

	// NaiveForm disables the register-promotion (SROA/lifting) pass so
	// that every local variable keeps an explicit Alloc+Store/Load, the
	// same shape an LLVM-style alloca/store/load IR always has — the
	// memory-access classifier's abstract domain is defined in terms of
	// that explicit form.
	prog := ssa.NewProgram(fset, ssa.NaiveForm|ssa.SanityCheckFunctions)
	ssapkg := prog.CreatePackage(pkg, []*ast.File{f}, info, false)
	ssapkg.Build()
	return ssapkg
}

// Func looks up a package-level function by name, failing the test if it
// is absent.
func Func(t *testing.T, pkg *ssa.Package, name string) *ssa.Function {
	t.Helper()
	fn := pkg.Func(name)
	if fn == nil {
		t.Fatalf("no function %s in package %s", name, pkg.Pkg.Path())
	}
	return fn
}

// SourceFuncs returns every package-level *ssa.Function declared in pkg,
// in member-map iteration order made deterministic by name.
func SourceFuncs(pkg *ssa.Package) []*ssa.Function {
	var out []*ssa.Function
	for _, m := range pkg.Members {
		if fn, ok := m.(*ssa.Function); ok {
			out = append(out, fn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
