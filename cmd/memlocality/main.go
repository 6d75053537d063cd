// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command memlocality classifies pointer-write origins in Go programs
// and traces a module-level memory-locality graph from main,
// printing a textual per-function dump and/or a DOT graph.
package main

import (
	"flag"
	"go/ast"
	"go/token"
	"go/types"
	"io"
	"log"
	"os"
	"regexp"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/omeranson/memlocality/go/locality"
	"github.com/omeranson/memlocality/go/memaccess"
)

var (
	dumpFlag   = flag.Bool("dump", false, "print the per-function stack/global/argument/heap/unknown store classification")
	dotFlag    = flag.Bool("dot", false, "print the module-level memory-locality graph in DOT format")
	filterFlag = flag.String("filter", "", "only dump functions whose name matches this regular expression")
	tagsFlag   = flag.String("tags", "", "comma-separated list of extra build tags (see: go help buildconstraint)")
)

func usage() {
	io.WriteString(flag.CommandLine.Output(), `memlocality classifies pointer-write origins and traces memory
locality across a Go program's call graph.

Usage: memlocality [-dump] [-dot] [-filter regexp] packages...

Flags:

`)
	flag.PrintDefaults()
}

func main() {
	log.SetPrefix("memlocality: ")
	log.SetFlags(0)

	flag.Usage = usage
	flag.Parse()
	if len(flag.Args()) == 0 {
		usage()
		os.Exit(2)
	}
	if !*dumpFlag && !*dotFlag {
		*dumpFlag = true
	}

	filter, err := regexp.Compile(*filterFlag)
	if err != nil {
		log.Fatalf("-filter: %v", err)
	}

	cfg := &packages.Config{
		BuildFlags: []string{"-tags=" + *tagsFlag},
		Mode:       packages.LoadAllSyntax,
	}
	initial, err := packages.Load(cfg, flag.Args()...)
	if err != nil {
		log.Fatalf("load: %v", err)
	}
	if len(initial) == 0 {
		log.Fatalf("no packages")
	}
	if packages.PrintErrors(initial) > 0 {
		log.Fatalf("packages contain errors")
	}

	prog, pkgs := ssautil.AllPackages(initial, ssa.InstantiateGenerics)
	prog.Build()

	var sourceFuncs []*ssa.Function
	packages.Visit(initial, nil, func(p *packages.Package) {
		for _, file := range p.Syntax {
			for _, decl := range file.Decls {
				fd, ok := decl.(*ast.FuncDecl)
				if !ok {
					continue
				}
				obj, ok := p.TypesInfo.Defs[fd.Name].(*types.Func)
				if !ok {
					continue
				}
				if fn := prog.FuncValue(obj); fn != nil {
					sourceFuncs = append(sourceFuncs, fn)
				}
			}
		}
	})

	if *dumpFlag {
		runDump(sourceFuncs, filter)
	}
	if *dotFlag {
		runDot(pkgs)
	}
}

func runDump(sourceFuncs []*ssa.Function, filter *regexp.Regexp) {
	summaries, _ := memaccess.Analyze(sourceFuncs, memaccess.DefaultConfig())
	for _, fn := range sourceFuncs {
		if !filter.MatchString(fn.Name()) {
			continue
		}
		s, ok := summaries[fn]
		if !ok {
			continue
		}
		if err := memaccess.Fprint(os.Stdout, s); err != nil {
			log.Fatalf("print %s: %v", fn.Name(), err)
		}
	}
}

func runDot(pkgs []*ssa.Package) {
	mains := ssautil.MainPackages(pkgs)
	if len(mains) == 0 {
		log.Fatalf("no main packages")
	}

	graph := locality.NewGraph()
	tracer := locality.NewTracer(nil, nil, func(pos token.Pos, format string, args ...interface{}) {})
	for _, main := range mains {
		root := main.Func("main")
		if root == nil {
			continue
		}
		for _, e := range tracer.Trace(root).Edges() {
			graph.AddEdge(e.From, e.To)
		}
	}
	if err := locality.WriteDOT(os.Stdout, graph); err != nil {
		log.Fatalf("dot: %v", err)
	}
}
