// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memaccess

import (
	"io"
	"sort"
	"text/template"

	"golang.org/x/tools/go/ssa"
)

// reportTmpl renders a FunctionSummary in a stable textual form grouping
// stores by classification, the same way cmd/deadcode formats records
// through a text/template (-f flag) rather than hand-rolled Fprintf
// chains.
var reportTmpl = template.Must(template.New("memaccess").Parse(
	`Stores to stack:
{{range .Stack}}> {{.}}
{{end}}Stores to globals:
{{range .Globals}}> {{.}}
{{end}}Stores to argument pointers:
{{range .Arguments}}> {{.}}
{{end}}Stores to the heap:
{{range .Heap}}> {{.}}
{{end}}Stores to THE UNKNOWN:
{{range .Unknown}}> {{.}}
{{end}}Function calls: Indirect: {{.NumIndirect}} Direct: {{range .Direct}}{{.}} {{end}}
Is summarise: {{.IsSummarisable}}
`))

type entry string

type reportData struct {
	Stack, Globals, Arguments, Heap, Unknown []entry
	Direct                                   []string
	NumIndirect                              int
	IsSummarisable                           bool
}

func renderEntries(data *MemoryAccessData, set map[ssa.Value]struct{}) []entry {
	var out []entry
	for ptr := range set {
		out = append(out, entry(ptrName(ptr)+" <- "+data.Stores[ptr].String()))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func ptrName(v ssa.Value) string {
	if v == nil {
		return "<nil>"
	}
	if n := v.Name(); n != "" {
		return n
	}
	return v.String()
}

// Fprint writes s's textual dump to w.
func Fprint(w io.Writer, s FunctionSummary) error {
	d := s.Data
	var direct []string
	for call := range d.FunctionCalls {
		if callee := call.Common().StaticCallee(); callee != nil {
			direct = append(direct, callee.Name())
		}
	}
	sort.Strings(direct)

	rd := reportData{
		Stack:          renderEntries(d, d.StackStores),
		Globals:        renderEntries(d, d.GlobalStores),
		Arguments:      renderEntries(d, d.ArgumentStores),
		Heap:           renderEntries(d, d.HeapStores),
		Unknown:        renderEntries(d, d.UnknownStores),
		Direct:         direct,
		NumIndirect:    len(d.IndirectCalls),
		IsSummarisable: s.IsSummarisable,
	}
	return reportTmpl.Execute(w, rd)
}
