// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package locality

import (
	"io"
	"text/template"
)

var dotTmpl = template.Must(template.New("locality-dot").Parse(
	`digraph Locality {
{{range .}}	{{printf "%q" .From}} -> {{printf "%q" .To}};
{{end}}}
`))

// WriteDOT renders g as a DOT graph: digraph Locality { "u" -> "v"; ... }.
func WriteDOT(w io.Writer, g *Graph) error {
	return dotTmpl.Execute(w, g.Edges())
}
