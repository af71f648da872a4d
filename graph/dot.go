package graph

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteDOT renders the graph in Graphviz DOT format. Vertices are labelled
// with the first labelLen symbols of their data and their size; edges with
// their spans as length:count pairs.
func (g *Graph) WriteDOT(w io.Writer, labelLen int) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph A_Bruijn_Graph {")
	for v := range g.Vertices() {
		data := g.Data(v)
		n := min(labelLen, data.Len())
		fmt.Fprintf(bw, "  v%d [label=\"%s_%d\"];\n", uint64(v), data.Subseq(0, n), data.Len())
	}
	for v := range g.Vertices() {
		for w, e := range g.Edges(v) {
			parts := make([]string, 0, e.Len())
			for _, s := range e.Spans() {
				parts = append(parts, fmt.Sprintf("%d:%d", s.Length, s.Count))
			}
			fmt.Fprintf(bw, "  v%d -> v%d [label=\"%s\"];\n", uint64(v), uint64(w), strings.Join(parts, " "))
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
