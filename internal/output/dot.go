package output

import (
	"fmt"
	"strings"
)

type DOTGenerator struct {
	sub Subgraph
}

func NewDOTGenerator(sub Subgraph) *DOTGenerator {
	return &DOTGenerator{sub: sub}
}

func (d *DOTGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph traversal {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=circle, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString(fmt.Sprintf("  label=\"traversal from %d, depth %d\";\n\n", d.sub.Start, d.sub.Depth))

	lv := d.sub.levels()
	for _, id := range d.sub.nodes() {
		if id == d.sub.Start {
			buf.WriteString(fmt.Sprintf("  \"%d\" [style=filled, fillcolor=\"gold\", color=\"darkorange\", penwidth=2.0];\n", id))
			continue
		}
		buf.WriteString(fmt.Sprintf("  \"%d\" [xlabel=\"%d\"];\n", id, lv[id]))
	}
	buf.WriteString("\n")

	for _, e := range d.sub.Edges {
		if lv[e.To] <= lv[e.From] {
			// back, cross or self edge
			buf.WriteString(fmt.Sprintf("  \"%d\" -> \"%d\" [color=\"grey\", style=dashed];\n", e.From, e.To))
			continue
		}
		buf.WriteString(fmt.Sprintf("  \"%d\" -> \"%d\";\n", e.From, e.To))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}
