package output

import (
	"fmt"
	"strings"
)

type TSVGenerator struct {
	sub Subgraph
}

func NewTSVGenerator(sub Subgraph) *TSVGenerator {
	return &TSVGenerator{sub: sub}
}

// Generate writes one row per edge in traversal order with the hop level of
// its source.
func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("From\tTo\tLevel\n")
	lv := t.sub.levels()
	for _, e := range t.sub.Edges {
		buf.WriteString(fmt.Sprintf("%d\t%d\t%d\n", e.From, e.To, lv[e.From]+1))
	}
	return buf.String(), nil
}
