package output

import (
	"fmt"
	"strings"
)

type MermaidGenerator struct {
	sub Subgraph
}

func NewMermaidGenerator(sub Subgraph) *MermaidGenerator {
	return &MermaidGenerator{sub: sub}
}

func (m *MermaidGenerator) Generate() (string, error) {
	var b strings.Builder
	b.WriteString("flowchart LR\n")

	for _, id := range m.sub.nodes() {
		b.WriteString(fmt.Sprintf("  %s((\"%d\"))\n", mermaidID(id), id))
	}

	lv := m.sub.levels()
	for _, e := range m.sub.Edges {
		arrow := "-->"
		if lv[e.To] <= lv[e.From] {
			arrow = "-.->"
		}
		b.WriteString(fmt.Sprintf("  %s %s %s\n", mermaidID(e.From), arrow, mermaidID(e.To)))
	}

	if _, ok := lv[m.sub.Start]; ok {
		b.WriteString("  classDef start fill:#ffd700,stroke:#ff8c00,stroke-width:2px\n")
		b.WriteString(fmt.Sprintf("  class %s start\n", mermaidID(m.sub.Start)))
	}
	return b.String(), nil
}

// mermaidID turns an id into a valid Mermaid node identifier; negative ids get
// an "m" marker since '-' is not allowed.
func mermaidID(id int64) string {
	if id < 0 {
		return fmt.Sprintf("nm%d", -id)
	}
	return fmt.Sprintf("n%d", id)
}
