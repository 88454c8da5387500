package output

import (
	"fmt"
	"strings"
)

type PlantUMLGenerator struct {
	sub Subgraph
}

func NewPlantUMLGenerator(sub Subgraph) *PlantUMLGenerator {
	return &PlantUMLGenerator{sub: sub}
}

func (p *PlantUMLGenerator) Generate() (string, error) {
	var b strings.Builder
	b.WriteString("@startuml\n")
	b.WriteString("left to right direction\n")
	b.WriteString(fmt.Sprintf("title traversal from %d, depth %d\n", p.sub.Start, p.sub.Depth))

	for _, id := range p.sub.nodes() {
		if id == p.sub.Start {
			b.WriteString(fmt.Sprintf("circle \"%d\" as %s #gold\n", id, mermaidID(id)))
			continue
		}
		b.WriteString(fmt.Sprintf("circle \"%d\" as %s\n", id, mermaidID(id)))
	}

	lv := p.sub.levels()
	for _, e := range p.sub.Edges {
		arrow := "-->"
		if lv[e.To] <= lv[e.From] {
			arrow = "..>"
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", mermaidID(e.From), arrow, mermaidID(e.To)))
	}

	b.WriteString("@enduml\n")
	return b.String(), nil
}
