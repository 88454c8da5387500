// Package output renders traversal results as text for plotting tools.
package output

import (
	"edgegraph/internal/engine/graph"
	"fmt"
	"sort"
	"strings"
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatDOT      Format = "dot"
	FormatMermaid  Format = "mermaid"
	FormatPlantUML Format = "plantuml"
	FormatTSV      Format = "tsv"
)

// Subgraph is the part of the graph reached by one bounded traversal.
type Subgraph struct {
	Start int64        `json:"start" yaml:"start"`
	Depth int          `json:"depth" yaml:"depth"`
	Edges []graph.Edge `json:"edges" yaml:"edges"`
	// Found reports whether Start is a node of the graph.
	Found bool `json:"found" yaml:"found"`
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatDOT, FormatMermaid, FormatPlantUML, FormatTSV:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json, dot, mermaid, plantuml or tsv)", s)
	}
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatTSV:
		return "text/tab-separated-values; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Render produces text for every format except JSON, which callers encode
// themselves.
func Render(f Format, sub Subgraph) (string, error) {
	switch f {
	case FormatDOT:
		return NewDOTGenerator(sub).Generate()
	case FormatMermaid:
		return NewMermaidGenerator(sub).Generate()
	case FormatPlantUML:
		return NewPlantUMLGenerator(sub).Generate()
	case FormatTSV:
		return NewTSVGenerator(sub).Generate()
	default:
		return "", fmt.Errorf("format %q has no text renderer", f)
	}
}

// levels returns the hop distance of every node in the subgraph, derived from
// the level-ordered edge list. An unknown start contributes no node.
func (s Subgraph) levels() map[int64]int {
	lv := make(map[int64]int)
	if !s.Found && len(s.Edges) == 0 {
		return lv
	}
	lv[s.Start] = 0
	for _, e := range s.Edges {
		if _, ok := lv[e.To]; !ok {
			lv[e.To] = lv[e.From] + 1
		}
	}
	return lv
}

// nodes lists every node by level, then id.
func (s Subgraph) nodes() []int64 {
	lv := s.levels()
	out := make([]int64, 0, len(lv))
	for id := range lv {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		if lv[out[i]] != lv[out[j]] {
			return lv[out[i]] < lv[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
