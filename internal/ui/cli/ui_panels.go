package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

func renderHelp(m model) string {
	keys := "Keys: tab focus | enter traverse | ctrl+r reload | ctrl+c quit"
	if m.focus == focusResults {
		keys = "Keys: tab focus | / filter | j/k move | r reload | q quit"
	}
	return statusStyle.Render(keys)
}

func renderStatsPanel(m model) string {
	if !m.loaded {
		return statusStyle.Render("No dataset loaded.")
	}
	s := m.summary
	lines := []string{
		"Graph",
		fmt.Sprintf("  Nodes:  %s", humanize.Comma(int64(s.Nodes))),
		fmt.Sprintf("  Edges:  %s", humanize.Comma(s.Edges)),
		fmt.Sprintf("  Memory: %s", humanize.IBytes(uint64(s.MemoryBytes))),
		fmt.Sprintf("  Avg out-degree: %.2f", s.AvgOutDegree),
	}
	if s.HasMaxNode {
		lines = append(lines, "  Critical node: "+criticalStyle.Render(
			fmt.Sprintf("%d (out-degree %d)", s.MaxOutDegreeNode, s.MaxOutDegree)))
	} else {
		lines = append(lines, "  Critical node: none")
	}
	if len(m.top) > 1 {
		parts := make([]string, 0, len(m.top))
		for _, d := range m.top {
			parts = append(parts, fmt.Sprintf("%d:%d", d.ID, d.OutDegree))
		}
		lines = append(lines, "  Top: "+strings.Join(parts, " "))
	}
	lines = append(lines, fmt.Sprintf("  Loaded in %s", m.lastLoad.Duration.Round(time.Millisecond)))
	return strings.Join(lines, "\n")
}

func renderForm(m model) string {
	marker := func(f focusArea) string {
		if m.focus == f {
			return successStyle.Render(">")
		}
		return " "
	}
	return strings.Join([]string{
		"Bounded traversal",
		marker(focusStart) + " " + m.startInput.View(),
		marker(focusDepth) + " " + m.depthInput.View(),
	}, "\n")
}

func renderResults(m model) string {
	if !m.traversed {
		return statusStyle.Render("Enter a start node and depth, then press enter.")
	}
	if len(m.edges) == 0 {
		return statusStyle.Render(fmt.Sprintf("No nodes found from %d within %d hops.", m.lastStart, m.lastDepth))
	}
	return m.edgeList.View()
}
