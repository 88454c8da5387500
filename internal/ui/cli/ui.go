package cli

import (
	coreapp "edgegraph/internal/core/app"
	"edgegraph/internal/engine/graph"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#475569")).
			Padding(0, 1)

	criticalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type focusArea int

const (
	focusStart focusArea = iota
	focusDepth
	focusResults
)

// querier is the slice of the engine the UI needs.
type querier interface {
	Summary() graph.Summary
	TopOutDegree(k int) []graph.DegreeEntry
	LastLoad() (coreapp.LoadReport, bool)
}

type model struct {
	engine  querier
	topK    int
	dataset string

	startInput textinput.Model
	depthInput textinput.Model
	edgeList   list.Model
	focus      focusArea

	summary    graph.Summary
	top        []graph.DegreeEntry
	lastLoad   coreapp.LoadReport
	loaded     bool
	lastUpdate time.Time

	lastStart int64
	lastDepth int
	edges     []graph.Edge
	traversed bool

	status string
	err    string
}

// statsMsg asks the model to re-read graph statistics.
type statsMsg struct{}

type traverseRequestMsg struct {
	start int64
	depth int
}

type traverseResultMsg struct {
	start int64
	depth int
	edges []graph.Edge
}

type loadResultMsg struct {
	report coreapp.LoadReport
	err    error
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg { return statsMsg{} })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width := msg.Width - h
		height := msg.Height - v - 14
		if height < 5 {
			height = 5
		}
		m.edgeList.SetSize(width, height)
		return m, nil
	case statsMsg:
		m = m.refreshStats()
		return m, nil
	case loadResultMsg:
		if msg.err != nil {
			m.err = fmt.Sprintf("Load failed, keeping previous graph: %v", msg.err)
			return m, nil
		}
		m.err = ""
		m.status = fmt.Sprintf("Loaded %s in %s", msg.report.Path, msg.report.Duration.Truncate(time.Millisecond))
		m = m.refreshStats()
		if m.traversed {
			// the old result belongs to the replaced graph
			start, depth := m.lastStart, m.lastDepth
			return m, func() tea.Msg { return traverseRequestMsg{start: start, depth: depth} }
		}
		return m, nil
	case traverseResultMsg:
		m = m.applyTraversal(msg)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusStart:
		m.startInput, cmd = m.startInput.Update(msg)
	case focusDepth:
		m.depthInput, cmd = m.depthInput.Update(msg)
	default:
		m.edgeList, cmd = m.edgeList.Update(msg)
	}
	return m, cmd
}

func (m model) refreshStats() model {
	if m.engine == nil {
		return m
	}
	m.summary = m.engine.Summary()
	m.top = m.engine.TopOutDegree(m.topK)
	m.lastLoad, m.loaded = m.engine.LastLoad()
	m.lastUpdate = time.Now()
	return m
}

func (m model) applyTraversal(msg traverseResultMsg) model {
	m.lastStart = msg.start
	m.lastDepth = msg.depth
	m.edges = msg.edges
	m.traversed = true

	items := make([]list.Item, 0, len(msg.edges))
	for i, e := range msg.edges {
		items = append(items, item{
			title: fmt.Sprintf("%d -> %d", e.From, e.To),
			desc:  fmt.Sprintf("edge %d of %d", i+1, len(msg.edges)),
		})
	}
	m.edgeList.SetItems(items)
	m.edgeList.Title = fmt.Sprintf("Traversal from %d (depth %d)", msg.start, msg.depth)

	if len(msg.edges) == 0 {
		m.status = msgNoNodes
	} else {
		m.status = fmt.Sprintf("%d edges", len(msg.edges))
	}
	return m
}

func (m model) View() string {
	header := titleStyle("Edge Graph Explorer")
	status := statusStyle.Render(fmt.Sprintf("Dataset: %s | Last update: %s",
		m.dataset, m.lastUpdate.Format("15:04:05")))

	form := renderForm(m)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(renderStatsPanel(m)),
		"  ",
		panelStyle.Render(form),
	)

	results := renderResults(m)
	footer := renderHelp(m)
	if m.err != "" {
		footer = errorStyle.Render(m.err) + "\n" + footer
	} else if m.status != "" {
		footer = statusStyle.Render(m.status) + "\n" + footer
	}

	return docStyle.Render(header + "\n" + status + "\n\n" + body + "\n\n" + results + "\n\n" + footer)
}

func initialModel(engine querier, dataset string, defaultDepth, topK int) model {
	start := textinput.New()
	start.Placeholder = "node id"
	start.Prompt = "Start: "
	start.CharLimit = 20
	start.Focus()

	depth := textinput.New()
	depth.Placeholder = "hops"
	depth.Prompt = "Depth: "
	depth.CharLimit = 6
	depth.SetValue(strconv.Itoa(defaultDepth))

	edgeList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	edgeList.Title = "Traversal"
	edgeList.SetShowStatusBar(false)
	edgeList.SetFilteringEnabled(true)

	if topK <= 0 {
		topK = 5
	}
	return model{
		engine:     engine,
		topK:       topK,
		dataset:    dataset,
		startInput: start,
		depthInput: depth,
		edgeList:   edgeList,
		focus:      focusStart,
		lastUpdate: time.Now(),
	}
}
