package cli

import (
	"context"
	coreapp "edgegraph/internal/core/app"
	"edgegraph/internal/core/errors"
	stderrors "errors"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		m = m.cycleFocus(1)
		return m, nil
	case "shift+tab":
		m = m.cycleFocus(-1)
		return m, nil
	case "ctrl+r":
		return m, reloadCmd()
	}

	if m.focus == focusResults {
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "r":
			return m, reloadCmd()
		}
		var cmd tea.Cmd
		m.edgeList, cmd = m.edgeList.Update(msg)
		return m, cmd
	}

	if msg.Type == tea.KeyEnter {
		req, errText := m.parseRequest()
		if errText != "" {
			m.err = errText
			return m, nil
		}
		m.err = ""
		return m, func() tea.Msg { return req }
	}

	var cmd tea.Cmd
	if m.focus == focusStart {
		m.startInput, cmd = m.startInput.Update(msg)
	} else {
		m.depthInput, cmd = m.depthInput.Update(msg)
	}
	return m, cmd
}

func (m model) cycleFocus(step int) model {
	m.focus = focusArea((int(m.focus) + step + 3) % 3)
	m.startInput.Blur()
	m.depthInput.Blur()
	switch m.focus {
	case focusStart:
		m.startInput.Focus()
	case focusDepth:
		m.depthInput.Focus()
	}
	return m
}

func (m model) parseRequest() (traverseRequestMsg, string) {
	start, err := strconv.ParseInt(strings.TrimSpace(m.startInput.Value()), 10, 64)
	if err != nil {
		return traverseRequestMsg{}, "Start must be an integer node id."
	}
	depth, err := strconv.Atoi(strings.TrimSpace(m.depthInput.Value()))
	if err != nil || depth < 0 {
		return traverseRequestMsg{}, "Depth must be a non-negative integer."
	}
	return traverseRequestMsg{start: start, depth: depth}, ""
}

type reloadRequestMsg struct{}

func reloadCmd() tea.Cmd {
	return func() tea.Msg { return reloadRequestMsg{} }
}

// engineBridge runs engine work off the UI goroutine and reports back as
// messages.
type engineBridge struct {
	tea.Model
	app *coreapp.App
	ctx context.Context
}

func (b engineBridge) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case traverseRequestMsg:
		depth := b.app.Engine.ClampDepth(msg.depth)
		return b, func() tea.Msg {
			return traverseResultMsg{
				start: msg.start,
				depth: depth,
				edges: b.app.Engine.Traverse(b.ctx, msg.start, depth),
			}
		}
	case reloadRequestMsg:
		return b, func() tea.Msg {
			// the OnLoad hook reports engine outcomes; anything earlier comes back here
			if _, err := b.app.LoadDataset(b.ctx, ""); err != nil && !engineReported(err) {
				return loadResultMsg{err: err}
			}
			return nil
		}
	}

	inner, cmd := b.Model.Update(msg)
	b.Model = inner
	return b, cmd
}

// engineReported tells whether err came out of Engine.Load, which has already
// told its observers. Engine errors carry a load id.
func engineReported(err error) bool {
	var de *errors.DomainError
	if !stderrors.As(err, &de) {
		return false
	}
	_, ok := de.Context[errors.CtxLoadID]
	return ok
}
