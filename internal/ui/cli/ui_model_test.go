package cli

import (
	"context"
	coreapp "edgegraph/internal/core/app"
	"edgegraph/internal/core/config"
	"edgegraph/internal/engine/graph"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeQuerier struct {
	summary graph.Summary
	top     []graph.DegreeEntry
	report  coreapp.LoadReport
	loaded  bool
}

func (f *fakeQuerier) Summary() graph.Summary                 { return f.summary }
func (f *fakeQuerier) TopOutDegree(k int) []graph.DegreeEntry { return f.top }
func (f *fakeQuerier) LastLoad() (coreapp.LoadReport, bool)   { return f.report, f.loaded }

func loadedQuerier() *fakeQuerier {
	return &fakeQuerier{
		summary: graph.Summary{Nodes: 3, Edges: 3, MemoryBytes: 116, MaxOutDegreeNode: 1, MaxOutDegree: 2, HasMaxNode: true, AvgOutDegree: 1},
		top:     []graph.DegreeEntry{{ID: 1, OutDegree: 2}, {ID: 2, OutDegree: 1}},
		loaded:  true,
	}
}

func update(t *testing.T, m tea.Model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	state, ok := next.(model)
	if !ok {
		t.Fatalf("expected model type, got %T", next)
	}
	return state, cmd
}

func TestModel_StatsPanel(t *testing.T) {
	m := initialModel(loadedQuerier(), "edges.txt", 2, 5)
	if m.Init() == nil {
		t.Fatal("expected an init command")
	}

	state, _ := update(t, m, statsMsg{})
	if !state.loaded || state.summary.Nodes != 3 {
		t.Fatalf("stats not applied: %+v", state.summary)
	}

	view := state.View()
	for _, want := range []string{"Edge Graph Explorer", "edges.txt", "Critical node", "1 (out-degree 2)", "Top: 1:2 2:1"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_EmptyEngine(t *testing.T) {
	m := initialModel(&fakeQuerier{}, "", 2, 5)
	state, _ := update(t, m, statsMsg{})
	if !strings.Contains(state.View(), "No dataset loaded.") {
		t.Error("expected the empty stats panel")
	}
}

func TestModel_FocusCycle(t *testing.T) {
	m := initialModel(loadedQuerier(), "", 2, 5)

	want := []focusArea{focusDepth, focusResults, focusStart}
	for _, f := range want {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
		if m.focus != f {
			t.Fatalf("expected focus %v, got %v", f, m.focus)
		}
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.focus != focusResults {
		t.Fatalf("expected shift+tab to go back to results, got %v", m.focus)
	}
}

func TestModel_EnterRequestsTraversal(t *testing.T) {
	m := initialModel(loadedQuerier(), "", 2, 5)
	m.startInput.SetValue("1")
	m.depthInput.SetValue("3")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a traversal command")
	}
	req, ok := cmd().(traverseRequestMsg)
	if !ok {
		t.Fatalf("expected traverseRequestMsg, got %T", cmd())
	}
	if req.start != 1 || req.depth != 3 {
		t.Errorf("unexpected request %+v", req)
	}
	if m.err != "" {
		t.Errorf("unexpected error %q", m.err)
	}
}

func TestModel_EnterRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		start string
		depth string
	}{
		{name: "non numeric start", start: "abc", depth: "1"},
		{name: "empty start", start: "", depth: "1"},
		{name: "negative depth", start: "1", depth: "-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := initialModel(loadedQuerier(), "", 2, 5)
			m.startInput.SetValue(tt.start)
			m.depthInput.SetValue(tt.depth)

			m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
			if cmd != nil {
				t.Error("expected no command for invalid input")
			}
			if m.err == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestModel_TraversalResults(t *testing.T) {
	m := initialModel(loadedQuerier(), "", 2, 5)

	m, _ = update(t, m, traverseResultMsg{start: 1, depth: 2, edges: []graph.Edge{{From: 1, To: 2}, {From: 1, To: 3}, {From: 2, To: 3}}})
	if len(m.edgeList.Items()) != 3 {
		t.Fatalf("expected 3 edge items, got %d", len(m.edgeList.Items()))
	}
	if m.status != "3 edges" {
		t.Errorf("unexpected status %q", m.status)
	}
	if got := m.edgeList.Items()[2].(item).Title(); got != "2 -> 3" {
		t.Errorf("unexpected item title %q", got)
	}

	m, _ = update(t, m, traverseResultMsg{start: 99, depth: 2, edges: []graph.Edge{}})
	if m.status != "No nodes found" {
		t.Errorf("unexpected status %q", m.status)
	}
	if !strings.Contains(m.View(), "No nodes found from 99 within 2 hops.") {
		t.Error("expected the empty result message in the view")
	}
}

func TestModel_LoadResults(t *testing.T) {
	m := initialModel(loadedQuerier(), "", 2, 5)

	m, cmd := update(t, m, loadResultMsg{err: stderrors.New("boom")})
	if cmd != nil {
		t.Error("a failed load should not trigger work")
	}
	if !strings.Contains(m.err, "keeping previous graph") {
		t.Errorf("unexpected error text %q", m.err)
	}

	m, _ = update(t, m, traverseResultMsg{start: 1, depth: 2, edges: []graph.Edge{{From: 1, To: 2}}})
	m, cmd = update(t, m, loadResultMsg{report: coreapp.LoadReport{Path: "edges.txt"}})
	if m.err != "" {
		t.Errorf("error not cleared: %q", m.err)
	}
	if cmd == nil {
		t.Fatal("expected the last traversal to be re-run after a reload")
	}
	req, ok := cmd().(traverseRequestMsg)
	if !ok || req.start != 1 || req.depth != 2 {
		t.Errorf("unexpected re-run request %+v", req)
	}
}

func TestModel_QuitAndReloadKeys(t *testing.T) {
	m := initialModel(loadedQuerier(), "", 2, 5)

	// q is text while an input has focus
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if m.startInput.Value() != "q" {
		t.Errorf("expected q typed into the start input, got %q", m.startInput.Value())
	}

	m.focus = focusResults
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if cmd == nil {
		t.Fatal("expected a reload command")
	}
	if _, ok := cmd().(reloadRequestMsg); !ok {
		t.Error("expected reloadRequestMsg")
	}

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected ctrl+c to quit")
	}
}

func TestEngineBridge_Traverse(t *testing.T) {
	dir := t.TempDir()
	dataset := filepath.Join(dir, "edges.txt")
	if err := os.WriteFile(dataset, []byte("1 2\n2 3\n1 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Paths.StateDir = dir
	a, err := coreapp.New(cfg, config.ResolvePaths(cfg, dir))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close(context.Background())
	if _, err := a.LoadDataset(context.Background(), dataset); err != nil {
		t.Fatal(err)
	}

	var bridge tea.Model = engineBridge{
		Model: initialModel(a.Engine, dataset, 2, 5),
		app:   a,
		ctx:   context.Background(),
	}

	bridge, cmd := bridge.Update(traverseRequestMsg{start: 1, depth: 2})
	if cmd == nil {
		t.Fatal("expected a traversal command")
	}
	res, ok := cmd().(traverseResultMsg)
	if !ok {
		t.Fatalf("expected traverseResultMsg, got %T", cmd())
	}
	if len(res.edges) != 3 {
		t.Fatalf("expected 3 edges, got %v", res.edges)
	}

	bridge, _ = bridge.Update(res)
	inner := bridge.(engineBridge).Model.(model)
	if len(inner.edges) != 3 || !inner.traversed {
		t.Errorf("traversal not applied to the model: %+v", inner.edges)
	}
}

func TestEngineBridge_ReloadWithoutDatasetReportsError(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Paths.StateDir = dir
	a, err := coreapp.New(cfg, config.ResolvePaths(cfg, dir))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close(context.Background())

	var bridge tea.Model = engineBridge{Model: initialModel(a.Engine, "", 2, 5), app: a, ctx: context.Background()}
	bridge, cmd := bridge.Update(reloadRequestMsg{})
	if cmd == nil {
		t.Fatal("expected a reload command")
	}
	msg, ok := cmd().(loadResultMsg)
	if !ok || msg.err == nil {
		t.Fatalf("expected a failed loadResultMsg, got %#v", msg)
	}

	bridge, _ = bridge.Update(msg)
	inner := bridge.(engineBridge).Model.(model)
	if !strings.Contains(inner.err, "keeping previous graph") {
		t.Errorf("reload failure not shown: %q", inner.err)
	}
}

func TestEngineBridge_ReloadFailureFromEngineIsObserved(t *testing.T) {
	dir := t.TempDir()
	dataset := filepath.Join(dir, "edges.txt")
	if err := os.WriteFile(dataset, []byte("1 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Paths.StateDir = dir
	a, err := coreapp.New(cfg, config.ResolvePaths(cfg, dir))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close(context.Background())
	if _, err := a.LoadDataset(context.Background(), dataset); err != nil {
		t.Fatal(err)
	}

	var observed error
	a.Engine.OnLoad(func(_ coreapp.LoadReport, err error) { observed = err })
	if err := os.WriteFile(dataset, []byte("1 x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var bridge tea.Model = engineBridge{Model: initialModel(a.Engine, dataset, 2, 5), app: a, ctx: context.Background()}
	_, cmd := bridge.Update(reloadRequestMsg{})
	if msg := cmd(); msg != nil {
		t.Errorf("engine failures arrive through the load observer, got %#v", msg)
	}
	if observed == nil {
		t.Error("expected the load observer to see the failure")
	}
}
