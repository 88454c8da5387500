package cli

import (
	"context"
	coreapp "edgegraph/internal/core/app"

	tea "github.com/charmbracelet/bubbletea"
)

func runUI(ctx context.Context, app *coreapp.App) error {
	m := initialModel(app.Engine, app.DatasetPath(), app.Config.Traversal.DefaultDepth, app.Config.Traversal.TopK)
	p := tea.NewProgram(engineBridge{Model: m, app: app, ctx: ctx}, tea.WithAltScreen(), tea.WithContext(ctx))

	app.Engine.OnLoad(func(report coreapp.LoadReport, err error) {
		p.Send(loadResultMsg{report: report, err: err})
	})

	_, err := p.Run()
	return err
}
