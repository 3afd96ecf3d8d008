package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"job-dashboard/pkg/dashboard"
)

// Run shows the dashboard until the user quits or ctx is done. Deletes are
// confirmed inside the UI, so opts.Confirmer is replaced.
func Run(ctx context.Context, svc dashboard.Service, opts dashboard.Options) error {
	var p *tea.Program

	opts.Confirmer = dashboard.AlwaysConfirm
	opts.Syncer = append(opts.Syncer, dashboard.WithOnUpdate(func(s dashboard.Snapshot) {
		p.Send(snapshotMsg(s))
	}))
	d := dashboard.New(svc, opts)
	defer d.Deactivate()

	p = tea.NewProgram(New(ctx, d), tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}
