package commands

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/cuongbtq/farmhand/internal/client/apply"
	"github.com/cuongbtq/farmhand/internal/tui"
)

// TUIAction opens the interactive client. Guard refusals are shown inside it.
func TUIAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	listing := apply.NewListing(appCtx.Backend, appCtx.Storage, appCtx.Config.Client.StorageBucket, appCtx.Logger())
	app := tui.NewApp(ctx, tui.Services{
		Session:   appCtx.Session,
		Listing:   listing,
		Jobs:      appCtx.Backend,
		ReviewAPI: appCtx.Backend,
		Player:    appCtx.Player,
		Logger:    appCtx.logger.WithGroup("tui").Logger,
	})

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}
