package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/countdown/internal/core/styles"
	"github.com/hay-kot/countdown/internal/countdown"
)

type ResetCmd struct {
	flags *Flags
	app   *countdown.App
}

// NewResetCmd creates a new reset command
func NewResetCmd(flags *Flags, app *countdown.App) *ResetCmd {
	return &ResetCmd{flags: flags, app: app}
}

// Register adds the reset command to the application
func (cmd *ResetCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:          "reset",
		Usage:         "Restore a timer's full duration",
		UsageText:     "countdown reset <id|name>",
		ShellComplete: TimerNameCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

func (cmd *ResetCmd) run(ctx context.Context, c *cli.Command) error {
	ref := c.Args().First()
	if ref == "" {
		return fmt.Errorf("timer name or id is required")
	}

	t, err := cmd.app.Timers.Resolve(ctx, ref)
	if err != nil {
		return err
	}

	if err := cmd.app.Timers.Reset(ctx, t.ID); err != nil {
		return fmt.Errorf("reset timer: %w", err)
	}

	successf(c.Root().Writer, "Reset %s to %s", t.Name, styles.Clock(t.Duration))
	return nil
}
