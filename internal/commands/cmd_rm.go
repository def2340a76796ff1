package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/countdown/internal/countdown"
)

type RmCmd struct {
	flags *Flags
	app   *countdown.App
}

// NewRmCmd creates a new rm command
func NewRmCmd(flags *Flags, app *countdown.App) *RmCmd {
	return &RmCmd{flags: flags, app: app}
}

// Register adds the rm command to the application
func (cmd *RmCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:          "rm",
		Usage:         "Delete a timer",
		UsageText:     "countdown rm <id|name>",
		Description:   "Removes the timer. Its completion history is kept.",
		ShellComplete: TimerNameCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

func (cmd *RmCmd) run(ctx context.Context, c *cli.Command) error {
	ref := c.Args().First()
	if ref == "" {
		return fmt.Errorf("timer name or id is required")
	}

	t, err := cmd.app.Timers.Resolve(ctx, ref)
	if err != nil {
		return err
	}

	if err := cmd.app.Timers.Delete(ctx, t.ID); err != nil {
		return fmt.Errorf("delete timer: %w", err)
	}

	successf(c.Root().Writer, "Removed %s", t.Name)
	return nil
}
