package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/countdown/internal/core/styles"
	"github.com/hay-kot/countdown/internal/core/timer"
	"github.com/hay-kot/countdown/internal/countdown"
)

type AddCmd struct {
	flags *Flags
	app   *countdown.App

	// flags
	duration string
	category string
}

// NewAddCmd creates a new add command
func NewAddCmd(flags *Flags, app *countdown.App) *AddCmd {
	return &AddCmd{flags: flags, app: app}
}

// Register adds the add command to the application
func (cmd *AddCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "add",
		Usage:     "Create a timer",
		UsageText: "countdown add <name> --duration <secs|1m30s> --category <category>",
		Description: `Creates an idle timer with the full duration remaining.

The duration accepts whole seconds (90) or a Go duration (1m30s).`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "duration",
				Aliases:     []string{"d"},
				Usage:       "countdown length in seconds or as a duration",
				Destination: &cmd.duration,
			},
			&cli.StringFlag{
				Name:        "category",
				Aliases:     []string{"C"},
				Usage:       "category used to group timers",
				Destination: &cmd.category,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *AddCmd) run(ctx context.Context, c *cli.Command) error {
	name := strings.Join(c.Args().Slice(), " ")

	secs, err := parseSeconds(cmd.duration)
	if err != nil {
		return err
	}

	t, err := cmd.app.Timers.Create(ctx, name, secs, cmd.category)
	if err != nil {
		if timer.IsValidation(err) && printFieldErrors(os.Stderr, err) {
			return cli.Exit("", 1)
		}
		if t.ID == "" {
			return fmt.Errorf("add timer: %w", err)
		}
		errorf(os.Stderr, "timer created but not saved: %v", err)
	}

	successf(c.Root().Writer, "Added %s (%s) to %s %s",
		styles.NameStyle.Render(t.Name), styles.Clock(t.Duration), t.Category, styles.MutedStyle.Render(t.ID))
	return nil
}
