package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/countdown/internal/core/styles"
	"github.com/hay-kot/countdown/internal/core/timer"
	"github.com/hay-kot/countdown/internal/countdown"
	"github.com/hay-kot/countdown/pkg/iojson"
)

type LsCmd struct {
	flags *Flags
	app   *countdown.App

	// flags
	jsonOutput bool
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags, app *countdown.App) *LsCmd {
	return &LsCmd{flags: flags, app: app}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ls",
		Usage:     "List timers grouped by category",
		UsageText: "countdown ls [--json]",
		Description: `Displays every timer under its category, in the order categories were first used.

Use --json for one JSON object per timer.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

// timerInfo is the JSON output format for countdown ls --json.
type timerInfo struct {
	timer.Timer
	State   string `json:"state"`
	Elapsed int    `json:"elapsed"`
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	groups, err := cmd.app.Timers.Groups(ctx)
	if err != nil {
		return fmt.Errorf("list timers: %w", err)
	}

	if len(groups) == 0 {
		if !cmd.jsonOutput {
			fmt.Fprintf(os.Stderr, "No timers yet. Add one with 'countdown add'.\n")
		}
		return nil
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, g := range groups {
			for _, t := range g.Timers {
				if err := iojson.WriteLine(out, timerInfo{Timer: t, State: string(stateOf(t)), Elapsed: t.Elapsed()}); err != nil {
					return fmt.Errorf("encode timer: %w", err)
				}
			}
		}
		return nil
	}

	width := 20
	if cmd.flags.Config != nil {
		width = cmd.flags.Config.Display.BarWidth
	}

	for i, g := range groups {
		if i > 0 {
			_, _ = fmt.Fprintln(out)
		}
		category := g.Category
		if category == "" {
			category = "(uncategorized)"
		}
		_, _ = fmt.Fprintln(out, styles.HeaderStyle.Render(category))

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, t := range g.Timers {
			_, _ = fmt.Fprintf(w, "  %s\t%s\t%s / %s\t%s\t%s\n",
				stateIcon(stateOf(t)),
				styles.NameStyle.Render(t.Name),
				styles.Clock(t.Remaining),
				styles.Clock(t.Duration),
				styles.ProgressBar(t.Progress(), width),
				styles.MutedStyle.Render(t.ID),
			)
		}
		_ = w.Flush()
	}

	return nil
}

func stateOf(t timer.Timer) timer.State {
	switch {
	case t.Running:
		return timer.StateRunning
	case t.Done():
		return timer.StateCompleted
	default:
		return timer.StateIdle
	}
}

func stateIcon(s timer.State) string {
	switch s {
	case timer.StateRunning:
		return styles.SuccessStyle.Render(styles.IconRunning)
	case timer.StateCompleted:
		return styles.MutedStyle.Render(styles.IconCompleted)
	default:
		return styles.WarningStyle.Render(styles.IconIdle)
	}
}
