package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/countdown/internal/countdown"
)

// TimerNameCompleter returns a ShellCompleteFunc that suggests timer names
// as positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func TimerNameCompleter(app *countdown.App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		if app.Timers == nil {
			return
		}
		timers, err := app.Timers.List(ctx)
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, t := range timers {
			_, _ = fmt.Fprintln(w, t.Name)
		}
	}
}
