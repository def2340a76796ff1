package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/countdown/internal/core/eventbus"
	"github.com/hay-kot/countdown/internal/core/styles"
	"github.com/hay-kot/countdown/internal/core/timer"
	"github.com/hay-kot/countdown/internal/countdown"
)

// completionWait bounds how long start waits for the bus to deliver the
// completion event after the run ends.
const completionWait = 2 * time.Second

type StartCmd struct {
	flags *Flags
	app   *countdown.App

	// flags
	quiet bool

	newTicks func() countdown.TickSource
	isTTY    func(w io.Writer) bool
}

// NewStartCmd creates a new start command
func NewStartCmd(flags *Flags, app *countdown.App) *StartCmd {
	return &StartCmd{
		flags:    flags,
		app:      app,
		newTicks: func() countdown.TickSource { return countdown.NewTicker(countdown.TickInterval) },
		isTTY:    isTerminal,
	}
}

// Register adds the start command to the application
func (cmd *StartCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "start",
		Usage:     "Run a timer in the foreground",
		UsageText: "countdown start [--quiet] <id|name>",
		Description: `Counts the timer down once per second until it reaches zero.

Press Ctrl-C to pause; the remaining time is saved and 'countdown start'
resumes from there. A completed timer must be reset before it can run again.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "quiet",
				Aliases:     []string{"q"},
				Usage:       "disable the live countdown display",
				Destination: &cmd.quiet,
			},
		},
		ShellComplete: TimerNameCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

func (cmd *StartCmd) run(ctx context.Context, c *cli.Command) error {
	ref := c.Args().First()
	if ref == "" {
		return fmt.Errorf("timer name or id is required")
	}

	t, err := cmd.app.Timers.Resolve(ctx, ref)
	if err != nil {
		return err
	}

	done := make(chan eventbus.TimerCompletedPayload, 1)
	cmd.app.Bus.SubscribeTimerCompleted(func(p eventbus.TimerCompletedPayload) {
		if p.Completion.ID != t.ID {
			return
		}
		select {
		case done <- p:
		default:
		}
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := c.Root().Writer
	live := !cmd.quiet && cmd.isTTY(out)

	var wg sync.WaitGroup
	drawCtx, stopDraw := context.WithCancel(ctx)
	if live {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cmd.draw(drawCtx, out, t.ID)
		}()
	} else {
		infof(out, "Started %s with %s remaining", t.Name, styles.Clock(t.Remaining))
	}

	runErr := cmd.app.Timers.Run(ctx, t.ID, cmd.newTicks())

	stopDraw()
	wg.Wait()
	if live {
		cmd.drawLine(out, t.ID)
		_, _ = fmt.Fprintln(out)
	}

	switch {
	case errors.Is(runErr, timer.ErrCompleted):
		return fmt.Errorf("%s already completed; run 'countdown reset %s' first", t.Name, t.Name)
	case errors.Is(runErr, context.Canceled):
		snap, _ := cmd.app.Timers.Snapshot(context.WithoutCancel(ctx), t.ID)
		infof(out, "Paused %s at %s", t.Name, styles.Clock(snap.Remaining))
		var werr *timer.StorageWriteError
		if errors.As(runErr, &werr) {
			return fmt.Errorf("pause not saved: %w", werr)
		}
		return nil
	}

	snap, err := cmd.app.Timers.Snapshot(context.WithoutCancel(ctx), t.ID)
	if err == nil && snap.State == timer.StateCompleted {
		select {
		case p := <-done:
			successf(out, "%s completed!", p.Completion.Name)
		case <-time.After(completionWait):
			successf(out, "%s completed!", t.Name)
		}
	}

	if runErr != nil {
		return fmt.Errorf("completion not saved: %w", runErr)
	}
	return nil
}

func (cmd *StartCmd) draw(ctx context.Context, out io.Writer, id string) {
	ticker := time.NewTicker(countdown.TickInterval / 4)
	defer ticker.Stop()

	for {
		cmd.drawLine(out, id)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (cmd *StartCmd) drawLine(out io.Writer, id string) {
	snap, err := cmd.app.Timers.Snapshot(context.Background(), id)
	if err != nil {
		return
	}

	width := 20
	if cmd.flags.Config != nil {
		width = cmd.flags.Config.Display.BarWidth
	}

	_, _ = fmt.Fprintf(out, "\r\033[K%s %s  %s  %s",
		stateIcon(snap.State),
		styles.NameStyle.Render(snap.Name),
		styles.Clock(snap.Remaining),
		styles.ProgressBar(snap.Progress(), width),
	)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
