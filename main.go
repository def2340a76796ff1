package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/countdown/internal/commands"
	"github.com/hay-kot/countdown/internal/core/config"
	"github.com/hay-kot/countdown/internal/core/eventbus"
	"github.com/hay-kot/countdown/internal/core/logging"
	"github.com/hay-kot/countdown/internal/core/styles"
	"github.com/hay-kot/countdown/internal/countdown"
	"github.com/hay-kot/countdown/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser    func()
		countdownApp = &countdown.App{}
		busCancel    context.CancelFunc
		busDone      sync.WaitGroup
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "countdown",
		Usage:     "Track named countdown timers",
		UsageText: "countdown [global options] command [command options]",
		Description: `Countdown keeps a list of named, categorised timers that survive restarts.

Run 'countdown add --duration 25m Focus' to create a timer, then
'countdown start Focus' to run it. Completed timers are recorded in
'countdown history'.`,
		Version:               build(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("COUNTDOWN_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/countdown.log)",
				Sources:     cli.EnvVars("COUNTDOWN_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("COUNTDOWN_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("COUNTDOWN_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.BoolFlag{
				Name:        "ephemeral",
				Usage:       "keep timers in memory only; nothing is read or written",
				Sources:     cli.EnvVars("COUNTDOWN_EPHEMERAL"),
				Destination: &flags.Ephemeral,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; use explicit path or default to <datadir>/countdown.log
			logFile := flags.LogFile
			if logFile == "" && !flags.Ephemeral {
				logFile = filepath.Join(flags.DataDir, "countdown.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// Apply configured theme (validation ensures name is valid)
			palette, _ := styles.GetPalette(cfg.Display.Theme)
			styles.SetTheme(palette)

			a, err := countdown.NewApp(cfg, countdown.AppOptions{Ephemeral: flags.Ephemeral})
			if err != nil {
				return ctx, fmt.Errorf("open storage: %w", err)
			}

			eventbus.RegisterDebugLogger(a.Bus, logging.Component("eventbus"))
			eventbus.NewNotificationRouter(a.Bus).Register()
			a.Bus.SubscribeNotificationPublished(func(p eventbus.NotificationPublishedPayload) {
				commands.PrintNotification(os.Stderr, p)
			})

			busCtx, cancel := context.WithCancel(context.Background())
			busCancel = cancel
			busDone.Add(1)
			go func() {
				defer busDone.Done()
				a.Bus.Start(busCtx)
			}()

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*countdownApp = *a

			ctx = logging.WithCommand(ctx, c.Args().First())
			log.Debug().Ctx(ctx).Str("backend", a.Backend).Msg("storage ready")
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if countdownApp.Timers != nil {
				if err := countdownApp.Flush(ctx); err != nil {
					log.Error().Ctx(ctx).Err(err).Msg("failed to flush pending writes")
				}
			}

			// Deliver queued events before shutting down
			if busCancel != nil {
				busCancel()
				busDone.Wait()
			}

			if err := countdownApp.Close(); err != nil {
				log.Error().Ctx(ctx).Err(err).Msg("failed to close storage")
				return err
			}

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewAddCmd(flags, countdownApp).Register(app)
	app = commands.NewLsCmd(flags, countdownApp).Register(app)
	app = commands.NewStartCmd(flags, countdownApp).Register(app)
	app = commands.NewResetCmd(flags, countdownApp).Register(app)
	app = commands.NewRmCmd(flags, countdownApp).Register(app)
	app = commands.NewHistoryCmd(flags, countdownApp).Register(app)
	app = commands.NewImportCmd(flags, countdownApp).Register(app)
	app = commands.NewConfigValidateCmd(flags, countdownApp).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
