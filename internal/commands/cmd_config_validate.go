package commands

import (
	"context"
	"errors"
	"os"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/countdown/internal/countdown"
	"github.com/hay-kot/countdown/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	app    *countdown.App
	format string
}

// NewConfigValidateCmd creates a new config validate command. Backups of
// corrupt data found in app's storage are listed alongside the result.
func NewConfigValidateCmd(flags *Flags, app *countdown.App) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags, app: app}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "countdown config validate [options]",
				Description: "Validates the configuration file, checking storage keys, the history time layout, and file paths. Also lists backups of corrupt data left in storage.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

type validationIssue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	err := cmd.flags.Config.ValidateDeep(cmd.flags.ConfigPath)

	var issues []validationIssue
	var fields criterio.FieldErrors
	switch {
	case err == nil:
	case errors.As(err, &fields):
		for _, fe := range fields {
			issues = append(issues, validationIssue{Field: fe.Field, Message: fe.Err.Error()})
		}
	default:
		issues = append(issues, validationIssue{Message: err.Error()})
	}

	backups, berr := cmd.backups(ctx)
	if berr != nil {
		issues = append(issues, validationIssue{Field: "storage", Message: berr.Error()})
	}

	out := c.Root().Writer

	if cmd.format == "json" {
		if werr := iojson.WriteIndent(out, os.Stderr, struct {
			Valid   bool              `json:"valid"`
			Errors  []validationIssue `json:"errors,omitempty"`
			Backups []string          `json:"backups,omitempty"`
		}{Valid: err == nil, Errors: issues, Backups: backups}); werr != nil {
			return werr
		}
		if err != nil {
			return cli.Exit("", 1)
		}
		return nil
	}

	for _, is := range issues {
		if is.Field != "" {
			errorf(out, "%s: %s", is.Field, is.Message)
		} else {
			errorf(out, "%s", is.Message)
		}
	}

	for _, b := range backups {
		infof(out, "Found backup of corrupt data: %s", b)
	}

	if err == nil {
		successf(out, "Configuration is valid")
		return nil
	}

	errorf(out, "%d error(s) found", len(issues))
	return cli.Exit("", 1)
}

func (cmd *ConfigValidateCmd) backups(ctx context.Context) ([]string, error) {
	if cmd.app == nil || cmd.app.Timers == nil {
		return nil, nil
	}
	return cmd.app.Timers.Store().Backups(ctx)
}
