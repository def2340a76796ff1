package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/countdown/internal/core/timer"
	"github.com/hay-kot/countdown/internal/countdown"
	"github.com/hay-kot/countdown/pkg/iojson"
)

// importItem is one timer in the import document.
type importItem struct {
	Name     string  `json:"name"`
	Duration seconds `json:"duration"`
	Category string  `json:"category"`
}

type ImportCmd struct {
	flags  *Flags
	app    *countdown.App
	reader iojson.FileReader[[]importItem]
}

// NewImportCmd creates a new import command
func NewImportCmd(flags *Flags, app *countdown.App) *ImportCmd {
	return &ImportCmd{flags: flags, app: app}
}

// Register adds the import command to the application
func (cmd *ImportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "import",
		Usage:     "Create timers from a JSON document",
		UsageText: "countdown import [-f timers.json]",
		Description: `Reads a JSON array of {"name", "duration", "category"} objects from
--file or stdin and adds each as a new timer. Durations are seconds or
duration strings such as "25m".

Every item is validated before any timer is created.`,
		Flags:  []cli.Flag{cmd.reader.Flag()},
		Action: cmd.run,
	})

	return app
}

func (cmd *ImportCmd) run(ctx context.Context, c *cli.Command) error {
	items, err := cmd.reader.Read()
	if err != nil {
		return err
	}

	invalid := false
	for i, it := range items {
		if err := timer.Validate(it.Name, int(it.Duration), it.Category); err != nil {
			errorf(os.Stderr, "item %d:", i)
			printFieldErrors(os.Stderr, err)
			invalid = true
		}
	}
	if invalid {
		return cli.Exit("", 1)
	}

	for _, it := range items {
		if _, err := cmd.app.Timers.Create(ctx, it.Name, int(it.Duration), it.Category); err != nil {
			return fmt.Errorf("import %q: %w", it.Name, err)
		}
	}

	successf(c.Root().Writer, "Imported %d timer(s)", len(items))
	return nil
}
