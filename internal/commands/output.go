package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/hay-kot/criterio"

	"github.com/hay-kot/countdown/internal/core/eventbus"
	"github.com/hay-kot/countdown/internal/core/styles"
)

func successf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, styles.SuccessStyle.Render(styles.IconCompleted)+" "+fmt.Sprintf(format, args...))
}

func infof(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, fmt.Sprintf(format, args...))
}

func errorf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, styles.ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// printFieldErrors lists criterio field errors one per line and reports
// whether err carried any.
func printFieldErrors(w io.Writer, err error) bool {
	var fields criterio.FieldErrors
	if !errors.As(err, &fields) {
		return false
	}
	for _, fe := range fields {
		errorf(w, "%s: %v", fe.Field, fe.Err)
	}
	return true
}

// PrintNotification writes a bus notification for the user. Info messages
// are left to the commands that produced them.
func PrintNotification(w io.Writer, p eventbus.NotificationPublishedPayload) {
	switch p.Level {
	case eventbus.LevelWarning:
		_, _ = fmt.Fprintln(w, styles.WarningStyle.Render("! "+p.Message))
	case eventbus.LevelError:
		errorf(w, "%s", p.Message)
	}
}
