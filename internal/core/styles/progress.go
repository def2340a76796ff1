package styles

import (
	"fmt"
	"strings"
	"time"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// Icons used in list and countdown output.
const (
	IconRunning   = "▶"
	IconIdle      = "⏸"
	IconCompleted = "✓"
)

// ProgressBar renders the remaining fraction as a bar of width cells. The
// bar turns yellow below two thirds and red below one third.
func ProgressBar(fraction float64, width int) string {
	fraction = max(0, min(fraction, 1))
	width = max(width, 2)

	filled := min(int(fraction*float64(width)+0.5), width)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := SuccessStyle
	switch {
	case fraction < 0.33:
		style = ErrorStyle
	case fraction < 0.66:
		style = WarningStyle
	}
	return style.Render(bar)
}

// Clock formats seconds as m:ss, or h:mm:ss once an hour is reached.
func Clock(seconds int) string {
	d := time.Duration(max(seconds, 0)) * time.Second
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
