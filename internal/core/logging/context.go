package logging

import "context"

type contextKey string

const (
	timerIDKey contextKey = "timer_id"
	commandKey contextKey = "command"
)

// WithTimerID adds a timer ID to the context.
func WithTimerID(ctx context.Context, timerID string) context.Context {
	return context.WithValue(ctx, timerIDKey, timerID)
}

// WithCommand adds the name of the running CLI command to the context.
func WithCommand(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, commandKey, command)
}

// GetTimerID retrieves the timer ID from the context.
// Returns empty string if not present.
func GetTimerID(ctx context.Context) string {
	if id, ok := ctx.Value(timerIDKey).(string); ok {
		return id
	}
	return ""
}

// GetCommand retrieves the command name from the context.
// Returns empty string if not present.
func GetCommand(ctx context.Context) string {
	if cmd, ok := ctx.Value(commandKey).(string); ok {
		return cmd
	}
	return ""
}
