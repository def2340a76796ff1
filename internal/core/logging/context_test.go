package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithTimerID(t *testing.T) {
	ctx := WithTimerID(context.Background(), "timer-123")
	assert.Equal(t, "timer-123", GetTimerID(ctx))
}

func TestWithCommand(t *testing.T) {
	ctx := WithCommand(context.Background(), "start")
	assert.Equal(t, "start", GetCommand(ctx))
}

func TestContextValues_NotPresent(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTimerID(ctx))
	assert.Empty(t, GetCommand(ctx))
}
