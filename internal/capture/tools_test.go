package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunToolNotFound(t *testing.T) {
	_, err := RunTool(context.Background(), "definitely-not-installed-anywhere-9f3a")
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestToolAvailable(t *testing.T) {
	assert.True(t, ToolAvailable("sh"))
	assert.False(t, ToolAvailable("definitely-not-installed-anywhere-9f3a"))
}

func TestRunToolReturnsStdout(t *testing.T) {
	out, err := RunTool(context.Background(), "sh", "-c", "printf hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))
}

func TestRunToolWrapsStderr(t *testing.T) {
	_, err := RunTool(context.Background(), "sh", "-c", "echo broken pipe >&2; exit 3")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrToolNotFound)
	assert.ErrorContains(t, err, "broken pipe")
}

func TestRunToolHonorsDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := RunTool(ctx, "sh", "-c", "sleep 5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
