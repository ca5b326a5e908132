package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/logger"
)

// ErrToolNotFound marks a capture helper that is not installed. Callers
// translate it into their own unavailability handling instead of surfacing
// a raw exec error.
var ErrToolNotFound = errors.New("not found in PATH")

// Seam for tests.
var lookPathFn = exec.LookPath

// ToolAvailable reports whether an external helper is on PATH.
func ToolAvailable(name string) bool {
	_, err := lookPathFn(name)
	return err == nil
}

// RunTool executes an external helper and returns its stdout. The context
// bounds the run; a missing executable yields ErrToolNotFound, a deadline
// hit yields the context error, anything else an invocation error carrying
// the tool's stderr.
func RunTool(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := lookPathFn(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrToolNotFound)
	}

	log := logger.WithComponent("exec")
	log.Debug().Str("tool", name).Strs("args", args).Msg("running capture helper")

	cmd := exec.CommandContext(ctx, path, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", name, ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%s failed: %s", name, msg)
	}
	return out, nil
}

// tempPNGPath reserves a unique path for a tool to write its screenshot to.
// The caller is responsible for removing it.
func tempPNGPath() (string, error) {
	f, err := os.CreateTemp("", "screenshot-gnome-*.png")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	f.Close()
	return path, nil
}

// captureToFile runs a helper that writes a PNG to a temp path, loads the
// image, and always cleans the temp file up.
func captureToFile(ctx context.Context, tool string, argsFor func(path string) []string) (*Result, error) {
	path, err := tempPNGPath()
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	if _, err := RunTool(ctx, tool, argsFor(path)...); err != nil {
		return nil, err
	}
	return LoadPNGFile(path)
}

// CaptureWithGrim captures via grim (wlroots compositors). An empty
// geometry captures every output; "x,y WxH" captures that region.
func CaptureWithGrim(ctx context.Context, geometry string) (*Result, error) {
	return captureToFile(ctx, "grim", func(path string) []string {
		if geometry == "" {
			return []string{path}
		}
		return []string{"-g", geometry, path}
	})
}

// CaptureWithGnomeScreenshot captures the whole screen via gnome-screenshot.
func CaptureWithGnomeScreenshot(ctx context.Context) (*Result, error) {
	return captureToFile(ctx, "gnome-screenshot", func(path string) []string {
		return []string{"-f", path}
	})
}

// CaptureWithSpectacle captures via spectacle in background mode with
// notifications off. activeWindow selects the focused window instead of
// the full screen.
func CaptureWithSpectacle(ctx context.Context, activeWindow bool) (*Result, error) {
	return captureToFile(ctx, "spectacle", func(path string) []string {
		if activeWindow {
			return []string{"-a", "-b", "-n", "-o", path}
		}
		return []string{"-b", "-n", "-f", "-o", path}
	})
}
