package backend

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/capture"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/logger"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/window"
)

// KWinAdapter is the KDE Plasma resolution of the D-Bus introspection
// slot. KWin on Wayland exposes no direct window-list method, so listing
// goes through kdotool, which drives KWin's scripting interface and
// prints one window id per line. Capture goes through spectacle.
type KWinAdapter struct{}

func NewKWinAdapter() *KWinAdapter {
	return &KWinAdapter{}
}

func (a *KWinAdapter) Name() string { return "kwin" }

func (a *KWinAdapter) Kind() Kind { return KindDBusIntrospection }

func (a *KWinAdapter) Available() bool {
	return capture.ToolAvailable("kdotool")
}

func (a *KWinAdapter) ListWindows(ctx context.Context) ([]window.Info, error) {
	out, err := capture.RunTool(ctx, "kdotool", "search", "--name", ".")
	if err != nil {
		return nil, classify(a.Name(), err)
	}

	activeID := a.activeWindowID(ctx)

	log := logger.WithComponent(a.Name())
	var windows []window.Info

	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		// KWin 6 ids are UUID strings, older ones numeric. Either way
		// they are opaque handles for the follow-up queries.
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}

		info, err := a.windowDetails(ctx, id)
		if err != nil {
			log.Debug().Str("window_id", id).Err(err).Msg("Failed to query window details")
			continue
		}
		if info.Title == window.ValueUnknown && info.AppID == "" {
			continue
		}

		info.Focused = id == activeID
		windows = append(windows, info)
	}

	if len(windows) == 0 {
		return nil, &Error{Kind: FailureInvocation, Backend: a.Name(), Err: fmt.Errorf("kdotool found no windows")}
	}
	return windows, nil
}

// windowDetails fills one window's fields with follow-up kdotool calls.
// Each query is best-effort; a missing answer leaves the sentinel.
func (a *KWinAdapter) windowDetails(ctx context.Context, id string) (window.Info, error) {
	info := window.Info{
		ID:    id,
		Title: window.ValueUnknown,
	}

	name, err := capture.RunTool(ctx, "kdotool", "getwindowname", id)
	if err != nil {
		return info, err
	}
	if title := strings.TrimSpace(string(name)); title != "" {
		info.Title = title
	}

	if class, err := capture.RunTool(ctx, "kdotool", "getwindowclassname", id); err == nil {
		info.AppID = strings.TrimSpace(string(class))
	}

	if geom, err := capture.RunTool(ctx, "kdotool", "getwindowgeometry", id); err == nil {
		info.Geometry = parseKdotoolGeometry(string(geom))
	}

	return info, nil
}

func (a *KWinAdapter) activeWindowID(ctx context.Context) string {
	out, err := capture.RunTool(ctx, "kdotool", "getactivewindow")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// parseKdotoolGeometry reads kdotool's human-oriented output:
//
//	Window <id>
//	  Position: X,Y
//	  Geometry: WxH
func parseKdotoolGeometry(output string) window.Geometry {
	var geom window.Geometry

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Position:"):
			parts := strings.Split(strings.TrimSpace(strings.TrimPrefix(line, "Position:")), ",")
			if len(parts) >= 2 {
				geom.X, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
				geom.Y, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
			}
		case strings.HasPrefix(line, "Geometry:"):
			parts := strings.Split(strings.TrimSpace(strings.TrimPrefix(line, "Geometry:")), "x")
			if len(parts) >= 2 {
				geom.Width, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
				geom.Height, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
			}
		}
	}

	return geom
}

func (a *KWinAdapter) Capture(ctx context.Context, req CaptureRequest) (*capture.Result, error) {
	switch req.Mode {
	case ModeFullScreen:
		res, err := capture.CaptureWithSpectacle(ctx, false)
		if err != nil {
			return nil, classify(a.Name(), err)
		}
		return res, nil

	case ModeWindow:
		if req.Window == nil {
			return nil, &Error{Kind: FailureInvocation, Backend: a.Name(), Err: errUnresolvedWindow}
		}
		// Non-interactive spectacle can only shoot the active window.
		// When the target is some other window, pass instead of handing
		// the caller the wrong pixels.
		if active := a.activeWindowID(ctx); active != "" && active != req.Window.ID {
			return nil, &Error{
				Kind:    FailureInvocation,
				Backend: a.Name(),
				Err:     fmt.Errorf("spectacle captures only the active window, target %q is not focused", req.Window.ID),
			}
		}
		res, err := capture.CaptureWithSpectacle(ctx, true)
		if err != nil {
			return nil, classify(a.Name(), err)
		}
		return res, nil

	case ModeRegion:
		// spectacle's region mode opens an interactive picker, which a
		// headless capture path cannot drive.
		return nil, &Error{
			Kind:    FailureInvocation,
			Backend: a.Name(),
			Err:     fmt.Errorf("spectacle region capture requires interaction"),
		}

	default:
		return nil, &Error{Kind: FailureInvocation, Backend: a.Name(), Err: errUnknownMode}
	}
}
