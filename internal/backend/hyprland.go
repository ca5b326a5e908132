package backend

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/capture"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/logger"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/window"
)

// HyprlandAdapter lists windows through hyprctl and captures through
// grim. Hyprland's IPC yields the richest metadata of any backend:
// exact geometry, workspace, focus order.
type HyprlandAdapter struct{}

func NewHyprlandAdapter() *HyprlandAdapter {
	return &HyprlandAdapter{}
}

func (a *HyprlandAdapter) Name() string { return "hyprland-ipc" }

func (a *HyprlandAdapter) Kind() Kind { return CompositorIPC("hyprctl") }

func (a *HyprlandAdapter) Available() bool {
	return capture.ToolAvailable("hyprctl")
}

func (a *HyprlandAdapter) ListWindows(ctx context.Context) ([]window.Info, error) {
	out, err := capture.RunTool(ctx, "hyprctl", "clients", "-j")
	if err != nil {
		return nil, classify(a.Name(), err)
	}
	return parseHyprlandClients(out, a.Name())
}

func (a *HyprlandAdapter) Capture(ctx context.Context, req CaptureRequest) (*capture.Result, error) {
	return grimCapture(ctx, a.Name(), req)
}

// parseHyprlandClients normalizes `hyprctl clients -j` output. Clients
// without an address are dropped since nothing could ever be captured or
// re-resolved by their id; every other missing field degrades to its
// sentinel.
func parseHyprlandClients(data []byte, backendName string) ([]window.Info, error) {
	var clients []map[string]any
	if err := json.Unmarshal(data, &clients); err != nil {
		return nil, parseFailed(backendName, "expected a JSON client array: %v", err)
	}

	log := logger.WithComponent(backendName)
	windows := make([]window.Info, 0, len(clients))

	for _, client := range clients {
		address, ok := jsonString(client, "address")
		if !ok || address == "" {
			log.Debug().Msg("Skipping client without address")
			continue
		}

		// Hidden clients (other workspaces, special workspaces) have no
		// on-screen pixels to capture.
		if hidden, ok := jsonBool(client, "hidden"); ok && hidden {
			continue
		}

		info := window.Info{
			ID:    address,
			Title: window.ValueUnknown,
		}

		if title, ok := jsonString(client, "title"); ok {
			info.Title = title
		}
		if class, ok := jsonString(client, "class"); ok {
			info.AppID = class
		}
		if x, y, ok := jsonIntPair(client, "at"); ok {
			info.Geometry.X = x
			info.Geometry.Y = y
		}
		if w, h, ok := jsonIntPair(client, "size"); ok {
			info.Geometry.Width = w
			info.Geometry.Height = h
		}
		if ws, ok := jsonObject(client, "workspace"); ok {
			if name, ok := jsonString(ws, "name"); ok && name != "" {
				info.Workspace = name
			} else if id, ok := jsonInt(ws, "id"); ok {
				info.Workspace = strconv.Itoa(id)
			}
		}
		// focusHistoryID 0 means most recently focused.
		if fh, ok := jsonInt(client, "focusHistoryID"); ok && fh == 0 {
			info.Focused = true
		}

		windows = append(windows, info)
	}

	return windows, nil
}

// grimCapture serves both wlroots adapters: grim captures the whole
// output set, or any virtual-screen rectangle, straight from the
// compositor.
func grimCapture(ctx context.Context, backendName string, req CaptureRequest) (*capture.Result, error) {
	switch req.Mode {
	case ModeFullScreen:
		res, err := capture.CaptureWithGrim(ctx, "")
		if err != nil {
			return nil, classify(backendName, err)
		}
		return res, nil

	case ModeRegion:
		res, err := capture.CaptureWithGrim(ctx, req.Region.String())
		if err != nil {
			return nil, classify(backendName, err)
		}
		return res, nil

	case ModeWindow:
		if req.Window == nil {
			return nil, &Error{Kind: FailureInvocation, Backend: backendName, Err: errUnresolvedWindow}
		}
		if req.Window.Geometry.Empty() {
			return nil, &Error{Kind: FailureInvocation, Backend: backendName, Err: errNoGeometry}
		}
		res, err := capture.CaptureWithGrim(ctx, req.Window.Geometry.String())
		if err != nil {
			return nil, classify(backendName, err)
		}
		return res, nil

	default:
		return nil, &Error{Kind: FailureInvocation, Backend: backendName, Err: errUnknownMode}
	}
}
