package backend

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/capture"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/window"
)

// SwayAdapter lists windows by walking swaymsg's layout tree and
// captures through grim, like the Hyprland adapter.
type SwayAdapter struct{}

func NewSwayAdapter() *SwayAdapter {
	return &SwayAdapter{}
}

func (a *SwayAdapter) Name() string { return "sway-ipc" }

func (a *SwayAdapter) Kind() Kind { return CompositorIPC("swaymsg") }

func (a *SwayAdapter) Available() bool {
	return capture.ToolAvailable("swaymsg")
}

func (a *SwayAdapter) ListWindows(ctx context.Context) ([]window.Info, error) {
	out, err := capture.RunTool(ctx, "swaymsg", "-t", "get_tree")
	if err != nil {
		return nil, classify(a.Name(), err)
	}
	return parseSwayTree(out, a.Name())
}

func (a *SwayAdapter) Capture(ctx context.Context, req CaptureRequest) (*capture.Result, error) {
	return grimCapture(ctx, a.Name(), req)
}

// parseSwayTree normalizes `swaymsg -t get_tree` output. The tree nests
// outputs, workspaces, containers and views; view nodes are the ones
// carrying a pid plus either an app_id (native Wayland) or
// window_properties (XWayland).
func parseSwayTree(data []byte, backendName string) ([]window.Info, error) {
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, parseFailed(backendName, "expected a JSON tree object: %v", err)
	}

	var windows []window.Info
	seen := make(map[string]bool)
	walkSwayNode(root, "", &windows, seen)
	return windows, nil
}

func walkSwayNode(node map[string]any, workspace string, out *[]window.Info, seen map[string]bool) {
	// Workspace nodes name the workspace for everything below them.
	if typ, ok := jsonString(node, "type"); ok && typ == "workspace" {
		if name, ok := jsonString(node, "name"); ok {
			workspace = name
		}
	}

	if info, ok := swayViewInfo(node, workspace); ok && !seen[info.ID] {
		seen[info.ID] = true
		*out = append(*out, info)
	}

	for _, key := range []string{"nodes", "floating_nodes"} {
		children, ok := jsonArray(node, key)
		if !ok {
			continue
		}
		for _, child := range children {
			if childObj, ok := child.(map[string]any); ok {
				walkSwayNode(childObj, workspace, out, seen)
			}
		}
	}
}

// swayViewInfo extracts a window from a tree node, reporting false for
// structural nodes (outputs, workspaces, plain containers).
func swayViewInfo(node map[string]any, workspace string) (window.Info, bool) {
	id, ok := jsonInt(node, "id")
	if !ok {
		return window.Info{}, false
	}
	if _, hasPid := node["pid"]; !hasPid {
		return window.Info{}, false
	}

	appID, hasAppID := jsonString(node, "app_id")
	_, hasWindowProps := jsonObject(node, "window_properties")
	if !hasAppID && !hasWindowProps {
		return window.Info{}, false
	}

	info := window.Info{
		ID:        strconv.Itoa(id),
		Title:     window.ValueUnknown,
		Workspace: workspace,
	}

	if name, ok := jsonString(node, "name"); ok {
		info.Title = name
	}
	if hasAppID && appID != "" {
		info.AppID = appID
	} else if props, ok := jsonObject(node, "window_properties"); ok {
		if class, ok := jsonString(props, "class"); ok {
			info.AppID = class
		}
	}
	if rect, ok := jsonObject(node, "rect"); ok {
		if x, ok := jsonInt(rect, "x"); ok {
			info.Geometry.X = x
		}
		if y, ok := jsonInt(rect, "y"); ok {
			info.Geometry.Y = y
		}
		if w, ok := jsonInt(rect, "width"); ok {
			info.Geometry.Width = w
		}
		if h, ok := jsonInt(rect, "height"); ok {
			info.Geometry.Height = h
		}
	}
	if focused, ok := jsonBool(node, "focused"); ok {
		info.Focused = focused
	}

	return info, true
}
