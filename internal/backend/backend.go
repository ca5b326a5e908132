// Package backend selects and drives the mechanisms that can enumerate
// windows and capture pixels on a Linux desktop. Every compositor family
// exposes a different surface (hyprctl and swaymsg JSON, GNOME Shell and
// KWin D-Bus interfaces, plain X11), so each one is wrapped in an Adapter
// with a uniform contract and a Catalog decides, per detected session,
// which adapters to try and in what order.
package backend

import (
	"context"
	"fmt"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/capture"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/window"
)

// Method identifies the kind of mechanism an adapter drives.
type Method string

const (
	// MethodCompositorIPC shells out to a compositor's own IPC client.
	MethodCompositorIPC Method = "compositor-ipc"
	// MethodDBusIntrospection asks the desktop shell over D-Bus.
	MethodDBusIntrospection Method = "dbus-introspection"
	// MethodNativeCapture uses display-server-level capture with no
	// desktop cooperation. Works almost everywhere, knows the least.
	MethodNativeCapture Method = "native-capture"
)

// Kind selects one backend: the method plus, for compositor IPC, the
// client tool it runs.
type Kind struct {
	Method Method `json:"method"`
	Tool   string `json:"tool,omitempty"`
}

func (k Kind) String() string {
	if k.Tool != "" {
		return fmt.Sprintf("%s(%s)", k.Method, k.Tool)
	}
	return string(k.Method)
}

// CompositorIPC builds the selector for a compositor IPC client.
func CompositorIPC(tool string) Kind {
	return Kind{Method: MethodCompositorIPC, Tool: tool}
}

// Selectors without a tool component.
var (
	KindDBusIntrospection = Kind{Method: MethodDBusIntrospection}
	KindNativeCapture     = Kind{Method: MethodNativeCapture}
)

// CaptureMode names what a capture request targets.
type CaptureMode string

const (
	ModeFullScreen CaptureMode = "fullscreen"
	ModeWindow     CaptureMode = "window"
	ModeRegion     CaptureMode = "region"
)

// CaptureRequest describes one capture. For window captures the
// orchestrator re-resolves WindowID against a fresh listing and fills
// Window before any adapter sees the request; adapters read geometry from
// there, never from the caller's stale copy.
type CaptureRequest struct {
	Mode     CaptureMode
	WindowID string
	Window   *window.Info
	Region   window.Geometry
}

// FullScreenRequest captures everything.
func FullScreenRequest() CaptureRequest {
	return CaptureRequest{Mode: ModeFullScreen}
}

// WindowRequest captures the window with the given listing id.
func WindowRequest(id string) CaptureRequest {
	return CaptureRequest{Mode: ModeWindow, WindowID: id}
}

// RegionRequest captures a screen rectangle.
func RegionRequest(x, y, width, height int) CaptureRequest {
	return CaptureRequest{
		Mode:   ModeRegion,
		Region: window.Geometry{X: x, Y: y, Width: width, Height: height},
	}
}

// Adapter is one window-listing and capture mechanism. Implementations
// hold no state between calls; any connection or child process an attempt
// needs is acquired and released within that call. Both operations honor
// the context deadline and classify their failures into the taxonomy in
// errors.go.
type Adapter interface {
	Name() string
	Kind() Kind
	// Available cheaply reports whether the mechanism could plausibly
	// work here. Used for diagnostics; attempts still classify their own
	// failures.
	Available() bool
	ListWindows(ctx context.Context) ([]window.Info, error)
	Capture(ctx context.Context, req CaptureRequest) (*capture.Result, error)
}
