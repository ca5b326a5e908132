package backend

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/hashicorp/go-multierror"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/capture"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/logger"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/session"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/window"
)

// NativeAdapter is the universal fallback. It needs no desktop
// cooperation: window listing reads the X root window's client list
// (which on Wayland still covers XWayland windows when a DISPLAY is
// up), and capture uses the display grabber on X11 or a chain of
// generic screenshot tools on Wayland. Metadata is the poorest of any
// backend, which is why it always sits last in the catalog.
type NativeAdapter struct {
	sess session.DesktopSession
}

func NewNativeAdapter(sess session.DesktopSession) *NativeAdapter {
	return &NativeAdapter{sess: sess}
}

func (a *NativeAdapter) Name() string { return "native" }

func (a *NativeAdapter) Kind() Kind { return KindNativeCapture }

func (a *NativeAdapter) Available() bool {
	if a.haveXDisplay() {
		return true
	}
	for _, tool := range []string{"grim", "gnome-screenshot", "spectacle"} {
		if capture.ToolAvailable(tool) {
			return true
		}
	}
	return false
}

func (a *NativeAdapter) haveXDisplay() bool {
	return os.Getenv("DISPLAY") != ""
}

func (a *NativeAdapter) ListWindows(ctx context.Context) ([]window.Info, error) {
	if !a.haveXDisplay() {
		return nil, unavailable(a.Name(), "no X display for window enumeration")
	}

	windows, err := listX11Windows()
	if err != nil {
		return nil, classify(a.Name(), err)
	}
	return windows, nil
}

// listX11Windows walks the root window's managed client list.
func listX11Windows() ([]window.Info, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	defer xu.Conn().Close()

	clients, err := ewmh.ClientListGet(xu)
	if err != nil {
		return nil, fmt.Errorf("read client list: %w", err)
	}

	active, _ := ewmh.ActiveWindowGet(xu)

	windows := make([]window.Info, 0, len(clients))
	for _, client := range clients {
		info := window.Info{
			ID:    strconv.FormatUint(uint64(client), 10),
			Title: x11WindowTitle(xu, client),
			AppID: x11WindowClass(xu, client),
		}

		if geom, ok := x11WindowRect(xu, client); ok {
			info.Geometry = geom
		}
		if desktop, err := ewmh.WmDesktopGet(xu, client); err == nil && desktop != 0xFFFFFFFF {
			info.Workspace = strconv.FormatUint(uint64(desktop), 10)
		}
		info.Focused = client == active

		windows = append(windows, info)
	}

	return windows, nil
}

func x11WindowTitle(xu *xgbutil.XUtil, win xproto.Window) string {
	if title, err := ewmh.WmNameGet(xu, win); err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	// Older clients only set the ICCCM name.
	if title, err := icccm.WmNameGet(xu, win); err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	return window.ValueUnknown
}

func x11WindowClass(xu *xgbutil.XUtil, win xproto.Window) string {
	wmClass, err := icccm.WmClassGet(xu, win)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

// x11WindowRect resolves a window's absolute position on the root
// window; GetGeometry alone is relative to the WM frame.
func x11WindowRect(xu *xgbutil.XUtil, win xproto.Window) (window.Geometry, bool) {
	geom, err := xproto.GetGeometry(xu.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return window.Geometry{}, false
	}

	translate, err := xproto.TranslateCoordinates(xu.Conn(), win, xu.RootWin(), 0, 0).Reply()
	if err != nil {
		return window.Geometry{}, false
	}

	return window.Geometry{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, true
}

func (a *NativeAdapter) Capture(ctx context.Context, req CaptureRequest) (*capture.Result, error) {
	if a.sess.IsX11() {
		return a.captureX11(ctx, req)
	}
	// Wayland and undetected sessions share the tool-chain path; the
	// X11 grabber still appears as a late step when a DISPLAY exists.
	return a.captureWayland(ctx, req)
}

func (a *NativeAdapter) captureX11(ctx context.Context, req CaptureRequest) (*capture.Result, error) {
	switch req.Mode {
	case ModeFullScreen:
		res, err := capture.GrabDisplay(0)
		if err != nil {
			return nil, classify(a.Name(), err)
		}
		return res, nil

	case ModeRegion:
		res, err := capture.GrabRect(req.Region.X, req.Region.Y, req.Region.Width, req.Region.Height)
		if err != nil {
			return nil, classify(a.Name(), err)
		}
		return res, nil

	case ModeWindow:
		if req.Window == nil {
			return nil, &Error{Kind: FailureInvocation, Backend: a.Name(), Err: errUnresolvedWindow}
		}
		res, err := a.x11CaptureWindow(req.Window)
		if err != nil {
			return nil, classify(a.Name(), err)
		}
		return res, nil

	default:
		return nil, &Error{Kind: FailureInvocation, Backend: a.Name(), Err: errUnknownMode}
	}
}

// x11CaptureWindow re-finds the target in the X client list and grabs
// its pixels. The target may come from a different backend's listing,
// so the id match gets looser fallbacks on title and geometry.
func (a *NativeAdapter) x11CaptureWindow(target *window.Info) (*capture.Result, error) {
	windows, err := listX11Windows()
	if err != nil {
		return nil, err
	}

	match, ok := matchWindow(windows, target)
	if !ok {
		return nil, fmt.Errorf("window %q not found in X client list", target.ID)
	}

	id, err := strconv.ParseUint(match.ID, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("window id %q is not an X window", match.ID)
	}

	grabber, err := capture.NewX11Grabber()
	if err != nil {
		return nil, err
	}
	defer grabber.Close()

	return grabber.CaptureWindowID(uint32(id))
}

// matchWindow finds target in a listing: by id, then by title and app,
// then by exact geometry.
func matchWindow(windows []window.Info, target *window.Info) (window.Info, bool) {
	for _, w := range windows {
		if w.ID == target.ID {
			return w, true
		}
	}
	if target.Title != "" && target.Title != window.ValueUnknown {
		for _, w := range windows {
			if w.Title == target.Title && w.AppID == target.AppID {
				return w, true
			}
		}
	}
	if !target.Geometry.Empty() {
		for _, w := range windows {
			if w.Geometry == target.Geometry {
				return w, true
			}
		}
	}
	return window.Info{}, false
}

func (a *NativeAdapter) captureWayland(ctx context.Context, req CaptureRequest) (*capture.Result, error) {
	switch req.Mode {
	case ModeFullScreen:
		res, err := a.waylandFullScreen(ctx)
		if err != nil {
			return nil, classify(a.Name(), err)
		}
		return res, nil

	case ModeRegion:
		res, err := a.waylandRegion(ctx, req.Region)
		if err != nil {
			return nil, classify(a.Name(), err)
		}
		return res, nil

	case ModeWindow:
		if req.Window == nil {
			return nil, &Error{Kind: FailureInvocation, Backend: a.Name(), Err: errUnresolvedWindow}
		}
		res, err := a.waylandWindow(ctx, req.Window)
		if err != nil {
			return nil, classify(a.Name(), err)
		}
		return res, nil

	default:
		return nil, &Error{Kind: FailureInvocation, Backend: a.Name(), Err: errUnknownMode}
	}
}

type captureStep struct {
	name string
	fn   func(context.Context) (*capture.Result, error)
}

// fullScreenChain orders the generic tools by how likely they are to
// work on this desktop, with the screenshot portal as the last try
// everywhere.
func (a *NativeAdapter) fullScreenChain() []captureStep {
	grim := captureStep{"grim", func(ctx context.Context) (*capture.Result, error) {
		return capture.CaptureWithGrim(ctx, "")
	}}
	gnomeShot := captureStep{"gnome-screenshot", func(ctx context.Context) (*capture.Result, error) {
		return capture.CaptureWithGnomeScreenshot(ctx)
	}}
	spectacle := captureStep{"spectacle", func(ctx context.Context) (*capture.Result, error) {
		return capture.CaptureWithSpectacle(ctx, false)
	}}
	portal := captureStep{"portal", capture.CaptureWithPortal}

	switch a.sess.Environment {
	case session.EnvHyprland, session.EnvSway:
		return []captureStep{grim, portal}
	case session.EnvGnome:
		return []captureStep{gnomeShot, grim, portal}
	case session.EnvKde:
		return []captureStep{spectacle, grim, portal}
	default:
		return []captureStep{grim, gnomeShot, spectacle, portal}
	}
}

func (a *NativeAdapter) waylandFullScreen(ctx context.Context) (*capture.Result, error) {
	log := logger.WithComponent(a.Name())

	var failures *multierror.Error
	for _, step := range a.fullScreenChain() {
		res, err := step.fn(ctx)
		if err == nil {
			return res, nil
		}
		log.Debug().Str("step", step.name).Err(err).Msg("Capture step failed")
		failures = multierror.Append(failures, fmt.Errorf("%s: %w", step.name, err))

		if ctx.Err() != nil {
			break
		}
	}
	return nil, failures.ErrorOrNil()
}

func (a *NativeAdapter) waylandRegion(ctx context.Context, region window.Geometry) (*capture.Result, error) {
	if res, err := capture.CaptureWithGrim(ctx, region.String()); err == nil {
		return res, nil
	}

	full, err := a.waylandFullScreen(ctx)
	if err != nil {
		return nil, err
	}
	return capture.CropResult(full, region.X, region.Y, region.Width, region.Height)
}

// waylandWindow tries the cheapest path first: an exact grim region when
// the listing gave us geometry, then a full-screen shot cropped to that
// geometry, then the X11 grabber in case the window lives on XWayland.
func (a *NativeAdapter) waylandWindow(ctx context.Context, target *window.Info) (*capture.Result, error) {
	var failures *multierror.Error

	if target.Geometry.Empty() {
		failures = multierror.Append(failures, errNoGeometry)
	} else {
		if res, err := capture.CaptureWithGrim(ctx, target.Geometry.String()); err == nil {
			return res, nil
		} else {
			failures = multierror.Append(failures, fmt.Errorf("grim: %w", err))
		}

		if full, err := a.waylandFullScreen(ctx); err == nil {
			if res, err := capture.CropResult(full, target.Geometry.X, target.Geometry.Y, target.Geometry.Width, target.Geometry.Height); err == nil {
				return res, nil
			} else {
				failures = multierror.Append(failures, fmt.Errorf("crop full screen: %w", err))
			}
		} else {
			failures = multierror.Append(failures, err)
		}
	}

	if a.haveXDisplay() {
		if res, err := a.x11CaptureWindow(target); err == nil {
			return res, nil
		} else {
			failures = multierror.Append(failures, fmt.Errorf("x11: %w", err))
		}
	}

	return nil, failures.ErrorOrNil()
}
