// Package monitor enumerates displays. On X11 it reads the native display
// list; on wlroots compositors it asks the compositor over its CLI; on
// other Wayland sessions it falls back to a synthetic screen, since Wayland
// itself exposes no monitor list to ordinary clients.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/capture"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/logger"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/session"
)

// Info describes one display.
type Info struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	IsPrimary   bool    `json:"is_primary"`
	ScaleFactor float64 `json:"scale_factor"`
	Rotation    float64 `json:"rotation"`
	Frequency   float64 `json:"frequency"`
	IsBuiltin   bool    `json:"is_builtin"`
}

// DefaultWayland is the placeholder monitor reported when a Wayland
// compositor gives us no way to enumerate real ones.
func DefaultWayland() Info {
	return Info{
		ID:          0,
		Name:        "Wayland Screen",
		X:           0,
		Y:           0,
		Width:       1920,
		Height:      1080,
		IsPrimary:   true,
		ScaleFactor: 1.0,
		Rotation:    0.0,
		Frequency:   60.0,
		IsBuiltin:   false,
	}
}

// Enumerate lists the displays visible in the given session. It always
// returns at least one entry on Wayland; on X11 it can fail when no
// display is reachable.
func Enumerate(ctx context.Context, sess session.DesktopSession) ([]Info, error) {
	log := logger.WithComponent("monitor")

	if sess.IsWayland() {
		switch sess.Environment {
		case session.EnvHyprland:
			if infos, err := enumerateHyprland(ctx); err == nil {
				return infos, nil
			} else {
				log.Debug().Err(err).Msg("hyprctl monitor listing failed, using default")
			}
		case session.EnvSway:
			if infos, err := enumerateSway(ctx); err == nil {
				return infos, nil
			} else {
				log.Debug().Err(err).Msg("swaymsg output listing failed, using default")
			}
		}
		return []Info{DefaultWayland()}, nil
	}

	infos, err := enumerateNative()
	if err != nil {
		if sess.DisplayServer == session.DisplayUnknown {
			return []Info{DefaultWayland()}, nil
		}
		return nil, err
	}
	return infos, nil
}

// Primary returns the primary display, or the first one when none is
// flagged primary.
func Primary(infos []Info) (Info, bool) {
	for _, m := range infos {
		if m.IsPrimary {
			return m, true
		}
	}
	if len(infos) > 0 {
		return infos[0], true
	}
	return Info{}, false
}

// AtPoint returns the display whose area contains the given point.
func AtPoint(infos []Info, x, y int) (Info, bool) {
	for _, m := range infos {
		if x >= m.X && x < m.X+m.Width && y >= m.Y && y < m.Y+m.Height {
			return m, true
		}
	}
	return Info{}, false
}

// ByID returns the display with the given id.
func ByID(infos []Info, id int) (Info, bool) {
	for _, m := range infos {
		if m.ID == id {
			return m, true
		}
	}
	return Info{}, false
}

func enumerateNative() ([]Info, error) {
	n := capture.NumDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no displays found")
	}

	infos := make([]Info, 0, n)
	for i := 0; i < n; i++ {
		bounds, err := capture.DisplayBounds(i)
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			ID:          i,
			Name:        fmt.Sprintf("Display %d", i),
			X:           bounds.Min.X,
			Y:           bounds.Min.Y,
			Width:       bounds.Dx(),
			Height:      bounds.Dy(),
			IsPrimary:   i == 0,
			ScaleFactor: 1.0,
			Rotation:    0.0,
			Frequency:   60.0,
			IsBuiltin:   false,
		})
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("no displays found")
	}
	return infos, nil
}

func enumerateHyprland(ctx context.Context) ([]Info, error) {
	out, err := capture.RunTool(ctx, "hyprctl", "monitors", "-j")
	if err != nil {
		return nil, err
	}
	return parseHyprlandMonitors(out)
}

func enumerateSway(ctx context.Context) ([]Info, error) {
	out, err := capture.RunTool(ctx, "swaymsg", "-t", "get_outputs")
	if err != nil {
		return nil, err
	}
	return parseSwayOutputs(out)
}

type hyprlandMonitor struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	RefreshRate float64 `json:"refreshRate"`
	Scale       float64 `json:"scale"`
	Transform   int     `json:"transform"`
	Focused     bool    `json:"focused"`
}

func parseHyprlandMonitors(data []byte) ([]Info, error) {
	var raw []hyprlandMonitor
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse hyprctl monitors output: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("hyprctl reported no monitors")
	}

	infos := make([]Info, 0, len(raw))
	for _, m := range raw {
		scale := m.Scale
		if scale == 0 {
			scale = 1.0
		}
		infos = append(infos, Info{
			ID:          m.ID,
			Name:        m.Name,
			X:           m.X,
			Y:           m.Y,
			Width:       m.Width,
			Height:      m.Height,
			IsPrimary:   m.Focused,
			ScaleFactor: scale,
			Rotation:    float64((m.Transform % 4) * 90),
			Frequency:   m.RefreshRate,
			IsBuiltin:   builtinName(m.Name),
		})
	}
	return infos, nil
}

type swayOutput struct {
	Name      string  `json:"name"`
	Active    bool    `json:"active"`
	Focused   bool    `json:"focused"`
	Scale     float64 `json:"scale"`
	Transform string  `json:"transform"`
	Rect      struct {
		X      int `json:"x"`
		Y      int `json:"y"`
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"rect"`
	CurrentMode struct {
		Width   int `json:"width"`
		Height  int `json:"height"`
		Refresh int `json:"refresh"`
	} `json:"current_mode"`
}

func parseSwayOutputs(data []byte) ([]Info, error) {
	var raw []swayOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse swaymsg outputs: %w", err)
	}

	infos := make([]Info, 0, len(raw))
	for i, o := range raw {
		if !o.Active {
			continue
		}
		scale := o.Scale
		if scale == 0 {
			scale = 1.0
		}
		infos = append(infos, Info{
			ID:          i,
			Name:        o.Name,
			X:           o.Rect.X,
			Y:           o.Rect.Y,
			Width:       o.Rect.Width,
			Height:      o.Rect.Height,
			IsPrimary:   o.Focused,
			ScaleFactor: scale,
			Rotation:    swayRotation(o.Transform),
			Frequency:   float64(o.CurrentMode.Refresh) / 1000.0,
			IsBuiltin:   builtinName(o.Name),
		})
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("swaymsg reported no active outputs")
	}
	return infos, nil
}

// swayRotation maps sway transform names ("90", "flipped-270", "normal")
// to degrees.
func swayRotation(transform string) float64 {
	s := strings.TrimPrefix(transform, "flipped-")
	if s == "normal" || s == "flipped" || s == "" {
		return 0
	}
	deg, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return float64(deg)
}

// builtinName reports whether an output name looks like a laptop panel.
func builtinName(name string) bool {
	return strings.HasPrefix(name, "eDP") ||
		strings.HasPrefix(name, "LVDS") ||
		strings.HasPrefix(name, "DSI")
}
