package backend

import (
	"github.com/rodsilvavieira2/screenshot-gnome/internal/session"
)

// policyRow is one line of the fallback policy. Rows are checked in
// order and the first match wins; wildcard rows match any environment
// or display server.
type policyRow struct {
	environment   session.Environment
	anyEnviron    bool
	displayServer session.DisplayServer
	anyServer     bool
	chain         []Kind
}

func (r policyRow) matches(sess session.DesktopSession) bool {
	if !r.anyEnviron && sess.Environment != r.environment {
		return false
	}
	if !r.anyServer && sess.DisplayServer != r.displayServer {
		return false
	}
	return true
}

// policy is the whole backend-selection table. Compositor IPC rows fire
// only on a confirmed Wayland session: a Hyprland or Sway environment on
// an unknown display server falls through to the generic rows, since the
// compositor tools answer for the Wayland session only. On X11 the shell
// interfaces add nothing over direct native capture, so X11 maps straight
// to it. The final wildcard row keeps every session shape covered, with
// native capture as the universal last resort.
var policy = []policyRow{
	{
		environment:   session.EnvHyprland,
		displayServer: session.DisplayWayland,
		chain:         []Kind{CompositorIPC("hyprctl"), KindNativeCapture},
	},
	{
		environment:   session.EnvSway,
		displayServer: session.DisplayWayland,
		chain:         []Kind{CompositorIPC("swaymsg"), KindNativeCapture},
	},
	{
		environment:   session.EnvGnome,
		displayServer: session.DisplayWayland,
		chain:         []Kind{KindDBusIntrospection, KindNativeCapture},
	},
	{
		environment:   session.EnvKde,
		displayServer: session.DisplayWayland,
		chain:         []Kind{KindDBusIntrospection, KindNativeCapture},
	},
	{
		anyEnviron:    true,
		displayServer: session.DisplayX11,
		chain:         []Kind{KindNativeCapture},
	},
	{
		anyEnviron: true,
		anyServer:  true,
		chain:      []Kind{KindDBusIntrospection, KindNativeCapture},
	},
}

// Candidates returns the ordered backends to try for a session. The
// result is never empty and always ends with native capture.
func Candidates(sess session.DesktopSession) []Kind {
	for _, row := range policy {
		if row.matches(sess) {
			chain := make([]Kind, len(row.chain))
			copy(chain, row.chain)
			return chain
		}
	}
	// The wildcard row matches everything, but keep a hard floor anyway.
	return []Kind{KindNativeCapture}
}
