package session

import (
	"os"
	"os/exec"
	"strings"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/logger"
)

// Seams for tests; production code never touches these.
var (
	lookupEnvFn     = os.LookupEnv
	probeHyprlandFn = probeHyprland
)

// Detect classifies the current graphical session from environment signals.
// It never fails: absent or conflicting signals degrade to DisplayUnknown
// and EnvOther rather than an error, so capture can still be attempted
// through the universal fallback backend.
func Detect() DesktopSession {
	log := logger.WithComponent("session")

	server := detectDisplayServer()
	env, name := detectEnvironment(server)

	s := DesktopSession{
		DisplayServer:   server,
		Environment:     env,
		EnvironmentName: name,
	}
	log.Debug().
		Str("display_server", server.String()).
		Str("environment", s.EnvironmentLabel()).
		Msg("detected desktop session")
	return s
}

// detectDisplayServer classifies the display protocol. XDG_SESSION_TYPE is
// the most reliable signal on modern systems; WAYLAND_DISPLAY wins over
// DISPLAY because XWayland sets DISPLAY on native Wayland sessions too.
func detectDisplayServer() DisplayServer {
	if sessionType, ok := lookupEnvFn("XDG_SESSION_TYPE"); ok {
		switch strings.ToLower(sessionType) {
		case "wayland":
			return DisplayWayland
		case "x11":
			return DisplayX11
		}
	}

	if _, ok := lookupEnvFn("WAYLAND_DISPLAY"); ok {
		return DisplayWayland
	}

	if _, ok := lookupEnvFn("DISPLAY"); ok {
		return DisplayX11
	}

	return DisplayUnknown
}

// detectEnvironment classifies the desktop environment. Compositor-specific
// variables are checked before the generic XDG identifiers, first match wins.
// Returns the raw identifier alongside EnvOther when nothing matched but an
// identifier was present.
func detectEnvironment(server DisplayServer) (Environment, string) {
	if _, ok := lookupEnvFn("HYPRLAND_INSTANCE_SIGNATURE"); ok {
		return EnvHyprland, ""
	}

	if _, ok := lookupEnvFn("SWAYSOCK"); ok {
		return EnvSway, ""
	}

	// XDG_CURRENT_DESKTOP can hold multiple colon-separated values,
	// e.g. "ubuntu:GNOME".
	if currentDesktop, ok := lookupEnvFn("XDG_CURRENT_DESKTOP"); ok {
		for _, component := range strings.Split(strings.ToLower(currentDesktop), ":") {
			switch strings.TrimSpace(component) {
			case "gnome", "unity", "ubuntu", "pop":
				return EnvGnome, ""
			case "kde", "plasma", "kde-plasma":
				return EnvKde, ""
			case "hyprland":
				return EnvHyprland, ""
			case "sway":
				return EnvSway, ""
			case "cinnamon", "x-cinnamon":
				return EnvCinnamon, ""
			case "xfce", "xfce4":
				return EnvXfce, ""
			case "mate":
				return EnvMate, ""
			}
		}

		if currentDesktop != "" {
			return EnvOther, currentDesktop
		}
	}

	if desktopSession, ok := lookupEnvFn("DESKTOP_SESSION"); ok {
		sessionLower := strings.ToLower(desktopSession)
		switch {
		case strings.Contains(sessionLower, "gnome"):
			return EnvGnome, ""
		case strings.Contains(sessionLower, "plasma"), strings.Contains(sessionLower, "kde"):
			return EnvKde, ""
		case strings.Contains(sessionLower, "cinnamon"):
			return EnvCinnamon, ""
		case strings.Contains(sessionLower, "xfce"):
			return EnvXfce, ""
		case strings.Contains(sessionLower, "mate"):
			return EnvMate, ""
		}
	}

	if _, ok := lookupEnvFn("KDE_FULL_SESSION"); ok {
		return EnvKde, ""
	}

	if _, ok := lookupEnvFn("GNOME_DESKTOP_SESSION_ID"); ok {
		return EnvGnome, ""
	}

	// Hyprland sessions started without the usual variables still answer
	// hyprctl, so probe it as a last resort on Wayland.
	if server == DisplayWayland && probeHyprlandFn() {
		return EnvHyprland, ""
	}

	return EnvOther, ""
}

func probeHyprland() bool {
	path, err := exec.LookPath("hyprctl")
	if err != nil {
		return false
	}
	return exec.Command(path, "version").Run() == nil
}
