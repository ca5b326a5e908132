package session

import "fmt"

// DisplayServer identifies the display protocol the session runs on.
type DisplayServer int

const (
	// DisplayUnknown means neither a Wayland nor an X11 signal was found.
	DisplayUnknown DisplayServer = iota
	// DisplayWayland is a native Wayland session.
	DisplayWayland
	// DisplayX11 is an X11/Xorg session.
	DisplayX11
)

// String returns the human-readable protocol name.
func (d DisplayServer) String() string {
	switch d {
	case DisplayWayland:
		return "Wayland"
	case DisplayX11:
		return "X11"
	default:
		return "Unknown"
	}
}

// MarshalJSON encodes the display server as its lowercase name.
func (d DisplayServer) MarshalJSON() ([]byte, error) {
	switch d {
	case DisplayWayland:
		return []byte(`"wayland"`), nil
	case DisplayX11:
		return []byte(`"x11"`), nil
	default:
		return []byte(`"unknown"`), nil
	}
}

// Environment identifies the desktop environment family.
type Environment int

const (
	// EnvOther is any environment outside the known set. The raw
	// identifier, when one was present, lives in DesktopSession.EnvironmentName.
	EnvOther Environment = iota
	EnvGnome
	EnvKde
	EnvHyprland
	EnvSway
	EnvCinnamon
	EnvXfce
	EnvMate
)

// String returns the environment's display name.
func (e Environment) String() string {
	switch e {
	case EnvGnome:
		return "GNOME"
	case EnvKde:
		return "KDE Plasma"
	case EnvHyprland:
		return "Hyprland"
	case EnvSway:
		return "Sway"
	case EnvCinnamon:
		return "Cinnamon"
	case EnvXfce:
		return "XFCE"
	case EnvMate:
		return "MATE"
	default:
		return "Other"
	}
}

// MarshalJSON encodes the environment as its lowercase name.
func (e Environment) MarshalJSON() ([]byte, error) {
	switch e {
	case EnvGnome:
		return []byte(`"gnome"`), nil
	case EnvKde:
		return []byte(`"kde"`), nil
	case EnvHyprland:
		return []byte(`"hyprland"`), nil
	case EnvSway:
		return []byte(`"sway"`), nil
	case EnvCinnamon:
		return []byte(`"cinnamon"`), nil
	case EnvXfce:
		return []byte(`"xfce"`), nil
	case EnvMate:
		return []byte(`"mate"`), nil
	default:
		return []byte(`"other"`), nil
	}
}

// DesktopSession describes the detected graphical session. It is computed
// once per process and treated as read-only afterwards.
type DesktopSession struct {
	DisplayServer DisplayServer `json:"display_server"`
	Environment   Environment   `json:"environment"`
	// EnvironmentName carries the raw desktop identifier when Environment
	// is EnvOther and the session exposed one. Empty when nothing was found.
	EnvironmentName string `json:"environment_name,omitempty"`
}

// EnvironmentLabel returns the environment's display name, preferring the
// raw identifier for unrecognized environments.
func (s DesktopSession) EnvironmentLabel() string {
	if s.Environment == EnvOther {
		if s.EnvironmentName != "" {
			return s.EnvironmentName
		}
		return "Unknown"
	}
	return s.Environment.String()
}

// String renders the session as "<environment> on <display server>".
func (s DesktopSession) String() string {
	return fmt.Sprintf("%s on %s", s.EnvironmentLabel(), s.DisplayServer)
}

// IsWayland reports whether the session runs on Wayland.
func (s DesktopSession) IsWayland() bool {
	return s.DisplayServer == DisplayWayland
}

// IsX11 reports whether the session runs on X11.
func (s DesktopSession) IsX11() bool {
	return s.DisplayServer == DisplayX11
}
