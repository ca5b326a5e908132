package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/session"
)

func TestFacadeDetectsSessionOnce(t *testing.T) {
	detections := 0
	f := NewFacade(0)
	f.detect = func() session.DesktopSession {
		detections++
		return hyprlandSession
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, hyprlandSession, f.Session())
	}
	assert.Equal(t, 1, detections, "detection runs once per process")
}

func TestFacadeSessionInfo(t *testing.T) {
	f := NewFacade(0)
	f.detect = func() session.DesktopSession { return hyprlandSession }

	info := f.SessionInfo()

	assert.Equal(t, hyprlandSession, info.Session)
	assert.Equal(t, "Hyprland", info.Label)

	require.Len(t, info.Backends, 2)
	assert.Equal(t, "compositor-ipc(hyprctl)", info.Backends[0].Kind)
	assert.Equal(t, "hyprland-ipc", info.Backends[0].Name)
	assert.Equal(t, "native-capture", info.Backends[1].Kind)
	assert.Equal(t, "native", info.Backends[1].Name)

	// Probe values depend on what the host has installed; the set of
	// probed helpers does not.
	for _, tool := range captureTools {
		assert.Contains(t, info.Tools, tool)
	}
}

func TestFacadeSessionInfoGenericWayland(t *testing.T) {
	f := NewFacade(0)
	f.detect = func() session.DesktopSession {
		return session.DesktopSession{
			DisplayServer: session.DisplayWayland,
			Environment:   session.EnvOther,
		}
	}

	info := f.SessionInfo()
	require.Len(t, info.Backends, 2)
	assert.Equal(t, "dbus-introspection", info.Backends[0].Kind)
	assert.Equal(t, "gnome-introspection", info.Backends[0].Name)
	assert.Equal(t, "native-capture", info.Backends[1].Kind)
}
