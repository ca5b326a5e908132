package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/window"
)

const hyprlandClientsJSON = `[
  {
    "address": "0x12345678",
    "at": [100, 200],
    "size": [800, 600],
    "workspace": {"id": 1, "name": "1"},
    "class": "firefox",
    "title": "Mozilla Firefox",
    "pid": 1234,
    "hidden": false,
    "focusHistoryID": 0
  },
  {
    "address": "0x5583a2c0",
    "at": [0, 0],
    "size": [1920, 1080],
    "workspace": {"id": 2, "name": "web"},
    "class": "kitty",
    "title": "~/src",
    "pid": 4321,
    "hidden": false,
    "focusHistoryID": 3
  },
  {
    "address": "0x99aabbcc",
    "at": [50, 50],
    "size": [400, 300],
    "workspace": {"id": -99, "name": "special:scratchpad"},
    "class": "org.keepassxc.KeePassXC",
    "title": "KeePassXC",
    "pid": 777,
    "hidden": true,
    "focusHistoryID": 5
  },
  {
    "at": [10, 10],
    "size": [100, 100],
    "class": "ghost",
    "title": "no address"
  }
]`

func TestParseHyprlandClients(t *testing.T) {
	windows, err := parseHyprlandClients([]byte(hyprlandClientsJSON), "hyprland-ipc")
	require.NoError(t, err)

	// The hidden client and the one without an address are dropped.
	require.Len(t, windows, 2)

	firefox := windows[0]
	assert.Equal(t, "0x12345678", firefox.ID)
	assert.Equal(t, "Mozilla Firefox", firefox.Title)
	assert.Equal(t, "firefox", firefox.AppID)
	assert.Equal(t, window.Geometry{X: 100, Y: 200, Width: 800, Height: 600}, firefox.Geometry)
	assert.Equal(t, "1", firefox.Workspace)
	assert.True(t, firefox.Focused)

	kitty := windows[1]
	assert.Equal(t, "0x5583a2c0", kitty.ID)
	assert.Equal(t, "web", kitty.Workspace)
	assert.False(t, kitty.Focused)
}

func TestParseHyprlandClientsMissingFields(t *testing.T) {
	windows, err := parseHyprlandClients([]byte(`[{"address": "0xdead"}]`), "hyprland-ipc")
	require.NoError(t, err)
	require.Len(t, windows, 1)

	assert.Equal(t, "0xdead", windows[0].ID)
	assert.Equal(t, window.ValueUnknown, windows[0].Title)
	assert.Empty(t, windows[0].AppID)
	assert.True(t, windows[0].Geometry.Empty())
}

func TestParseHyprlandClientsWorkspaceIDFallback(t *testing.T) {
	windows, err := parseHyprlandClients([]byte(`[{"address": "0x1", "workspace": {"id": 4, "name": ""}}]`), "hyprland-ipc")
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, "4", windows[0].Workspace)
}

func TestParseHyprlandClientsRejectsNonArray(t *testing.T) {
	for _, input := range []string{`{"address": "0x1"}`, `hyprctl: command failed`, ``} {
		_, err := parseHyprlandClients([]byte(input), "hyprland-ipc")

		var backendErr *Error
		require.ErrorAs(t, err, &backendErr, "input %q", input)
		assert.Equal(t, FailureParse, backendErr.Kind)
	}
}

func TestParseHyprlandClientsEmptyArray(t *testing.T) {
	windows, err := parseHyprlandClients([]byte(`[]`), "hyprland-ipc")
	require.NoError(t, err)
	assert.Empty(t, windows)
}
