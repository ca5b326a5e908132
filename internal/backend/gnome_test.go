package backend

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/window"
)

func TestParseGnomeWindows(t *testing.T) {
	raw := map[uint64]map[string]dbus.Variant{
		4043309056: {
			"title":             dbus.MakeVariant("Mozilla Firefox"),
			"wm-class":          dbus.MakeVariant("firefox"),
			"wm-class-instance": dbus.MakeVariant("Navigator"),
			"pid":               dbus.MakeVariant(int64(1234)),
			"width":             dbus.MakeVariant(int32(1920)),
			"height":            dbus.MakeVariant(int32(1048)),
			"has-focus":         dbus.MakeVariant(true),
		},
		4043309123: {
			"title":     dbus.MakeVariant("Files"),
			"wm-class":  dbus.MakeVariant("org.gnome.Nautilus"),
			"width":     dbus.MakeVariant(uint32(980)),
			"height":    dbus.MakeVariant(uint32(640)),
			"has-focus": dbus.MakeVariant(false),
		},
	}

	windows := parseGnomeWindows(raw)
	require.Len(t, windows, 2)

	firefox := windows[0]
	assert.Equal(t, "4043309056", firefox.ID)
	assert.Equal(t, "Mozilla Firefox", firefox.Title)
	assert.Equal(t, "firefox", firefox.AppID)
	assert.Equal(t, 1920, firefox.Geometry.Width)
	assert.Equal(t, 1048, firefox.Geometry.Height)
	assert.Zero(t, firefox.Geometry.X, "shell introspection reports no position")
	assert.Zero(t, firefox.Geometry.Y)
	assert.True(t, firefox.Focused)

	nautilus := windows[1]
	assert.Equal(t, "4043309123", nautilus.ID)
	assert.Equal(t, 980, nautilus.Geometry.Width, "unsigned widths convert too")
	assert.False(t, nautilus.Focused)
}

func TestParseGnomeWindowsSortedByID(t *testing.T) {
	raw := map[uint64]map[string]dbus.Variant{
		900: {"title": dbus.MakeVariant("c")},
		5:   {"title": dbus.MakeVariant("a")},
		77:  {"title": dbus.MakeVariant("b")},
	}

	windows := parseGnomeWindows(raw)
	require.Len(t, windows, 3)
	assert.Equal(t, []string{"5", "77", "900"}, []string{windows[0].ID, windows[1].ID, windows[2].ID})
}

func TestParseGnomeWindowsMissingProperties(t *testing.T) {
	raw := map[uint64]map[string]dbus.Variant{
		42: {},
	}

	windows := parseGnomeWindows(raw)
	require.Len(t, windows, 1)

	assert.Equal(t, "42", windows[0].ID)
	assert.Equal(t, window.ValueUnknown, windows[0].Title)
	assert.Empty(t, windows[0].AppID)
	assert.True(t, windows[0].Geometry.Empty())
	assert.False(t, windows[0].Focused)
}

func TestParseGnomeWindowsEmpty(t *testing.T) {
	assert.Empty(t, parseGnomeWindows(map[uint64]map[string]dbus.Variant{}))
}

func TestVariantInt(t *testing.T) {
	tests := []struct {
		name  string
		value dbus.Variant
		want  int
		ok    bool
	}{
		{"int32", dbus.MakeVariant(int32(640)), 640, true},
		{"uint32", dbus.MakeVariant(uint32(480)), 480, true},
		{"int64", dbus.MakeVariant(int64(1200)), 1200, true},
		{"int16", dbus.MakeVariant(int16(320)), 320, true},
		{"double", dbus.MakeVariant(float64(800)), 800, true},
		{"string is not a number", dbus.MakeVariant("640"), 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := variantInt(map[string]dbus.Variant{"v": tc.value}, "v")
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}

	_, ok := variantInt(map[string]dbus.Variant{}, "missing")
	assert.False(t, ok)
}
