package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/session"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/window"
)

func TestMatchWindow(t *testing.T) {
	listing := []window.Info{
		{
			ID:       "20971522",
			Title:    "Mozilla Firefox",
			AppID:    "firefox",
			Geometry: window.Geometry{X: 100, Y: 200, Width: 800, Height: 600},
		},
		{
			ID:       "20971530",
			Title:    "Terminal",
			AppID:    "kitty",
			Geometry: window.Geometry{X: 0, Y: 0, Width: 1920, Height: 1080},
		},
		{
			ID:       "20971545",
			Title:    window.ValueUnknown,
			AppID:    "mpv",
			Geometry: window.Geometry{X: 500, Y: 300, Width: 640, Height: 480},
		},
	}

	tests := []struct {
		name   string
		target window.Info
		wantID string
		found  bool
	}{
		{
			name:   "exact id match",
			target: window.Info{ID: "20971530"},
			wantID: "20971530",
			found:  true,
		},
		{
			name: "title and app fallback when ids disagree",
			target: window.Info{
				ID:    "0x5583a2c0",
				Title: "Mozilla Firefox",
				AppID: "firefox",
			},
			wantID: "20971522",
			found:  true,
		},
		{
			name: "geometry fallback when nothing else matches",
			target: window.Info{
				ID:       "0x5583a2c0",
				Title:    "mpv - video.mkv",
				AppID:    "mpv",
				Geometry: window.Geometry{X: 500, Y: 300, Width: 640, Height: 480},
			},
			wantID: "20971545",
			found:  true,
		},
		{
			name: "unknown title never matches by title",
			target: window.Info{
				ID:    "0x1",
				Title: window.ValueUnknown,
				AppID: "mpv",
			},
			found: false,
		},
		{
			name: "no match at all",
			target: window.Info{
				ID:       "0x1",
				Title:    "Files",
				AppID:    "nautilus",
				Geometry: window.Geometry{X: 1, Y: 1, Width: 2, Height: 2},
			},
			found: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			match, ok := matchWindow(listing, &tc.target)
			require.Equal(t, tc.found, ok)
			if tc.found {
				assert.Equal(t, tc.wantID, match.ID)
			}
		})
	}
}

func TestFullScreenChainOrder(t *testing.T) {
	tests := []struct {
		name      string
		sess      session.DesktopSession
		wantSteps []string
	}{
		{
			name:      "hyprland prefers grim",
			sess:      session.DesktopSession{DisplayServer: session.DisplayWayland, Environment: session.EnvHyprland},
			wantSteps: []string{"grim", "portal"},
		},
		{
			name:      "sway prefers grim",
			sess:      session.DesktopSession{DisplayServer: session.DisplayWayland, Environment: session.EnvSway},
			wantSteps: []string{"grim", "portal"},
		},
		{
			name:      "gnome prefers gnome-screenshot",
			sess:      session.DesktopSession{DisplayServer: session.DisplayWayland, Environment: session.EnvGnome},
			wantSteps: []string{"gnome-screenshot", "grim", "portal"},
		},
		{
			name:      "kde prefers spectacle",
			sess:      session.DesktopSession{DisplayServer: session.DisplayWayland, Environment: session.EnvKde},
			wantSteps: []string{"spectacle", "grim", "portal"},
		},
		{
			name:      "unrecognized desktop tries everything",
			sess:      session.DesktopSession{DisplayServer: session.DisplayWayland, Environment: session.EnvOther},
			wantSteps: []string{"grim", "gnome-screenshot", "spectacle", "portal"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter := NewNativeAdapter(tc.sess)
			steps := adapter.fullScreenChain()
			names := make([]string, len(steps))
			for i, step := range steps {
				names[i] = step.name
			}
			assert.Equal(t, tc.wantSteps, names)
		})
	}
}
