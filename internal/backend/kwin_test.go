package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/window"
)

func TestParseKdotoolGeometry(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   window.Geometry
	}{
		{
			name: "full kdotool output",
			output: "Window {1f2a3b4c-5d6e-7f80-91a2-b3c4d5e6f708}\n" +
				"  Position: 100,200\n" +
				"  Geometry: 800x600\n",
			want: window.Geometry{X: 100, Y: 200, Width: 800, Height: 600},
		},
		{
			name:   "position only",
			output: "Position: 15,30",
			want:   window.Geometry{X: 15, Y: 30},
		},
		{
			name:   "geometry only",
			output: "Geometry: 1280x720",
			want:   window.Geometry{Width: 1280, Height: 720},
		},
		{
			name:   "spaces around values",
			output: "Position:  -5 , 12 \nGeometry:  640 x 480 ",
			want:   window.Geometry{X: -5, Y: 12, Width: 640, Height: 480},
		},
		{
			name:   "unrelated output",
			output: "kdotool: unknown command",
			want:   window.Geometry{},
		},
		{
			name:   "empty",
			output: "",
			want:   window.Geometry{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseKdotoolGeometry(tc.output))
		})
	}
}
