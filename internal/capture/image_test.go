package capture

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 7, A: 255})
		}
	}
	return img
}

func TestCropClampsToBounds(t *testing.T) {
	tests := []struct {
		name       string
		x, y       int
		w, h       int
		wantW      int
		wantH      int
		wantOrigin image.Point
	}{
		{
			name: "fully inside",
			x:    1, y: 1, w: 2, h: 2,
			wantW: 2, wantH: 2,
			wantOrigin: image.Pt(1, 1),
		},
		{
			name: "negative origin clamped to zero",
			x:    -5, y: -5, w: 2, h: 2,
			wantW: 2, wantH: 2,
			wantOrigin: image.Pt(0, 0),
		},
		{
			name: "origin past edge clamped to last pixel",
			x:    100, y: 100, w: 10, h: 10,
			wantW: 1, wantH: 1,
			wantOrigin: image.Pt(3, 3),
		},
		{
			name: "oversized region clamped to remainder",
			x:    2, y: 2, w: 100, h: 100,
			wantW: 2, wantH: 2,
			wantOrigin: image.Pt(2, 2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := gradientImage(4, 4)

			out, err := Crop(src, tt.x, tt.y, tt.w, tt.h)
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, out.Bounds().Dx())
			assert.Equal(t, tt.wantH, out.Bounds().Dy())

			// The crop's top-left pixel must come from the clamped origin.
			assert.Equal(t, src.RGBAAt(tt.wantOrigin.X, tt.wantOrigin.Y), out.RGBAAt(0, 0))
		})
	}
}

func TestCropRejectsEmptyRegion(t *testing.T) {
	src := gradientImage(4, 4)

	_, err := Crop(src, 0, 0, 0, 2)
	assert.Error(t, err)

	_, err = Crop(src, 0, 0, 2, -1)
	assert.Error(t, err)
}

func TestCropResult(t *testing.T) {
	r := FromImage(gradientImage(4, 4))

	cropped, err := CropResult(r, 1, 2, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, cropped.Width)
	assert.Equal(t, 1, cropped.Height)

	img, err := cropped.Image()
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 7, A: 255}, img.RGBAAt(0, 0))
}

func TestThumbnail(t *testing.T) {
	tests := []struct {
		name  string
		srcW  int
		srcH  int
		maxW  int
		maxH  int
		wantW int
		wantH int
	}{
		{name: "wide image scales by width", srcW: 800, srcH: 600, maxW: 160, maxH: 160, wantW: 160, wantH: 120},
		{name: "tall image scales by height", srcW: 100, srcH: 400, maxW: 160, maxH: 160, wantW: 40, wantH: 160},
		{name: "already within box stays unscaled", srcW: 120, srcH: 90, maxW: 160, maxH: 160, wantW: 120, wantH: 90},
		{name: "extreme aspect never collapses to zero", srcW: 2000, srcH: 2, maxW: 100, maxH: 100, wantW: 100, wantH: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := image.NewRGBA(image.Rect(0, 0, tt.srcW, tt.srcH))
			out := Thumbnail(src, tt.maxW, tt.maxH)
			assert.Equal(t, tt.wantW, out.Bounds().Dx())
			assert.Equal(t, tt.wantH, out.Bounds().Dy())
		})
	}
}

func TestPNGFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	orig := FromImage(gradientImage(6, 3))

	require.NoError(t, SavePNGFile(path, orig))

	loaded, err := LoadPNGFile(path)
	require.NoError(t, err)
	assert.Equal(t, orig.Width, loaded.Width)
	assert.Equal(t, orig.Height, loaded.Height)
	assert.Equal(t, FormatRGBA8, loaded.PixelFormat)
	assert.Equal(t, orig.Pixels, loaded.Pixels)
}

func TestLoadPNGFileMissing(t *testing.T) {
	_, err := LoadPNGFile(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}
