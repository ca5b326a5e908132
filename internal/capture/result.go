package capture

import (
	"fmt"
	"image"
)

// PixelFormat names the layout of Result.Pixels.
type PixelFormat string

// FormatRGBA8 is 8-bit-per-channel RGBA, row-major, no padding.
const FormatRGBA8 PixelFormat = "rgba8"

// Result is a finished capture: a pixel buffer plus its dimensions. The
// buffer is exclusively owned by the caller once returned.
type Result struct {
	Pixels      []byte      `json:"-"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	PixelFormat PixelFormat `json:"pixel_format"`
}

// FromImage copies an RGBA image into a tightly packed Result. Handles
// images whose stride exceeds 4*width (sub-images).
func FromImage(img *image.RGBA) *Result {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	pixels := make([]byte, width*height*4)
	rowLen := width * 4
	for y := 0; y < height; y++ {
		srcOff := img.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		copy(pixels[y*rowLen:(y+1)*rowLen], img.Pix[srcOff:srcOff+rowLen])
	}

	return &Result{
		Pixels:      pixels,
		Width:       width,
		Height:      height,
		PixelFormat: FormatRGBA8,
	}
}

// Image reinterprets the result as an RGBA image without copying.
func (r *Result) Image() (*image.RGBA, error) {
	if r.PixelFormat != FormatRGBA8 {
		return nil, fmt.Errorf("unsupported pixel format %q", r.PixelFormat)
	}
	if len(r.Pixels) != r.Width*r.Height*4 {
		return nil, fmt.Errorf("pixel buffer size %d does not match %dx%d rgba8", len(r.Pixels), r.Width, r.Height)
	}
	return &image.RGBA{
		Pix:    r.Pixels,
		Stride: r.Width * 4,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}, nil
}
