package capture

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"
)

// Crop cuts the given region out of img, clamping the region to the image
// bounds first. Regions that end up without any area are an error rather
// than an empty image.
func Crop(img *image.RGBA, x, y, width, height int) (*image.RGBA, error) {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	if x < 0 {
		x = 0
	}
	if x > srcWidth-1 {
		x = srcWidth - 1
	}
	if y < 0 {
		y = 0
	}
	if y > srcHeight-1 {
		y = srcHeight - 1
	}
	if width > srcWidth-x {
		width = srcWidth - x
	}
	if height > srcHeight-y {
		height = srcHeight - y
	}

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("crop region %dx%d at %d,%d has no area inside %dx%d", width, height, x, y, srcWidth, srcHeight)
	}

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	srcRect := image.Rect(bounds.Min.X+x, bounds.Min.Y+y, bounds.Min.X+x+width, bounds.Min.Y+y+height)
	draw.Draw(out, out.Bounds(), img, srcRect.Min, draw.Src)
	return out, nil
}

// CropResult crops a finished capture, returning a new caller-owned result.
func CropResult(r *Result, x, y, width, height int) (*Result, error) {
	img, err := r.Image()
	if err != nil {
		return nil, err
	}
	cropped, err := Crop(img, x, y, width, height)
	if err != nil {
		return nil, err
	}
	return FromImage(cropped), nil
}

// Thumbnail scales img down to fit within maxWidth x maxHeight, preserving
// aspect ratio. Images already within the box are returned unscaled.
func Thumbnail(img *image.RGBA, maxWidth, maxHeight int) *image.RGBA {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxWidth && height <= maxHeight {
		return img
	}

	scaleW := float64(maxWidth) / float64(width)
	scaleH := float64(maxHeight) / float64(height)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}

	dstW := int(float64(width) * scale)
	dstH := int(float64(height) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	out := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.ApproxBiLinear.Scale(out, out.Bounds(), img, bounds, draw.Src, nil)
	return out
}

// EncodePNG writes the result as PNG.
func EncodePNG(w io.Writer, r *Result) error {
	img, err := r.Image()
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// DecodePNG reads a PNG into a result, converting to RGBA if needed.
func DecodePNG(rd io.Reader) (*Result, error) {
	img, err := png.Decode(rd)
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok {
		bounds := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return FromImage(rgba), nil
}

// LoadPNGFile reads a PNG file into a result.
func LoadPNGFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return DecodePNG(f)
}

// SavePNGFile writes the result to path as PNG.
func SavePNGFile(path string, r *Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := EncodePNG(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
