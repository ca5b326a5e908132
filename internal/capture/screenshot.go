package capture

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// NumDisplays reports how many displays the native grabber can see.
func NumDisplays() int {
	return screenshot.NumActiveDisplays()
}

// DisplayBounds returns the virtual-screen rectangle of one display.
func DisplayBounds(index int) (image.Rectangle, error) {
	if index < 0 || index >= screenshot.NumActiveDisplays() {
		return image.Rectangle{}, fmt.Errorf("display %d out of range", index)
	}
	return screenshot.GetDisplayBounds(index), nil
}

// GrabDisplay captures one full display with the native grabber.
func GrabDisplay(index int) (*Result, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("no active displays")
	}
	img, err := screenshot.CaptureDisplay(index)
	if err != nil {
		return nil, fmt.Errorf("capture display %d: %w", index, err)
	}
	return FromImage(img), nil
}

// GrabRect captures an arbitrary virtual-screen rectangle with the native
// grabber.
func GrabRect(x, y, width, height int) (*Result, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid capture rect %dx%d", width, height)
	}
	img, err := screenshot.CaptureRect(image.Rect(x, y, x+width, y+height))
	if err != nil {
		return nil, fmt.Errorf("capture rect: %w", err)
	}
	return FromImage(img), nil
}
