package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/backend"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/capture"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/window"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture a screenshot",
	Long: `Capture the full screen, a single window or a fixed region.

The capture is dispatched to the backend chain for the detected session;
if the preferred backend fails the next one is tried automatically. The
image is written as PNG into the configured save directory unless
--output names a path.`,
	Example: `  # Capture the full screen
  screenshot-gnome capture

  # Capture a window by id (ids come from 'screenshot-gnome list')
  screenshot-gnome capture --mode window --window-id 0x5583a2c0

  # Capture the currently focused window
  screenshot-gnome capture --mode window --focused

  # Capture a region (grim-style "x,y WxH")
  screenshot-gnome capture --mode region --region "100,200 800x600"

  # Capture to an explicit path
  screenshot-gnome capture --output /tmp/shot.png`,
	RunE: runCapture,
}

var (
	captureMode     string
	captureWindowID string
	captureFocused  bool
	captureRegion   string
	captureOutput   string
)

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().StringVarP(&captureMode, "mode", "m", "screen", "capture mode (screen, window or region)")
	captureCmd.Flags().StringVarP(&captureWindowID, "window-id", "w", "", "window id to capture (window mode)")
	captureCmd.Flags().BoolVar(&captureFocused, "focused", false, "capture the focused window (window mode)")
	captureCmd.Flags().StringVarP(&captureRegion, "region", "r", "", `region to capture as "x,y WxH" (region mode)`)
	captureCmd.Flags().StringVarP(&captureOutput, "output", "o", "", "output file path (default is the configured save directory)")
}

func runCapture(cmd *cobra.Command, args []string) error {
	_, cfg, facade, err := setup()
	if err != nil {
		return err
	}

	ctx := context.Background()

	req, err := buildCaptureRequest(ctx, facade)
	if err != nil {
		return err
	}

	res, err := facade.Capture(ctx, req)
	if err != nil {
		return fmt.Errorf("capture failed: %w", err)
	}

	outPath := captureOutput
	if outPath == "" {
		dir := cfg.ResolveSaveDir()
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create save directory: %w", err)
		}
		outPath = filepath.Join(dir, cfg.Capture.Filename(time.Now()))
	}

	if err := capture.SavePNGFile(outPath, res); err != nil {
		return fmt.Errorf("failed to save capture: %w", err)
	}

	fmt.Printf("Saved %dx%d capture to %s\n", res.Width, res.Height, outPath)
	return nil
}

func buildCaptureRequest(ctx context.Context, facade *backend.Facade) (backend.CaptureRequest, error) {
	switch captureMode {
	case "screen":
		return backend.FullScreenRequest(), nil

	case "window":
		id := captureWindowID
		if captureFocused {
			focused, err := findFocusedWindow(ctx, facade)
			if err != nil {
				return backend.CaptureRequest{}, err
			}
			id = focused.ID
			fmt.Printf("Capturing focused window: %s\n", focused.DisplayLabel())
		}
		if id == "" {
			return backend.CaptureRequest{}, fmt.Errorf("window mode needs --window-id or --focused")
		}
		return backend.WindowRequest(id), nil

	case "region", "selection":
		if captureRegion == "" {
			return backend.CaptureRequest{}, fmt.Errorf(`region mode needs --region "x,y WxH"`)
		}
		geom, err := parseRegion(captureRegion)
		if err != nil {
			return backend.CaptureRequest{}, err
		}
		return backend.RegionRequest(geom.X, geom.Y, geom.Width, geom.Height), nil

	default:
		return backend.CaptureRequest{}, fmt.Errorf("unknown mode: %s (use screen, window or region)", captureMode)
	}
}

func findFocusedWindow(ctx context.Context, facade *backend.Facade) (window.Info, error) {
	windows, err := facade.ListWindows(ctx)
	if err != nil {
		return window.Info{}, fmt.Errorf("failed to list windows: %w", err)
	}
	for _, w := range windows {
		if w.Focused {
			return w, nil
		}
	}
	return window.Info{}, fmt.Errorf("no window reports focus")
}

// parseRegion parses the grim-style geometry "x,y WxH".
func parseRegion(s string) (window.Geometry, error) {
	var geom window.Geometry
	if _, err := fmt.Sscanf(s, "%d,%d %dx%d", &geom.X, &geom.Y, &geom.Width, &geom.Height); err != nil {
		return window.Geometry{}, fmt.Errorf(`invalid region %q, expected "x,y WxH"`, s)
	}
	if geom.Empty() {
		return window.Geometry{}, fmt.Errorf("region must have positive size")
	}
	return geom, nil
}
