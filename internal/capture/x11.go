package capture

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/logger"
)

// X11Grabber captures windows and regions over an X11 (or XWayland)
// connection.
type X11Grabber struct {
	conn             *xgb.Conn
	root             xproto.Window
	screen           *xproto.ScreenInfo
	compositeEnabled bool
	mu               sync.Mutex
}

// NewX11Grabber connects to the X server and initializes the Composite
// extension when present. Composite lets us read back obscured windows.
func NewX11Grabber() (*X11Grabber, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	g := &X11Grabber{
		conn:   conn,
		root:   screen.Root,
		screen: screen,
	}

	log := logger.WithComponent("x11-grab")
	if err := composite.Init(conn); err != nil {
		log.Warn().
			Err(err).
			Msg("Composite extension not available, obscured windows may capture black")
	} else {
		g.compositeEnabled = true
		log.Debug().Msg("Composite extension initialized")
	}

	return g, nil
}

// Close releases the X connection.
func (g *X11Grabber) Close() {
	g.conn.Close()
}

// ScreenSize returns the root window dimensions in pixels.
func (g *X11Grabber) ScreenSize() (width, height int) {
	return int(g.screen.WidthInPixels), int(g.screen.HeightInPixels)
}

// CaptureWindowID captures the contents of one window.
func (g *X11Grabber) CaptureWindowID(id uint32) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	win := xproto.Window(id)

	attrs, err := xproto.GetWindowAttributes(g.conn, win).Reply()
	if err != nil {
		return nil, fmt.Errorf("get window attributes: %w", err)
	}

	log := logger.WithComponent("x11-grab")

	// Frame windows and unmapped wrappers are not directly readable; walk
	// down to a viewable InputOutput child instead.
	if attrs.Class != xproto.WindowClassInputOutput || attrs.MapState != xproto.MapStateViewable {
		child, err := g.findCapturableChild(win)
		if err != nil {
			return nil, fmt.Errorf("window %#x not capturable: %w", id, err)
		}
		log.Debug().
			Uint32("window_id", id).
			Uint32("child_id", uint32(child)).
			Msg("Capturing child window instead of frame")
		win = child
	}

	geom, err := xproto.GetGeometry(g.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return nil, fmt.Errorf("get window geometry: %w", err)
	}

	img, err := g.grabDrawable(win, geom)
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// CaptureRegion captures a rectangle of the root window.
func (g *X11Grabber) CaptureRegion(x, y, width, height int) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid capture region %dx%d", width, height)
	}

	reply, err := xproto.GetImage(
		g.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(g.root),
		int16(x), int16(y),
		uint16(width), uint16(height),
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("get root image: %w", err)
	}

	return FromImage(g.toRGBA(reply.Data, width, height)), nil
}

// CaptureScreen captures the entire root window.
func (g *X11Grabber) CaptureScreen() (*Result, error) {
	w, h := g.ScreenSize()
	return g.CaptureRegion(0, 0, w, h)
}

// findCapturableChild walks the window tree under parent looking for a
// viewable InputOutput window of useful size.
func (g *X11Grabber) findCapturableChild(parent xproto.Window) (xproto.Window, error) {
	tree, err := xproto.QueryTree(g.conn, parent).Reply()
	if err != nil {
		return 0, fmt.Errorf("query tree: %w", err)
	}

	for _, child := range tree.Children {
		attrs, err := xproto.GetWindowAttributes(g.conn, child).Reply()
		if err != nil {
			continue
		}
		geom, err := xproto.GetGeometry(g.conn, xproto.Drawable(child)).Reply()
		if err != nil {
			continue
		}

		if attrs.Class == xproto.WindowClassInputOutput &&
			attrs.MapState == xproto.MapStateViewable &&
			geom.Width > 10 && geom.Height > 10 {
			return child, nil
		}

		if grandchild, err := g.findCapturableChild(child); err == nil {
			return grandchild, nil
		}
	}

	return 0, fmt.Errorf("no viewable child window")
}

// grabDrawable reads a window's pixels, going through a Composite-named
// pixmap when the extension is usable so obscured content survives.
func (g *X11Grabber) grabDrawable(win xproto.Window, geom *xproto.GetGeometryReply) (*image.RGBA, error) {
	drawable := xproto.Drawable(win)
	log := logger.WithComponent("x11-grab")

	if g.compositeEnabled {
		if err := composite.RedirectWindowChecked(g.conn, win, composite.RedirectAutomatic).Check(); err != nil {
			log.Warn().
				Err(err).
				Uint32("window_id", uint32(win)).
				Msg("Composite redirect failed, capturing window directly")
		} else {
			defer composite.UnredirectWindow(g.conn, win, composite.RedirectAutomatic)

			pixmap, err := xproto.NewPixmapId(g.conn)
			if err == nil {
				if err := composite.NameWindowPixmapChecked(g.conn, win, pixmap).Check(); err == nil {
					drawable = xproto.Drawable(pixmap)
					defer xproto.FreePixmap(g.conn, pixmap)
				}
			}
		}
	}

	reply, err := xproto.GetImage(
		g.conn,
		xproto.ImageFormatZPixmap,
		drawable,
		0, 0,
		geom.Width, geom.Height,
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("get window image: %w", err)
	}

	return g.toRGBA(reply.Data, int(geom.Width), int(geom.Height)), nil
}

// toRGBA converts X11 ZPixmap data (BGRA byte order at depth 24/32) into
// an RGBA image.
func (g *X11Grabber) toRGBA(data []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	depth := int(g.screen.RootDepth)

	if depth == 24 || depth == 32 {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				i := (y*width + x) * 4
				if i+3 < len(data) {
					img.Set(x, y, color.RGBA{
						R: data[i+2],
						G: data[i+1],
						B: data[i],
						A: 255,
					})
				}
			}
		}
	}

	return img
}
