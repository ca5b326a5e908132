package capture

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/logger"
)

// Portal D-Bus constants
const (
	portalService    = "org.freedesktop.portal.Desktop"
	portalPath       = "/org/freedesktop/portal/desktop"
	screenshotIface  = "org.freedesktop.portal.Screenshot"
	portalReqIface   = "org.freedesktop.portal.Request"
)

// Seam for tests.
var connectSessionBusFn = dbus.ConnectSessionBus

// CaptureWithPortal takes a full-screen shot through the
// org.freedesktop.portal.Screenshot portal. The portal writes a PNG,
// hands back a file URI in its Response signal, and we load and delete
// the file. Non-interactive, so no dialog appears on portals that allow
// it; portals that insist on user confirmation fail the request instead.
func CaptureWithPortal(ctx context.Context) (*Result, error) {
	conn, err := connectSessionBusFn()
	if err != nil {
		return nil, fmt.Errorf("connect to session bus: %w", err)
	}
	defer conn.Close()

	log := logger.WithComponent("portal")

	options := map[string]dbus.Variant{
		"handle_token": dbus.MakeVariant(fmt.Sprintf("screenshotgnome%d", os.Getpid())),
		"interactive":  dbus.MakeVariant(false),
	}

	// Subscribe to Response signals before making the call so the reply
	// cannot race past us.
	responseChan := make(chan *dbus.Signal, 10)

	matchRule := fmt.Sprintf("type='signal',interface='%s',member='Response'", portalReqIface)
	if err := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchRule).Err; err != nil {
		log.Warn().Err(err).Msg("Failed to add match rule")
	}

	conn.Signal(responseChan)
	defer conn.RemoveSignal(responseChan)

	obj := conn.Object(portalService, portalPath)

	var requestPath dbus.ObjectPath
	if err := obj.Call(screenshotIface+".Screenshot", 0, "", options).Store(&requestPath); err != nil {
		return nil, fmt.Errorf("Screenshot call failed: %w", err)
	}

	log.Debug().Str("request_path", string(requestPath)).Msg("Waiting for Screenshot response")

	uri, err := waitForScreenshotURI(ctx, responseChan, requestPath)
	if err != nil {
		return nil, err
	}

	path := strings.TrimPrefix(uri, "file://")
	defer os.Remove(path)

	return LoadPNGFile(path)
}

// waitForScreenshotURI drains Response signals until the one for our
// request arrives, then extracts the screenshot file URI from it.
func waitForScreenshotURI(ctx context.Context, signals <-chan *dbus.Signal, requestPath dbus.ObjectPath) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for Screenshot response: %w", ctx.Err())
		case sig := <-signals:
			if sig.Path != requestPath || sig.Name != portalReqIface+".Response" {
				continue
			}
			if len(sig.Body) < 2 {
				return "", fmt.Errorf("malformed portal response")
			}

			response, ok := sig.Body[0].(uint32)
			if !ok {
				return "", fmt.Errorf("malformed portal response code")
			}
			if response != 0 {
				return "", fmt.Errorf("portal request denied (code %d)", response)
			}

			results, ok := sig.Body[1].(map[string]dbus.Variant)
			if !ok {
				return "", fmt.Errorf("malformed portal results")
			}

			uriVar, ok := results["uri"]
			if !ok {
				return "", fmt.Errorf("no uri in portal response")
			}
			uri, ok := uriVar.Value().(string)
			if !ok || uri == "" {
				return "", fmt.Errorf("unexpected uri type %T", uriVar.Value())
			}
			return uri, nil
		}
	}
}
