package backend

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/capture"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/logger"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/session"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/window"
)

// DefaultAttemptTimeout bounds a single backend attempt. Screenshot
// tools that hang (a portal dialog nobody answers, a wedged compositor
// socket) must not stall the whole chain.
const DefaultAttemptTimeout = 5 * time.Second

// Orchestrator walks the candidate chain for one detected session,
// trying each backend in catalog order and returning the first success.
// Failures are recorded, never fatal, until the chain is exhausted.
type Orchestrator struct {
	sess           session.DesktopSession
	resolve        func(Kind) Adapter
	attemptTimeout time.Duration
	log            *zerolog.Logger
}

func NewOrchestrator(sess session.DesktopSession, attemptTimeout time.Duration) *Orchestrator {
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	o := &Orchestrator{
		sess:           sess,
		attemptTimeout: attemptTimeout,
		log:            logger.WithComponent("dispatch"),
	}
	o.resolve = o.defaultAdapter
	return o
}

// defaultAdapter maps a catalog entry to its implementation. The
// dbus-introspection slot resolves per desktop: KWin's window scripting
// on KDE, the shell Introspect interface everywhere else.
func (o *Orchestrator) defaultAdapter(kind Kind) Adapter {
	switch kind.Method {
	case MethodCompositorIPC:
		switch kind.Tool {
		case "hyprctl":
			return NewHyprlandAdapter()
		case "swaymsg":
			return NewSwayAdapter()
		}
		return nil
	case MethodDBusIntrospection:
		if o.sess.Environment == session.EnvKde {
			return NewKWinAdapter()
		}
		return NewGnomeAdapter()
	case MethodNativeCapture:
		return NewNativeAdapter(o.sess)
	}
	return nil
}

// Session returns the session this orchestrator dispatches for.
func (o *Orchestrator) Session() session.DesktopSession {
	return o.sess
}

// Candidates returns the backend chain in dispatch order.
func (o *Orchestrator) Candidates() []Kind {
	return Candidates(o.sess)
}

// ListWindows returns the first candidate's successful listing.
func (o *Orchestrator) ListWindows(ctx context.Context) ([]window.Info, error) {
	var attempts []*Error

	for _, kind := range o.Candidates() {
		adapter, attempt := o.adapterFor(kind)
		if attempt != nil {
			o.log.Debug().Str("backend", attempt.Backend).Msg("Backend unavailable, skipping")
			attempts = append(attempts, attempt)
			continue
		}

		attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
		windows, err := adapter.ListWindows(attemptCtx)
		cancel()

		if err == nil {
			o.log.Debug().
				Str("backend", adapter.Name()).
				Int("windows", len(windows)).
				Msg("Window listing succeeded")
			return windows, nil
		}

		attempts = append(attempts, o.recordFailure(adapter.Name(), "list windows", err))
		if ctx.Err() != nil {
			break
		}
	}

	return nil, &AllBackendsFailedError{Op: "list_windows", Attempts: attempts}
}

// Capture returns the first candidate's successful capture. Window
// captures re-resolve the target against a fresh listing first: ids are
// only as fresh as the listing they came from, and capturing a stale id
// would silently shoot whatever window reused it.
func (o *Orchestrator) Capture(ctx context.Context, req CaptureRequest) (*capture.Result, error) {
	if req.Mode == ModeWindow {
		id := req.WindowID
		if id == "" && req.Window != nil {
			id = req.Window.ID
		}
		target, err := o.resolveWindow(ctx, id)
		if err != nil {
			return nil, err
		}
		req.WindowID = id
		req.Window = target
	}

	var attempts []*Error

	for _, kind := range o.Candidates() {
		adapter, attempt := o.adapterFor(kind)
		if attempt != nil {
			o.log.Debug().Str("backend", attempt.Backend).Msg("Backend unavailable, skipping")
			attempts = append(attempts, attempt)
			continue
		}

		attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
		res, err := adapter.Capture(attemptCtx, req)
		cancel()

		if err == nil {
			o.log.Info().
				Str("backend", adapter.Name()).
				Str("mode", string(req.Mode)).
				Int("width", res.Width).
				Int("height", res.Height).
				Msg("Capture succeeded")
			return res, nil
		}

		attempts = append(attempts, o.recordFailure(adapter.Name(), "capture", err))
		if ctx.Err() != nil {
			break
		}
	}

	return nil, &AllBackendsFailedError{Op: "capture", Attempts: attempts}
}

// resolveWindow finds the capture target in a fresh listing.
func (o *Orchestrator) resolveWindow(ctx context.Context, id string) (*window.Info, error) {
	windows, err := o.ListWindows(ctx)
	if err != nil {
		return nil, err
	}
	for i := range windows {
		if windows[i].ID == id {
			return &windows[i], nil
		}
	}
	return nil, &WindowGoneError{ID: id}
}

// adapterFor resolves a candidate and screens out backends that are not
// even present, so their tools are never invoked.
func (o *Orchestrator) adapterFor(kind Kind) (Adapter, *Error) {
	adapter := o.resolve(kind)
	if adapter == nil {
		return nil, unavailable(kind.String(), "no adapter implements this backend")
	}
	if !adapter.Available() {
		return nil, unavailable(adapter.Name(), "backend not present on this host")
	}
	return adapter, nil
}

func (o *Orchestrator) recordFailure(backend, op string, err error) *Error {
	attempt := classify(backend, err)
	o.log.Debug().
		Str("backend", backend).
		Str("failure", string(attempt.Kind)).
		Err(attempt.Err).
		Msgf("Backend failed to %s, falling back", op)
	return attempt
}
