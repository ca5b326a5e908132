package backend

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/capture"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/logger"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/monitor"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/session"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/window"
)

// Facade is the process-wide entry point. It detects the desktop session
// exactly once, builds the dispatch chain for it, and exposes the
// operations the CLI and HTTP surfaces consume. The session is pinned
// for the process lifetime: environment variables do not change under a
// running desktop, and a stable chain keeps capture behavior predictable.
type Facade struct {
	attemptTimeout time.Duration

	once sync.Once
	orch *Orchestrator

	detect func() session.DesktopSession
}

func NewFacade(attemptTimeout time.Duration) *Facade {
	return &Facade{
		attemptTimeout: attemptTimeout,
		detect:         session.Detect,
	}
}

func (f *Facade) orchestrator() *Orchestrator {
	f.once.Do(func() {
		sess := f.detect()
		logger.WithComponent("facade").Info().
			Str("display_server", sess.DisplayServer.String()).
			Str("environment", sess.EnvironmentLabel()).
			Msg("Desktop session detected")
		f.orch = NewOrchestrator(sess, f.attemptTimeout)
	})
	return f.orch
}

// Session returns the detected desktop session, detecting on first use.
func (f *Facade) Session() session.DesktopSession {
	return f.orchestrator().Session()
}

// BackendStatus reports one candidate backend, in dispatch order, and
// whether its mechanism looks usable on this host.
type BackendStatus struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Available bool   `json:"available"`
}

// SessionInfo describes the detected session, the backend chain it
// dispatches to, and which external capture helpers are installed.
type SessionInfo struct {
	Session  session.DesktopSession `json:"session"`
	Label    string                 `json:"label"`
	Backends []BackendStatus        `json:"backends"`
	Tools    map[string]bool        `json:"tools"`
}

// BackendChain renders the dispatch order as "kind -> kind" for logs.
func (i SessionInfo) BackendChain() string {
	kinds := make([]string, len(i.Backends))
	for n, b := range i.Backends {
		kinds[n] = b.Kind
	}
	return strings.Join(kinds, " -> ")
}

// captureTools are the external helpers the adapters shell out to. The
// probes are diagnostics only; dispatch re-checks availability per attempt.
var captureTools = []string{"hyprctl", "swaymsg", "kdotool", "grim", "gnome-screenshot", "spectacle"}

func (f *Facade) SessionInfo() SessionInfo {
	orch := f.orchestrator()
	sess := orch.Session()

	candidates := orch.Candidates()
	backends := make([]BackendStatus, 0, len(candidates))
	for _, kind := range candidates {
		status := BackendStatus{Name: kind.String(), Kind: kind.String()}
		if a := orch.resolve(kind); a != nil {
			status.Name = a.Name()
			status.Available = a.Available()
		}
		backends = append(backends, status)
	}

	tools := make(map[string]bool, len(captureTools))
	for _, tool := range captureTools {
		tools[tool] = capture.ToolAvailable(tool)
	}

	return SessionInfo{
		Session:  sess,
		Label:    sess.EnvironmentLabel(),
		Backends: backends,
		Tools:    tools,
	}
}

// ListWindows lists windows through the backend chain.
func (f *Facade) ListWindows(ctx context.Context) ([]window.Info, error) {
	return f.orchestrator().ListWindows(ctx)
}

// Capture captures through the backend chain.
func (f *Facade) Capture(ctx context.Context, req CaptureRequest) (*capture.Result, error) {
	return f.orchestrator().Capture(ctx, req)
}

// Monitors enumerates displays for the detected session.
func (f *Facade) Monitors(ctx context.Context) ([]monitor.Info, error) {
	return monitor.Enumerate(ctx, f.Session())
}
