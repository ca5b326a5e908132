package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/backend"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/capture"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/config"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/logger"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/monitor"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/window"
)

// Backend is the capture surface the server exposes over HTTP.
type Backend interface {
	SessionInfo() backend.SessionInfo
	ListWindows(ctx context.Context) ([]window.Info, error)
	Capture(ctx context.Context, req backend.CaptureRequest) (*capture.Result, error)
	Monitors(ctx context.Context) ([]monitor.Info, error)
}

// Server represents the HTTP API server
type Server struct {
	router    *mux.Router
	backend   Backend
	configMgr *config.Manager
	upgrader  websocket.Upgrader

	// backendMu serializes dispatch: the facade assumes a single caller,
	// and handlers plus watch streams run concurrently.
	backendMu sync.Mutex

	// watchInterval paces the window watch stream; overridable in tests.
	watchInterval time.Duration
}

func (s *Server) listWindows(ctx context.Context) ([]window.Info, error) {
	s.backendMu.Lock()
	defer s.backendMu.Unlock()
	return s.backend.ListWindows(ctx)
}

func (s *Server) capture(ctx context.Context, req backend.CaptureRequest) (*capture.Result, error) {
	s.backendMu.Lock()
	defer s.backendMu.Unlock()
	return s.backend.Capture(ctx, req)
}

func (s *Server) monitors(ctx context.Context) ([]monitor.Info, error) {
	s.backendMu.Lock()
	defer s.backendMu.Unlock()
	return s.backend.Monitors(ctx)
}

// NewServer creates a new API server
func NewServer(b Backend, configMgr *config.Manager) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		backend:   b,
		configMgr: configMgr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
		watchInterval: 2 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session and backends
	api.HandleFunc("/session", s.handleGetSession).Methods("GET")

	// Windows
	api.HandleFunc("/windows", s.handleGetWindows).Methods("GET")
	api.HandleFunc("/windows/watch", s.handleWindowsWatch)
	api.HandleFunc("/windows/{id}/preview", s.handleWindowPreview).Methods("GET")

	// Capture
	api.HandleFunc("/capture", s.handleCapture).Methods("POST")

	// Monitors
	api.HandleFunc("/monitors", s.handleGetMonitors).Methods("GET")

	// Configuration
	api.HandleFunc("/config", s.handleGetConfig).Methods("GET")
	api.HandleFunc("/config", s.handleUpdateConfig).Methods("PUT")

	// Health check
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Simple index page listing the endpoints
	s.router.PathPrefix("/").HandlerFunc(s.handleIndex)
}

// Handler returns the server's root handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start starts the HTTP server
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logger.WithComponent("api").Info().
		Str("addr", addr).
		Msg("Starting server")
	return http.ListenAndServe(addr, s.Handler())
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeBackendError maps dispatch failures onto HTTP statuses: a vanished
// window is the client's stale state, an exhausted chain is our side.
func writeBackendError(w http.ResponseWriter, err error) {
	if backend.IsWindowGone(err) {
		http.Error(w, err.Error(), http.StatusGone)
		return
	}
	if _, ok := backend.IsAllBackendsFailed(err); ok {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// HTTP Handlers

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.backend.SessionInfo())
}

func (s *Server) handleGetWindows(w http.ResponseWriter, r *http.Request) {
	windows, err := s.listWindows(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, windows)
}

func (s *Server) handleGetMonitors(w http.ResponseWriter, r *http.Request) {
	monitors, err := s.monitors(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, monitors)
}

type captureRequestBody struct {
	Mode     string           `json:"mode"`
	WindowID string           `json:"window_id,omitempty"`
	Region   *window.Geometry `json:"region,omitempty"`
	// Save writes the capture into the configured save directory and
	// returns its path instead of the image bytes.
	Save bool `json:"save,omitempty"`
}

func (s *Server) buildCaptureRequest(body captureRequestBody) (backend.CaptureRequest, error) {
	switch body.Mode {
	case "screen", "":
		return backend.FullScreenRequest(), nil
	case "window":
		if body.WindowID == "" {
			return backend.CaptureRequest{}, fmt.Errorf("window capture requires window_id")
		}
		return backend.WindowRequest(body.WindowID), nil
	case "region":
		if body.Region == nil || body.Region.Empty() {
			return backend.CaptureRequest{}, fmt.Errorf("region capture requires a region with positive size")
		}
		return backend.RegionRequest(body.Region.X, body.Region.Y, body.Region.Width, body.Region.Height), nil
	default:
		return backend.CaptureRequest{}, fmt.Errorf("unknown capture mode: %s", body.Mode)
	}
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	var body captureRequestBody
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	req, err := s.buildCaptureRequest(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.capture(r.Context(), req)
	if err != nil {
		writeBackendError(w, err)
		return
	}

	captureID := uuid.New().String()

	if body.Save {
		cfg := s.configMgr.Get()
		dir := cfg.ResolveSaveDir()
		if err := os.MkdirAll(dir, 0755); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		path := filepath.Join(dir, cfg.Capture.Filename(time.Now()))
		if err := capture.SavePNGFile(path, res); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		logger.WithComponent("api").Info().
			Str("capture_id", captureID).
			Str("path", path).
			Msg("Capture saved")
		w.Header().Set("X-Capture-Id", captureID)
		writeJSON(w, map[string]string{"path": path, "capture_id": captureID})
		return
	}

	var buf bytes.Buffer
	if err := capture.EncodePNG(&buf, res); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Capture-Id", captureID)
	w.Write(buf.Bytes())
}

func (s *Server) handleWindowPreview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	maxDim := s.configMgr.Get().Capture.ThumbnailMax
	if raw := r.URL.Query().Get("max"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 16 {
			http.Error(w, "max must be an integer of at least 16", http.StatusBadRequest)
			return
		}
		maxDim = parsed
	}

	res, err := s.capture(r.Context(), backend.WindowRequest(id))
	if err != nil {
		writeBackendError(w, err)
		return
	}

	img, err := res.Image()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	thumb := capture.FromImage(capture.Thumbnail(img, maxDim, maxDim))
	if err := capture.EncodePNG(&buf, thumb); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

// handleWindowsWatch streams window listings over a websocket, pushing a
// fresh listing whenever it differs from the last one sent.
func (s *Server) handleWindowsWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithComponent("api").Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	// Reader goroutine: its only job is noticing the peer went away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.watchInterval)
	defer ticker.Stop()

	var last []window.Info
	sendCurrent := func() bool {
		windows, err := s.listWindows(r.Context())
		if err != nil {
			logger.WithComponent("api").Debug().Err(err).Msg("Watch listing failed")
			return true
		}
		if reflect.DeepEqual(windows, last) {
			return true
		}
		last = windows
		return conn.WriteJSON(windows) == nil
	}

	if !sendCurrent() {
		return
	}
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if !sendCurrent() {
				return
			}
		}
	}
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.configMgr.Get())
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg config.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.configMgr.Update(&cfg); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "success"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	html := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>screenshot-gnome</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, Cantarell, sans-serif;
            max-width: 800px;
            margin: 50px auto;
            padding: 20px;
            background: #f5f5f5;
        }
        .container {
            background: white;
            padding: 30px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        h1 {
            color: #333;
            margin-top: 0;
        }
        .status {
            padding: 10px;
            background: #e8f5e9;
            border-left: 4px solid #4caf50;
            margin: 20px 0;
        }
        .info {
            color: #666;
            line-height: 1.6;
        }
        a {
            color: #1976d2;
            text-decoration: none;
        }
        a:hover {
            text-decoration: underline;
        }
        code {
            background: #f5f5f5;
            padding: 2px 6px;
            border-radius: 3px;
            font-family: 'Courier New', monospace;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>screenshot-gnome</h1>
        <div class="status">
            Server is running
        </div>
        <div class="info">
            <p>Desktop-aware screenshot service. Capture requests are dispatched
            to the best backend for the detected session, falling back down the
            chain when one fails.</p>
            <h3>API Endpoints:</h3>
            <ul>
                <li><a href="/api/health">/api/health</a> - Server health check</li>
                <li><a href="/api/session">/api/session</a> - Detected desktop session and backend chain</li>
                <li><a href="/api/windows">/api/windows</a> - List windows</li>
                <li><a href="/api/monitors">/api/monitors</a> - List monitors</li>
                <li><a href="/api/config">/api/config</a> - View configuration</li>
            </ul>
            <p>POST <code>/api/capture</code> with <code>{"mode": "screen" | "window" | "region", ...}</code>
            returns a PNG. Window previews live at <code>/api/windows/{id}/preview</code>.</p>
        </div>
    </div>
</body>
</html>`

	// Only serve HTML for root path
	if r.URL.Path == "/" {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
		return
	}

	// For other paths, return 404
	if !strings.HasPrefix(r.URL.Path, "/api") {
		http.NotFound(w, r)
	}
}
