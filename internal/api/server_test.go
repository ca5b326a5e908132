package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/backend"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/capture"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/config"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/monitor"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/session"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/window"
)

type stubBackend struct {
	mu sync.Mutex

	info     backend.SessionInfo
	windows  []window.Info
	listErr  error
	result   *capture.Result
	capErr   error
	monitors []monitor.Info
	monErr   error

	lastCapture backend.CaptureRequest
}

func (s *stubBackend) SessionInfo() backend.SessionInfo { return s.info }

func (s *stubBackend) ListWindows(context.Context) ([]window.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windows, s.listErr
}

func (s *stubBackend) setWindows(windows []window.Info) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows = windows
}

func (s *stubBackend) Capture(_ context.Context, req backend.CaptureRequest) (*capture.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCapture = req
	return s.result, s.capErr
}

func (s *stubBackend) Monitors(context.Context) ([]monitor.Info, error) {
	return s.monitors, s.monErr
}

func testResult(t *testing.T, w, h int) *capture.Result {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	return capture.FromImage(img)
}

func newTestServer(t *testing.T, b *stubBackend) (*Server, *config.Manager) {
	t.Helper()
	mgr, err := config.NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	return NewServer(b, mgr), mgr
}

func TestGetSession(t *testing.T) {
	b := &stubBackend{
		info: backend.SessionInfo{
			Session: session.DesktopSession{
				DisplayServer: session.DisplayWayland,
				Environment:   session.EnvHyprland,
			},
			Label: "Hyprland",
			Backends: []backend.BackendStatus{
				{Name: "hyprland-ipc", Kind: "compositor-ipc(hyprctl)", Available: true},
				{Name: "native", Kind: "native-capture", Available: true},
			},
			Tools: map[string]bool{"grim": true, "spectacle": false},
		},
	}
	s, _ := newTestServer(t, b)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/session", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	// The session enums marshal as strings, so decode only the fields
	// the assertions need.
	var info struct {
		Session  map[string]any          `json:"session"`
		Label    string                  `json:"label"`
		Backends []backend.BackendStatus `json:"backends"`
		Tools    map[string]bool         `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "wayland", info.Session["display_server"])
	assert.Equal(t, "hyprland", info.Session["environment"])
	assert.Equal(t, "Hyprland", info.Label)
	require.Len(t, info.Backends, 2)
	assert.Equal(t, "hyprland-ipc", info.Backends[0].Name)
	assert.True(t, info.Tools["grim"])
}

func TestGetWindows(t *testing.T) {
	b := &stubBackend{
		windows: []window.Info{
			{ID: "0x12345678", Title: "Mozilla Firefox", AppID: "firefox", Focused: true},
		},
	}
	s, _ := newTestServer(t, b)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/windows", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var windows []window.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &windows))
	require.Len(t, windows, 1)
	assert.Equal(t, "0x12345678", windows[0].ID)
}

func TestGetWindowsAllBackendsFailed(t *testing.T) {
	b := &stubBackend{
		listErr: &backend.AllBackendsFailedError{
			Op: "list_windows",
			Attempts: []*backend.Error{
				{Kind: backend.FailureUnavailable, Backend: "hyprland-ipc"},
			},
		},
	}
	s, _ := newTestServer(t, b)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/windows", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCaptureScreen(t *testing.T) {
	b := &stubBackend{result: testResult(t, 64, 48)}
	s, _ := newTestServer(t, b)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/capture", strings.NewReader(`{"mode": "screen"}`))
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Capture-Id"))

	cfg, err := png.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 48, cfg.Height)

	assert.Equal(t, backend.ModeFullScreen, b.lastCapture.Mode)
}

func TestCaptureEmptyBodyDefaultsToScreen(t *testing.T) {
	b := &stubBackend{result: testResult(t, 8, 8)}
	s, _ := newTestServer(t, b)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/capture", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, backend.ModeFullScreen, b.lastCapture.Mode)
}

func TestCaptureValidation(t *testing.T) {
	b := &stubBackend{result: testResult(t, 8, 8)}
	s, _ := newTestServer(t, b)

	tests := []struct {
		name string
		body string
	}{
		{"window without id", `{"mode": "window"}`},
		{"region without region", `{"mode": "region"}`},
		{"region with empty size", `{"mode": "region", "region": {"x": 0, "y": 0, "width": 0, "height": 10}}`},
		{"unknown mode", `{"mode": "teleport"}`},
		{"malformed json", `{not json`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/capture", strings.NewReader(tc.body))
			s.Handler().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCaptureWindowGone(t *testing.T) {
	b := &stubBackend{capErr: &backend.WindowGoneError{ID: "0xdead"}}
	s, _ := newTestServer(t, b)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/capture", strings.NewReader(`{"mode": "window", "window_id": "0xdead"}`))
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Contains(t, rec.Body.String(), "0xdead")
}

func TestCaptureRegionRequest(t *testing.T) {
	b := &stubBackend{result: testResult(t, 10, 10)}
	s, _ := newTestServer(t, b)

	rec := httptest.NewRecorder()
	body := `{"mode": "region", "region": {"x": 5, "y": 6, "width": 100, "height": 50}}`
	s.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/capture", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, backend.ModeRegion, b.lastCapture.Mode)
	assert.Equal(t, window.Geometry{X: 5, Y: 6, Width: 100, Height: 50}, b.lastCapture.Region)
}

func TestCaptureSaveWritesFile(t *testing.T) {
	b := &stubBackend{result: testResult(t, 16, 16)}
	s, mgr := newTestServer(t, b)

	saveDir := t.TempDir()
	require.NoError(t, mgr.Set("capture.save_dir", saveDir))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/capture", strings.NewReader(`{"mode": "screen", "save": true}`))
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["path"])
	assert.Equal(t, saveDir, filepath.Dir(resp["path"]))
	assert.NotEmpty(t, resp["capture_id"])

	data, err := os.ReadFile(resp["path"])
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Width)
}

func TestWindowPreviewIsThumbnailed(t *testing.T) {
	b := &stubBackend{result: testResult(t, 800, 600)}
	s, _ := newTestServer(t, b)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/windows/0x12345678/preview?max=100", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	cfg, err := png.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.LessOrEqual(t, cfg.Width, 100)
	assert.LessOrEqual(t, cfg.Height, 100)

	assert.Equal(t, backend.ModeWindow, b.lastCapture.Mode)
	assert.Equal(t, "0x12345678", b.lastCapture.WindowID)
}

func TestWindowPreviewRejectsBadMax(t *testing.T) {
	b := &stubBackend{result: testResult(t, 8, 8)}
	s, _ := newTestServer(t, b)

	for _, max := range []string{"abc", "4", "-1"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/windows/1/preview?max="+max, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "max=%s", max)
	}
}

func TestGetMonitors(t *testing.T) {
	b := &stubBackend{
		monitors: []monitor.Info{
			{ID: 0, Name: "eDP-1", Width: 1920, Height: 1080, IsPrimary: true},
		},
	}
	s, _ := newTestServer(t, b)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/monitors", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var monitors []monitor.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &monitors))
	require.Len(t, monitors, 1)
	assert.Equal(t, "eDP-1", monitors[0].Name)
}

func TestConfigRoundTripOverHTTP(t *testing.T) {
	b := &stubBackend{}
	s, _ := newTestServer(t, b)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/config", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg config.Config
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, 8080, cfg.ServerPort)

	cfg.ServerPort = 9191
	body, err := json.Marshal(cfg)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("PUT", "/api/config", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/config", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, 9191, cfg.ServerPort)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestIndexAndNotFound(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("OPTIONS", "/api/windows", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWindowsWatchPushesOnChange(t *testing.T) {
	b := &stubBackend{
		windows: []window.Info{{ID: "1", Title: "first"}},
	}
	s, _ := newTestServer(t, b)
	s.watchInterval = 20 * time.Millisecond

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/windows/watch"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first []window.Info
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&first))
	require.Len(t, first, 1)
	assert.Equal(t, "first", first[0].Title)

	b.setWindows([]window.Info{{ID: "1", Title: "renamed"}})

	var second []window.Info
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "renamed", second[0].Title)
}

func TestBuildCaptureRequestWindow(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{})

	req, err := s.buildCaptureRequest(captureRequestBody{Mode: "window", WindowID: "0xabc"})
	require.NoError(t, err)
	assert.Equal(t, backend.ModeWindow, req.Mode)
	assert.Equal(t, "0xabc", req.WindowID)

	_, err = s.buildCaptureRequest(captureRequestBody{Mode: "window"})
	assert.Error(t, err)

	_, err = s.buildCaptureRequest(captureRequestBody{Mode: "region", Region: &window.Geometry{Width: -1, Height: 5}})
	assert.Error(t, err)
}
