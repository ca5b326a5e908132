package window

import "fmt"

// ValueUnknown is the sentinel for required text fields a backend could not
// supply. Backends degrade to it instead of fabricating values; optional
// fields (AppID, Workspace) degrade to empty instead.
const ValueUnknown = "unknown"

// Geometry is a window's position and size in pixels, in root/global
// coordinates.
type Geometry struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Empty reports whether the geometry carries no usable area.
func (g Geometry) Empty() bool {
	return g.Width <= 0 || g.Height <= 0
}

// String renders the geometry as "x,y WxH", the form the capture tools take.
func (g Geometry) String() string {
	return fmt.Sprintf("%d,%d %dx%d", g.X, g.Y, g.Width, g.Height)
}

// Info is the normalized window record every backend produces, whatever its
// native output looks like. All fields are best effort.
type Info struct {
	// ID is an opaque backend-scoped identifier, unique within a single
	// listing. Hex addresses on Hyprland, con ids on Sway, X11 window ids
	// on the native backend.
	ID    string `json:"id"`
	Title string `json:"title"`
	// AppID is the application class/app id. Empty when the backend could
	// not supply one.
	AppID    string   `json:"app_id,omitempty"`
	Geometry Geometry `json:"geometry"`
	// Workspace identifies the workspace/desktop holding the window. Empty
	// when unknown.
	Workspace string `json:"workspace,omitempty"`
	Focused   bool   `json:"focused"`
}

// DisplayLabel renders a human-readable label for window pickers.
func (i Info) DisplayLabel() string {
	if i.Title == "" || i.Title == ValueUnknown {
		return fmt.Sprintf("%s (ID: %s)", i.AppID, i.ID)
	}
	if i.AppID == "" {
		return i.Title
	}
	return fmt.Sprintf("%s — %s", i.Title, i.AppID)
}
