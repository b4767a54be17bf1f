// Package windowing defines the window-manager collaborator contract. The
// engine core never talks to the OS directly; it drives windows through
// these interfaces and the UI layer supplies an implementation.
package windowing

// Point is a position in physical pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is an extent in physical pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect is an axis-aligned region in physical pixels.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether the point lies inside the rect.
func (rect Rect) Contains(point Point) bool {
	return point.X >= rect.X && point.X < rect.X+rect.Width &&
		point.Y >= rect.Y && point.Y < rect.Y+rect.Height
}

// Monitor describes one display.
type Monitor struct {
	// WorkArea is the usable region excluding taskbars and docks.
	WorkArea    Rect
	ScaleFactor float64
}

// Config is the recognized window-creation surface. Width/height and bounds
// are logical units; X/Y nil means center on the primary monitor.
type Config struct {
	Route       string
	Title       string
	Width       float64
	Height      float64
	MinWidth    float64
	MinHeight   float64
	MaxWidth    float64
	MaxHeight   float64
	X           *float64
	Y           *float64
	Resizable   bool
	Decorated   bool
	Transparent bool
	AlwaysOnTop bool
	SkipTaskbar bool
	Focus       bool
}

// Unsubscribe releases an event registration. Safe to call more than once.
type Unsubscribe func()

// Handle is a live window. Position and size are physical pixels; divide by
// ScaleFactor for logical units.
type Handle interface {
	Show() error
	Hide() error
	Close() error
	Unminimize() error
	SetFocus() error

	Position() (Point, error)
	Size() (Size, error)
	ScaleFactor() float64
	SetPosition(point Point) error

	OnMoved(callback func(Point)) Unsubscribe
	OnResized(callback func(Size)) Unsubscribe
	OnDestroyed(callback func()) Unsubscribe
}

// Manager creates and looks up windows and answers monitor queries.
type Manager interface {
	Open(label string, config Config) (Handle, error)
	GetByLabel(label string) (Handle, bool)
	PrimaryMonitor() Monitor
	MonitorContaining(point Point) (Monitor, bool)
}

// Geometry is the persisted companion-window placement, in logical,
// scale-independent units. Absent X/Y means the window manager chooses.
type Geometry struct {
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
}
