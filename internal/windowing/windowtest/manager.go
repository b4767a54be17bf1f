// Package windowtest provides a scripted in-memory window manager for
// exercising window controllers without a display server. Move and resize
// notifications fire synchronously, which makes re-entrancy bugs visible.
package windowtest

import (
	"errors"
	"sync"

	"focusdeck/internal/windowing"
)

// Manager is an in-memory windowing.Manager.
type Manager struct {
	mu       sync.Mutex
	windows  map[string]*Window
	primary  windowing.Monitor
	monitors []windowing.Monitor
	// OpenCount tracks how many windows were actually created, as opposed
	// to reused through GetByLabel.
	OpenCount int
}

// NewManager creates a manager with a single 1920x1040 work-area monitor at
// scale 1.
func NewManager() *Manager {
	primary := windowing.Monitor{
		WorkArea:    windowing.Rect{X: 0, Y: 0, Width: 1920, Height: 1040},
		ScaleFactor: 1,
	}
	return &Manager{
		windows:  make(map[string]*Window),
		primary:  primary,
		monitors: []windowing.Monitor{primary},
	}
}

// SetMonitors replaces the monitor layout; the first entry is primary.
func (manager *Manager) SetMonitors(monitors ...windowing.Monitor) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.monitors = monitors
	if len(monitors) > 0 {
		manager.primary = monitors[0]
	}
}

// Open implements windowing.Manager.
func (manager *Manager) Open(label string, config windowing.Config) (windowing.Handle, error) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	if _, exists := manager.windows[label]; exists {
		return nil, errors.New("windowtest: window already open: " + label)
	}

	scale := manager.primary.ScaleFactor
	window := &Window{
		label:   label,
		Config:  config,
		scale:   scale,
		size:    windowing.Size{Width: int(config.Width * scale), Height: int(config.Height * scale)},
		visible: true,
	}
	if config.X != nil && config.Y != nil {
		window.position = windowing.Point{X: int(*config.X * scale), Y: int(*config.Y * scale)}
	} else {
		work := manager.primary.WorkArea
		window.position = windowing.Point{
			X: work.X + (work.Width-window.size.Width)/2,
			Y: work.Y + (work.Height-window.size.Height)/2,
		}
	}
	manager.windows[label] = window
	manager.OpenCount++
	window.onClose = func() {
		manager.mu.Lock()
		delete(manager.windows, label)
		manager.mu.Unlock()
	}
	return window, nil
}

// GetByLabel implements windowing.Manager.
func (manager *Manager) GetByLabel(label string) (windowing.Handle, bool) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	window, ok := manager.windows[label]
	if !ok {
		return nil, false
	}
	return window, true
}

// Window returns the concrete fake window for scripting, or nil.
func (manager *Manager) Window(label string) *Window {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return manager.windows[label]
}

// PrimaryMonitor implements windowing.Manager.
func (manager *Manager) PrimaryMonitor() windowing.Monitor {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return manager.primary
}

// MonitorContaining implements windowing.Manager.
func (manager *Manager) MonitorContaining(point windowing.Point) (windowing.Monitor, bool) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	for _, monitor := range manager.monitors {
		if monitor.WorkArea.Contains(point) {
			return monitor, true
		}
	}
	return windowing.Monitor{}, false
}

// Window is a scripted fake window.
type Window struct {
	mu        sync.Mutex
	label     string
	Config    windowing.Config
	scale     float64
	position  windowing.Point
	size      windowing.Size
	visible   bool
	minimized bool
	destroyed bool
	onClose   func()

	moved     []func(windowing.Point)
	resized   []func(windowing.Size)
	destroyCb []func()

	// SetPositionCalls records every programmatic move for assertions.
	SetPositionCalls []windowing.Point
	FocusCount       int
	ShowCount        int
}

// Show implements windowing.Handle.
func (window *Window) Show() error {
	window.mu.Lock()
	window.visible = true
	window.ShowCount++
	window.mu.Unlock()
	return nil
}

// Hide implements windowing.Handle.
func (window *Window) Hide() error {
	window.mu.Lock()
	window.visible = false
	window.mu.Unlock()
	return nil
}

// Close implements windowing.Handle and fires destroy callbacks.
func (window *Window) Close() error {
	window.mu.Lock()
	if window.destroyed {
		window.mu.Unlock()
		return nil
	}
	window.destroyed = true
	callbacks := append([]func(){}, window.destroyCb...)
	onClose := window.onClose
	window.mu.Unlock()

	if onClose != nil {
		onClose()
	}
	for _, callback := range callbacks {
		callback()
	}
	return nil
}

// Unminimize implements windowing.Handle.
func (window *Window) Unminimize() error {
	window.mu.Lock()
	window.minimized = false
	window.mu.Unlock()
	return nil
}

// SetFocus implements windowing.Handle.
func (window *Window) SetFocus() error {
	window.mu.Lock()
	window.FocusCount++
	window.mu.Unlock()
	return nil
}

// Position implements windowing.Handle.
func (window *Window) Position() (windowing.Point, error) {
	window.mu.Lock()
	defer window.mu.Unlock()
	return window.position, nil
}

// Size implements windowing.Handle.
func (window *Window) Size() (windowing.Size, error) {
	window.mu.Lock()
	defer window.mu.Unlock()
	return window.size, nil
}

// ScaleFactor implements windowing.Handle.
func (window *Window) ScaleFactor() float64 {
	window.mu.Lock()
	defer window.mu.Unlock()
	return window.scale
}

// SetPosition implements windowing.Handle. Like a real window manager it
// echoes the programmatic move back through the moved callbacks,
// synchronously.
func (window *Window) SetPosition(point windowing.Point) error {
	window.mu.Lock()
	window.position = point
	window.SetPositionCalls = append(window.SetPositionCalls, point)
	callbacks := append([]func(windowing.Point){}, window.moved...)
	window.mu.Unlock()

	for _, callback := range callbacks {
		callback(point)
	}
	return nil
}

// OnMoved implements windowing.Handle.
func (window *Window) OnMoved(callback func(windowing.Point)) windowing.Unsubscribe {
	window.mu.Lock()
	window.moved = append(window.moved, callback)
	index := len(window.moved) - 1
	window.mu.Unlock()
	return func() {
		window.mu.Lock()
		if index < len(window.moved) {
			window.moved[index] = func(windowing.Point) {}
		}
		window.mu.Unlock()
	}
}

// OnResized implements windowing.Handle.
func (window *Window) OnResized(callback func(windowing.Size)) windowing.Unsubscribe {
	window.mu.Lock()
	window.resized = append(window.resized, callback)
	index := len(window.resized) - 1
	window.mu.Unlock()
	return func() {
		window.mu.Lock()
		if index < len(window.resized) {
			window.resized[index] = func(windowing.Size) {}
		}
		window.mu.Unlock()
	}
}

// OnDestroyed implements windowing.Handle.
func (window *Window) OnDestroyed(callback func()) windowing.Unsubscribe {
	window.mu.Lock()
	window.destroyCb = append(window.destroyCb, callback)
	index := len(window.destroyCb) - 1
	window.mu.Unlock()
	return func() {
		window.mu.Lock()
		if index < len(window.destroyCb) {
			window.destroyCb[index] = func() {}
		}
		window.mu.Unlock()
	}
}

// DragTo simulates a user move: updates the position and fires the moved
// callbacks, as the window manager would during a drag.
func (window *Window) DragTo(point windowing.Point) {
	window.mu.Lock()
	window.position = point
	callbacks := append([]func(windowing.Point){}, window.moved...)
	window.mu.Unlock()

	for _, callback := range callbacks {
		callback(point)
	}
}

// ResizeTo simulates a user resize.
func (window *Window) ResizeTo(size windowing.Size) {
	window.mu.Lock()
	window.size = size
	callbacks := append([]func(windowing.Size){}, window.resized...)
	window.mu.Unlock()

	for _, callback := range callbacks {
		callback(size)
	}
}

// Visible reports window visibility.
func (window *Window) Visible() bool {
	window.mu.Lock()
	defer window.mu.Unlock()
	return window.visible
}

// Minimize marks the window minimized for reuse tests.
func (window *Window) Minimize() {
	window.mu.Lock()
	window.minimized = true
	window.mu.Unlock()
}

// Minimized reports the minimized flag.
func (window *Window) Minimized() bool {
	window.mu.Lock()
	defer window.mu.Unlock()
	return window.minimized
}
