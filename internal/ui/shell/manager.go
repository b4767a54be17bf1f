// Package shell adapts a fyne.App to the windowing contract so the
// companion controller can drive real windows.
package shell

import (
	"fmt"
	"sync"

	"fyne.io/fyne/v2"

	"focusdeck/internal/windowing"
)

const (
	defaultWorkWidth  = 1920
	defaultWorkHeight = 1040
)

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// Manager creates fyne windows behind the windowing.Manager interface.
//
// Fyne exposes no absolute window placement or native move events, so
// position is tracked from programmatic placement only; SetPosition records
// the point and echoes it to the move subscribers.
type Manager struct {
	app     fyne.App
	mu      sync.Mutex
	windows map[string]*window
	primary windowing.Monitor
}

// NewManager wraps the fyne application.
func NewManager(app fyne.App) *Manager {
	return &Manager{
		app:     app,
		windows: make(map[string]*window),
		primary: windowing.Monitor{
			WorkArea:    windowing.Rect{Width: defaultWorkWidth, Height: defaultWorkHeight},
			ScaleFactor: 1,
		},
	}
}

// SetPrimaryWorkArea overrides the assumed primary monitor.
func (manager *Manager) SetPrimaryWorkArea(area windowing.Rect, scale float64) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	if scale <= 0 {
		scale = 1
	}
	manager.primary = windowing.Monitor{WorkArea: area, ScaleFactor: scale}
}

// Open creates a window under the label.
func (manager *Manager) Open(label string, config windowing.Config) (windowing.Handle, error) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	if _, exists := manager.windows[label]; exists {
		return nil, fmt.Errorf("window %q already open", label)
	}

	win := manager.app.NewWindow(config.Title)
	if !config.Decorated {
		if driver, ok := manager.app.Driver().(splashWindowDriver); ok {
			// Splash window is undecorated (no native frame/buttons).
			win = driver.CreateSplashWindow()
			win.SetTitle(config.Title)
		}
	}
	win.SetPadded(false)
	win.SetFixedSize(!config.Resizable)
	win.Resize(fyne.NewSize(float32(config.Width), float32(config.Height)))

	scale := manager.primary.ScaleFactor
	handle := &window{
		manager: manager,
		label:   label,
		win:     win,
	}
	if config.X != nil && config.Y != nil {
		handle.position = windowing.Point{
			X: int(*config.X * scale),
			Y: int(*config.Y * scale),
		}
	} else {
		win.CenterOnScreen()
		work := manager.primary.WorkArea
		handle.position = windowing.Point{
			X: work.X + (work.Width-int(config.Width*scale))/2,
			Y: work.Y + (work.Height-int(config.Height*scale))/2,
		}
	}
	handle.size = windowing.Size{
		Width:  int(config.Width * scale),
		Height: int(config.Height * scale),
	}

	win.SetOnClosed(handle.handleClosed)

	manager.windows[label] = handle
	win.Show()
	if config.Focus {
		win.RequestFocus()
	}
	return handle, nil
}

// GetByLabel returns the live window for the label.
func (manager *Manager) GetByLabel(label string) (windowing.Handle, bool) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	handle, ok := manager.windows[label]
	if !ok {
		return nil, false
	}
	return handle, true
}

// PrimaryMonitor returns the assumed primary display.
func (manager *Manager) PrimaryMonitor() windowing.Monitor {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return manager.primary
}

// MonitorContaining resolves the monitor holding the point.
func (manager *Manager) MonitorContaining(point windowing.Point) (windowing.Monitor, bool) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	if manager.primary.WorkArea.Contains(point) {
		return manager.primary, true
	}
	return windowing.Monitor{}, false
}

// Window returns the underlying fyne window so a view can set content.
func (manager *Manager) Window(label string) (fyne.Window, bool) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	handle, ok := manager.windows[label]
	if !ok {
		return nil, false
	}
	return handle.win, true
}

func (manager *Manager) forget(label string, handle *window) {
	manager.mu.Lock()
	if current, ok := manager.windows[label]; ok && current == handle {
		delete(manager.windows, label)
	}
	manager.mu.Unlock()
}

type window struct {
	manager *Manager
	label   string
	win     fyne.Window

	mu        sync.Mutex
	position  windowing.Point
	size      windowing.Size
	closed    bool
	moved     []func(windowing.Point)
	resized   []func(windowing.Size)
	destroyed []func()
}

func (handle *window) Show() error {
	handle.win.Show()
	return nil
}

func (handle *window) Hide() error {
	handle.win.Hide()
	return nil
}

func (handle *window) Close() error {
	handle.win.Close()
	return nil
}

// Unminimize has no fyne primitive; re-showing raises the window.
func (handle *window) Unminimize() error {
	handle.win.Show()
	return nil
}

func (handle *window) SetFocus() error {
	handle.win.RequestFocus()
	return nil
}

func (handle *window) Position() (windowing.Point, error) {
	handle.mu.Lock()
	defer handle.mu.Unlock()
	return handle.position, nil
}

func (handle *window) Size() (windowing.Size, error) {
	scale := handle.ScaleFactor()
	canvasSize := handle.win.Canvas().Size()
	if canvasSize.Width > 0 && canvasSize.Height > 0 {
		return windowing.Size{
			Width:  int(float64(canvasSize.Width) * scale),
			Height: int(float64(canvasSize.Height) * scale),
		}, nil
	}
	handle.mu.Lock()
	defer handle.mu.Unlock()
	return handle.size, nil
}

func (handle *window) ScaleFactor() float64 {
	scale := float64(handle.win.Canvas().Scale())
	if scale <= 0 {
		return 1
	}
	return scale
}

func (handle *window) SetPosition(point windowing.Point) error {
	handle.mu.Lock()
	handle.position = point
	callbacks := append([]func(windowing.Point){}, handle.moved...)
	handle.mu.Unlock()
	for _, callback := range callbacks {
		callback(point)
	}
	return nil
}

func (handle *window) OnMoved(callback func(windowing.Point)) windowing.Unsubscribe {
	handle.mu.Lock()
	index := len(handle.moved)
	handle.moved = append(handle.moved, callback)
	handle.mu.Unlock()
	return func() {
		handle.mu.Lock()
		handle.moved[index] = func(windowing.Point) {}
		handle.mu.Unlock()
	}
}

func (handle *window) OnResized(callback func(windowing.Size)) windowing.Unsubscribe {
	handle.mu.Lock()
	index := len(handle.resized)
	handle.resized = append(handle.resized, callback)
	handle.mu.Unlock()
	return func() {
		handle.mu.Lock()
		handle.resized[index] = func(windowing.Size) {}
		handle.mu.Unlock()
	}
}

func (handle *window) OnDestroyed(callback func()) windowing.Unsubscribe {
	handle.mu.Lock()
	index := len(handle.destroyed)
	handle.destroyed = append(handle.destroyed, callback)
	handle.mu.Unlock()
	return func() {
		handle.mu.Lock()
		handle.destroyed[index] = func() {}
		handle.mu.Unlock()
	}
}

func (handle *window) handleClosed() {
	handle.mu.Lock()
	if handle.closed {
		handle.mu.Unlock()
		return
	}
	handle.closed = true
	callbacks := append([]func(){}, handle.destroyed...)
	handle.mu.Unlock()

	handle.manager.forget(handle.label, handle)
	for _, callback := range callbacks {
		callback()
	}
}
