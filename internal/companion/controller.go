// Package companion owns the lifecycle of the always-on-top widget window:
// creation and reuse, geometry persistence in logical units, and clamping
// plus edge-snapping against the containing monitor's work area.
package companion

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"focusdeck/internal/storage"
	"focusdeck/internal/windowing"
)

// GeometryKey is where the companion window placement persists.
const GeometryKey = "companion.window"

// Config controls placement bounds and snapping behavior. Sizes are logical
// units, the snap threshold is physical pixels.
type Config struct {
	Label         string
	Title         string
	Route         string
	DefaultWidth  float64
	DefaultHeight float64
	MinWidth      float64
	MinHeight     float64
	MaxWidth      float64
	MaxHeight     float64
	SnapThreshold int
	Debounce      time.Duration
}

// DefaultConfig returns the stock companion widget configuration.
func DefaultConfig() Config {
	return Config{
		Label:         "companion",
		Title:         "FocusDeck",
		Route:         "companion",
		DefaultWidth:  320,
		DefaultHeight: 180,
		MinWidth:      240,
		MinHeight:     140,
		MaxWidth:      480,
		MaxHeight:     320,
		SnapThreshold: 12,
		Debounce:      250 * time.Millisecond,
	}
}

// Controller manages the companion window against the window-manager
// collaborator. Construct with NewController, tear down with Close.
type Controller struct {
	mu            sync.Mutex
	wm            windowing.Manager
	kv            storage.Store
	config        Config
	log           hclog.Logger
	handle        windowing.Handle
	subs          []windowing.Unsubscribe
	debounce      *time.Timer
	suppressMoves int
}

// NewController wires the collaborators; no window is created yet.
func NewController(wm windowing.Manager, kv storage.Store, config Config, log hclog.Logger) *Controller {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultConfig().Debounce
	}
	return &Controller{wm: wm, kv: kv, config: config, log: log}
}

// Open shows the companion window, reusing an existing one when present and
// otherwise creating it from the persisted or default geometry.
func (controller *Controller) Open() error {
	if existing, ok := controller.wm.GetByLabel(controller.config.Label); ok {
		if err := existing.Show(); err != nil {
			controller.log.Warn("show companion", "error", err)
		}
		_ = existing.Unminimize()
		_ = existing.SetFocus()
		controller.adopt(existing)
		return nil
	}

	geometry := controller.loadGeometry()
	handle, err := controller.wm.Open(controller.config.Label, windowing.Config{
		Route:       controller.config.Route,
		Title:       controller.config.Title,
		Width:       geometry.Width,
		Height:      geometry.Height,
		MinWidth:    controller.config.MinWidth,
		MinHeight:   controller.config.MinHeight,
		MaxWidth:    controller.config.MaxWidth,
		MaxHeight:   controller.config.MaxHeight,
		X:           geometry.X,
		Y:           geometry.Y,
		Resizable:   true,
		Decorated:   false,
		Transparent: true,
		AlwaysOnTop: true,
		SkipTaskbar: true,
		Focus:       true,
	})
	if err != nil {
		return fmt.Errorf("open companion window: %w", err)
	}
	controller.adopt(handle)
	return nil
}

// Close hides and destroys the window and releases all listeners and
// debounce timers.
func (controller *Controller) Close() {
	controller.mu.Lock()
	handle := controller.handle
	controller.releaseLocked()
	controller.mu.Unlock()

	if handle != nil {
		if err := handle.Close(); err != nil {
			controller.log.Warn("close companion", "error", err)
		}
	}
}

// IsOpen reports whether a companion window is currently bound.
func (controller *Controller) IsOpen() bool {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.handle != nil
}

// adopt binds the handle and registers geometry listeners, replacing any
// previous binding.
func (controller *Controller) adopt(handle windowing.Handle) {
	controller.mu.Lock()
	if controller.handle == handle {
		controller.mu.Unlock()
		return
	}
	controller.releaseLocked()
	controller.handle = handle
	controller.subs = []windowing.Unsubscribe{
		handle.OnMoved(controller.handleMoved),
		handle.OnResized(controller.handleResized),
		handle.OnDestroyed(controller.handleDestroyed),
	}
	controller.mu.Unlock()
}

func (controller *Controller) releaseLocked() {
	for _, unsubscribe := range controller.subs {
		unsubscribe()
	}
	controller.subs = nil
	if controller.debounce != nil {
		controller.debounce.Stop()
		controller.debounce = nil
	}
	controller.handle = nil
	controller.suppressMoves = 0
}

func (controller *Controller) handleMoved(windowing.Point) {
	controller.mu.Lock()
	if controller.suppressMoves > 0 {
		// Echo of our own snap move; must not re-trigger the snap routine.
		controller.suppressMoves--
		controller.mu.Unlock()
		return
	}
	controller.scheduleLocked()
	controller.mu.Unlock()
}

func (controller *Controller) handleResized(windowing.Size) {
	controller.mu.Lock()
	controller.scheduleLocked()
	controller.mu.Unlock()
}

func (controller *Controller) handleDestroyed() {
	controller.mu.Lock()
	controller.releaseLocked()
	controller.mu.Unlock()
}

// scheduleLocked coalesces bursts of drag events into one sync pass.
func (controller *Controller) scheduleLocked() {
	if controller.debounce != nil {
		controller.debounce.Stop()
	}
	controller.debounce = time.AfterFunc(controller.config.Debounce, controller.syncGeometry)
}

// syncGeometry persists the current placement and runs the edge-snap pass.
func (controller *Controller) syncGeometry() {
	controller.mu.Lock()
	handle := controller.handle
	controller.mu.Unlock()
	if handle == nil {
		return
	}

	position, err := handle.Position()
	if err != nil {
		controller.log.Warn("read companion position", "error", err)
		return
	}
	size, err := handle.Size()
	if err != nil {
		controller.log.Warn("read companion size", "error", err)
		return
	}
	scale := handle.ScaleFactor()
	if scale <= 0 {
		scale = 1
	}

	monitor, ok := controller.wm.MonitorContaining(windowing.Point{
		X: position.X + size.Width/2,
		Y: position.Y + size.Height/2,
	})
	if !ok {
		monitor = controller.wm.PrimaryMonitor()
	}

	snapped := SnapPosition(position, size, monitor.WorkArea, controller.config.SnapThreshold)
	if snapped != position {
		controller.mu.Lock()
		controller.suppressMoves++
		controller.mu.Unlock()
		if err := handle.SetPosition(snapped); err != nil {
			controller.log.Warn("snap companion", "error", err)
			controller.mu.Lock()
			if controller.suppressMoves > 0 {
				controller.suppressMoves--
			}
			controller.mu.Unlock()
			snapped = position
		}
	}

	controller.persistGeometry(snapped, size, scale)
}

func (controller *Controller) persistGeometry(position windowing.Point, size windowing.Size, scale float64) {
	x := float64(position.X) / scale
	y := float64(position.Y) / scale
	geometry := windowing.Geometry{
		Width:  float64(size.Width) / scale,
		Height: float64(size.Height) / scale,
		X:      &x,
		Y:      &y,
	}
	geometry = controller.clampGeometry(geometry)
	if err := controller.kv.Set(GeometryKey, geometry); err != nil {
		controller.log.Warn("persist companion geometry", "error", err)
	}
}

func (controller *Controller) loadGeometry() windowing.Geometry {
	geometry := windowing.Geometry{
		Width:  controller.config.DefaultWidth,
		Height: controller.config.DefaultHeight,
	}
	if err := controller.kv.Get(GeometryKey, &geometry); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			controller.log.Warn("read companion geometry", "error", err)
		}
		return geometry
	}
	return controller.clampGeometry(geometry)
}

func (controller *Controller) clampGeometry(geometry windowing.Geometry) windowing.Geometry {
	geometry.Width = clampFloat(geometry.Width, controller.config.MinWidth, controller.config.MaxWidth)
	geometry.Height = clampFloat(geometry.Height, controller.config.MinHeight, controller.config.MaxHeight)
	return geometry
}

// SnapPosition clamps the window's top-left into the work area, then snaps
// it exactly onto any edge it sits within threshold pixels of.
func SnapPosition(position windowing.Point, size windowing.Size, work windowing.Rect, threshold int) windowing.Point {
	maxX := work.X + work.Width - size.Width
	maxY := work.Y + work.Height - size.Height

	x := clampInt(position.X, work.X, maxX)
	y := clampInt(position.Y, work.Y, maxY)

	if abs(x-work.X) <= threshold {
		x = work.X
	} else if abs(x-maxX) <= threshold {
		x = maxX
	}
	if abs(y-work.Y) <= threshold {
		y = work.Y
	} else if abs(y-maxY) <= threshold {
		y = maxY
	}

	return windowing.Point{X: x, Y: y}
}

func clampInt(value, low, high int) int {
	if high < low {
		return low
	}
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

func clampFloat(value, low, high float64) float64 {
	if low > 0 && value < low {
		return low
	}
	if high > 0 && value > high {
		return high
	}
	return value
}

func abs(value int) int {
	if value < 0 {
		return -value
	}
	return value
}
