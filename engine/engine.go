// Package engine owns the render loop: it creates the window and GL device, drives the graphic
// engine once per frame, pumps engine messages and runs game logic on a fixed-rate tick goroutine.
package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/camera"
	"github.com/Carmen-Shannon/oxy-gl/engine/config"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu/gldevice"
	"github.com/Carmen-Shannon/oxy-gl/engine/loader"
	"github.com/Carmen-Shannon/oxy-gl/engine/message"
	"github.com/Carmen-Shannon/oxy-gl/engine/pack"
	"github.com/Carmen-Shannon/oxy-gl/engine/profiler"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/glsl"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-gl/engine/scene"
	"github.com/Carmen-Shannon/oxy-gl/engine/states"
	"github.com/Carmen-Shannon/oxy-gl/engine/window"
	"go.uber.org/zap"
)

// ErrCrashDown is returned by Run when the loop stopped on a CrashDown message.
var ErrCrashDown = errors.New("engine crashed")

// engine implements the Engine interface.
// The render loop runs on the goroutine calling Run, which must own the GL context; game logic
// runs on the tick goroutine.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once
	crash       string

	cfg       config.Config
	window    window.Window
	device    gpu.Device
	newDevice func() (gpu.Device, error)
	graphics  renderer.GraphicEngine
	states    *states.States
	camera    camera.Camera
	queue     *message.Queue
	pkg       pack.Package
	shaders   renderer.ShaderLoader
	models    loader.Loader
	watcher   shader.Watcher

	ownsWindow  bool
	ownsPackage bool
	initialized bool
	debugKeys   bool

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	scenesMu sync.RWMutex
	scenes   map[int]scene.Scene

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main entry point for the engine.
// It orchestrates the engine loop, render loop, and window management.
type Engine interface {
	// Init creates the window (unless WithWindow supplied one), the GL device, the game package
	// and the graphic engine, and loads the shaders. Run calls it when needed; call it directly to
	// load resources through Graphics or Package before the loop starts. Must be called on the
	// goroutine that will call Run.
	//
	// Returns:
	//   - error: error if initialization fails
	Init() error

	// Window returns the underlying window, nil before Init unless WithWindow was used.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Graphics returns the graphic engine, nil before Init.
	Graphics() renderer.GraphicEngine

	// Device returns the GL device, nil before Init unless WithDevice was used.
	Device() gpu.Device

	// States returns the runtime render settings shared with the graphic engine.
	States() *states.States

	// Package returns the game package, nil if none is configured.
	Package() pack.Package

	// Models returns the glTF model loader reading from the game package, nil before Init or
	// without a package. Loaded models are released on shutdown.
	Models() loader.Loader

	// Post sends a message to the render loop. Safe to call from any goroutine.
	//
	// Parameters:
	//   - m: the message, e.g. message.Message{Type: message.MessageQuit}
	Post(m message.Message)

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Use this for game logic and animation updates. It runs on the tick goroutine and must not
	// touch the GL device.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called each render frame after the scenes were
	// drawn and before the buffers are swapped. It runs on the GL thread.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene at the given z-index key.
	// Scenes are rendered in ascending key order during the render loop.
	//
	// Parameters:
	//   - key: the z-index determining render order (lower renders first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key.
	// Returns nil if no scene exists at that key.
	//
	// Parameters:
	//   - key: the z-index of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by z-index.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// Run initializes the engine if needed and runs the render loop on the calling goroutine until
	// the window closes, Quit is called or a Quit or CrashDown message arrives. Resources created
	// by the engine are released before it returns.
	//
	// Returns:
	//   - error: the Init error, or a wrapped ErrCrashDown
	Run() error

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// This is an alternative to posting a MessageQuit message.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Nothing touching the window or GPU happens until Init or Run.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		cfg:              config.Default(),
		newDevice:        gldevice.NewDevice,
		queue:            message.NewQueue(message.DefaultQueueSize),
		scenes:           make(map[int]scene.Scene),
		profiler:         profiler.NewProfiler(time.Second),
		profilingEnabled: false,
		engineTickRate:   time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}
	return e
}

func (e *engine) Init() error {
	if e.initialized {
		return nil
	}

	if e.window == nil {
		major, minor, err := e.cfg.ContextVersion()
		if err != nil {
			return fmt.Errorf("failed to create window: %w", err)
		}
		w, err := window.NewWindow(
			window.WithTitle(e.cfg.Window.Title),
			window.WithSize(e.cfg.Window.Width, e.cfg.Window.Height),
			window.WithVSync(e.cfg.Window.VSync),
			window.WithContextVersion(major, minor),
			window.WithSamples(e.cfg.Window.Samples),
		)
		if err != nil {
			return fmt.Errorf("failed to create window: %w", err)
		}
		e.window = w
		e.ownsWindow = true
	}
	e.window.MakeContextCurrent()

	if e.device == nil {
		d, err := e.newDevice()
		if err != nil {
			return fmt.Errorf("failed to create device: %w", err)
		}
		e.device = d
	}

	if e.pkg == nil && e.cfg.Package.Path != "" {
		pkg, err := pack.Open(e.cfg.Package.Path, pack.WithWorkers(e.cfg.Package.Workers))
		if err != nil {
			return err
		}
		e.pkg = pkg
		e.ownsPackage = true
	}
	if e.pkg != nil && e.models == nil {
		e.models = loader.NewLoader(e.pkg, e.device)
	}

	if e.states == nil {
		s, err := e.cfg.States()
		if err != nil {
			return fmt.Errorf("invalid render settings: %w", err)
		}
		e.states = s
	}

	opts := []renderer.GraphicEngineBuilderOption{
		renderer.WithStates(e.states),
		renderer.WithMessageQueue(e.queue),
		renderer.WithClientRect(e.window.ClientRect()),
		renderer.WithShaderVersion(e.cfg.Render.Version),
	}
	opts = append(opts, e.shaderOptions()...)
	if e.camera != nil {
		opts = append(opts, renderer.WithCamera(e.camera))
	}
	e.graphics = renderer.NewGraphicEngine(e.device, opts...)
	if err := e.graphics.Start(); err != nil {
		return fmt.Errorf("failed to start graphic engine: %w", err)
	}

	e.window.SetResizeCallback(func(width, height int) {
		e.queue.Post(message.WindowSizeChanged(common.Rect{Width: width, Height: height}))
	})
	if e.debugKeys {
		e.window.SetKeyDownCallback(func(keyCode uint32) {
			e.handleDebugKey(common.Key(keyCode))
		})
	}
	e.startWatcher()

	e.initialized = true
	common.Log().Info("engine initialized",
		zap.Stringer("mode", e.states.RenderMode()),
		zap.Int("width", e.window.Width()),
		zap.Int("height", e.window.Height()),
	)
	return nil
}

// shaderOptions picks the shader sources: an explicit loader, the configured package directory, or
// the built-in sources.
func (e *engine) shaderOptions() []renderer.GraphicEngineBuilderOption {
	switch {
	case e.shaders != nil:
		opts := []renderer.GraphicEngineBuilderOption{renderer.WithShaderLoader(e.shaders)}
		if e.pkg != nil {
			opts = append(opts, renderer.WithShaderReader(e.pkg))
		}
		return opts
	case e.pkg != nil && e.cfg.Render.ShaderDir != "":
		return []renderer.GraphicEngineBuilderOption{
			renderer.WithShaderLoader(renderer.NewFileShaderLoader(e.pkg, e.cfg.Render.ShaderDir)),
			renderer.WithShaderReader(e.pkg),
		}
	default:
		builtin := glsl.Reader()
		return []renderer.GraphicEngineBuilderOption{
			renderer.WithShaderLoader(renderer.NewFileShaderLoader(builtin, "")),
			renderer.WithShaderReader(builtin),
		}
	}
}

// startWatcher watches the shader directory of a directory package. Archives cannot change under
// the engine, so they are never watched.
func (e *engine) startWatcher() {
	if !e.cfg.Render.WatchShaders || e.pkg == nil || e.cfg.Render.ShaderDir == "" {
		return
	}
	dir := filepath.Join(e.pkg.Path(), filepath.FromSlash(e.cfg.Render.ShaderDir))
	w, err := shader.NewWatcher(e.queue, dir)
	if err != nil {
		common.Log().Warn("shader hot reload disabled", zap.String("dir", dir), zap.Error(err))
		return
	}
	e.watcher = w
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Graphics() renderer.GraphicEngine {
	return e.graphics
}

func (e *engine) Device() gpu.Device {
	return e.device
}

func (e *engine) States() *states.States {
	return e.states
}

func (e *engine) Package() pack.Package {
	return e.pkg
}

func (e *engine) Models() loader.Loader {
	return e.models
}

func (e *engine) Post(m message.Message) {
	e.queue.Post(m)
}

func (e *engine) Run() error {
	defer e.shutdown()
	if err := e.Init(); err != nil {
		return err
	}

	e.running.Store(true)
	e.wg.Add(1)
	go e.handleEngine()

	lastRender := time.Now()
	for e.window.PollEvents() {
		if !e.pumpMessages() || e.quitting() {
			break
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		e.renderFrame(dt)

		// Frame rate limiting
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(lastRender); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}

	if e.crash != "" {
		return fmt.Errorf("%w: %s", ErrCrashDown, e.crash)
	}
	return nil
}

// renderFrame draws every active scene in ascending z-index order into one frame.
func (e *engine) renderFrame(dt float32) {
	e.graphics.NewFrame()
	for _, s := range e.activeScenes() {
		s.Render(e.graphics, renderer.BufferModeNormal)
	}

	if e.renderCallback != nil {
		e.renderCallback(dt)
	}
	e.window.SwapBuffers()

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick(
			zap.Stringer("mode", e.states.RenderMode()),
			zap.Bool("degraded", e.graphics.Degraded()),
		)
	}
}

// pumpMessages handles every pending message. Several shader changes in one batch trigger a single
// reload.
//
// Returns:
//   - bool: false if the loop must stop
func (e *engine) pumpMessages() bool {
	keepRunning := true
	reload := false
	e.queue.Drain(func(m message.Message) {
		switch m.Type {
		case message.MessageCrashDown:
			common.Log().Error("engine crash", zap.String("reason", m.Reason))
			if e.crash == "" {
				e.crash = m.Reason
			}
			keepRunning = false
		case message.MessageQuit:
			keepRunning = false
		case message.MessageShaderChanged:
			common.Log().Info("shader source changed", zap.String("path", m.Path))
			reload = true
		default:
			if !e.graphics.HandleMessage(m) {
				common.Log().Debug("unhandled message", zap.Stringer("type", m.Type))
			}
		}
	})
	if reload && keepRunning {
		// a failed reload keeps the previous programs and is already logged
		_ = e.graphics.ReloadShaders()
	}
	return keepRunning
}

// handleDebugKey maps the debug bindings: Esc quits, 0-9 select the G-buffer viewer channel, M
// toggles the render mode and F cycles the post-process filter.
func (e *engine) handleDebugKey(k common.Key) {
	if n, ok := k.Digit(); ok {
		v := e.states.DebugViewer()
		v.Index = n
		e.states.SetDebugViewer(v)
		return
	}

	switch k {
	case common.KeyEsc:
		e.Quit()
	case common.KeyM:
		mode := states.RenderModeDeferred
		if e.states.RenderMode() == states.RenderModeDeferred {
			mode = states.RenderModeForward
		}
		e.states.SetRenderMode(mode)
		common.Log().Info("render mode changed", zap.Stringer("mode", mode))
	case common.KeyF:
		f := e.states.Filter().Next()
		e.states.SetFilter(f)
		common.Log().Info("filter changed", zap.Stringer("filter", f))
	}
}

func (e *engine) activeScenes() []scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()

	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	active := make([]scene.Scene, 0, len(keys))
	for _, k := range keys {
		if s := e.scenes[k]; s.Active() {
			active = append(active, s)
		}
	}
	return active
}

// shutdown stops the tick goroutine and releases what the engine created.
func (e *engine) shutdown() {
	e.signalQuit()
	e.wg.Wait()
	e.running.Store(false)

	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			common.Log().Warn("failed to close shader watcher", zap.Error(err))
		}
		e.watcher = nil
	}
	if e.models != nil {
		e.models.Release()
	}
	if e.graphics != nil {
		e.graphics.Release()
	}
	if e.ownsPackage && e.pkg != nil {
		if err := e.pkg.Close(); err != nil {
			common.Log().Warn("failed to close package", zap.Error(err))
		}
	}
	if e.ownsWindow && e.window != nil {
		if err := e.window.Close(); err != nil {
			common.Log().Warn("failed to close window", zap.Error(err))
		}
	}
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) quitting() bool {
	select {
	case <-e.quitChannel:
		return true
	default:
		return false
	}
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
		}
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if !e.running.Load() {
		e.engineTickRate = newRate
		return
	}
	// Non-blocking send - if channel is full, replace the pending value
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameDuration(fps)
}

func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}
