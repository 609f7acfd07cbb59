package engine

import (
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/Carmen-Shannon/oxy-anim/engine/resource"
	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
)

// engine implements the Engine interface.
// Coordinates the tick and hot reload goroutines.
type engine struct {
	mu *sync.RWMutex

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	config         resource.Config
	engineTickRate time.Duration
	tickCallback   func(deltaTime float64)

	scenes map[int]scene.Scene

	watcher *resource.Watcher
	library *resource.Library
}

// Engine is the main entry point for the engine.
// It runs a fixed-rate tick loop that steps every active scene, and optionally rebuilds
// trees whose definitions change on disk.
type Engine interface {
	// Config returns the configuration the engine was built with.
	Config() resource.Config

	// Profiler returns the engine's profiler.
	Profiler() *profiler.Profiler

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// TickRate returns the tick interval.
	TickRate() time.Duration

	// SetTickCallback registers the function called each engine tick before scenes step.
	// Use this for game logic: driving blend weights, queueing transitions, moving obstacles.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float64))

	// AddScene registers a scene at the given key.
	// Scenes are stepped in ascending key order.
	//
	// Parameters:
	//   - key: the key determining step order (lower steps first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// CreateScene creates an active scene sized from the engine config and registers it.
	//
	// Parameters:
	//   - key: the key determining step order
	//   - name: the scene name
	//   - options: scene options applied after the config defaults
	//
	// Returns:
	//   - scene.Scene: the new scene
	CreateScene(key int, name string, options ...scene.SceneBuilderOption) scene.Scene

	// RemoveScene removes the scene at the given key.
	//
	// Parameters:
	//   - key: the key of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given key.
	// Returns nil if no scene exists at that key.
	//
	// Parameters:
	//   - key: the key of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by step order.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// Tick runs one engine tick synchronously: the tick callback, then every active scene.
	//
	// Parameters:
	//   - deltaTime: elapsed time in seconds
	Tick(deltaTime float64)

	// Run starts the tick loop and blocks until Quit is called.
	Run()

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Without WithConfig the engine uses resource.DefaultConfig.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	cfg := resource.DefaultConfig()
	e := &engine{
		mu:              &sync.RWMutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		scenes:          make(map[int]scene.Scene),
		profiler:        profiler.NewProfiler(profiler.DefaultInterval),
		config:          cfg,
		engineTickRate:  tickInterval(float64(cfg.Engine.TickRate)),
	}
	e.profilingEnabled.Store(cfg.Engine.Profiling)

	for _, opt := range options {
		opt(e)
	}
	return e
}

func tickInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}

func (e *engine) Config() resource.Config {
	return e.config
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) Run() {
	e.running.Store(true)
	e.handle()
	e.wg.Wait()
	e.running.Store(false)
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
		if e.watcher != nil {
			if err := e.watcher.Close(); err != nil {
				log.Printf("[Engine] closing watcher: %v", err)
			}
		}
	})
}

// handle launches the tick goroutine and, when a watcher is attached, the reload goroutine.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(1)
	go e.handleEngine()
	if e.watcher != nil {
		e.wg.Add(1)
		go e.handleReload()
	}
}

// handleEngine runs the fixed-rate tick loop in its own goroutine.
// Listens for dynamic rate changes via tickRateChannel. Exits when the quit channel is
// closed. Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] tick goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	e.mu.RLock()
	rate := e.engineTickRate
	e.mu.RUnlock()
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := now.Sub(lastTick).Seconds()
			lastTick = now
			e.Tick(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
		}
	}
}

// handleReload rebuilds trees whose definitions changed and swaps every scene's matching
// characters onto them. Returns once the watcher is closed.
func (e *engine) handleReload() {
	defer e.wg.Done()
	e.watcher.ReloadTrees(e.library, func(_ string, t animation.Tree) {
		for _, s := range e.orderedScenes(false) {
			s.Reload(t)
		}
	}, e.config.TreeOptions()...)
}

func (e *engine) Tick(deltaTime float64) {
	e.mu.RLock()
	callback := e.tickCallback
	e.mu.RUnlock()

	if callback != nil {
		callback(deltaTime)
	}

	profiling := e.profilingEnabled.Load()
	for _, s := range e.orderedScenes(true) {
		s.Step(deltaTime)
		if profiling {
			e.profiler.Record(s.Name(), s.LastStepDuration())
		}
	}
	if profiling {
		e.profiler.Tick()
	}
}

// orderedScenes returns the registered scenes in ascending key order.
func (e *engine) orderedScenes(activeOnly bool) []scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()

	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]scene.Scene, 0, len(keys))
	for _, k := range keys {
		s := e.scenes[k]
		if activeOnly && !s.Active() {
			continue
		}
		out = append(out, s)
	}
	return out
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	newRate := tickInterval(fps)
	e.mu.Lock()
	e.engineTickRate = newRate
	e.mu.Unlock()

	if !e.running.Load() {
		return
	}
	// Non-blocking send - if the channel is full, replace the pending value
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

func (e *engine) TickRate() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.engineTickRate
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float64)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes[key] = s
}

func (e *engine) CreateScene(key int, name string, options ...scene.SceneBuilderOption) scene.Scene {
	defaults := []scene.SceneBuilderOption{
		scene.WithActive(true),
		scene.WithWorkers(e.config.Scene.Workers),
	}
	s := scene.NewScene(name, append(defaults, options...)...)
	e.AddScene(key, s)
	return s
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}
