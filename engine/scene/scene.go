package scene

import (
	"fmt"
	"log"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/Carmen-Shannon/oxy-anim/engine/character"
	"github.com/Carmen-Shannon/oxy-anim/engine/environment"
	"github.com/Carmen-Shannon/oxy-anim/engine/retarget"
)

// Scene manages a registry of characters sharing one environment. Each Step advances
// every enabled character once, spreading characters across a pool of workers.
// Scenes can be hot-swapped via the Active flag to switch between levels.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether the engine steps this scene.
	Active() bool

	// SetActive sets whether the engine steps this scene.
	SetActive(active bool)

	// Environment returns the environment characters are adapted against.
	Environment() environment.Environment

	// SetEnvironment replaces the scene's environment.
	//
	// Parameters:
	//   - env: the new environment, may be nil
	SetEnvironment(env environment.Environment)

	// Count returns the number of characters in the scene.
	Count() int

	// Add adds a character to the scene. A character without an ID is assigned the next
	// free one.
	//
	// Parameters:
	//   - c: the character to add
	//
	// Returns:
	//   - uint64: the assigned character ID
	Add(c character.Character) uint64

	// Get retrieves a character by its ID.
	// Returns nil if not found.
	//
	// Parameters:
	//   - id: the character's unique ID
	//
	// Returns:
	//   - character.Character: the character or nil
	Get(id uint64) character.Character

	// Remove removes a character by ID.
	//
	// Parameters:
	//   - id: the character's unique ID
	Remove(id uint64)

	// Characters returns the characters ordered by ID.
	Characters() []character.Character

	// Clear removes all characters from the scene.
	Clear()

	// Step advances every enabled character by deltaTime and waits for all of them.
	// A character that panics is logged and skipped for the frame.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last step in seconds
	Step(deltaTime float64)

	// Reload swaps every character instantiated from a template of the same name onto a
	// new instance of template.
	//
	// Parameters:
	//   - template: the new template tree
	//
	// Returns:
	//   - int: the number of characters reloaded
	Reload(template animation.Tree) int

	// LastStepDuration returns the wall time the last Step took.
	LastStepDuration() time.Duration
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu     *sync.RWMutex
	name   string
	active bool

	env      environment.Environment
	registry map[uint64]character.Character
	nextID   uint64

	// stepPool keeps a bounded set of goroutines alive across frames for Step.
	stepPool    worker.DynamicWorkerPool
	stepWorkers int

	lastStep atomic.Int64
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene with an empty environment.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:          &sync.RWMutex{},
		name:        name,
		env:         environment.NewEnvironment(),
		registry:    make(map[uint64]character.Character),
		nextID:      1,
		stepWorkers: max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	// Created after options so WithWorkers can override the default.
	s.stepPool = worker.NewDynamicWorkerPool(s.stepWorkers, 256, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Environment() environment.Environment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.env
}

func (s *scene) SetEnvironment(env environment.Environment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env = env
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Add(c character.Character) uint64 {
	if c == nil {
		panic("scene: cannot Add a nil Character")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(c)
	log.Printf("[Scene] %s: added character %q as %d", s.name, c.Name(), c.ID())
	return c.ID()
}

// add registers c. Caller must hold s.mu write lock.
func (s *scene) add(c character.Character) {
	if c.ID() == 0 {
		c.SetID(s.nextID)
		s.nextID++
	} else if c.ID() >= s.nextID {
		s.nextID = c.ID() + 1
	}
	if prev, ok := s.registry[c.ID()]; ok && prev != c {
		panic(fmt.Sprintf("scene: character id %d already taken by %q", c.ID(), prev.Name()))
	}
	s.registry[c.ID()] = c
}

func (s *scene) Get(id uint64) character.Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.registry[id]
	if !exists {
		return
	}
	delete(s.registry, id)
	log.Printf("[Scene] %s: removed character %q (%d)", s.name, c.Name(), id)
}

func (s *scene) Characters() []character.Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted()
}

// sorted returns the registry ordered by id. Caller must hold s.mu.
func (s *scene) sorted() []character.Character {
	out := make([]character.Character, 0, len(s.registry))
	for _, c := range s.registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = make(map[uint64]character.Character)
}

func (s *scene) Step(deltaTime float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := time.Now()
	var env retarget.EnvironmentContext
	if s.env != nil {
		env = s.env
	}

	// A WaitGroup is the per-frame barrier; the pool's own Wait blocks until workers
	// idle out.
	var wg sync.WaitGroup
	for _, c := range s.registry {
		if !c.Enabled() {
			continue
		}
		wg.Add(1)
		cCap := c
		s.stepPool.SubmitTask(worker.Task{
			ID: int(cCap.ID()),
			Do: func() (any, error) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						log.Printf("[Scene] %s: character %q panicked during step: %v", s.name, cCap.Name(), r)
					}
				}()
				cCap.Step(deltaTime, env)
				return nil, nil
			},
		})
	}
	wg.Wait()
	s.lastStep.Store(int64(time.Since(start)))
}

func (s *scene) Reload(template animation.Tree) int {
	if template == nil {
		panic("scene: cannot Reload a nil template")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, c := range s.sorted() {
		if c.Template() != template.Name() {
			continue
		}
		c.Reload(template)
		n++
	}
	if n > 0 {
		log.Printf("[Scene] %s: reloaded %d characters onto template %q", s.name, n, template.Name())
	}
	return n
}

func (s *scene) LastStepDuration() time.Duration {
	return time.Duration(s.lastStep.Load())
}
