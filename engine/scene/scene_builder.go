package scene

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/character"
	"github.com/Carmen-Shannon/oxy-anim/engine/environment"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the engine steps the scene.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithCharacters adds initial characters to the scene.
// Characters without IDs will be assigned new IDs.
//
// Parameters:
//   - characters: the characters to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCharacters(characters ...character.Character) SceneBuilderOption {
	return func(s *scene) {
		for _, c := range characters {
			s.add(c)
		}
	}
}

// WithEnvironment replaces the default empty environment.
//
// Parameters:
//   - env: the environment characters are adapted against
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithEnvironment(env environment.Environment) SceneBuilderOption {
	return func(s *scene) {
		s.env = env
	}
}

// WithWorkers sets the number of worker goroutines Step spreads characters across.
// Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.stepWorkers = n
	}
}
