// Package resource loads engine configuration and animation tree definitions from YAML and
// watches definition files for changes.
package resource

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/Carmen-Shannon/oxy-anim/engine/retarget"
)

// EngineConfig configures the tick loop.
type EngineConfig struct {
	TickRate  int  `yaml:"tick_rate"`
	Profiling bool `yaml:"profiling"`
}

// SceneConfig configures character evaluation.
type SceneConfig struct {
	Workers int `yaml:"workers"`
}

// AnimationConfig holds tree defaults.
type AnimationConfig struct {
	DefaultTransitionLength float64 `yaml:"default_transition_length"`
	AnnotationsEnabled      bool    `yaml:"annotations_enabled"`
}

// AdaptorConfig holds retarget adaptor defaults.
type AdaptorConfig struct {
	EnvironmentRange float64 `yaml:"environment_range"`
	GroundRange      float64 `yaml:"ground_range"`
	PredictionFactor float64 `yaml:"prediction_factor"`
}

// Config is the file configuration of an engine instance.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Scene     SceneConfig     `yaml:"scene"`
	Animation AnimationConfig `yaml:"animation"`
	Adaptor   AdaptorConfig   `yaml:"adaptor"`
}

// DefaultConfig returns the configuration used for every field a file leaves out.
//
// Returns:
//   - Config: the defaults
func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{TickRate: 60},
		Scene:  SceneConfig{Workers: runtime.NumCPU()},
		Animation: AnimationConfig{
			DefaultTransitionLength: animation.DefaultTransitionLength,
			AnnotationsEnabled:      true,
		},
		Adaptor: AdaptorConfig{
			EnvironmentRange: retarget.DefaultEnvironmentRange,
			GroundRange:      retarget.DefaultGroundRange,
			PredictionFactor: retarget.DefaultPredictionFactor,
		},
	}
}

// LoadConfig reads and parses a YAML configuration file.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Config: the configuration with defaults filled in
//   - error: if the file cannot be read or is invalid
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("resource: load %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("resource: %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig parses a YAML configuration. Keys that are absent keep their defaults.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Config: the configuration
//   - error: if the document is malformed or holds out-of-range values
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.Engine.TickRate <= 0:
		return fmt.Errorf("engine.tick_rate must be positive, got %d", c.Engine.TickRate)
	case c.Scene.Workers <= 0:
		return fmt.Errorf("scene.workers must be positive, got %d", c.Scene.Workers)
	case c.Animation.DefaultTransitionLength < 0:
		return fmt.Errorf("animation.default_transition_length must not be negative, got %v", c.Animation.DefaultTransitionLength)
	case c.Adaptor.EnvironmentRange < 0 || c.Adaptor.GroundRange < 0:
		return fmt.Errorf("adaptor ranges must not be negative")
	}
	return nil
}

// TreeOptions converts the animation section into tree builder options.
func (c Config) TreeOptions() []animation.TreeBuilderOption {
	return []animation.TreeBuilderOption{
		animation.WithDefaultTransitionLength(c.Animation.DefaultTransitionLength),
		animation.WithAnnotations(c.Animation.AnnotationsEnabled),
	}
}

// AdaptorOptions converts the adaptor section into adaptor builder options.
func (c Config) AdaptorOptions() []retarget.AdaptorBuilderOption {
	return []retarget.AdaptorBuilderOption{
		retarget.WithEnvironmentRange(c.Adaptor.EnvironmentRange),
		retarget.WithGroundRange(c.Adaptor.GroundRange),
		retarget.WithPredictionFactor(c.Adaptor.PredictionFactor),
	}
}
