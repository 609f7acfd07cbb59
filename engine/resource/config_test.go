package resource

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/Carmen-Shannon/oxy-anim/engine/retarget"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(nil)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Engine.TickRate != 60 {
		t.Errorf("tick rate = %d, want 60", cfg.Engine.TickRate)
	}
	if cfg.Scene.Workers != runtime.NumCPU() {
		t.Errorf("workers = %d", cfg.Scene.Workers)
	}
	if cfg.Animation.DefaultTransitionLength != animation.DefaultTransitionLength || !cfg.Animation.AnnotationsEnabled {
		t.Errorf("animation = %+v", cfg.Animation)
	}
	if cfg.Adaptor.EnvironmentRange != retarget.DefaultEnvironmentRange {
		t.Errorf("adaptor = %+v", cfg.Adaptor)
	}
}

func TestParseConfigKeepsDefaultsForMissingKeys(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
engine:
  tick_rate: 30
animation:
  annotations_enabled: false
adaptor:
  ground_range: 0.1
`))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Engine.TickRate != 30 || cfg.Animation.AnnotationsEnabled {
		t.Errorf("overrides lost: %+v", cfg)
	}
	if cfg.Animation.DefaultTransitionLength != animation.DefaultTransitionLength {
		t.Errorf("default transition length = %v", cfg.Animation.DefaultTransitionLength)
	}
	if cfg.Adaptor.GroundRange != 0.1 || cfg.Adaptor.PredictionFactor != retarget.DefaultPredictionFactor {
		t.Errorf("adaptor = %+v", cfg.Adaptor)
	}
	if len(cfg.TreeOptions()) != 2 || len(cfg.AdaptorOptions()) != 3 {
		t.Error("option conversion lost a setting")
	}
}

func TestParseConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"malformed":         "engine: [",
		"tick rate":         "engine: {tick_rate: 0}",
		"workers":           "scene: {workers: -2}",
		"transition length": "animation: {default_transition_length: -1}",
		"ranges":            "adaptor: {environment_range: -0.5}",
	}
	for name, doc := range cases {
		if _, err := ParseConfig([]byte(doc)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(path, []byte("scene:\n  workers: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Scene.Workers != 3 {
		t.Errorf("workers = %d, want 3", cfg.Scene.Workers)
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file must fail")
	}
}

func TestConfigOptionsApply(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Animation.DefaultTransitionLength = 0.4
	cfg.Animation.AnnotationsEnabled = false
	tr := animation.NewTree("t", cfg.TreeOptions()...)
	if tr.DefaultTransitionLength() != 0.4 || tr.AnnotationsEnabled() {
		t.Errorf("tree options not applied")
	}
}
