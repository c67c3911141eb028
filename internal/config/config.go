// Package config loads YAML run profiles: host-side defaults (browser
// shape, thresholds, typing speed) that workflows inherit unless their
// own properties say otherwise.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is one named run configuration. Unknown YAML fields are ignored.
type Profile struct {
	StartURL         string  `yaml:"start_url"`
	Headless         bool    `yaml:"headless"`
	WindowWidth      int     `yaml:"window_width"`
	WindowHeight     int     `yaml:"window_height"`
	DefaultThreshold float64 `yaml:"default_threshold"`
	KeyDelayMs       int     `yaml:"key_delay_ms"`
	MaxSteps         int     `yaml:"max_steps"`
	Variables        map[string]string `yaml:"variables"`
}

// Default returns the profile used when no file is supplied.
func Default() Profile {
	return Profile{
		Headless:         true,
		WindowWidth:      1280,
		WindowHeight:     800,
		DefaultThreshold: 0.8,
		KeyDelayMs:       20,
		MaxSteps:         1000,
	}
}

// Load reads a profile from disk, layered over Default.
func Load(path string) (Profile, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return p, nil
}
