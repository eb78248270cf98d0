package main

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/settings.yaml
var defaultSettingsYAML string

// Settings is the YAML configuration. Root is either a local archive
// directory or an HTTP(S) base URL; IndexPath is resolved relative to it.
type Settings struct {
	Root      string `yaml:"root"`
	IndexPath string `yaml:"index_path"`
	Listen    string `yaml:"listen"`
	Watch     bool   `yaml:"watch"`
}

// defaultSettings returns the embedded defaults.
func defaultSettings() *Settings {
	var s Settings
	// The embedded file is under our control; a parse failure here is a
	// build defect.
	if err := yaml.Unmarshal([]byte(defaultSettingsYAML), &s); err != nil {
		panic(fmt.Sprintf("embedded settings invalid: %v", err))
	}
	return &s
}

// loadSettings reads settings from path, falling back to embedded defaults
// when the file is absent. An explicit path that exists but does not parse is
// an error; silence there would mask typos.
func loadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultSettings(), nil
		}
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}

	settings := defaultSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	return settings, nil
}
