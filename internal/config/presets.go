package config

import "sort"

// Presets override selected fields of DefaultConfig.
var Presets = map[string]func(*Config){
	"default": func(c *Config) {},
	"inelastic": func(c *Config) {
		c.Restitution = 0.3
	},
	"deep": func(c *Config) {
		c.MaxDepth = 8
	},
	"fine": func(c *Config) {
		c.TimeStep = 0.005
	},
	"moon": func(c *Config) {
		c.Gravity = [3]float64{0, -1.62, 0}
		c.Duration = 20
	},
}

// GetPreset returns a fresh configuration for the named preset, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
