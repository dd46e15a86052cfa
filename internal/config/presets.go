package config

import "sort"

var Presets = map[string]map[string]*Config{
	"uniform": {
		"small": preset(func(c *Config) {
			c.Scenario, c.Bodies, c.Steps = "uniform", 500, 500
		}),
		"large": preset(func(c *Config) {
			c.Scenario, c.Bodies, c.Steps = "uniform", 50000, 100
			c.Tree.Theta = 0.7
		}),
	},
	"electrolyte": {
		"dilute": preset(func(c *Config) {
			c.Scenario, c.Bodies, c.Domain = "electrolyte", 1000, 40
		}),
		"dense": preset(func(c *Config) {
			c.Scenario, c.Bodies, c.Domain = "electrolyte", 20000, 10
			c.Dt = 2e-4
			c.Tree.LeafCapacity = 16
		}),
	},
	"electrode": {
		"plate": preset(func(c *Config) {
			c.Scenario, c.Bodies, c.Steps = "electrode", 3000, 2000
			c.Physics.CollisionRadius = 0.1
		}),
		"accurate": preset(func(c *Config) {
			c.Scenario, c.Bodies = "electrode", 3000
			c.Tree.Theta = 0.3
		}),
	},
	"coincident": {
		"stress": preset(func(c *Config) {
			c.Scenario, c.Bodies, c.Steps = "coincident", 1000, 10
			c.Integrator = "euler"
		}),
	},
}

func preset(edit func(*Config)) *Config {
	c := DefaultConfig()
	edit(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(scenario, name string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
