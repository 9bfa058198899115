// Package config loads rule configuration from a TOML file and applies it
// to a registry. All application happens before the parallel analysis phase
// starts; nothing here is touched afterwards.
//
// Example:
//
//	[rules."no-debugger"]
//	severity = "error"
//
//	[rules."max-imports"]
//	severity = "warning"
//	  [rules."max-imports".options]
//	  max = 30
//
//	[rules."no-todo"]
//	script = "rules/no-todo.risor"
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/jward/understory"
	"github.com/jward/understory/internal/rules"
)

// DefaultFileName is looked up in the target directory when no --config
// flag is given.
const DefaultFileName = "understory.toml"

// RuleConfig configures one rule entry. Options is opaque: it is handed to
// the rule's SetConfig as-is, and rules ignore what they don't recognize.
type RuleConfig struct {
	Severity string         `toml:"severity"`
	Script   string         `toml:"script"`
	Options  map[string]any `toml:"options"`
}

// Config is the parsed configuration file.
type Config struct {
	Rules map[string]RuleConfig `toml:"rules"`

	// dir resolves relative script paths against the config file location.
	dir string
}

// Load parses the TOML file at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return &cfg, nil
}

// Apply configures the registry from the file: scripted rules are loaded
// and registered, every listed rule is enabled, severities are parsed
// (unrecognized labels fall back to the registry default and are logged),
// and option payloads are handed to each rule's SetConfig.
//
// A missing script file is an error; everything else is tolerated.
func (c *Config) Apply(reg *understory.Registry) error {
	for name, rc := range c.Rules {
		if rc.Script != "" {
			scriptPath := rc.Script
			if !filepath.IsAbs(scriptPath) {
				scriptPath = filepath.Join(c.dir, scriptPath)
			}
			rule, err := rules.LoadScriptRule(name, scriptPath)
			if err != nil {
				return err
			}
			reg.Register(rule)
		}

		reg.Enable(name)

		if rc.Severity != "" {
			if sev, ok := understory.ParseSeverity(rc.Severity); ok {
				reg.SetSeverity(name, sev)
			} else {
				fmt.Fprintf(os.Stderr, "understory: rule %s: unknown severity %q, using default\n", name, rc.Severity)
			}
		}

		if len(rc.Options) > 0 {
			reg.Configure(name, rc.Options)
		}
	}
	return nil
}
