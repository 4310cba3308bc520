package rules

import (
	"fmt"
	"slices"
)

// Level selects how strictly rules are applied.
type Level string

const (
	LevelLenient  Level = "lenient"
	LevelStandard Level = "standard"
	LevelStrict   Level = "strict"
)

const (
	defaultMaxConcurrency = 4
	defaultMaxFileSize    = 10 * 1024 * 1024
	minMaxFileSize        = 1024
)

// Config is the closed set of options a validation run understands.
type Config struct {
	StructuralValidationEnabled bool     `yaml:"structural" json:"structural"`
	EnabledRules                []string `yaml:"enabledRules,omitempty" json:"enabledRules,omitempty"`
	DisabledRules               []string `yaml:"disabledRules,omitempty" json:"disabledRules,omitempty"`
	Level                       Level    `yaml:"level" json:"level"`
	MaxConcurrency              int      `yaml:"maxConcurrency" json:"maxConcurrency"`
	MaxFileSize                 int64    `yaml:"maxFileSize" json:"maxFileSize"`
	FailFast                    bool     `yaml:"failFast" json:"failFast"`
}

// DefaultConfig returns the standard configuration: every structural rule on.
func DefaultConfig() *Config {
	return &Config{
		StructuralValidationEnabled: true,
		Level:                       LevelStandard,
		MaxConcurrency:              defaultMaxConcurrency,
		MaxFileSize:                 defaultMaxFileSize,
	}
}

// StrictConfig stops at the first failing rule.
func StrictConfig() *Config {
	c := DefaultConfig()
	c.Level = LevelStrict
	c.FailFast = true
	return c
}

// LenientConfig skips the raw-file reference checks.
func LenientConfig() *Config {
	c := DefaultConfig()
	c.Level = LevelLenient
	c.DisabledRules = []string{ReferenceValidationName}
	return c
}

// IsStructuralValidationEnabled reports the global structural toggle.
func (c *Config) IsStructuralValidationEnabled() bool {
	return c != nil && c.StructuralValidationEnabled
}

// IsRuleEnabled reports whether name may run. A non-empty EnabledRules is an
// allow-list; otherwise every rule not in DisabledRules is enabled.
func (c *Config) IsRuleEnabled(name string) bool {
	if c == nil {
		return false
	}
	if len(c.EnabledRules) > 0 {
		return slices.Contains(c.EnabledRules, name)
	}
	return !slices.Contains(c.DisabledRules, name)
}

// Concurrency returns the worker limit for the engine, at least 1.
func (c *Config) Concurrency() int {
	if c == nil || c.MaxConcurrency < 1 {
		return 1
	}
	return c.MaxConcurrency
}

// Validate checks option ranges.
func (c *Config) Validate() error {
	switch c.Level {
	case LevelLenient, LevelStandard, LevelStrict, "":
	default:
		return fmt.Errorf("unknown validation level %q", c.Level)
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("maxConcurrency must not be negative: %d", c.MaxConcurrency)
	}
	if c.MaxFileSize != 0 && c.MaxFileSize < minMaxFileSize {
		return fmt.Errorf("maxFileSize must be at least %d bytes: %d", minMaxFileSize, c.MaxFileSize)
	}
	for _, name := range c.EnabledRules {
		if slices.Contains(c.DisabledRules, name) {
			return fmt.Errorf("rule %s is both enabled and disabled", name)
		}
	}
	return nil
}
