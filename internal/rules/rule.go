package rules

import "time"

const (
	CategoryStructural = "structural"
	SeverityError      = "error"
)

// Rule is one validation check.
type Rule interface {
	Name() string
	Description() string
	Category() string
	Severity() string
	// EstimatedExecutionTime is a relative cost hint in milliseconds.
	EstimatedExecutionTime() int64
	// IsApplicable gates Validate; Validate is never called when it is false.
	IsApplicable(ctx *Context, cfg *Config) bool
	// Validate returns the first failure found. Failures are results, not errors.
	Validate(ctx *Context, cfg *Config) Result
}

// structural carries the metadata shared by the structural rules and
// implements the common applicability gate.
type structural struct {
	name        string
	description string
	estimate    int64
	// applicable is the rule-specific part of the gate.
	applicable func(*Context, *Config) bool
}

func (s structural) Name() string                  { return s.name }
func (s structural) Description() string           { return s.description }
func (s structural) Category() string              { return CategoryStructural }
func (s structural) Severity() string              { return SeverityError }
func (s structural) EstimatedExecutionTime() int64 { return s.estimate }

func (s structural) IsApplicable(ctx *Context, cfg *Config) bool {
	if !cfg.IsStructuralValidationEnabled() || !cfg.IsRuleEnabled(s.name) {
		return false
	}
	return ctx != nil && s.applicable != nil && s.applicable(ctx, cfg)
}

func (s structural) pass(start time.Time) Result {
	return Pass(s.name, time.Since(start))
}

func (s structural) fail(start time.Time, msg string) Result {
	return Fail(s.name, msg, time.Since(start))
}
