package rules

import "time"

// Result is the outcome of one rule. Build it with Pass or Fail.
type Result struct {
	RuleName string        `json:"ruleName"`
	Passed   bool          `json:"passed"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Pass returns a passing result.
func Pass(rule string, elapsed time.Duration) Result {
	return Result{RuleName: rule, Passed: true, Duration: elapsed}
}

// Fail returns a failing result carrying msg.
func Fail(rule, msg string, elapsed time.Duration) Result {
	return Result{RuleName: rule, Passed: false, Message: msg, Duration: elapsed}
}
