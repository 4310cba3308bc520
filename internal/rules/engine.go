package rules

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zheng/schemagraph/pkg/logging"
)

const subsystem = "rules"

// ErrNilContext is returned by Run when it has no validation context or config.
var ErrNilContext = errors.New("validation context and config are required")

// Report is the outcome of one validation run.
type Report struct {
	RunID     string        `json:"runId"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Results   []Result      `json:"results"`
	// Skipped lists rules that were not applicable or were cut off by FailFast.
	Skipped       []string `json:"skipped"`
	Passed        int      `json:"passed"`
	Failed        int      `json:"failed"`
	FirstFailures []string `json:"firstFailures"`
}

// OK reports whether no rule failed.
func (r *Report) OK() bool { return r.Failed == 0 }

// Engine runs a registry of rules against a context.
type Engine struct {
	registry *Registry
}

// NewEngine creates an engine over registry. A nil registry uses the
// built-in rules.
func NewEngine(registry *Registry) *Engine {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Engine{registry: registry}
}

// Registry returns the rules the engine runs.
func (e *Engine) Registry() *Registry { return e.registry }

// Run checks every rule's applicability and validates the applicable ones
// in parallel, at most cfg.Concurrency() at a time. With cfg.FailFast the
// first failure stops rules that have not started yet.
func (e *Engine) Run(ctx context.Context, vctx *Context, cfg *Config) (*Report, error) {
	if vctx == nil || cfg == nil {
		return nil, ErrNilContext
	}

	report := &Report{
		RunID:         uuid.NewString(),
		StartedAt:     time.Now(),
		Results:       []Result{},
		Skipped:       []string{},
		FirstFailures: []string{},
	}

	var applicable []Rule
	for _, rule := range e.registry.Rules() {
		if rule.IsApplicable(vctx, cfg) {
			applicable = append(applicable, rule)
		} else {
			logging.Debug(subsystem, "rule %s not applicable", rule.Name())
			report.Skipped = append(report.Skipped, rule.Name())
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(cfg.Concurrency())

	for _, rule := range applicable {
		g.Go(func() error {
			if gctx.Err() != nil {
				mu.Lock()
				report.Skipped = append(report.Skipped, rule.Name())
				mu.Unlock()
				return nil
			}

			res := rule.Validate(vctx, cfg)

			mu.Lock()
			report.Results = append(report.Results, res)
			mu.Unlock()

			if !res.Passed {
				logging.Debug(subsystem, "rule %s failed: %s", res.RuleName, res.Message)
				if cfg.FailFast {
					cancel()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("validation run failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("validation run cancelled: %w", err)
	}

	sort.Slice(report.Results, func(i, j int) bool { return report.Results[i].RuleName < report.Results[j].RuleName })
	sort.Strings(report.Skipped)
	for _, res := range report.Results {
		if res.Passed {
			report.Passed++
			continue
		}
		report.Failed++
		report.FirstFailures = append(report.FirstFailures, fmt.Sprintf("%s: %s", res.RuleName, res.Message))
	}
	report.Duration = time.Since(report.StartedAt)

	logging.Info(subsystem, "validation run %s: %d passed, %d failed, %d skipped",
		report.RunID, report.Passed, report.Failed, len(report.Skipped))
	return report, nil
}
