// Package workspace ties loading, graph building and validation together
// for one schema directory.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zheng/schemagraph/internal/analyzer"
	"github.com/zheng/schemagraph/internal/loader"
	"github.com/zheng/schemagraph/internal/rules"
	"github.com/zheng/schemagraph/internal/schema"
	"github.com/zheng/schemagraph/pkg/logging"
)

const subsystem = "workspace"

// ErrNoChanges is returned by LoadChanged when none of the changed paths is
// a schema file.
var ErrNoChanges = errors.New("no schema files changed")

// Workspace is a schema path plus the settings used to process it
type Workspace struct {
	path   string
	cfg    *rules.Config
	loader *loader.Loader
	engine *rules.Engine
}

// State is one loaded view of the workspace
type State struct {
	Documents []*schema.Document
	Set       *schema.Set
	Analyzer  *analyzer.Analyzer
	LoadedAt  time.Time
}

// New creates a workspace over path. A nil cfg uses rules.DefaultConfig.
func New(path string, cfg *rules.Config) *Workspace {
	if cfg == nil {
		cfg = rules.DefaultConfig()
	}
	var opts []loader.Option
	if cfg.MaxFileSize > 0 {
		opts = append(opts, loader.WithMaxFileSize(cfg.MaxFileSize))
	}
	return &Workspace{
		path:   path,
		cfg:    cfg,
		loader: loader.New(opts...),
		engine: rules.NewEngine(nil),
	}
}

// Path returns the schema path
func (w *Workspace) Path() string { return w.path }

// Config returns the validation settings
func (w *Workspace) Config() *rules.Config { return w.cfg }

// Load reads every schema file and builds the dependency graph.
func (w *Workspace) Load(ctx context.Context) (*State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs, err := w.loader.LoadPath(w.path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", w.path, err)
	}
	return w.build(docs)
}

// LoadChanged gates Load on changed: the whole tree is reloaded when at
// least one changed path is a schema file, so references into unchanged
// files still resolve. Deleted files count as changes.
func (w *Workspace) LoadChanged(ctx context.Context, changed []string) (*State, error) {
	n := 0
	for _, f := range changed {
		if loader.IsSchemaFile(f) {
			n++
		}
	}
	if n == 0 {
		return nil, ErrNoChanges
	}
	logging.Info(subsystem, "%d schema files changed, reloading %s", n, w.path)
	return w.Load(ctx)
}

func (w *Workspace) build(docs []*schema.Document) (*State, error) {
	set := schema.NewSet(docs...)
	a := analyzer.New(set, nil)
	if err := a.Load(); err != nil {
		return nil, err
	}
	nodes, edges := a.Store().Len()
	logging.Info(subsystem, "loaded %d documents, %d elements, %d dependencies", len(docs), nodes, edges)
	return &State{Documents: docs, Set: set, Analyzer: a, LoadedAt: time.Now()}, nil
}

// Validate runs the rule engine over st.
func (w *Workspace) Validate(ctx context.Context, st *State) (*rules.Report, error) {
	return w.engine.Run(ctx, rules.NewContext(st.Set), w.cfg)
}
