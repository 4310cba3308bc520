package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"github.com/zheng/schemagraph/internal/storage"
	"github.com/zheng/schemagraph/internal/workspace"
	"github.com/zheng/schemagraph/pkg/logging"
)

const subsystem = "web"

// Server exposes the schema graph of one workspace over HTTP
type Server struct {
	ws *workspace.Workspace
	db *storage.DB

	mu    sync.RWMutex
	state *workspace.State
	group singleflight.Group

	router *gin.Engine
}

// NewServer creates a server over ws. db may be nil; when set, validation
// runs are recorded in it.
func NewServer(ws *workspace.Workspace, db *storage.DB) *Server {
	s := &Server{ws: ws, db: db}
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.Register(s.router.Group("/api"))
	return s
}

// Register attaches the API routes to rg.
func (s *Server) Register(rg *gin.RouterGroup) {
	rg.GET("/stats", s.stats)
	rg.GET("/graph", s.graph)
	rg.GET("/elements", s.elements)
	rg.GET("/dependencies/*fqn", s.dependencies)
	rg.GET("/dependents/*fqn", s.dependents)
	rg.GET("/impact/*fqn", s.impact)
	rg.GET("/path", s.path)
	rg.GET("/cycles", s.cycles)
	rg.GET("/layers", s.layers)
	rg.POST("/validate", s.validate)
	rg.POST("/reload", s.reload)
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler { return s.router }

// Run loads the workspace and serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	if _, err := s.Reload(ctx); err != nil {
		return err
	}

	srv := &http.Server{Addr: addr, Handler: s.router}
	errc := make(chan error, 1)
	go func() {
		logging.Info(subsystem, "listening on http://%s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	}
}

// Reload rereads the workspace. Concurrent callers share one load.
func (s *Server) Reload(ctx context.Context) (*workspace.State, error) {
	v, err, shared := s.group.Do("load", func() (interface{}, error) {
		st, err := s.ws.Load(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.state = st
		s.mu.Unlock()
		return st, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	if shared {
		logging.Debug(subsystem, "reload shared with a concurrent request")
	}
	return v.(*workspace.State), nil
}

// current returns the loaded state, loading it on first use.
func (s *Server) current(ctx context.Context) (*workspace.State, error) {
	s.mu.RLock()
	st := s.state
	s.mu.RUnlock()
	if st != nil {
		return st, nil
	}
	return s.Reload(ctx)
}
