package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zheng/schemagraph/internal/analyzer"
	"github.com/zheng/schemagraph/internal/graph"
	"github.com/zheng/schemagraph/internal/schema"
	"github.com/zheng/schemagraph/internal/workspace"
	"github.com/zheng/schemagraph/pkg/logging"
)

// loaded fetches the state or writes a 500 and returns nil.
func (s *Server) loaded(c *gin.Context) *workspace.State {
	st, err := s.current(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return nil
	}
	return st
}

// fqnParam reads a wildcard parameter; container children contain a slash.
func fqnParam(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("fqn"), "/")
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, analyzer.ErrEmptyIdentifier):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, analyzer.ErrElementNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}

func (s *Server) stats(c *gin.Context) {
	st := s.loaded(c)
	if st == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "stats": st.Analyzer.Store().Stats(), "loadedAt": st.LoadedAt})
}

func (s *Server) graph(c *gin.Context) {
	st := s.loaded(c)
	if st == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "graph": st.Analyzer.Store().Snapshot()})
}

func (s *Server) elements(c *gin.Context) {
	st := s.loaded(c)
	if st == nil {
		return
	}
	kindFilter := c.Query("kind")
	if kindFilter != "" {
		if _, ok := schema.ParseKind(kindFilter); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown kind: " + kindFilter})
			return
		}
	}
	ns := c.Query("namespace")

	items := make([]graph.Node, 0)
	for _, n := range st.Analyzer.Store().Nodes() {
		if kindFilter != "" && string(n.Kind) != kindFilter {
			continue
		}
		if ns != "" && n.Namespace != ns {
			continue
		}
		items = append(items, n)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "elements": items})
}

func (s *Server) dependencies(c *gin.Context) {
	st := s.loaded(c)
	if st == nil {
		return
	}
	fqn := fqnParam(c)
	all, err := st.Analyzer.AllDependenciesOf(fqn)
	if err != nil {
		writeError(c, err)
		return
	}
	var direct []string
	if id, err := st.Analyzer.ElementID(fqn); err == nil {
		direct = names(st, st.Analyzer.Store().DirectDependencies(id))
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "fqn": fqn, "direct": direct, "all": all})
}

func (s *Server) dependents(c *gin.Context) {
	st := s.loaded(c)
	if st == nil {
		return
	}
	fqn := fqnParam(c)
	id, err := st.Analyzer.ElementID(fqn)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":     true,
		"fqn":    fqn,
		"direct": st.Analyzer.Dependents(fqn),
		"all":    names(st, st.Analyzer.Store().AllDependents(id)),
	})
}

func (s *Server) impact(c *gin.Context) {
	st := s.loaded(c)
	if st == nil {
		return
	}
	ia, err := st.Analyzer.Impact(fqnParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "impact": ia})
}

func (s *Server) path(c *gin.Context) {
	st := s.loaded(c)
	if st == nil {
		return
	}
	from, to := c.Query("from"), c.Query("to")
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "from and to are required"})
		return
	}
	p := st.Analyzer.DependencyPath(from, to)
	if len(p) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "no dependency path from " + from + " to " + to})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "path": p})
}

func (s *Server) cycles(c *gin.Context) {
	st := s.loaded(c)
	if st == nil {
		return
	}
	cycles := st.Analyzer.DetectCircularDependencies()
	if cycles == nil {
		cycles = []analyzer.CircularDependency{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "cycles": cycles})
}

func (s *Server) layers(c *gin.Context) {
	st := s.loaded(c)
	if st == nil {
		return
	}
	raw := st.Analyzer.Store().Layers()
	out := make([][]string, len(raw))
	for i, layer := range raw {
		out[i] = names(st, layer)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "layers": out})
}

func (s *Server) validate(c *gin.Context) {
	st, err := s.Reload(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	report, err := s.ws.Validate(c.Request.Context(), st)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if s.db != nil {
		if err := s.db.SaveReport(report, s.ws.Path()); err != nil {
			logging.Warn(subsystem, "failed to record validation run %s: %v", report.RunID, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": report.OK(), "report": report})
}

func (s *Server) reload(c *gin.Context) {
	st, err := s.Reload(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	nodes, edges := st.Analyzer.Store().Len()
	c.JSON(http.StatusOK, gin.H{"ok": true, "elements": nodes, "dependencies": edges})
}

// names maps store ids back to qualified names.
func names(st *workspace.State, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if n, ok := st.Analyzer.Store().Node(id); ok && n.FQN != "" {
			out = append(out, n.FQN)
			continue
		}
		out = append(out, id)
	}
	return out
}
