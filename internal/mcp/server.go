package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/zheng/schemagraph/internal/impact"
	"github.com/zheng/schemagraph/internal/storage"
	"github.com/zheng/schemagraph/internal/workspace"
	"github.com/zheng/schemagraph/pkg/logging"
)

const subsystem = "mcp"

// Server exposes schema graph queries as MCP tools
type Server struct {
	ws        *workspace.Workspace
	db        *storage.DB
	mcpServer *server.MCPServer

	mu    sync.Mutex
	state *workspace.State
}

// NewServer creates a new MCP server over ws. db may be nil.
func NewServer(ws *workspace.Workspace, db *storage.DB, version string) *Server {
	s := &Server{
		ws: ws,
		db: db,
		mcpServer: server.NewMCPServer(
			"sgraph",
			version,
			server.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdio until the client disconnects
func (s *Server) Run() error {
	logging.Info(subsystem, "serving MCP on stdio for %s", s.ws.Path())
	return server.ServeStdio(s.mcpServer)
}

// MCPServer returns the underlying server
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("dependencies",
		mcp.WithDescription("List every element a schema element depends on, directly and transitively"),
		mcp.WithString("fqn",
			mcp.Required(),
			mcp.Description("Qualified name, e.g. Sales.Customer or Sales.Container/Orders"),
		),
	), s.handleDependencies)

	s.mcpServer.AddTool(mcp.NewTool("dependents",
		mcp.WithDescription("List the elements that reference a schema element directly"),
		mcp.WithString("fqn",
			mcp.Required(),
			mcp.Description("Qualified name of the referenced element"),
		),
	), s.handleDependents)

	s.mcpServer.AddTool(mcp.NewTool("path",
		mcp.WithDescription("Find the shortest dependency path between two elements"),
		mcp.WithString("from", mcp.Required(), mcp.Description("Qualified name of the start element")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Qualified name of the end element")),
	), s.handlePath)

	s.mcpServer.AddTool(mcp.NewTool("cycles",
		mcp.WithDescription("Detect circular dependencies across the whole schema set"),
	), s.handleCycles)

	s.mcpServer.AddTool(mcp.NewTool("impact",
		mcp.WithDescription("Analyze what is affected when a schema element changes"),
		mcp.WithString("fqn",
			mcp.Required(),
			mcp.Description("Qualified name of the element to change"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: markdown (default), tree or json"),
		),
	), s.handleImpact)

	s.mcpServer.AddTool(mcp.NewTool("validate",
		mcp.WithDescription("Reload the schema files and run the structural validation rules"),
	), s.handleValidate)
}

// loaded returns the cached state; reload forces a fresh load.
func (s *Server) loaded(ctx context.Context, reload bool) (*workspace.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != nil && !reload {
		return s.state, nil
	}
	st, err := s.ws.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.state = st
	return st, nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleDependencies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fqn, err := request.RequireString("fqn")
	if err != nil {
		return mcp.NewToolResultError("fqn argument is required"), nil
	}
	st, err := s.loaded(ctx, false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refs, err := st.Analyzer.AllDependenciesOf(fqn)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(refs)
}

func (s *Server) handleDependents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fqn, err := request.RequireString("fqn")
	if err != nil {
		return mcp.NewToolResultError("fqn argument is required"), nil
	}
	st, err := s.loaded(ctx, false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(st.Analyzer.Dependents(fqn))
}

func (s *Server) handlePath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := request.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError("from argument is required"), nil
	}
	to, err := request.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError("to argument is required"), nil
	}
	st, err := s.loaded(ctx, false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p := st.Analyzer.DependencyPath(from, to)
	if len(p) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No dependency path from %s to %s", from, to)), nil
	}
	return jsonResult(p)
}

func (s *Server) handleCycles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.loaded(ctx, false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cycles := st.Analyzer.DetectCircularDependencies()
	if len(cycles) == 0 {
		return mcp.NewToolResultText("No circular dependencies found"), nil
	}
	return jsonResult(cycles)
}

func (s *Server) handleImpact(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fqn, err := request.RequireString("fqn")
	if err != nil {
		return mcp.NewToolResultError("fqn argument is required"), nil
	}
	st, err := s.loaded(ctx, false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := st.Analyzer.ElementID(fqn)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := impact.FromStore(st.Analyzer.Store(), id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	switch request.GetString("format", "markdown") {
	case "tree":
		return mcp.NewToolResultText(report.FormatTree()), nil
	case "json":
		return jsonResult(report)
	default:
		return mcp.NewToolResultText(report.FormatMarkdown()), nil
	}
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.loaded(ctx, true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := s.ws.Validate(ctx, st)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.db != nil {
		if err := s.db.SaveReport(report, s.ws.Path()); err != nil {
			logging.Warn(subsystem, "failed to record validation run %s: %v", report.RunID, err)
		}
	}
	return jsonResult(report)
}
