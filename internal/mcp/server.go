// Package mcp exposes analysis runs to Model Context Protocol clients.
package mcp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"vlanislands/internal/domain"
	"vlanislands/internal/report"
	"vlanislands/internal/repository"
	"vlanislands/internal/service"

	"github.com/paularlott/mcp"
)

// Version is reported to MCP clients
var Version = "1.0.0"

// Server wraps the MCP server with the analysis services
type Server struct {
	mcpServer   *mcp.Server
	analysis    *service.AnalysisService
	assistant   *service.AssistantService
	bearerToken string
	logger      *slog.Logger
}

// NewServer creates a new MCP server. assistantSvc may be nil, in which
// case the vlan_ask tool is not registered.
func NewServer(analysis *service.AnalysisService, assistantSvc *service.AssistantService, bearerToken string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mcpServer:   mcp.NewServer("vlanislands", Version),
		analysis:    analysis,
		assistant:   assistantSvc,
		bearerToken: bearerToken,
		logger:      logger,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	// vlan_analyze - Analyze an inline topology document
	s.mcpServer.RegisterTool(
		mcp.NewTool("vlan_analyze", "Analyze a topology document (devices, links, vlans) for VLAN islands and return the report",
			mcp.String("document", "Topology document content", mcp.Required()),
			mcp.String("format", "Document format: json, yaml or ansible (default json)"),
			mcp.String("save", "Store the result as a run (true/false)"),
			mcp.String("source", "Name to record as the run source"),
		),
		s.handleAnalyze,
	)

	// vlan_runs - List stored runs
	s.mcpServer.RegisterTool(
		mcp.NewTool("vlan_runs", "List stored analysis runs, newest first",
			mcp.String("source", "Only runs for this input source"),
			mcp.String("unhealthy", "Only runs with fragmented VLANs (true/false)"),
			mcp.String("limit", "Maximum number of runs"),
		),
		s.handleRuns,
	)

	// vlan_report - Render a stored run's report
	s.mcpServer.RegisterTool(
		mcp.NewTool("vlan_report", "Get the island report of a stored run",
			mcp.String("id", "Run ID (latest run when omitted)"),
			mcp.String("format", "Report format: text, json, yaml or mermaid (default text)"),
		),
		s.handleReport,
	)

	// vlan_islands - Detail one VLAN of a stored run
	s.mcpServer.RegisterTool(
		mcp.NewTool("vlan_islands", "Show the connected components of one VLAN in a stored run",
			mcp.String("vlan", "VLAN ID", mcp.Required()),
			mcp.String("id", "Run ID (latest run when omitted)"),
		),
		s.handleIslands,
	)

	if s.assistant != nil {
		// vlan_ask - Ask the network assistant about a run
		s.mcpServer.RegisterTool(
			mcp.NewTool("vlan_ask", "Ask the network assistant a question about a stored run",
				mcp.String("query", "Question to ask", mcp.Required()),
				mcp.String("id", "Run ID (latest run when omitted)"),
			),
			s.handleAsk,
		)
	}
}

// HandleRequest handles MCP HTTP requests with optional bearer token authentication
func (s *Server) HandleRequest(w http.ResponseWriter, r *http.Request) {
	if s.bearerToken != "" {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			s.logger.Warn("MCP request missing bearer token", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.bearerToken)) != 1 {
			s.logger.Warn("MCP request invalid token", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	s.mcpServer.HandleRequest(w, r)
}

func (s *Server) handleAnalyze(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	document, err := req.String("document")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("document is required: " + err.Error())
	}
	save, _ := strconv.ParseBool(req.StringOr("save", "false"))

	run, err := s.analysis.Analyze(ctx, service.AnalyzeRequest{
		Source: req.StringOr("source", "mcp"),
		Format: req.StringOr("format", "json"),
		Data:   []byte(document),
		Save:   save,
	})
	if err != nil {
		if errors.Is(err, domain.ErrMalformedInput) || errors.Is(err, domain.ErrDanglingReference) {
			return nil, mcp.NewToolErrorInvalidParams(err.Error())
		}
		s.logger.Error("MCP analyze failed", "error", err)
		return nil, mcp.NewToolErrorInternal("analysis failed: " + err.Error())
	}

	text, err := renderReport(run.Report, report.FormatText)
	if err != nil {
		return nil, mcp.NewToolErrorInternal(err.Error())
	}
	if run.ID != "" {
		text = fmt.Sprintf("Run %s saved.\n\n%s", run.ID, text)
	}

	return mcp.NewToolResponseText(text), nil
}

func (s *Server) handleRuns(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	opts := repository.ListOptions{Source: req.StringOr("source", "")}
	opts.UnhealthyOnly, _ = strconv.ParseBool(req.StringOr("unhealthy", "false"))
	if v := req.StringOr("limit", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, mcp.NewToolErrorInvalidParams("limit must be a non-negative integer")
		}
		opts.Limit = n
	}

	runs, err := s.analysis.ListRuns(ctx, opts)
	if err != nil {
		s.logger.Error("MCP run list failed", "error", err)
		return nil, mcp.NewToolErrorInternal("failed to list runs: " + err.Error())
	}

	return mcp.NewToolResponseText(runsText(runs)), nil
}

func (s *Server) handleReport(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	run, err := s.resolveRun(ctx, req.StringOr("id", ""))
	if err != nil {
		return nil, err
	}

	text, err := renderReport(run.Report, req.StringOr("format", report.FormatText))
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams(err.Error())
	}

	return mcp.NewToolResponseText(text), nil
}

func (s *Server) handleIslands(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	vlanID, err := req.String("vlan")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("vlan is required: " + err.Error())
	}

	run, err := s.resolveRun(ctx, req.StringOr("id", ""))
	if err != nil {
		return nil, err
	}

	vr, ok := run.Report.Vlans[vlanID]
	if !ok {
		return nil, mcp.NewToolErrorInvalidParams(fmt.Sprintf("run %s has no VLAN %q", run.ID, vlanID))
	}

	return mcp.NewToolResponseText(islandsText(vlanID, vr)), nil
}

func (s *Server) handleAsk(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	query, err := req.String("query")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("query is required: " + err.Error())
	}

	res, err := s.assistant.Ask(ctx, service.AskRequest{Query: query, RunID: req.StringOr("id", "")})
	if err != nil {
		s.logger.Warn("MCP ask failed", "error", err)
		return nil, mcp.NewToolErrorInternal("assistant request failed: " + err.Error())
	}

	return mcp.NewToolResponseText(res.Answer), nil
}

func (s *Server) resolveRun(ctx context.Context, id string) (*domain.Run, error) {
	var (
		run *domain.Run
		err error
	)
	if id == "" {
		run, err = s.analysis.LatestRun(ctx, "")
	} else {
		run, err = s.analysis.GetRun(ctx, id)
	}
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return nil, mcp.NewToolErrorInvalidParams(err.Error())
		}
		return nil, mcp.NewToolErrorInternal("failed to load run: " + err.Error())
	}
	if run.Report == nil {
		return nil, mcp.NewToolErrorInternal(fmt.Sprintf("run %s has no report", run.ID))
	}
	return run, nil
}

func renderReport(rep *domain.Report, format string) (string, error) {
	var b strings.Builder
	if err := report.Write(&b, rep, format); err != nil {
		return "", err
	}
	return b.String(), nil
}

func runsText(runs []*domain.Run) string {
	if len(runs) == 0 {
		return "No runs stored"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d run(s):\n", len(runs))
	for _, r := range runs {
		status := "healthy"
		if !r.Healthy() {
			status = fmt.Sprintf("%d unhealthy VLAN(s), %d island(s)", r.UnhealthyCount, r.TotalIslands)
		}
		source := r.Source
		if source == "" {
			source = "-"
		}
		fmt.Fprintf(&b, "- %s  %s  %s  %d VLANs  %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), source, r.VlanCount, status)
	}
	return b.String()
}

func islandsText(id string, vr domain.VlanReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "VLAN %s", id)
	if vr.Name != "" {
		fmt.Fprintf(&b, " (%s)", vr.Name)
	}
	fmt.Fprintf(&b, ": %d devices, %d components, fragmentation %s\n",
		vr.TotalDevices, vr.ComponentCount, vr.Fragmentation)

	for i, island := range vr.Islands {
		fmt.Fprintf(&b, "%d. %s [%s] %d device(s): %s\n",
			i+1, island.Classification, island.Severity, island.Size, strings.Join(island.Members, ", "))
	}
	return b.String()
}
