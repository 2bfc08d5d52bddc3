package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"vlanislands/internal/assistant"
	"vlanislands/internal/codec"
	"vlanislands/internal/domain"
	"vlanislands/internal/report"
	"vlanislands/internal/repository"
	"vlanislands/internal/service"
)

// DefaultMaxBodyBytes caps uploaded topology documents
const DefaultMaxBodyBytes = 16 << 20

// Handler serves the analysis API
type Handler struct {
	analysis  *service.AnalysisService
	assistant *service.AssistantService
	logger    *slog.Logger
	maxBody   int64
}

// NewHandler creates a new API handler. assistantSvc may be nil, in which
// case the ask endpoints answer 503.
func NewHandler(analysis *service.AnalysisService, assistantSvc *service.AssistantService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		analysis:  analysis,
		assistant: assistantSvc,
		logger:    logger,
		maxBody:   DefaultMaxBodyBytes,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.health)

	// Analysis
	mux.HandleFunc("POST /api/analyze", h.analyze)
	mux.HandleFunc("GET /api/formats", h.formats)

	// Stored runs
	mux.HandleFunc("GET /api/runs", h.listRuns)
	mux.HandleFunc("GET /api/runs/latest", h.latestRun)
	mux.HandleFunc("GET /api/runs/{id}", h.getRun)
	mux.HandleFunc("DELETE /api/runs/{id}", h.deleteRun)
	mux.HandleFunc("GET /api/runs/{id}/report", h.getRunReport)

	// Assistant
	mux.HandleFunc("POST /api/ask", h.ask)
	mux.HandleFunc("POST /api/runs/{id}/ask", h.askRun)
}

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (h *Handler) formats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string][]string{
		"input":  codec.Formats(),
		"report": report.Formats(),
	}, http.StatusOK)
}

// analyze handles POST /api/analyze.
// Query parameters: format (input codec), source, save, output (report format).
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = formatFromContentType(r.Header.Get("Content-Type"))
	}
	save, _ := strconv.ParseBool(q.Get("save"))

	run, err := h.analysis.Analyze(r.Context(), service.AnalyzeRequest{
		Source: q.Get("source"),
		Format: format,
		Data:   data,
		Save:   save,
	})
	if err != nil {
		h.writeServiceError(w, "Analysis failed", err)
		return
	}

	status := http.StatusOK
	if run.ID != "" {
		status = http.StatusCreated
	}

	if output := q.Get("output"); output != "" && output != report.FormatJSON {
		h.writeReport(w, run.Report, output, status)
		return
	}

	h.writeJSON(w, run, status)
}

// listRuns handles GET /api/runs?limit=&source=&unhealthy=
func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := repository.ListOptions{Source: q.Get("source")}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, "Invalid limit", fmt.Sprintf("limit must be a non-negative integer, got %q", v), http.StatusBadRequest)
			return
		}
		opts.Limit = n
	}
	opts.UnhealthyOnly, _ = strconv.ParseBool(q.Get("unhealthy"))

	runs, err := h.analysis.ListRuns(r.Context(), opts)
	if err != nil {
		h.writeServiceError(w, "Failed to list runs", err)
		return
	}

	h.writeJSON(w, runs, http.StatusOK)
}

func (h *Handler) latestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.analysis.LatestRun(r.Context(), r.URL.Query().Get("source"))
	if err != nil {
		h.writeServiceError(w, "Failed to get run", err)
		return
	}

	h.writeJSON(w, run, http.StatusOK)
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.analysis.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, "Failed to get run", err)
		return
	}

	h.writeJSON(w, run, http.StatusOK)
}

func (h *Handler) deleteRun(w http.ResponseWriter, r *http.Request) {
	if err := h.analysis.DeleteRun(r.Context(), r.PathValue("id")); err != nil {
		h.writeServiceError(w, "Failed to delete run", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getRunReport handles GET /api/runs/{id}/report?format=json|yaml|text|mermaid
func (h *Handler) getRunReport(w http.ResponseWriter, r *http.Request) {
	run, err := h.analysis.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, "Failed to get run", err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = report.FormatJSON
	}
	h.writeReport(w, run.Report, format, http.StatusOK)
}

// askBody is the JSON body of the ask endpoints
type askBody struct {
	Query   string           `json:"query"`
	History []assistant.Turn `json:"history,omitempty"`
	Report  *domain.Report   `json:"report,omitempty"`
}

func (h *Handler) ask(w http.ResponseWriter, r *http.Request) {
	h.handleAsk(w, r, "")
}

func (h *Handler) askRun(w http.ResponseWriter, r *http.Request) {
	h.handleAsk(w, r, r.PathValue("id"))
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request, runID string) {
	if h.assistant == nil {
		h.writeError(w, "Assistant not configured", "", http.StatusServiceUnavailable)
		return
	}

	var body askBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody)).Decode(&body); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		h.writeError(w, "Query is required", "", http.StatusBadRequest)
		return
	}

	req := service.AskRequest{
		Query:   body.Query,
		History: body.History,
		RunID:   runID,
	}
	if runID == "" {
		req.Report = body.Report
	}

	res, err := h.assistant.Ask(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, "Assistant request failed", err)
		return
	}

	h.writeJSON(w, res, http.StatusOK)
}

func (h *Handler) writeReport(w http.ResponseWriter, rep *domain.Report, format string, statusCode int) {
	if !slices.Contains(report.Formats(), format) {
		h.writeError(w, "Unsupported report format",
			fmt.Sprintf("%q; supported: %s", format, strings.Join(report.Formats(), ", ")), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", report.ContentType(format))
	w.WriteHeader(statusCode)
	if err := report.Write(w, rep, format); err != nil {
		h.logger.Error("failed to write report", "format", format, "error", err)
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, message string, err error) {
	status, kind := classifyError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   message,
		Details: err.Error(),
		Kind:    kind,
	}); encErr != nil {
		h.logger.Error("failed to encode error response", "error", encErr)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		h.logger.Error("failed to encode error response", "error", err)
	}
}

// classifyError maps service errors to an HTTP status and a stable kind
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrDanglingReference):
		return http.StatusUnprocessableEntity, "dangling_reference"
	case errors.Is(err, domain.ErrMalformedInput):
		return http.StatusUnprocessableEntity, "malformed_input"
	case errors.Is(err, codec.ErrUnknownFormat), errors.Is(err, report.ErrUnknownFormat):
		return http.StatusBadRequest, "unknown_format"
	case errors.Is(err, assistant.ErrEmptyQuery):
		return http.StatusBadRequest, "invalid_query"
	case errors.Is(err, repository.ErrRunNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNoReport):
		return http.StatusNotFound, "no_report"
	case errors.Is(err, service.ErrStorageDisabled):
		return http.StatusNotImplemented, "storage_disabled"
	case errors.Is(err, assistant.ErrAuthentication):
		return http.StatusBadGateway, "authentication"
	case errors.Is(err, assistant.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// formatFromContentType maps a request media type to an input codec name
func formatFromContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
	switch ct {
	case "application/json":
		return "json"
	case "application/yaml", "application/x-yaml", "text/yaml":
		return "yaml"
	}
	return ""
}
