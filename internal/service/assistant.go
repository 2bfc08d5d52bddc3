package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vlanislands/internal/assistant"
	"vlanislands/internal/domain"
	"vlanislands/internal/metrics"
)

// ErrNoReport is returned when a question has neither a report nor a run to discuss
var ErrNoReport = errors.New("no report to discuss")

// AskRequest is one question about a report. Report wins over RunID; with
// neither, the latest stored run is used.
type AskRequest struct {
	Query   string           `json:"query"`
	History []assistant.Turn `json:"history,omitempty"`
	RunID   string           `json:"run_id,omitempty"`
	Report  *domain.Report   `json:"report,omitempty"`
}

// AskResult is the assistant's answer
type AskResult struct {
	Answer string `json:"answer"`
	RunID  string `json:"run_id,omitempty"`
}

// AssistantService answers questions about detection reports
type AssistantService struct {
	bridge   assistant.Bridge
	runs     *AnalysisService
	eventBus *EventBus
	metrics  *metrics.Registry
	logger   *slog.Logger
}

// NewAssistantService creates an assistant service. runs may be nil when
// callers always supply the report.
func NewAssistantService(bridge assistant.Bridge, runs *AnalysisService, eventBus *EventBus, m *metrics.Registry, logger *slog.Logger) *AssistantService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssistantService{
		bridge:   bridge,
		runs:     runs,
		eventBus: eventBus,
		metrics:  m,
		logger:   logger,
	}
}

// Ask resolves the report and forwards the question to the bridge. The
// caller's history is passed through untouched and never stored.
func (s *AssistantService) Ask(ctx context.Context, req AskRequest) (*AskResult, error) {
	rep, runID, err := s.resolveReport(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	answer, err := s.bridge.Answer(ctx, assistant.Request{
		History: req.History,
		Query:   req.Query,
		Report:  rep,
	})

	outcome := "ok"
	if err != nil {
		outcome = assistant.Kind(err)
	}
	if s.metrics != nil {
		s.metrics.RecordAssistantRequest(outcome, time.Since(start))
	}
	if err != nil {
		s.logger.Warn("assistant question failed", "run_id", runID, "outcome", outcome, "error", err)
		return nil, err
	}

	s.eventBus.Publish(Event{
		Type:    EventAssistantAnswered,
		Payload: map[string]string{"run_id": runID},
	})

	return &AskResult{Answer: answer, RunID: runID}, nil
}

func (s *AssistantService) resolveReport(ctx context.Context, req AskRequest) (*domain.Report, string, error) {
	if req.Report != nil {
		return req.Report, "", nil
	}
	if s.runs == nil {
		return nil, "", ErrNoReport
	}

	var (
		run *domain.Run
		err error
	)
	if req.RunID != "" {
		run, err = s.runs.GetRun(ctx, req.RunID)
	} else {
		run, err = s.runs.LatestRun(ctx, "")
	}
	if err != nil {
		if errors.Is(err, ErrStorageDisabled) {
			return nil, "", ErrNoReport
		}
		return nil, "", err
	}
	if run.Report == nil {
		return nil, run.ID, ErrNoReport
	}

	return run.Report, run.ID, nil
}
