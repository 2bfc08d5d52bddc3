package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vlanislands/internal/codec"
	"vlanislands/internal/detect"
	"vlanislands/internal/domain"
	"vlanislands/internal/graph"
	"vlanislands/internal/loader"
	"vlanislands/internal/metrics"
	"vlanislands/internal/report"
	"vlanislands/internal/repository"
)

// ErrStorageDisabled is returned by run operations when no store is configured
var ErrStorageDisabled = errors.New("run storage disabled")

// AnalysisOptions configures an AnalysisService
type AnalysisOptions struct {
	Policy  detect.Policy
	Workers int
	Graph   graph.Options
	Metrics *metrics.Registry
	Logger  *slog.Logger
}

// AnalysisService runs the detection pipeline and manages stored runs
type AnalysisService struct {
	repo      repository.RunRepository
	eventBus  *EventBus
	detector  *detect.Detector
	graphOpts graph.Options
	metrics   *metrics.Registry
	logger    *slog.Logger
}

// NewAnalysisService creates an analysis service. repo may be nil, in which
// case analyses are never persisted and run lookups fail with
// ErrStorageDisabled.
func NewAnalysisService(repo repository.RunRepository, eventBus *EventBus, opts AnalysisOptions) (*AnalysisService, error) {
	if opts.Policy.Name == "" {
		opts.Policy = detect.DefaultPolicy()
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &AnalysisService{
		repo:      repo,
		eventBus:  eventBus,
		detector:  detect.New(opts.Policy, detect.Options{Workers: opts.Workers, Logger: opts.Logger}),
		graphOpts: opts.Graph,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}, nil
}

// Policy returns the classification policy in effect
func (s *AnalysisService) Policy() detect.Policy {
	return s.detector.Policy()
}

// AnalyzeRequest is one topology document to analyse
type AnalyzeRequest struct {
	// Source names the input, typically a file name
	Source string
	// Format is a codec name; empty infers it from Source
	Format string
	Data   []byte
	// Save persists the run when a store is configured
	Save bool
}

// Analyze parses, validates and analyses a topology document. The returned
// run always carries the report; its ID is set only when the run was saved.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*domain.Run, error) {
	if req.Save && s.repo == nil {
		return nil, ErrStorageDisabled
	}

	format := req.Format
	if format == "" {
		format = codec.FormatFromPath(req.Source)
	}
	if format == "" {
		return nil, fmt.Errorf("cannot infer format of %q: %w", req.Source, codec.ErrUnknownFormat)
	}

	topo, err := loader.Read(bytes.NewReader(req.Data), format)
	if err != nil {
		s.recordFailure(req.Source, err)
		return nil, err
	}

	rep, err := s.AnalyzeTopology(ctx, topo)
	if err != nil {
		return nil, err
	}

	reportDigest, err := report.Digest(rep)
	if err != nil {
		return nil, fmt.Errorf("failed to digest report: %w", err)
	}

	run := &domain.Run{
		Source:         req.Source,
		Policy:         s.detector.Policy().Name,
		InputDigest:    report.DigestBytes(req.Data),
		ReportDigest:   reportDigest,
		DeviceCount:    len(topo.Devices),
		LinkCount:      len(topo.Links),
		VlanCount:      len(topo.Vlans),
		UnhealthyCount: len(rep.Summary.UnhealthyVlans),
		TotalIslands:   rep.Summary.TotalIslands,
		Report:         rep,
		CreatedAt:      time.Now().UTC(),
	}

	if req.Save {
		if err := s.repo.SaveRun(ctx, run); err != nil {
			return nil, err
		}
	}

	s.logger.Info("analysis completed",
		"source", run.Source,
		"run_id", run.ID,
		"vlans", run.VlanCount,
		"unhealthy", run.UnhealthyCount,
		"islands", run.TotalIslands,
	)

	s.eventBus.Publish(Event{
		Type: EventAnalysisCompleted,
		Payload: map[string]interface{}{
			"run_id":          run.ID,
			"source":          run.Source,
			"unhealthy_vlans": rep.Summary.UnhealthyVlans,
			"total_islands":   run.TotalIslands,
		},
	})

	return run, nil
}

// AnalyzeTopology runs graph construction, detection and report generation
// over an already validated topology.
func (s *AnalysisService) AnalyzeTopology(ctx context.Context, topo *domain.Topology) (*domain.Report, error) {
	start := time.Now()

	physical := graph.Build(topo, s.graphOpts)
	results, err := s.detector.DetectAll(ctx, physical.Vlans(topo))
	if err != nil {
		return nil, err
	}

	rep := report.Generate(results)

	if s.metrics != nil {
		counts := make([]int, len(results))
		for i, r := range results {
			counts[i] = r.ComponentCount()
		}
		s.metrics.RecordAnalysis(time.Since(start), counts, len(rep.Summary.UnhealthyVlans), rep.Summary.TotalIslands)
	}

	return rep, nil
}

func (s *AnalysisService) recordFailure(source string, err error) {
	status := "error"
	switch {
	case errors.Is(err, domain.ErrDanglingReference):
		status = "dangling_reference"
	case errors.Is(err, domain.ErrMalformedInput):
		status = "malformed"
	}

	s.logger.Warn("analysis rejected input", "source", source, "status", status, "error", err)
	if s.metrics != nil {
		s.metrics.RecordAnalysisFailure(status)
	}
	s.eventBus.Publish(Event{
		Type:    EventAnalysisFailed,
		Payload: map[string]string{"source": source, "status": status, "error": err.Error()},
	})
}

// GetRun retrieves a stored run with its report
func (s *AnalysisService) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	if s.repo == nil {
		return nil, ErrStorageDisabled
	}
	return s.repo.GetRun(ctx, id)
}

// LatestRun retrieves the newest stored run, optionally for one source
func (s *AnalysisService) LatestRun(ctx context.Context, source string) (*domain.Run, error) {
	if s.repo == nil {
		return nil, ErrStorageDisabled
	}
	return s.repo.LatestRun(ctx, source)
}

// ListRuns returns stored run summaries, newest first
func (s *AnalysisService) ListRuns(ctx context.Context, opts repository.ListOptions) ([]*domain.Run, error) {
	if s.repo == nil {
		return nil, ErrStorageDisabled
	}
	return s.repo.ListRuns(ctx, opts)
}

// DeleteRun removes a stored run
func (s *AnalysisService) DeleteRun(ctx context.Context, id string) error {
	if s.repo == nil {
		return ErrStorageDisabled
	}
	if err := s.repo.DeleteRun(ctx, id); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:    EventRunDeleted,
		Payload: map[string]string{"run_id": id},
	})

	return nil
}
