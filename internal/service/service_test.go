package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"vlanislands/internal/assistant"
	"vlanislands/internal/codec"
	"vlanislands/internal/detect"
	"vlanislands/internal/domain"
	"vlanislands/internal/graph"
	"vlanislands/internal/metrics"
	"vlanislands/internal/repository"
	"vlanislands/internal/repository/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const office = `{
  "devices": [{"id": "sw1"}, {"id": "sw2"}, {"id": "ap1"}, {"id": "cam1"}],
  "links": [{"a": "sw1", "b": "sw2"}, {"a": "sw2", "b": "cam1", "status": "down"}],
  "vlans": [
    {"id": "10", "name": "users", "members": ["sw1", "sw2", "ap1"]},
    {"id": "20", "name": "cameras", "members": ["sw2", "cam1"]}
  ]
}`

func newAnalysis(t *testing.T, repo repository.RunRepository, bus *EventBus) *AnalysisService {
	t.Helper()
	svc, err := NewAnalysisService(repo, bus, AnalysisOptions{Metrics: metrics.NewRegistry()})
	require.NoError(t, err)
	return svc
}

func newRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAnalyzeWithoutStore(t *testing.T) {
	svc := newAnalysis(t, nil, NewEventBus())

	run, err := svc.Analyze(context.Background(), AnalyzeRequest{Source: "office.json", Data: []byte(office)})
	require.NoError(t, err)

	assert.Empty(t, run.ID)
	assert.Equal(t, "balanced", run.Policy)
	assert.Equal(t, 4, run.DeviceCount)
	assert.Equal(t, 2, run.LinkCount)
	assert.Equal(t, 2, run.VlanCount)
	assert.Equal(t, []string{"10"}, run.Report.Summary.UnhealthyVlans)
	assert.Equal(t, 1, run.UnhealthyCount)
	assert.Equal(t, 1, run.TotalIslands)
	assert.NotEmpty(t, run.InputDigest)
	assert.NotEmpty(t, run.ReportDigest)

	_, err = svc.Analyze(context.Background(), AnalyzeRequest{Source: "office.json", Data: []byte(office), Save: true})
	assert.ErrorIs(t, err, ErrStorageDisabled)

	_, err = svc.ListRuns(context.Background(), repository.ListOptions{})
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestAnalyzeExcludesDownLinks(t *testing.T) {
	svc, err := NewAnalysisService(nil, nil, AnalysisOptions{
		Graph: graph.Options{ExcludeLinkStatuses: []string{"DOWN"}},
	})
	require.NoError(t, err)

	run, err := svc.Analyze(context.Background(), AnalyzeRequest{Format: "json", Data: []byte(office)})
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "20"}, run.Report.Summary.UnhealthyVlans)
}

func TestAnalyzeParallelUpLinkKeepsVlanConnected(t *testing.T) {
	svc, err := NewAnalysisService(nil, nil, AnalysisOptions{
		Graph: graph.Options{ExcludeLinkStatuses: []string{"down"}},
	})
	require.NoError(t, err)

	doc := `{
	  "devices": [{"id": "A"}, {"id": "B"}],
	  "links": [{"a": "A", "b": "B", "status": "down"}, {"a": "B", "b": "A", "status": "up"}],
	  "vlans": [{"id": "1", "members": ["A", "B"]}]
	}`
	run, err := svc.Analyze(context.Background(), AnalyzeRequest{Format: "json", Data: []byte(doc)})
	require.NoError(t, err)

	vr := run.Report.Vlans["1"]
	assert.True(t, vr.Healthy)
	assert.Equal(t, 1, vr.ComponentCount)
	assert.Empty(t, run.Report.Summary.UnhealthyVlans)
}

func TestAnalyzeDeterministicDigests(t *testing.T) {
	svc := newAnalysis(t, nil, nil)

	first, err := svc.Analyze(context.Background(), AnalyzeRequest{Format: "json", Data: []byte(office)})
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), AnalyzeRequest{Format: "json", Data: []byte(office)})
	require.NoError(t, err)

	assert.Equal(t, first.InputDigest, second.InputDigest)
	assert.Equal(t, first.ReportDigest, second.ReportDigest)
	assert.Equal(t, first.Report, second.Report)
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	bus := NewEventBus()
	events := make(chan Event, 4)
	bus.Subscribe(events)
	svc := newAnalysis(t, nil, bus)

	tests := []struct {
		name   string
		req    AnalyzeRequest
		target error
	}{
		{
			name:   "malformed json",
			req:    AnalyzeRequest{Format: "json", Data: []byte(`{"devices": [`)},
			target: domain.ErrMalformedInput,
		},
		{
			name:   "dangling member",
			req:    AnalyzeRequest{Format: "json", Data: []byte(`{"devices": [{"id": "a"}], "links": [], "vlans": [{"id": "1", "members": ["zz"]}]}`)},
			target: domain.ErrDanglingReference,
		},
		{
			name:   "unknown format",
			req:    AnalyzeRequest{Source: "topology.txt", Data: []byte(office)},
			target: codec.ErrUnknownFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Analyze(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	ev := <-events
	assert.Equal(t, EventAnalysisFailed, ev.Type)
}

func TestAnalyzeSavesRun(t *testing.T) {
	repo := newRepo(t)
	bus := NewEventBus()
	events := make(chan Event, 4)
	bus.Subscribe(events)
	svc := newAnalysis(t, repo, bus)
	ctx := context.Background()

	run, err := svc.Analyze(ctx, AnalyzeRequest{Source: "office.json", Data: []byte(office), Save: true})
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)

	ev := <-events
	assert.Equal(t, EventAnalysisCompleted, ev.Type)

	stored, err := svc.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Report, stored.Report)
	assert.Equal(t, run.ReportDigest, stored.ReportDigest)

	latest, err := svc.LatestRun(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, run.ID, latest.ID)

	runs, err := svc.ListRuns(ctx, repository.ListOptions{UnhealthyOnly: true})
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	require.NoError(t, svc.DeleteRun(ctx, run.ID))
	ev = <-events
	assert.Equal(t, EventRunDeleted, ev.Type)

	_, err = svc.GetRun(ctx, run.ID)
	assert.ErrorIs(t, err, repository.ErrRunNotFound)
}

func TestAnalyzeCancelled(t *testing.T) {
	svc := newAnalysis(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Analyze(ctx, AnalyzeRequest{Format: "json", Data: []byte(office)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewAnalysisServiceRejectsInvalidPolicy(t *testing.T) {
	policy := detect.DefaultPolicy()
	policy.MajorRatio = 0.9

	_, err := NewAnalysisService(nil, nil, AnalysisOptions{Policy: policy})
	assert.Error(t, err)
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	ch := make(chan Event, 1)
	bus.Subscribe(ch)
	bus.Unsubscribe(ch)

	bus.Publish(Event{Type: EventRunDeleted})
	assert.Len(t, ch, 0)
}

// fakeBridge records the request it was given
type fakeBridge struct {
	answer string
	err    error
	got    assistant.Request
}

func (f *fakeBridge) Answer(_ context.Context, req assistant.Request) (string, error) {
	f.got = req
	return f.answer, f.err
}

func TestAskWithSuppliedReport(t *testing.T) {
	bridge := &fakeBridge{answer: "check the uplink"}
	m := metrics.NewRegistry()
	svc := NewAssistantService(bridge, nil, nil, m, nil)

	rep := &domain.Report{Vlans: map[string]domain.VlanReport{}, Summary: domain.Summary{UnhealthyVlans: []string{}}}
	history := []assistant.Turn{{Query: "hi", Answer: "hello"}}

	res, err := svc.Ask(context.Background(), AskRequest{Query: "why?", History: history, Report: rep})
	require.NoError(t, err)
	assert.Equal(t, "check the uplink", res.Answer)
	assert.Same(t, rep, bridge.got.Report)
	assert.Equal(t, history, bridge.got.History)
	assert.Equal(t, "why?", bridge.got.Query)
}

func TestAskUsesStoredRun(t *testing.T) {
	repo := newRepo(t)
	analysis := newAnalysis(t, repo, nil)
	ctx := context.Background()

	older, err := analysis.Analyze(ctx, AnalyzeRequest{Source: "a.json", Data: []byte(office), Save: true})
	require.NoError(t, err)

	bridge := &fakeBridge{answer: "ok"}
	svc := NewAssistantService(bridge, analysis, nil, nil, nil)

	res, err := svc.Ask(ctx, AskRequest{Query: "what is broken?", RunID: older.ID})
	require.NoError(t, err)
	assert.Equal(t, older.ID, res.RunID)
	assert.Equal(t, []string{"10"}, bridge.got.Report.Summary.UnhealthyVlans)

	res, err = svc.Ask(ctx, AskRequest{Query: "and now?"})
	require.NoError(t, err)
	assert.Equal(t, older.ID, res.RunID)

	_, err = svc.Ask(ctx, AskRequest{Query: "x", RunID: "missing"})
	assert.ErrorIs(t, err, repository.ErrRunNotFound)
}

func TestAskWithoutReport(t *testing.T) {
	svc := NewAssistantService(&fakeBridge{}, nil, nil, nil, nil)
	_, err := svc.Ask(context.Background(), AskRequest{Query: "x"})
	assert.ErrorIs(t, err, ErrNoReport)

	noStore := newAnalysis(t, nil, nil)
	svc = NewAssistantService(&fakeBridge{}, noStore, nil, nil, nil)
	_, err = svc.Ask(context.Background(), AskRequest{Query: "x"})
	assert.ErrorIs(t, err, ErrNoReport)
}

func TestAskPropagatesBridgeErrors(t *testing.T) {
	rep := &domain.Report{Vlans: map[string]domain.VlanReport{}}

	for _, target := range []error{assistant.ErrServiceUnavailable, assistant.ErrAuthentication} {
		t.Run(target.Error(), func(t *testing.T) {
			bridge := &fakeBridge{err: fmt.Errorf("%w: boom", target)}
			svc := NewAssistantService(bridge, nil, nil, metrics.NewRegistry(), nil)

			_, err := svc.Ask(context.Background(), AskRequest{Query: "x", Report: rep})
			assert.True(t, errors.Is(err, target))
		})
	}
}
