package hub

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vlanislands/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	done := make(chan string, 1)
	go func() {
		line, _ := r.ReadString('\n')
		done <- line
	}()
	select {
	case line := <-done:
		return strings.TrimSpace(line)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out reading event stream")
		return ""
	}
}

// connect opens a stream and consumes the greeting
func connect(t *testing.T, h *Hub, url string) *bufio.Reader {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	assert.True(t, strings.HasPrefix(readLine(t, r), "retry: "))
	assert.True(t, strings.HasPrefix(readLine(t, r), ": connected "))
	assert.Equal(t, "", readLine(t, r))
	return r
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func startHub(t *testing.T, opts ...Option) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := New(nil, opts...)
	go h.Run(ctx)
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return h, srv
}

func TestHubBroadcastFrames(t *testing.T) {
	h, srv := startHub(t)
	r := connect(t, h, srv.URL)
	waitForClients(t, h, 1)

	h.Broadcast(service.Event{
		Type:    service.EventAnalysisCompleted,
		Payload: map[string]int{"unhealthy": 2},
	})
	assert.Equal(t, "id: 1", readLine(t, r))
	assert.Equal(t, "event: analysis_completed", readLine(t, r))
	assert.Equal(t, `data: {"unhealthy":2}`, readLine(t, r))
	assert.Equal(t, "", readLine(t, r))

	h.Broadcast(service.Event{Type: service.EventRunDeleted})
	assert.Equal(t, "id: 2", readLine(t, r))
	assert.Equal(t, "event: run_deleted", readLine(t, r))
	assert.Equal(t, "data: {}", readLine(t, r))
}

func TestHubTypeFilter(t *testing.T) {
	h, srv := startHub(t)
	r := connect(t, h, srv.URL+"?types=run_deleted")
	waitForClients(t, h, 1)

	h.Broadcast(service.Event{Type: service.EventAnalysisCompleted})
	h.Broadcast(service.Event{Type: service.EventRunDeleted, Payload: map[string]string{"id": "r1"}})

	// ids count every event, filtered or not
	assert.Equal(t, "id: 2", readLine(t, r))
	assert.Equal(t, "event: run_deleted", readLine(t, r))
	assert.Equal(t, `data: {"id":"r1"}`, readLine(t, r))
}

func TestHubKeepAlive(t *testing.T) {
	h, srv := startHub(t, WithKeepAlive(20*time.Millisecond))
	r := connect(t, h, srv.URL)

	assert.Equal(t, ": keepalive", readLine(t, r))
}

func TestHubForward(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h, srv := startHub(t)
	bus := service.NewEventBus()
	go h.Forward(ctx, bus)

	r := connect(t, h, srv.URL)
	waitForClients(t, h, 1)

	// Forward subscribes asynchronously; publish until the frame arrives
	lines := make(chan string, 1)
	go func() {
		line, _ := r.ReadString('\n')
		lines <- strings.TrimSpace(line)
	}()
	deadline := time.After(5 * time.Second)
	for {
		bus.Publish(service.Event{Type: service.EventAnalysisFailed})
		select {
		case line := <-lines:
			assert.Equal(t, "id: 1", line)
			assert.Equal(t, "event: analysis_failed", readLine(t, r))
			return
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatal("forwarded event never arrived")
		}
	}
}

func TestParseTypes(t *testing.T) {
	assert.Nil(t, parseTypes(""))
	got := parseTypes("analysis_completed, run_deleted,")
	assert.Equal(t, map[service.EventType]bool{
		service.EventAnalysisCompleted: true,
		service.EventRunDeleted:        true,
	}, got)
}

func TestHubRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := New(nil)

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
