package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/motherbrain/internal/metrics"
	"github.com/sandevgo/motherbrain/internal/service/brain"
)

type calls struct {
	lastText    string
	lastCtx     map[string]any
	lastSession string
	lastQuery   string
	lastLimit   int
	turns       int
}

type fakeEngine struct {
	mu sync.Mutex
	calls
}

func (f *fakeEngine) Process(_ context.Context, text string, ctxMap map[string]any) brain.ProcessResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastText, f.lastCtx = text, ctxMap
	return brain.ProcessResult{
		Memories:            []brain.RecalledMemory{{Text: "User: hi\nAI: hello", Score: 1}},
		PersonalityContext:  "Current personality traits:\n- warmth: high",
		MoodContext:         "Current mood:\n- calm",
		RelationshipContext: "",
	}
}

func (f *fakeEngine) Context(_ context.Context, session, query string, limit int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSession, f.lastQuery, f.lastLimit = session, query, limit
	return "Relevant memory: User: hi\nAI: hello"
}

func (f *fakeEngine) Personality() brain.PersonalitySnapshot {
	return brain.PersonalitySnapshot{PersonalityContext: "p", MoodContext: "m"}
}

func (f *fakeEngine) RecordTurn(_ context.Context, session, _, _ string, _ map[string]any) brain.TurnResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns++
	f.lastSession = session
	return brain.TurnResult{Stored: true}
}

func (f *fakeEngine) Health(context.Context) brain.HealthReport {
	return brain.HealthReport{
		Status:     brain.StatusDegraded,
		Service:    "MotherBrain",
		Components: map[string]string{"store": "healthy", "redis": "unhealthy"},
	}
}

func (f *fakeEngine) DebugMemory(_ context.Context, key string) brain.DebugInfo {
	if key == "st:memory:1" {
		return brain.DebugInfo{Exists: true, Keys: []string{"text"}, Text: "hello"}
	}
	return brain.DebugInfo{Keys: []string{}, Text: "N/A"}
}

// seen returns a copy of the recorded calls.
func (f *fakeEngine) seen() calls {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeEngine, *metrics.Metrics) {
	t.Helper()
	eng := &fakeEngine{}
	mt := metrics.New()
	s := NewServer("127.0.0.1:0", eng, mt)

	ts := httptest.NewServer(s.Handler(context.Background()))
	t.Cleanup(ts.Close)
	return ts, eng, mt
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestProcess(t *testing.T) {
	ts, eng, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/process", "application/json",
		strings.NewReader(`{"text": "hi there", "context": {"user_id": "ana"}}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(headerRequestID))

	body := decodeBody[map[string]any](t, resp)
	assert.Contains(t, body, "memories")
	assert.Contains(t, body, "personality_context")
	assert.Contains(t, body, "mood_context")
	assert.Contains(t, body, "relationship_context")

	got := eng.seen()
	assert.Equal(t, "hi there", got.lastText)
	assert.Equal(t, "ana", got.lastCtx["user_id"])
}

func TestProcess_MalformedBody(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/process", "application/json", strings.NewReader(`{"text": `))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[errorResponse](t, resp)
	assert.Contains(t, body.Error, "malformed request body")
}

func TestProcess_WrongMethod(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/process")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestPersonality(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/personality")
	require.NoError(t, err)
	body := decodeBody[brain.PersonalitySnapshot](t, resp)
	assert.Equal(t, "p", body.PersonalityContext)
	assert.Equal(t, "m", body.MoodContext)
}

func TestHealth(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[brain.HealthReport](t, resp)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "MotherBrain", body.Service)
	assert.Equal(t, "unhealthy", body.Components["redis"])
}

func TestDialog(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantTurns  int
	}{
		{"recorded", `{"session_id": "s1", "user_text": "hi", "ai_response": "hello"}`, http.StatusOK, 1},
		{"missing response", `{"user_text": "hi"}`, http.StatusBadRequest, 0},
		{"not json", `hello`, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, eng, _ := newTestServer(t)

			resp, err := http.Post(ts.URL+"/dialog", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantTurns, eng.seen().turns)
		})
	}
}

func TestContext(t *testing.T) {
	ts, eng, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/context?q=cats&limit=3&session=s9")
	require.NoError(t, err)
	body := decodeBody[contextResponse](t, resp)

	assert.Equal(t, "Relevant memory: User: hi\nAI: hello", body.Context)
	got := eng.seen()
	assert.Equal(t, "cats", got.lastQuery)
	assert.Equal(t, 3, got.lastLimit)
	assert.Equal(t, "s9", got.lastSession)

	resp, err = http.Get(ts.URL + "/context?q=cats&limit=many")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDebugMemory(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/debug/memory/st:memory:1")
	require.NoError(t, err)
	found := decodeBody[brain.DebugInfo](t, resp)
	assert.True(t, found.Exists)
	assert.Equal(t, "hello", found.Text)

	resp, err = http.Get(ts.URL + "/debug/memory/unknown")
	require.NoError(t, err)
	missing := decodeBody[brain.DebugInfo](t, resp)
	assert.False(t, missing.Exists)
	assert.Equal(t, "N/A", missing.Text)
}

func TestMetricsAndRequestID(t *testing.T) {
	ts, _, mt := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(headerRequestID, "req-42")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-42", resp.Header.Get(headerRequestID))

	assert.Equal(t, 1.0, testutil.ToFloat64(mt.HTTPRequests.WithLabelValues("GET", "GET /health", "200")))

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_StartShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer(ln.Addr().String(), &fakeEngine{}, nil)
	done := make(chan error, 1)
	go func() { done <- s.Serve(context.Background(), ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, s.Shutdown(context.Background()))
	assert.NoError(t, <-done)
}
