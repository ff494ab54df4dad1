package mcp

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/motherbrain/internal/core"
	"github.com/sandevgo/motherbrain/internal/service/brain"
)

type fakeEngine struct {
	mu      sync.Mutex
	query   string
	limit   int
	session string
	signals map[string]any
}

func (f *fakeEngine) Context(_ context.Context, session, query string, limit int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session, f.query, f.limit = session, query, limit
	return "Relevant memory: User: hi\nAI: hello"
}

func (f *fakeEngine) RecordTurn(_ context.Context, session, _, _ string, ctxMap map[string]any) brain.TurnResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session, f.signals = session, ctxMap
	return brain.TurnResult{Stored: true}
}

func (f *fakeEngine) Personality() brain.PersonalitySnapshot {
	return brain.PersonalitySnapshot{PersonalityContext: "traits", MoodContext: "mood"}
}

func newClient(t *testing.T, eng Engine) *client.Client {
	t.Helper()
	s := NewServer(eng, nil, io.Discard)

	cli, err := client.NewInProcessClient(s.MCP())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cli.Close() })

	ctx := context.Background()
	require.NoError(t, cli.Start(ctx))

	req := mcpproto.InitializeRequest{}
	req.Params.ProtocolVersion = mcpproto.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcpproto.Implementation{Name: "test", Version: "0"}
	_, err = cli.Initialize(ctx, req)
	require.NoError(t, err)
	return cli
}

func call(t *testing.T, cli *client.Client, name string, args map[string]any) *mcpproto.CallToolResult {
	t.Helper()
	req := mcpproto.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := cli.CallTool(context.Background(), req)
	require.NoError(t, err)
	return res
}

func text(t *testing.T, res *mcpproto.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := mcpproto.AsTextContent(res.Content[0])
	require.True(t, ok)
	return tc.Text
}

func TestListTools(t *testing.T) {
	cli := newClient(t, &fakeEngine{})

	resp, err := cli.ListTools(context.Background(), mcpproto.ListToolsRequest{})
	require.NoError(t, err)

	var names []string
	for _, tool := range resp.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{ToolRelevantContext, ToolAddDialog, ToolPersonality}, names)
}

func TestRelevantContextTool(t *testing.T) {
	eng := &fakeEngine{}
	cli := newClient(t, eng)

	res := call(t, cli, ToolRelevantContext, map[string]any{"query": "cats", "session_id": "s1", "limit": 3})
	assert.False(t, res.IsError)
	assert.Equal(t, "Relevant memory: User: hi\nAI: hello", text(t, res))

	eng.mu.Lock()
	defer eng.mu.Unlock()
	assert.Equal(t, "cats", eng.query)
	assert.Equal(t, "s1", eng.session)
	assert.Equal(t, 3, eng.limit)
}

func TestRelevantContextTool_MissingQuery(t *testing.T) {
	cli := newClient(t, &fakeEngine{})

	res := call(t, cli, ToolRelevantContext, map[string]any{})
	assert.True(t, res.IsError)
}

func TestAddDialogTool(t *testing.T) {
	eng := &fakeEngine{}
	cli := newClient(t, eng)

	res := call(t, cli, ToolAddDialog, map[string]any{
		"user_text":     "I lost my keys",
		"ai_response":   "Let's retrace your steps",
		"user_id":       "ana",
		"user_emotion":  "worried",
		"critical_info": true,
	})
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"stored": true, "analyzed": false}`, text(t, res))

	eng.mu.Lock()
	defer eng.mu.Unlock()
	assert.Equal(t, map[string]any{
		core.ContextUserID:       "ana",
		core.ContextUserEmotion:  "worried",
		core.ContextCriticalInfo: true,
	}, eng.signals)

	missing := call(t, cli, ToolAddDialog, map[string]any{"user_text": "only half"})
	assert.True(t, missing.IsError)
}

func TestPersonalityTool(t *testing.T) {
	cli := newClient(t, &fakeEngine{})

	res := call(t, cli, ToolPersonality, nil)
	assert.Equal(t, "traits\n\nmood", text(t, res))
}

func TestServer_ShutdownStopsListen(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	s := NewServer(&fakeEngine{}, pr, io.Discard)
	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	require.NoError(t, s.Shutdown(context.Background()))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stdio server did not stop")
	}
}
