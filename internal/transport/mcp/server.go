// Package mcp exposes the memory engine as MCP tools over stdio, so an
// agent host can fetch context and record turns without the HTTP API.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sandevgo/motherbrain/internal/core"
	"github.com/sandevgo/motherbrain/internal/service/brain"
	"github.com/sandevgo/motherbrain/pkg/log"
)

const (
	ToolRelevantContext = "get_relevant_context"
	ToolAddDialog       = "add_dialog_memory"
	ToolPersonality     = "get_personality"
)

type Engine interface {
	Context(ctx context.Context, session, query string, limit int) string
	RecordTurn(ctx context.Context, session, userText, aiResponse string, ctxMap map[string]any) brain.TurnResult
	Personality() brain.PersonalitySnapshot
}

type Server struct {
	engine Engine
	mcp    *server.MCPServer
	in     io.Reader
	out    io.Writer

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
}

func NewServer(engine Engine, in io.Reader, out io.Writer) *Server {
	s := &Server{
		engine: engine,
		in:     in,
		out:    out,
	}

	s.mcp = server.NewMCPServer(core.ServiceName, core.ServiceVersion, server.WithToolCapabilities(false))
	s.mcp.AddTool(mcpproto.NewTool(ToolRelevantContext,
		mcpproto.WithDescription("Return stored dialog memories relevant to a query, one per line."),
		mcpproto.WithString("query", mcpproto.Required(), mcpproto.Description("Text to match memories against")),
		mcpproto.WithString("session_id", mcpproto.Description("Conversation session")),
		mcpproto.WithNumber("limit", mcpproto.Description("Maximum number of memories")),
	), s.handleRelevantContext)
	s.mcp.AddTool(mcpproto.NewTool(ToolAddDialog,
		mcpproto.WithDescription("Store a completed user/assistant turn and update mood from it."),
		mcpproto.WithString("user_text", mcpproto.Required(), mcpproto.Description("What the user said")),
		mcpproto.WithString("ai_response", mcpproto.Required(), mcpproto.Description("What the assistant answered")),
		mcpproto.WithString("session_id", mcpproto.Description("Conversation session")),
		mcpproto.WithString("user_id", mcpproto.Description("Person the assistant talked with")),
		mcpproto.WithString("user_emotion", mcpproto.Description("Detected user emotion, raises importance")),
		mcpproto.WithBoolean("critical_info", mcpproto.Description("Turn carries critical information")),
	), s.handleAddDialog)
	s.mcp.AddTool(mcpproto.NewTool(ToolPersonality,
		mcpproto.WithDescription("Return the current personality and mood summaries."),
	), s.handlePersonality)

	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.cancel = cancel
	s.mu.Unlock()

	log.Component(ctx, "mcp").Info().Msg("starting mcp stdio server")

	stdio := server.NewStdioServer(s.mcp)
	if err := stdio.Listen(ctx, s.in, s.out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func (s *Server) handleRelevantContext(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	out := s.engine.Context(ctx, req.GetString("session_id", ""), query, req.GetInt("limit", 0))
	return mcpproto.NewToolResultText(out), nil
}

func (s *Server) handleAddDialog(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	userText, err := req.RequireString("user_text")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	aiResponse, err := req.RequireString("ai_response")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}

	signals := map[string]any{}
	if v := req.GetString(core.ContextUserID, ""); v != "" {
		signals[core.ContextUserID] = v
	}
	if v := req.GetString(core.ContextUserEmotion, ""); v != "" {
		signals[core.ContextUserEmotion] = v
	}
	if req.GetBool(core.ContextCriticalInfo, false) {
		signals[core.ContextCriticalInfo] = true
	}

	res := s.engine.RecordTurn(ctx, req.GetString("session_id", ""), userText, aiResponse, signals)
	return jsonResult(res)
}

func (s *Server) handlePersonality(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	p := s.engine.Personality()
	return mcpproto.NewToolResultText(p.PersonalityContext + "\n\n" + p.MoodContext), nil
}

func jsonResult(v any) (*mcpproto.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcpproto.NewToolResultText(string(data)), nil
}
