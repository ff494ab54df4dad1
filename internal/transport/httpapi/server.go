package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sandevgo/motherbrain/internal/metrics"
	"github.com/sandevgo/motherbrain/internal/service/brain"
	"github.com/sandevgo/motherbrain/pkg/log"
)

// Engine is the part of the brain served over HTTP.
type Engine interface {
	Process(ctx context.Context, text string, ctxMap map[string]any) brain.ProcessResult
	Context(ctx context.Context, session, query string, limit int) string
	Personality() brain.PersonalitySnapshot
	RecordTurn(ctx context.Context, session, userText, aiResponse string, ctxMap map[string]any) brain.TurnResult
	Health(ctx context.Context) brain.HealthReport
	DebugMemory(ctx context.Context, key string) brain.DebugInfo
}

type Server struct {
	addr    string
	engine  Engine
	metrics *metrics.Metrics
	server  *http.Server
}

func NewServer(addr string, engine Engine, mt *metrics.Metrics) *Server {
	s := &Server{
		addr:    addr,
		engine:  engine,
		metrics: mt,
	}
	s.server = &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routed handler with request middleware applied. The
// request contexts derive their logger from base.
func (s *Server) Handler(base context.Context) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /process", s.handleProcess)
	mux.HandleFunc("GET /personality", s.handlePersonality)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /dialog", s.handleDialog)
	mux.HandleFunc("GET /context", s.handleContext)
	mux.HandleFunc("GET /debug/memory/{key}", s.handleDebugMemory)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	return s.withRequestContext(base, s.withMetrics(mux))
}

// Start serves until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server.Handler = s.Handler(ctx)
	log.Component(ctx, "http").Info().Str("addr", ln.Addr().String()).Msg("starting http server")

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http serve: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
