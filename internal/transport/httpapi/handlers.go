package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sandevgo/motherbrain/internal/service/brain"
	"github.com/sandevgo/motherbrain/pkg/log"
)

// maxBody caps request payloads.
const maxBody = 1 << 20

type processRequest struct {
	Text    string         `json:"text"`
	Context map[string]any `json:"context"`
}

type dialogRequest struct {
	SessionID  string         `json:"session_id"`
	UserText   string         `json:"user_text"`
	AIResponse string         `json:"ai_response"`
	Context    map[string]any `json:"context"`
}

type contextResponse struct {
	Context string `json:"context"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Context == nil {
		req.Context = map[string]any{}
	}
	writeJSON(w, http.StatusOK, s.engine.Process(r.Context(), req.Text, req.Context))
}

func (s *Server) handlePersonality(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Personality())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Health(r.Context()))
}

func (s *Server) handleDialog(w http.ResponseWriter, r *http.Request) {
	var req dialogRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.UserText) == "" || strings.TrimSpace(req.AIResponse) == "" {
		writeError(w, http.StatusBadRequest, errors.New("user_text and ai_response are required"))
		return
	}
	res := s.engine.RecordTurn(r.Context(), req.SessionID, req.UserText, req.AIResponse, req.Context)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	out := s.engine.Context(r.Context(), q.Get("session"), q.Get("q"), limit)
	writeJSON(w, http.StatusOK, contextResponse{Context: out})
}

func (s *Server) handleDebugMemory(w http.ResponseWriter, r *http.Request) {
	info := s.engine.DebugMemory(r.Context(), r.PathValue("key"))
	if info.Error != "" {
		log.FromCtx(r.Context()).Warn().Str("key", r.PathValue("key")).Str("error", info.Error).Msg("memory inspection failed")
	}
	writeJSON(w, http.StatusOK, info)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return errors.New("malformed request body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

var _ Engine = (*brain.Brain)(nil)
