package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/soyeahso/supportdesk/internal/domain"
	"github.com/soyeahso/supportdesk/internal/engine"
	"github.com/soyeahso/supportdesk/internal/store"
	"github.com/soyeahso/supportdesk/internal/version"
)

// ChatRequest is the POST /v1/chat payload. SessionID continues an existing
// conversation; when the session has a pending clarification question,
// Message is treated as the answer.
type ChatRequest struct {
	Message      string `json:"message"`
	SessionID    string `json:"sessionId,omitempty"`
	CustomerID   string `json:"customerId,omitempty"`
	PolicyNumber string `json:"policyNumber,omitempty"`
	ClaimID      string `json:"claimId,omitempty"`
}

// ChatResponse mirrors the engine's turn result.
type ChatResponse struct {
	SessionID             string `json:"sessionId"`
	Message               string `json:"message"`
	AgentUsed             string `json:"agentUsed,omitempty"`
	RequiresClarification bool   `json:"requiresClarification"`
	Complete              bool   `json:"complete"`
	Escalated             bool   `json:"escalated"`
	Iterations            int    `json:"iterations"`
	RequestID             string `json:"requestId"`
}

// ErrorResponse is the uniform error payload. Internals never leak; the
// request ID lets operators correlate with server logs.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

// HealthResponse is returned by the public health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: version.Version})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "request body is not valid JSON")
		return
	}
	if req.Message == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), turnTimeout)
	defer cancel()

	result, err := s.engine.RunTurn(ctx, turnInput(req))
	if err != nil {
		s.respondTurnError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse(result))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.Sessions()
	if err != nil {
		s.log.Error().Err(err).Msg("listing sessions failed")
		writeError(w, r, http.StatusInternalServerError, "internal_error", "could not list sessions")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": ids})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.Session(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "session not found")
			return
		}
		s.log.Error().Err(err).Msg("loading session failed")
		writeError(w, r, http.StatusInternalServerError, "internal_error", "could not load session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.EndSession(r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "session not found")
			return
		}
		s.log.Error().Err(err).Msg("deleting session failed")
		writeError(w, r, http.StatusInternalServerError, "internal_error", "could not delete session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// respondTurnError maps an engine failure to a generic upstream error. The
// underlying cause stays in the logs, keyed by the turn's request ID.
func (s *Server) respondTurnError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := ""
	if te, ok := engine.AsTurnError(err); ok {
		requestID = te.RequestID
	}
	s.log.Error().Err(err).Str("requestId", requestID).Msg("turn failed")
	writeJSON(w, http.StatusBadGateway, ErrorResponse{
		Error:     "the assistant could not process this message",
		Code:      "turn_failed",
		RequestID: requestID,
	})
}

func turnInput(req ChatRequest) domain.TurnInput {
	return domain.TurnInput{
		SessionID:    req.SessionID,
		Message:      req.Message,
		CustomerID:   req.CustomerID,
		PolicyNumber: req.PolicyNumber,
		ClaimID:      req.ClaimID,
	}
}

func chatResponse(result *domain.TurnResult) ChatResponse {
	return ChatResponse{
		SessionID:             result.SessionID,
		Message:               result.Message,
		AgentUsed:             result.AgentUsed,
		RequiresClarification: result.RequiresClarification,
		Complete:              result.Complete,
		Escalated:             result.Escalated,
		Iterations:            result.Iterations,
		RequestID:             result.RequestID,
	}
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found", Code: "not_found"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: w.Header().Get("X-Request-ID"),
	})
}
