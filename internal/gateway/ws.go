package gateway

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/soyeahso/supportdesk/internal/engine"
)

// WebSocket frame types emitted to the client.
const (
	wsFrameAgent  = "agent"
	wsFrameResult = "result"
	wsFrameError  = "error"
)

// wsFrame is the envelope for every server-to-client WebSocket message.
// Agent frames stream workflow transitions while a turn is in flight; a
// result or error frame closes out each request.
type wsFrame struct {
	Type      string        `json:"type"`
	Agent     string        `json:"agent,omitempty"`
	Result    *ChatResponse `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
	Code      string        `json:"code,omitempty"`
	RequestID string        `json:"requestId,omitempty"`
}

// handleChatWS upgrades the connection and serves chat requests over it.
// Each incoming frame is a ChatRequest; turns run one at a time per
// connection so streamed agent events cannot interleave.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	if !Authorize(s.auth, r) {
		s.log.Warn().Str("remote", r.RemoteAddr).Msg("unauthorized websocket attempt")
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing or invalid credentials")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(64 * 1024)

	s.log.Debug().Str("remote", r.RemoteAddr).Msg("websocket chat connected")

	// The observer goroutine and the turn result both write to the
	// connection; gorilla allows a single writer at a time.
	var writeMu sync.Mutex
	send := func(frame wsFrame) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(frame)
	}

	for {
		var req ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Msg("websocket chat closed")
			} else {
				s.log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		if req.Message == "" {
			if err := send(wsFrame{Type: wsFrameError, Error: "message is required", Code: "invalid_request"}); err != nil {
				return
			}
			continue
		}

		ctx, cancel := context.WithTimeout(r.Context(), turnTimeout)
		result, err := s.engine.RunTurnObserved(ctx, turnInput(req), func(node string) {
			send(wsFrame{Type: wsFrameAgent, Agent: node})
		})
		cancel()

		if err != nil {
			requestID := ""
			if te, ok := engine.AsTurnError(err); ok {
				requestID = te.RequestID
			}
			s.log.Error().Err(err).Str("requestId", requestID).Msg("websocket turn failed")
			if err := send(wsFrame{
				Type:      wsFrameError,
				Error:     "the assistant could not process this message",
				Code:      "turn_failed",
				RequestID: requestID,
			}); err != nil {
				return
			}
			continue
		}

		resp := chatResponse(result)
		if err := send(wsFrame{Type: wsFrameResult, Result: &resp, RequestID: result.RequestID}); err != nil {
			return
		}
	}
}
