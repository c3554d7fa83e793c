package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/supportdesk/internal/config"
	"github.com/soyeahso/supportdesk/internal/domain"
	"github.com/soyeahso/supportdesk/internal/engine"
	"github.com/soyeahso/supportdesk/internal/logging"
	"github.com/soyeahso/supportdesk/internal/store"
)

// stubEngine is a canned Engine for handler tests.
type stubEngine struct {
	result   *domain.TurnResult
	err      error
	sessions map[string]*domain.Session
	visits   []string
	lastIn   domain.TurnInput
}

func (s *stubEngine) RunTurn(ctx context.Context, in domain.TurnInput) (*domain.TurnResult, error) {
	return s.RunTurnObserved(ctx, in, nil)
}

func (s *stubEngine) RunTurnObserved(ctx context.Context, in domain.TurnInput, observe func(string)) (*domain.TurnResult, error) {
	s.lastIn = in
	if observe != nil {
		for _, node := range s.visits {
			observe(node)
		}
	}
	return s.result, s.err
}

func (s *stubEngine) Session(id string) (*domain.Session, error) {
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	return nil, store.ErrNotFound
}

func (s *stubEngine) EndSession(id string) error {
	if _, ok := s.sessions[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *stubEngine) Sessions() ([]string, error) {
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

func testServer(eng Engine) *Server {
	cfg := config.ServerConfig{
		Port: 8000,
		Bind: "loopback",
		Auth: config.ServerAuth{Mode: "token", Token: "secret-token"},
	}
	return New(cfg, eng, logging.New(nil, "silent"))
}

func doRequest(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthIsPublic(t *testing.T) {
	s := testServer(&stubEngine{})
	rec := doRequest(t, s, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestChatRequiresToken(t *testing.T) {
	s := testServer(&stubEngine{})

	rec := doRequest(t, s, http.MethodPost, "/v1/chat", "", ChatRequest{Message: "hi"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/v1/chat", "wrong-token", ChatRequest{Message: "hi"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatHappyPath(t *testing.T) {
	eng := &stubEngine{result: &domain.TurnResult{
		SessionID:  "sess-1",
		Message:    "Your bill is due on the 15th.",
		AgentUsed:  domain.AgentFinalAnswer,
		Complete:   true,
		Iterations: 2,
		RequestID:  "req-1",
	}}
	s := testServer(eng)

	rec := doRequest(t, s, http.MethodPost, "/v1/chat", "secret-token", ChatRequest{
		Message:      "When is my bill due?",
		PolicyNumber: "POL000004",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, "Your bill is due on the 15th.", resp.Message)
	assert.True(t, resp.Complete)
	assert.Equal(t, "POL000004", eng.lastIn.PolicyNumber)
}

func TestChatRejectsMissingMessage(t *testing.T) {
	s := testServer(&stubEngine{})

	rec := doRequest(t, s, http.MethodPost, "/v1/chat", "secret-token", ChatRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer secret-token")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatTurnErrorIsMasked(t *testing.T) {
	eng := &stubEngine{err: &engine.TurnError{RequestID: "req-9", Err: errors.New("provider exploded: key sk-abc")}}
	s := testServer(eng)

	rec := doRequest(t, s, http.MethodPost, "/v1/chat", "secret-token", ChatRequest{Message: "hi"})
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "turn_failed", resp.Code)
	assert.Equal(t, "req-9", resp.RequestID)
	assert.NotContains(t, rec.Body.String(), "sk-abc")
}

func TestSessionEndpoints(t *testing.T) {
	eng := &stubEngine{sessions: map[string]*domain.Session{
		"sess-1": {ID: "sess-1", Complete: true},
	}}
	s := testServer(eng)

	rec := doRequest(t, s, http.MethodGet, "/v1/sessions", "secret-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sess-1")

	rec = doRequest(t, s, http.MethodGet, "/v1/sessions/sess-1", "secret-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/v1/sessions/missing", "secret-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, http.MethodDelete, "/v1/sessions/sess-1", "secret-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodDelete, "/v1/sessions/sess-1", "secret-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthorize(t *testing.T) {
	mkReq := func(header, query string) *http.Request {
		url := "/v1/chat"
		if query != "" {
			url += "?access_token=" + query
		}
		r := httptest.NewRequest(http.MethodPost, url, nil)
		if header != "" {
			r.Header.Set("Authorization", "Bearer "+header)
		}
		return r
	}

	token := ResolvedAuth{Mode: "token", Token: "secret"}
	assert.True(t, Authorize(token, mkReq("secret", "")))
	assert.True(t, Authorize(token, mkReq("", "secret")))
	assert.False(t, Authorize(token, mkReq("nope", "")))
	assert.False(t, Authorize(token, mkReq("", "")))

	// Token mode with no configured token admits nobody
	assert.False(t, Authorize(ResolvedAuth{Mode: "token"}, mkReq("anything", "")))

	assert.True(t, Authorize(ResolvedAuth{Mode: "none"}, mkReq("", "")))
}

func TestResolveBindAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8000", resolveBindAddr(config.ServerConfig{Port: 8000, Bind: "loopback"}))
	assert.Equal(t, "127.0.0.1:8000", resolveBindAddr(config.ServerConfig{Port: 8000}))
	assert.Equal(t, "0.0.0.0:9000", resolveBindAddr(config.ServerConfig{Port: 9000, Bind: "lan"}))
	assert.Equal(t, "10.0.0.5:9000", resolveBindAddr(config.ServerConfig{Port: 9000, Bind: "custom", Host: "10.0.0.5"}))
}

func TestWebSocketChatStreamsAgentEvents(t *testing.T) {
	eng := &stubEngine{
		visits: []string{domain.AgentSupervisor, domain.AgentBilling, domain.AgentFinalAnswer},
		result: &domain.TurnResult{
			SessionID: "sess-1",
			Message:   "All set.",
			AgentUsed: domain.AgentFinalAnswer,
			Complete:  true,
			RequestID: "req-1",
		},
	}
	s := testServer(eng)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/chat/ws?access_token=secret-token"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ChatRequest{Message: "When is my bill due?"}))

	var agents []string
	for {
		var frame wsFrame
		require.NoError(t, conn.ReadJSON(&frame))
		if frame.Type == wsFrameAgent {
			agents = append(agents, frame.Agent)
			continue
		}
		require.Equal(t, wsFrameResult, frame.Type)
		require.NotNil(t, frame.Result)
		assert.Equal(t, "All set.", frame.Result.Message)
		break
	}
	assert.Equal(t, []string{domain.AgentSupervisor, domain.AgentBilling, domain.AgentFinalAnswer}, agents)
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	s := testServer(&stubEngine{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/chat/ws?access_token=wrong"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
