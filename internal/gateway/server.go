// Package gateway exposes the conversation engine over HTTP and WebSocket.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soyeahso/supportdesk/internal/config"
	"github.com/soyeahso/supportdesk/internal/domain"
	"github.com/soyeahso/supportdesk/internal/logging"
	"github.com/soyeahso/supportdesk/internal/version"
)

// turnTimeout bounds a whole conversational turn, which may span several
// model calls.
const turnTimeout = 5 * time.Minute

// Engine is the conversation engine surface the gateway depends on.
type Engine interface {
	RunTurn(ctx context.Context, input domain.TurnInput) (*domain.TurnResult, error)
	RunTurnObserved(ctx context.Context, input domain.TurnInput, observe func(node string)) (*domain.TurnResult, error)
	Session(id string) (*domain.Session, error)
	EndSession(id string) error
	Sessions() ([]string, error)
}

// Server is the supportdesk HTTP + WebSocket API server.
type Server struct {
	cfg    config.ServerConfig
	auth   ResolvedAuth
	engine Engine
	log    *logging.Logger

	startedAt  time.Time
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// New creates an API server around the given engine.
func New(cfg config.ServerConfig, eng Engine, log *logging.Logger) *Server {
	return &Server{
		cfg:    cfg,
		auth:   ResolveAuth(cfg.Auth),
		engine: eng,
		log:    log.Sub("gateway"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients authenticate with the token; Origin checks
			// add nothing for a token-gated local API.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler builds the full HTTP handler with routes and middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/chat", s.authenticated(s.handleChat))
	mux.HandleFunc("GET /v1/chat/ws", s.handleChatWS)
	mux.HandleFunc("GET /v1/sessions", s.authenticated(s.handleListSessions))
	mux.HandleFunc("GET /v1/sessions/{id}", s.authenticated(s.handleGetSession))
	mux.HandleFunc("DELETE /v1/sessions/{id}", s.authenticated(s.handleDeleteSession))
	mux.HandleFunc("/", handleNotFound)

	return withMiddleware(mux, s.log)
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.ServerConfig) string {
	switch cfg.Bind {
	case "lan":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.Host
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start begins listening for HTTP and WebSocket connections. It blocks until
// the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: turnTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if s.cfg.Bind != "loopback" && s.cfg.Bind != "" && s.auth.Mode == "none" {
		s.log.Warn().Msg("server is reachable beyond loopback with auth disabled")
	}

	s.startedAt = time.Now()
	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Bind).
		Str("auth", s.auth.Mode).
		Str("version", version.Version).
		Msg("api server ready")

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}

// authenticated wraps a handler with bearer token auth.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !Authorize(s.auth, r) {
			s.log.Warn().Str("remote", r.RemoteAddr).Str("path", r.URL.Path).Msg("unauthorized request")
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing or invalid credentials")
			return
		}
		next(w, r)
	}
}
