package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"grokmcp/internal/config"
	"grokmcp/internal/model"
	"grokmcp/internal/protocol"
)

const (
	serverName    = "grokmcp"
	serverVersion = "0.1.0"
)

// Server speaks MCP Streamable HTTP on a single POST endpoint. Sessions are
// issued on initialize and required for every later call; rate limiting only
// applies to non-loopback clients.
type Server struct {
	cfg       config.Config
	completer model.ChatCompleter
	tools     map[string]toolDefinition
	limiter   *ipRateLimiter
	callLog   model.CallRecorder
	logf      func(format string, args ...interface{})

	mu       sync.Mutex
	sessions map[string]struct{}
}

func NewServer(cfg config.Config, completer model.ChatCompleter) *Server {
	s := &Server{
		cfg:       cfg,
		completer: completer,
		limiter:   newIPRateLimiter(float64(cfg.RateLimitRPS), cfg.RateLimitBurst),
		logf:      log.Printf,
		sessions:  make(map[string]struct{}),
	}
	s.tools = s.buildToolRegistry()
	return s
}

// SetCallLog installs an optional call journal. Recording failures are logged
// and never surfaced to clients.
func (s *Server) SetCallLog(callLog model.CallRecorder) {
	s.callLog = callLog
}

// SetLogf redirects diagnostic output, mainly for tests.
func (s *Server) SetLogf(logf func(format string, args ...interface{})) {
	if logf != nil {
		s.logf = logf
	}
}

// Handler returns the HTTP handler for the MCP path (for mounting on a shared mux).
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleMCP)
}

// Serve blocks while handling HTTP on the MCP path.
// Cancel ctx to initiate graceful shutdown; in-flight requests are allowed to drain.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle(s.cfg.MCPPath, s.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(listener) }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
	case http.MethodDelete:
		s.handleSessionDelete(w, r)
		return
	default:
		w.Header().Set("Allow", "POST, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !s.authorize(r) {
		writeError(w, http.StatusUnauthorized, nil, &rpcError{
			Code:    rpcCodeInvalidRequest,
			Message: "unauthorized",
			Data:    &rpcErrorData{Code: protocol.ErrorCodeUnauthorized, Retryable: false},
		})
		return
	}

	if !s.limiter.allow(realIP(r)) {
		writeError(w, http.StatusTooManyRequests, nil, &rpcError{
			Code:    rpcCodeInvalidRequest,
			Message: "rate limit exceeded",
			Data:    &rpcErrorData{Code: protocol.ErrorCodeRateLimited, Retryable: true},
		})
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, nil, &rpcError{
			Code:    rpcCodeInvalidRequest,
			Message: "invalid JSON-RPC request",
			Data:    &rpcErrorData{Code: protocol.ErrorCodeInvalidField, Retryable: false},
		})
		return
	}

	switch req.Method {
	case "initialize":
		s.handleInitialize(w, req.ID)
	case "notifications/initialized":
		w.WriteHeader(http.StatusAccepted)
	case "ping":
		if !s.requireSession(w, r, req.ID) {
			return
		}
		writeResult(w, http.StatusOK, req.ID, map[string]interface{}{})
	case "tools/list":
		if !s.requireSession(w, r, req.ID) {
			return
		}
		s.handleToolsList(w, req.ID)
	case "tools/call":
		if !s.requireSession(w, r, req.ID) {
			return
		}
		s.handleToolsCall(r.Context(), w, req.Params, req.ID)
	default:
		writeError(w, http.StatusOK, req.ID, &rpcError{
			Code:    rpcCodeMethodNotFound,
			Message: "method not found: " + req.Method,
		})
	}
}

func (s *Server) handleInitialize(w http.ResponseWriter, id interface{}) {
	sessionID, err := newSessionID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, id, &rpcError{
			Code:    rpcCodeInternalError,
			Message: "failed to create session",
		})
		return
	}

	s.mu.Lock()
	s.sessions[sessionID] = struct{}{}
	s.mu.Unlock()

	w.Header().Set(protocol.MCPSessionHeader, sessionID)
	writeResult(w, http.StatusOK, id, map[string]interface{}{
		"protocolVersion": s.cfg.ProtocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    serverName,
			"version": serverVersion,
		},
	})
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.Header.Get(protocol.MCPSessionHeader))
	if sessionID == "" {
		http.Error(w, "missing session", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requireSession(w http.ResponseWriter, r *http.Request, id interface{}) bool {
	sessionID := strings.TrimSpace(r.Header.Get(protocol.MCPSessionHeader))
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if sessionID == "" || !ok {
		writeError(w, http.StatusNotFound, id, &rpcError{
			Code:    rpcCodeInvalidRequest,
			Message: "session not found",
			Data:    &rpcErrorData{Code: protocol.ErrorCodeSessionNotFound, Retryable: false},
		})
		return false
	}
	return true
}

func (s *Server) authorize(r *http.Request) bool {
	token := strings.TrimSpace(s.cfg.AuthToken)
	if token == "" {
		return true
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix)) == token
}

func newSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
