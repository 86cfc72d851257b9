// Package server exposes the probe pipeline and the tool registry over HTTP
// for automated callers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/semaphore"

	"github.com/codefionn/curlgate/internal/consts"
	"github.com/codefionn/curlgate/internal/logger"
	"github.com/codefionn/curlgate/internal/probe"
	"github.com/codefionn/curlgate/internal/tools"
)

// Server provides the HTTP interface
type Server struct {
	addr          string
	pipeline      *probe.Pipeline
	registry      *tools.Registry
	router        *httprouter.Router
	mu            sync.Mutex
	server        *http.Server
	slots         *semaphore.Weighted
	maxConcurrent int
	log           *logger.Logger
}

// New creates a server. maxConcurrent bounds the number of child processes
// the server keeps alive at once across all requests.
func New(addr string, pipeline *probe.Pipeline, registry *tools.Registry, maxConcurrent int) *Server {
	if maxConcurrent <= 0 {
		maxConcurrent = consts.DefaultMaxConcurrent
	}
	s := &Server{
		addr:          addr,
		pipeline:      pipeline,
		registry:      registry,
		router:        httprouter.New(),
		slots:         semaphore.NewWeighted(int64(maxConcurrent)),
		maxConcurrent: maxConcurrent,
		log:           logger.Global().WithPrefix("server"),
	}

	s.setupRoutes()
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/v1/tools", s.handleListTools)
	s.router.POST("/v1/curl", s.handleCurl)
	s.router.POST("/v1/tools/:name", s.handleToolCall)

	s.router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		s.log.Error("panic serving %s %s: %v", r.Method, r.URL.Path, v)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// Start listens on the configured address and blocks until Stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln and blocks until Stop. Open connections
// are capped independently of the probe slots.
func (s *Server) Serve(ln net.Listener) error {
	ln = netutil.LimitListener(ln, consts.MaxServerConnections)
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: consts.ServerReadHeaderTimeout,
		WriteTimeout:      consts.ServerWriteTimeout,
		ErrorLog:          slog.NewLogLogger(logger.NewSlogHandler(s.log), slog.LevelWarn),
	}
	s.mu.Lock()
	s.server = httpServer
	s.mu.Unlock()

	s.log.Info("listening on %s (max_concurrent=%d)", ln.Addr(), s.maxConcurrent)
	err := httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	httpServer := s.server
	s.mu.Unlock()
	if httpServer == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, consts.Timeout5Seconds)
		defer cancel()
	}
	return httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.registry.ToJSONSchema())
}

type curlRequest struct {
	Command string `json:"command"`
}

func (s *Server) handleCurl(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var command string
	if isPlainText(r) {
		command = string(body)
	} else {
		var req curlRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
		command = req.Command
	}
	if strings.TrimSpace(command) == "" {
		writeError(w, http.StatusBadRequest, "command is required")
		return
	}

	if !s.acquire(w, r, 1) {
		return
	}
	defer s.slots.Release(1)

	start := time.Now()
	resp := s.pipeline.Run(r.Context(), command)
	s.log.Debug("POST /v1/curl %s failure=%q in %s", resp.Digest(), resp.Failure(), time.Since(start))

	// The failure shape is part of the response contract, so the status
	// stays 200 either way.
	writeJSON(w, http.StatusOK, resp)
}

type toolCallRequest struct {
	ID         string                 `json:"id"`
	Parameters map[string]interface{} `json:"parameters"`
}

func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	name := ps.ByName("name")
	if _, ok := s.registry.GetExecutor(name); !ok {
		writeError(w, http.StatusNotFound, "tool not found: "+name)
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var req toolCallRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	weight := int64(1)
	if name == tools.ToolNameParallelCurl {
		weight = int64(s.maxConcurrent)
	}
	if !s.acquire(w, r, weight) {
		return
	}
	defer s.slots.Release(weight)

	result := s.registry.Execute(r.Context(), &tools.ToolCall{
		ID:         req.ID,
		Name:       name,
		Parameters: req.Parameters,
	})
	s.log.Debug("POST /v1/tools/%s id=%s error=%q", name, req.ID, result.Error)

	writeJSON(w, http.StatusOK, result)
}

// acquire waits for capacity; it fails only when the client goes away.
func (s *Server) acquire(w http.ResponseWriter, r *http.Request, weight int64) bool {
	if err := s.slots.Acquire(r.Context(), weight); err != nil {
		writeError(w, http.StatusServiceUnavailable, "request canceled while waiting for capacity")
		return false
	}
	return true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, consts.MaxRequestBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "failed to read body")
		return nil, false
	}
	return body, true
}

func isPlainText(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "text/plain"
}

// writeJSON encodes v before committing the status so an encoding failure
// still reaches the client as a JSON error.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("server: failed to encode response: %v", err)
		status = http.StatusInternalServerError
		data, _ = json.Marshal(map[string]string{"error": "failed to encode response"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		logger.Warn("server: failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
