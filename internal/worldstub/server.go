// Package worldstub serves an in-memory world over the same HTTP interface
// the client uses, for local development and tests.
package worldstub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzip"
)

// Server exposes a World at /blocks, /chunks, /command and /buildarea.
type Server struct {
	world  *World
	log    *slog.Logger
	router *mux.Router

	mu         sync.Mutex
	gzipChunks bool
	failPuts   []int
	batchPuts  []BatchRequest
}

// BatchRequest records one multi-line PUT /blocks as received.
type BatchRequest struct {
	ID    string
	Lines []string
}

// New creates a Server for world.
func New(world *World, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{world: world, log: log, router: mux.NewRouter()}

	s.router.HandleFunc("/blocks", s.handleGetBlock).Methods(http.MethodGet)
	s.router.HandleFunc("/blocks", s.handlePutBlocks).Methods(http.MethodPut)
	s.router.HandleFunc("/chunks", s.handleChunks).Methods(http.MethodGet)
	s.router.HandleFunc("/command", s.handleCommand).Methods(http.MethodPost)
	s.router.HandleFunc("/buildarea", s.handleBuildArea).Methods(http.MethodGet)
	s.router.Use(s.logRequests)
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// World returns the served world.
func (s *Server) World() *World {
	return s.world
}

// SetGzipChunks makes /chunks frame its payloads with gzip.
func (s *Server) SetGzipChunks(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gzipChunks = on
}

// FailPuts makes the next PUT /blocks requests answer with the given status
// codes, one per request, without applying them.
func (s *Server) FailPuts(codes ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPuts = append(s.failPuts, codes...)
}

// Batches returns the multi-line PUT /blocks requests received so far,
// including failed ones.
func (s *Server) Batches() []BatchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]BatchRequest(nil), s.batchPuts...)
}

// Start listens on addr and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	s.log.Info("world stub started", "addr", listener.Addr().String())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	s.log.Info("world stub shutting down")
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("request", "method", r.Method, "url", r.URL.String())
		next.ServeHTTP(w, r)
	})
}

func queryInts(r *http.Request, names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		v, err := strconv.Atoi(r.URL.Query().Get(name))
		if err != nil {
			return nil, fmt.Errorf("query parameter %s: %w", name, err)
		}
		out[i] = v
	}
	return out, nil
}

func (s *Server) handleGetBlock(w http.ResponseWriter, r *http.Request) {
	p, err := queryInts(r, "x", "y", "z")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	io.WriteString(w, s.world.GetBlock(p[0], p[1], p[2]))
}

func (s *Server) handlePutBlocks(w http.ResponseWriter, r *http.Request) {
	origin, err := queryInts(r, "x", "y", "z")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	batch := len(strings.Fields(lines[0])) > 1

	s.mu.Lock()
	if batch {
		s.batchPuts = append(s.batchPuts, BatchRequest{ID: r.Header.Get("X-Batch-Id"), Lines: lines})
	}
	var failCode int
	if len(s.failPuts) > 0 {
		failCode, s.failPuts = s.failPuts[0], s.failPuts[1:]
	}
	s.mu.Unlock()

	if failCode != 0 {
		http.Error(w, "injected failure", failCode)
		return
	}

	results := make([]string, 0, len(lines))
	for _, line := range lines {
		results = append(results, s.applyLine(origin, line))
	}
	io.WriteString(w, strings.Join(results, "\n"))
}

// applyLine places one block. A line is either a block id placed at the
// query position, or "x y z block" where each coordinate may be relative
// to the query position with a ~ prefix.
func (s *Server) applyLine(origin []int, line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "0"
	}
	if len(fields) == 1 {
		return placed(s.world.SetBlock(origin[0], origin[1], origin[2], fields[0]))
	}
	if len(fields) != 4 {
		return "malformed line"
	}

	var pos [3]int
	for i := 0; i < 3; i++ {
		f := fields[i]
		rel := strings.HasPrefix(f, "~")
		f = strings.TrimPrefix(f, "~")
		v := 0
		if f != "" {
			n, err := strconv.Atoi(f)
			if err != nil {
				return "malformed line"
			}
			v = n
		}
		if rel {
			v += origin[i]
		}
		pos[i] = v
	}
	return placed(s.world.SetBlock(pos[0], pos[1], pos[2], fields[3]))
}

func placed(changed bool) string {
	if changed {
		return "1"
	}
	return "0"
}

func (s *Server) handleChunks(w http.ResponseWriter, r *http.Request) {
	p, err := queryInts(r, "x", "z", "dx", "dz")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if p[2] < 0 || p[3] < 0 || p[2]*p[3] > 1024 {
		http.Error(w, "chunk rectangle too large", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	gz := s.gzipChunks
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/octet-stream")
	if !gz {
		if err := s.world.EncodeChunks(w, p[0], p[1], p[2], p[3]); err != nil {
			s.log.Error("encode chunks", "error", err)
		}
		return
	}

	zw := gzip.NewWriter(w)
	if err := s.world.EncodeChunks(zw, p[0], p[1], p[2], p[3]); err != nil {
		s.log.Error("encode chunks", "error", err)
	}
	if err := zw.Close(); err != nil {
		s.log.Error("close gzip writer", "error", err)
	}
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd := strings.TrimSpace(string(body))
	s.world.recordCommand(cmd)
	fmt.Fprintf(w, "executed: %s", cmd)
}

func (s *Server) handleBuildArea(w http.ResponseWriter, r *http.Request) {
	s.world.mu.RLock()
	area := s.world.buildArea
	s.world.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if area == nil {
		io.WriteString(w, "-1")
		return
	}
	json.NewEncoder(w).Encode(area)
}
