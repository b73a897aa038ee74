package taskserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/kastheco/tareas/log"
)

const shutdownTimeout = 5 * time.Second

// Server is a running task API bound to a local listener.
type Server struct {
	store   Store
	server  *http.Server
	url     string
	prefix  string
	done    chan struct{}
	stopped sync.Once
}

// Start serves store on addr (host:port; port 0 picks a free one) in a
// background goroutine. The server owns store and closes it on Stop.
func Start(store Store, addr string, opts ...HandlerOption) (*Server, error) {
	cfg := handlerConfig{prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(&cfg)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("task server: listen: %w", err)
	}

	s := &Server{
		store:  store,
		server: &http.Server{Handler: NewHandler(store, opts...), ReadHeaderTimeout: 10 * time.Second},
		url:    "http://" + ln.Addr().String(),
		prefix: cfg.prefix,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorLog.Printf("task server: serve: %v", err)
		}
	}()

	return s, nil
}

// StartEmbedded opens the SQLite DB at dbPath and serves it on
// 127.0.0.1:port. Use port 0 for auto-assignment.
func StartEmbedded(dbPath string, port int, opts ...HandlerOption) (*Server, error) {
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("embedded server: open db: %w", err)
	}
	s, err := Start(store, fmt.Sprintf("127.0.0.1:%d", port), opts...)
	if err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

// URL returns the listener root (e.g. "http://127.0.0.1:7433").
func (s *Server) URL() string { return s.url }

// APIURL returns the URL a gateway should be pointed at.
func (s *Server) APIURL() string { return s.url + s.prefix }

// Store returns the backing store.
func (s *Server) Store() Store { return s.store }

// Done is closed once the server has stopped serving.
func (s *Server) Done() <-chan struct{} { return s.done }

// Stop gracefully shuts down the HTTP server and closes the store.
// It is safe to call Stop multiple times.
func (s *Server) Stop() {
	s.stopped.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			log.WarningLog.Printf("task server: shutdown: %v", err)
		}
		if err := s.store.Close(); err != nil {
			log.WarningLog.Printf("task server: close store: %v", err)
		}
	})
}
