package utils

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	DEFAULT_READ_TIMEOUT  = 60 * time.Second
	DEFAULT_WRITE_TIMEOUT = DEFAULT_READ_TIMEOUT
	SHUTDOWN_TIMEOUT      = 30 * time.Second
)

// Server wraps http.Server with signal-driven graceful shutdown: in-flight
// requests get SHUTDOWN_TIMEOUT to finish before the process exits.
type Server struct {
	*http.Server

	signalChan   chan os.Signal
	shutdownChan chan struct{}
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		Server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		signalChan:   make(chan os.Signal, 1),
		shutdownChan: make(chan struct{}),
	}
}

// ListenAndServe starts serving and blocks until shutdown completes.
func (srv *Server) ListenAndServe() error {
	go srv.handleSignals()
	err := srv.Server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		// Wait until Shutdown finished draining
		<-srv.shutdownChan
		return nil
	}
	return err
}

func (srv *Server) handleSignals() {
	signal.Notify(
		srv.signalChan,
		syscall.SIGTERM,
		syscall.SIGINT,
	)

	sig := <-srv.signalChan
	Sugar.Infof("received %s, graceful shutting down HTTP server", sig)
	srv.shutdownHTTPServer()
}

func (srv *Server) shutdownHTTPServer() {
	ctx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Sugar.Errorf("HTTP server shutdown error: %v", err)
	} else {
		Sugar.Info("HTTP server shutdown success")
	}
	close(srv.shutdownChan)
}

// GraceServer starts an HTTP server with graceful shutdown.
func GraceServer(addr string, handler http.Handler) error {
	return NewServer(addr, handler, DEFAULT_READ_TIMEOUT, DEFAULT_WRITE_TIMEOUT).ListenAndServe()
}
