// Package callback runs the ephemeral local HTTP endpoint that receives the
// browser redirect carrying a freshly created API token.
package callback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const successPage = `<!DOCTYPE html>
<html>
<head><title>Login successful</title></head>
<body>
<p>Authentication complete. You can close this tab and return to the terminal.</p>
</body>
</html>`

// Server accepts exactly one browser redirect on an ephemeral localhost port
// and hands the received code to the goroutine blocked in WaitForCode. The
// port is reserved for the lifetime of the server; Close releases it.
type Server struct {
	listener net.Listener
	server   *http.Server

	codeCh    chan string
	deliver   sync.Once
	closeOnce sync.Once
}

// NewServer binds a listener to an ephemeral port on 127.0.0.1 and starts
// serving in the background. Callers must Close the server on every exit
// path to release the port.
func NewServer() (*Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to reserve a local port: %w", err)
	}

	s := &Server{
		listener: listener,
		codeCh:   make(chan string, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleCallback)
	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Debug("callback server stopped")
		}
	}()

	log.WithField("url", s.CallbackURL()).Debug("callback server listening")
	return s, nil
}

// CallbackURL is the address the browser redirects to.
func (s *Server) CallbackURL() string {
	return fmt.Sprintf("http://%s", s.listener.Addr().String())
}

// WaitForCode blocks until the browser delivers a code or ctx is cancelled.
// Only the first request is honored; a redirect without a code yields the
// empty string, which the caller treats as a terminal failure.
func (s *Server) WaitForCode(ctx context.Context) (string, error) {
	select {
	case code := <-s.codeCh:
		return code, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close shuts the server down and releases the port. Safe to call more than
// once and on every exit path.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			_ = s.listener.Close()
		}
	})
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	code := r.URL.Query().Get("code")
	s.deliver.Do(func() {
		s.codeCh <- code
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(successPage)); err != nil {
		log.WithError(err).Debug("failed to write callback response")
	}
}
