// Package webchat serves grace conversations over a websocket. Each
// connection owns one session; frames are defined in common/spec/envelope.
//
// Endpoints:
//
//	GET /healthz → {"ok": true}
//	GET /chat    → websocket upgrade
package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/artmatsak/grace/common/spec/envelope"
	"github.com/artmatsak/grace/common/trace"
	"github.com/artmatsak/grace/internal/grace/chat"
	"github.com/artmatsak/grace/internal/grace/observability"
)

const (
	maxFrameBytes = 64 << 10
	writeTimeout  = 10 * time.Second
)

// Conversation is the part of a session a connection drives.
type Conversation interface {
	Start(ctx context.Context) error
	SendResponses(ctx context.Context, utterances []string) error
	IsEnded() bool
}

// SessionFactory creates a fresh conversation reporting to output.
type SessionFactory func(output chat.OutputFunc) Conversation

// Options tunes a Server.
type Options struct {
	// MessagesPerSecond limits inbound user frames per connection. Zero
	// disables limiting.
	MessagesPerSecond float64
	// Burst is the limiter bucket size. Values below 1 are treated as 1.
	Burst int
}

// Server is the web chat HTTP server.
type Server struct {
	addr     string
	factory  SessionFactory
	opts     Options
	upgrader websocket.Upgrader
	server   *http.Server
}

// New creates a Server listening on addr.
func New(addr string, factory SessionFactory, opts Options) *Server {
	if opts.Burst < 1 {
		opts.Burst = 1
	}
	s := &Server{
		addr:     addr,
		factory:  factory,
		opts:     opts,
		upgrader: websocket.Upgrader{CheckOrigin: isOriginAllowed},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/chat", s.handleChat)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the routes, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Serve listens on the configured address until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("webchat listen %s: %w", s.addr, err)
	}
	slog.Info("webchat listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- s.server.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	ctx := trace.WithTraceID(r.Context(), trace.GenerateID())
	c := &connection{
		conn:    conn,
		log:     observability.WithTrace(ctx).With("remote", r.RemoteAddr),
		limiter: s.newLimiter(),
	}
	c.run(ctx, s.factory(c.sendAssistant))
}

func (s *Server) newLimiter() *rate.Limiter {
	if s.opts.MessagesPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, s.opts.Burst)
	}
	return rate.NewLimiter(rate.Limit(s.opts.MessagesPerSecond), s.opts.Burst)
}

// connection serializes all reads and writes on one goroutine: the session
// calls sendAssistant synchronously from Start and SendResponses.
type connection struct {
	conn    *websocket.Conn
	log     *slog.Logger
	limiter *rate.Limiter
}

func (c *connection) run(ctx context.Context, conv Conversation) {
	c.log.Info("webchat session opened")
	defer c.log.Info("webchat session closed")

	if err := conv.Start(ctx); err != nil {
		c.fail("could not start the conversation", err)
		return
	}
	for !conv.IsEnded() {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("websocket read ended", "err", err)
			}
			return
		}
		frame, err := envelope.ParseFrame(data)
		if err != nil {
			c.write(envelope.Error(err.Error()))
			continue
		}
		if !c.limiter.Allow() {
			c.write(envelope.Error("rate limit exceeded, slow down"))
			continue
		}
		if err := conv.SendResponses(ctx, frame.Utterances()); err != nil {
			c.fail("the assistant is unavailable", err)
			return
		}
	}
	c.write(envelope.End())
	c.close(websocket.CloseNormalClosure, "conversation ended")
}

func (c *connection) sendAssistant(text string) {
	c.write(envelope.Assistant(text))
}

func (c *connection) write(f envelope.Frame) {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(f); err != nil {
		c.log.Debug("websocket write failed", "err", err)
	}
}

func (c *connection) fail(msg string, err error) {
	c.log.Error("webchat session failed", "err", err)
	c.write(envelope.Error(msg))
	c.close(websocket.CloseInternalServerErr, msg)
}

func (c *connection) close(code int, reason string) {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(writeTimeout))
}

// isOriginAllowed accepts same-host browsers and non-browser clients.
func isOriginAllowed(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || strings.TrimSpace(u.Host) == "" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
