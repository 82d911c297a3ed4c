package matrix

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/artmatsak/grace/common/retry"
	"github.com/artmatsak/grace/common/trace"
	"github.com/artmatsak/grace/internal/grace/chat"
	"github.com/artmatsak/grace/internal/grace/observability"
)

// Sender posts text to a room. *Client satisfies it.
type Sender interface {
	SendText(ctx context.Context, roomID, text string) error
}

// Conversation is the part of a session the gateway drives.
type Conversation interface {
	Start(ctx context.Context) error
	SendResponses(ctx context.Context, utterances []string) error
	IsEnded() bool
}

// SessionFactory creates a conversation whose output goes to output.
type SessionFactory func(output chat.OutputFunc) Conversation

// Gateway maps rooms to conversations. A message in a room without a live
// conversation starts one; the assistant greets first and then receives the
// message.
type Gateway struct {
	sender  Sender
	factory SessionFactory
	retry   retry.Config

	mu    sync.Mutex
	rooms map[string]*room
}

type room struct {
	mu      sync.Mutex
	conv    Conversation
	traceID string
}

// NewGateway creates a Gateway.
func NewGateway(sender Sender, factory SessionFactory) *Gateway {
	return &Gateway{
		sender:  sender,
		factory: factory,
		retry:   retry.Config{MaxAttempts: 3, InitialDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second},
		rooms:   make(map[string]*room),
	}
}

// HandleMessage feeds one customer message into the room's conversation.
// Messages in the same room are processed one at a time.
func (g *Gateway) HandleMessage(ctx context.Context, roomID, sender, body string) {
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	r := g.room(roomID)
	r.mu.Lock()
	defer r.mu.Unlock()

	fresh := r.conv == nil || r.conv.IsEnded()
	if fresh {
		r.traceID = trace.GenerateID()
	}
	ctx = trace.WithTraceID(ctx, r.traceID)
	log := observability.WithTrace(ctx).With("room", roomID, "sender", sender)

	if fresh {
		r.conv = g.factory(func(text string) { g.post(ctx, roomID, text) })
		log.Info("conversation started")
		if err := r.conv.Start(ctx); err != nil {
			log.Error("start conversation", "err", err)
			g.post(ctx, roomID, "Sorry, I'm unable to help right now. Please try again later.")
			r.conv = nil
			return
		}
		if r.conv.IsEnded() {
			return
		}
	}

	if err := r.conv.SendResponses(ctx, []string{body}); err != nil {
		log.Error("send responses", "err", err)
		g.post(ctx, roomID, "Sorry, something went wrong. Please try again.")
		return
	}
	if r.conv.IsEnded() {
		log.Info("conversation ended")
	}
}

// Active reports whether roomID has a live conversation.
func (g *Gateway) Active(roomID string) bool {
	r := g.room(roomID)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conv != nil && !r.conv.IsEnded()
}

func (g *Gateway) room(roomID string) *room {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[roomID]
	if !ok {
		r = &room{}
		g.rooms[roomID] = r
	}
	return r
}

func (g *Gateway) post(ctx context.Context, roomID, text string) {
	err := retry.Do(ctx, g.retry, func() error {
		return g.sender.SendText(ctx, roomID, text)
	})
	if err != nil {
		slog.Error("matrix send failed", "room", roomID, "err", err)
	}
}
