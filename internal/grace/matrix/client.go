// Package matrix connects grace to Matrix rooms. Every joined room holds at
// most one conversation at a time; customers talk to the assistant by
// posting plain text messages.
package matrix

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// Config holds the Matrix connection parameters.
type Config struct {
	Homeserver  string
	UserID      string
	AccessToken string
}

// MessageHandler receives each text message from another user.
type MessageHandler func(ctx context.Context, roomID, sender, body string)

// Client wraps a mautrix client for the sync loop and plain-text sends.
type Client struct {
	mxc *mautrix.Client
	cfg Config
}

// New creates a client. It does not connect until Run.
func New(cfg Config) (*Client, error) {
	mxc, err := mautrix.NewClient(cfg.Homeserver, id.UserID(cfg.UserID), cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("create matrix client: %w", err)
	}
	return &Client{mxc: mxc, cfg: cfg}, nil
}

// Run joins rooms, then syncs until ctx is cancelled, reconnecting with
// exponential backoff. handler is called on the sync goroutine.
func (c *Client) Run(ctx context.Context, rooms []string, handler MessageHandler) error {
	slog.Warn("Matrix E2EE is not enabled; messages are in plaintext")

	syncer, ok := c.mxc.Syncer.(*mautrix.DefaultSyncer)
	if !ok {
		return fmt.Errorf("unexpected matrix syncer %T", c.mxc.Syncer)
	}
	syncer.OnEventType(event.EventMessage, func(evCtx context.Context, evt *event.Event) {
		if evt.Sender == id.UserID(c.cfg.UserID) {
			return
		}
		msg := evt.Content.AsMessage()
		if msg == nil || msg.MsgType != event.MsgText {
			return
		}
		handler(ctx, evt.RoomID.String(), evt.Sender.String(), msg.Body)
	})

	for _, room := range rooms {
		if _, err := c.mxc.JoinRoomByID(ctx, id.RoomID(room)); err != nil {
			// mautrix also errors when already a member.
			slog.Info("join room result", "room", room, "err", err)
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 5 * time.Minute
	for {
		err := c.mxc.SyncWithContext(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			b.Reset()
			continue
		}
		wait := b.NextBackOff()
		slog.Error("matrix sync error; reconnecting", "err", err, "backoff", wait)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// SendText posts a plain-text message to roomID.
func (c *Client) SendText(ctx context.Context, roomID, text string) error {
	_, err := c.mxc.SendText(ctx, id.RoomID(roomID), text)
	return err
}

// UserID returns the bot's Matrix user ID.
func (c *Client) UserID() string { return c.cfg.UserID }
