package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/artmatsak/grace/internal/grace/app"
	"github.com/artmatsak/grace/internal/grace/chat"
	"github.com/artmatsak/grace/internal/grace/config"
	"github.com/artmatsak/grace/internal/grace/matrix"
	"github.com/artmatsak/grace/internal/grace/webchat"
)

var withMatrix bool

// serveCmd runs the web chat server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web chat over WebSocket",
	Long: `Serve the web chat: GET /chat upgrades to a WebSocket carrying one
conversation, GET /healthz reports liveness.

With --matrix the Matrix frontend runs alongside it from the same process.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// matrixCmd runs the Matrix frontend on its own
var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Answer customers in Matrix rooms",
	Long: `Connect to a Matrix homeserver and hold one conversation per room.
Requires matrix.homeserver, matrix.user_id and matrix.access_token.`,
	Args: cobra.NoArgs,
	RunE: runMatrixCmd,
}

func init() {
	serveCmd.Flags().BoolVar(&withMatrix, "matrix", false, "Also run the Matrix frontend")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, cfg, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	g, ctx := errgroup.WithContext(cmd.Context())

	srv := webchat.New(cfg.Server.Addr, func(out chat.OutputFunc) webchat.Conversation {
		return a.NewSession(out)
	}, webchat.Options{
		MessagesPerSecond: cfg.Server.MessagesPerSecond,
		Burst:             cfg.Server.Burst,
	})
	g.Go(func() error { return srv.Serve(ctx) })

	if withMatrix {
		g.Go(func() error { return runMatrix(ctx, a, cfg.Matrix) })
	}
	return g.Wait()
}

func runMatrixCmd(cmd *cobra.Command, args []string) error {
	a, cfg, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	return runMatrix(cmd.Context(), a, cfg.Matrix)
}

func runMatrix(ctx context.Context, a *app.App, cfg config.MatrixConfig) error {
	if cfg.Homeserver == "" || cfg.UserID == "" || cfg.AccessToken == "" {
		return errors.New("matrix: homeserver, user_id and access_token are required")
	}
	client, err := matrix.New(matrix.Config{
		Homeserver:  cfg.Homeserver,
		UserID:      cfg.UserID,
		AccessToken: cfg.AccessToken,
	})
	if err != nil {
		return err
	}
	gw := matrix.NewGateway(client, func(out chat.OutputFunc) matrix.Conversation {
		return a.NewSession(out)
	})

	slog.Info("matrix frontend starting", "user_id", client.UserID(), "rooms", len(cfg.Rooms))
	return client.Run(ctx, cfg.Rooms, gw.HandleMessage)
}
