// Grace is a chatbot that serves a small business's customers and can act on
// their behalf through backend commands.
//
// Configuration is read from --config (YAML) and then overridden by GRACE_*
// environment variables. Common variables:
//
//	GRACE_DOMAIN              - path to domain.yaml (default: domain.yaml)
//	GRACE_LLM_PROVIDER        - "openai" (default) or "gemini"
//	GRACE_LLM_API_KEY         - provider API key (falls back to OPENAI_API_KEY or GEMINI_API_KEY)
//	GRACE_LLM_MODEL           - model name (default: gpt-3.5-turbo)
//	GRACE_STORAGE_DRIVER      - "memory" (default) or "sqlite"
//	GRACE_STORAGE_PATH        - SQLite database path
//	GRACE_SERVER_ADDR         - web chat listen address (default ":8080")
//	GRACE_MATRIX_HOMESERVER   - Matrix homeserver URL
//	GRACE_MATRIX_USER_ID      - bot Matrix ID
//	GRACE_MATRIX_ACCESS_TOKEN - bot access token
//	GRACE_LOG_LEVEL           - "debug", "info", "warn", "error" (default: "info")
//	GRACE_LOG_FORMAT          - "text" or "json" (default: "text")
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/artmatsak/grace/common/version"
	"github.com/artmatsak/grace/internal/grace/app"
	"github.com/artmatsak/grace/internal/grace/config"
	"github.com/artmatsak/grace/internal/grace/observability"
)

var (
	configPath string
	domainPath string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "grace",
	Short: "Customer-facing chatbot with backend commands",
	Long: `Grace talks to a business's customers, answers questions from a
knowledge base and books or cancels tables through backend commands.

Run "grace chat" for a console conversation or "grace serve" for the web chat.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Info())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.yaml (optional)")
	rootCmd.PersistentFlags().StringVarP(&domainPath, "domain", "d", "", "Path to domain.yaml (overrides the config)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(matrixCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the configuration named by the persistent flags and sets
// up logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if domainPath != "" {
		cfg.Domain = domainPath
	}
	observability.Setup(cfg.Log.Level, cfg.Log.Format)
	slog.Debug("effective configuration\n" + cfg.Redacted())
	return cfg, nil
}

// bootstrap loads configuration and the domain and builds the App.
func bootstrap(ctx context.Context) (*app.App, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	d, err := config.LoadDomain(cfg.Domain)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(ctx, cfg, d.Domain)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize grace: %w", err)
	}
	return a, cfg, nil
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		slog.Warn("close failed", "err", err)
	}
}
